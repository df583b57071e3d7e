package storage

import (
	"bytes"
	"fmt"
)

// KeyRange is an interval of keys. A nil bound is unbounded.
type KeyRange struct {
	Lower     interface{}
	Upper     interface{}
	LowerOpen bool
	UpperOpen bool
}

// Only returns a range that contains only key.
func Only(key interface{}) *KeyRange {
	return &KeyRange{Lower: key, Upper: key}
}

// LowerBound returns a range of all keys above key.
func LowerBound(key interface{}, open bool) *KeyRange {
	return &KeyRange{Lower: key, LowerOpen: open}
}

// UpperBound returns a range of all keys below key.
func UpperBound(key interface{}, open bool) *KeyRange {
	return &KeyRange{Upper: key, UpperOpen: open}
}

// Bound returns a range between lower and upper.
func Bound(lower, upper interface{}, lowerOpen, upperOpen bool) *KeyRange {
	return &KeyRange{
		Lower:     lower,
		Upper:     upper,
		LowerOpen: lowerOpen,
		UpperOpen: upperOpen,
	}
}

// Check validates the range bounds.
func (r *KeyRange) Check() error {
	_, _, err := r.interval()
	return err
}

// Includes reports whether key lies within the range.
func (r *KeyRange) Includes(key interface{}) (bool, error) {
	enc, err := EncodeKey(key)
	if err != nil {
		return false, err
	}
	from, to, err := r.interval()
	if err != nil {
		return false, err
	}
	if from != nil && bytes.Compare(enc, from) < 0 {
		return false, nil
	}
	if to != nil && bytes.Compare(enc, to) >= 0 {
		return false, nil
	}
	return true, nil
}

func (r *KeyRange) String() string {
	if r == nil {
		return "(-inf, +inf)"
	}
	open, closing := "[", "]"
	if r.LowerOpen {
		open = "("
	}
	if r.UpperOpen {
		closing = ")"
	}
	lower, upper := interface{}("-inf"), interface{}("+inf")
	if r.Lower != nil {
		lower = r.Lower
	}
	if r.Upper != nil {
		upper = r.Upper
	}
	return fmt.Sprintf("%s%v, %v%s", open, lower, upper, closing)
}

// interval returns the range as the byte interval [from, to) over encoded
// keys. A nil range or nil bound is unbounded.
func (r *KeyRange) interval() (from, to []byte, err error) {
	if r == nil {
		return nil, nil, nil
	}

	var lower, upper []byte
	if r.Lower != nil {
		lower, err = EncodeKey(r.Lower)
		if err != nil {
			return nil, nil, fmt.Errorf("lower bound: %w", err)
		}
		if r.LowerOpen {
			from = PrefixEnd(lower)
		} else {
			from = lower
		}
	}
	if r.Upper != nil {
		upper, err = EncodeKey(r.Upper)
		if err != nil {
			return nil, nil, fmt.Errorf("upper bound: %w", err)
		}
		if r.UpperOpen {
			to = upper
		} else {
			to = PrefixEnd(upper)
		}
	}

	if lower != nil && upper != nil {
		switch c := bytes.Compare(lower, upper); {
		case c > 0:
			return nil, nil, fmt.Errorf("%w: lower bound is greater than upper bound", ErrDataError)
		case c == 0 && (r.LowerOpen || r.UpperOpen):
			return nil, nil, fmt.Errorf("%w: empty range with open bound", ErrDataError)
		}
	}

	return from, to, nil
}
