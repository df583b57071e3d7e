package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// Key type tags. Their order defines the order between key types.
const (
	tagArrayEnd byte = 0x00
	tagNumber   byte = 0x10
	tagString   byte = 0x20
	tagBinary   byte = 0x30
	tagArray    byte = 0x40

	escapeByte     byte = 0x00
	escapedZero    byte = 0xff
	terminatorByte byte = 0x01
)

// NormalizeKey validates key and converts it into its canonical form:
// float64, string, []byte or []interface{} of canonical keys.
func NormalizeKey(key interface{}) (interface{}, error) {
	switch v := key.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrInvalidKey)
	case float64:
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: NaN", ErrInvalidKey)
		}
		return v, nil
	case float32:
		return NormalizeKey(float64(v))
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
		}
		return NormalizeKey(f)
	case string:
		return v, nil
	case []byte:
		c := make([]byte, len(v))
		copy(c, v)
		return c, nil
	case []interface{}:
		arr := make([]interface{}, len(v))
		for i, elem := range v {
			n, err := NormalizeKey(elem)
			if err != nil {
				return nil, err
			}
			arr[i] = n
		}
		return arr, nil
	}

	// Other slice and array types.
	rv := reflect.ValueOf(key)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		arr := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			n, err := NormalizeKey(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			arr[i] = n
		}
		return arr, nil
	}

	return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidKey, key)
}

// IsValidKey reports whether key can be used as a key.
func IsValidKey(key interface{}) bool {
	_, err := NormalizeKey(key)
	return err == nil
}

// EncodeKey encodes a key into its binary form. The encoding preserves key
// order under bytewise comparison and no encoded key is a prefix of another.
func EncodeKey(key interface{}) ([]byte, error) {
	n, err := NormalizeKey(key)
	if err != nil {
		return nil, err
	}
	return appendKey(nil, n), nil
}

func appendKey(buf []byte, key interface{}) []byte {
	switch v := key.(type) {
	case float64:
		bits := math.Float64bits(v)
		if bits&(1<<63) != 0 {
			bits = ^bits
		} else {
			bits |= 1 << 63
		}
		buf = append(buf, tagNumber)
		return binary.BigEndian.AppendUint64(buf, bits)
	case string:
		buf = append(buf, tagString)
		return appendEscaped(buf, []byte(v))
	case []byte:
		buf = append(buf, tagBinary)
		return appendEscaped(buf, v)
	case []interface{}:
		buf = append(buf, tagArray)
		for _, elem := range v {
			buf = appendKey(buf, elem)
		}
		return append(buf, tagArrayEnd)
	}
	// Keys are normalized before encoding.
	panic(fmt.Sprintf("storage: cannot encode key of type %T", key))
}

func appendEscaped(buf, data []byte) []byte {
	for _, b := range data {
		if b == escapeByte {
			buf = append(buf, escapeByte, escapedZero)
		} else {
			buf = append(buf, b)
		}
	}
	return append(buf, escapeByte, terminatorByte)
}

// DecodeKey decodes the key at the start of data and returns it together with
// the number of bytes it occupied.
func DecodeKey(data []byte) (key interface{}, n int, err error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("%w: empty encoding", ErrInvalidKey)
	}

	switch data[0] {
	case tagNumber:
		if len(data) < 9 {
			return nil, 0, fmt.Errorf("%w: truncated number", ErrInvalidKey)
		}
		bits := binary.BigEndian.Uint64(data[1:9])
		if bits&(1<<63) != 0 {
			bits &^= 1 << 63
		} else {
			bits = ^bits
		}
		return math.Float64frombits(bits), 9, nil
	case tagString:
		raw, n, err := decodeEscaped(data[1:])
		if err != nil {
			return nil, 0, err
		}
		return string(raw), n + 1, nil
	case tagBinary:
		raw, n, err := decodeEscaped(data[1:])
		if err != nil {
			return nil, 0, err
		}
		return raw, n + 1, nil
	case tagArray:
		arr := make([]interface{}, 0)
		pos := 1
		for {
			if pos >= len(data) {
				return nil, 0, fmt.Errorf("%w: truncated array", ErrInvalidKey)
			}
			if data[pos] == tagArrayEnd {
				return arr, pos + 1, nil
			}
			elem, n, err := DecodeKey(data[pos:])
			if err != nil {
				return nil, 0, err
			}
			arr = append(arr, elem)
			pos += n
		}
	default:
		return nil, 0, fmt.Errorf("%w: unknown type tag 0x%02x", ErrInvalidKey, data[0])
	}
}

func decodeEscaped(data []byte) ([]byte, int, error) {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != escapeByte {
			out = append(out, data[i])
			continue
		}
		if i+1 >= len(data) {
			break
		}
		switch data[i+1] {
		case terminatorByte:
			return out, i + 2, nil
		case escapedZero:
			out = append(out, 0x00)
			i++
		default:
			return nil, 0, fmt.Errorf("%w: bad escape sequence", ErrInvalidKey)
		}
	}
	return nil, 0, fmt.Errorf("%w: unterminated key", ErrInvalidKey)
}

// CompareKeys compares two keys in key order. It returns -1, 0 or 1.
func CompareKeys(a, b interface{}) (int, error) {
	encA, err := EncodeKey(a)
	if err != nil {
		return 0, err
	}
	encB, err := EncodeKey(b)
	if err != nil {
		return 0, err
	}
	return bytes.Compare(encA, encB), nil
}
