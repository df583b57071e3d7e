package dsd

// dynamic structured data
// check here for some benchmarks: https://github.com/alecthomas/go_serialization_benchmarks

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/safing/objectbase/formats/varint"
)

// cborDecoder decodes nested maps with string keys, so that documents decoded
// from CBOR look the same as documents decoded from JSON or MsgPack.
var cborDecoder cbor.DecMode

func init() {
	var err error
	cborDecoder, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("dsd: failed to create cbor decoder: %s", err))
	}
}

// Load loads an dsd structured data blob into the given interface.
func Load(data []byte, t interface{}) (format uint8, err error) {
	format, read, err := loadFormat(data)
	if err != nil {
		return 0, err
	}

	_, ok := ValidateSerializationFormat(format)
	if ok {
		return format, LoadAsFormat(data[read:], format, t)
	}
	return DecompressAndLoad(data[read:], format, t)
}

// LoadAsFormat loads a data blob into the interface using the specified format.
func LoadAsFormat(data []byte, format uint8, t interface{}) (err error) {
	switch format {
	case RAW:
		return ErrIsRaw
	case JSON:
		err = json.Unmarshal(data, t)
		if err != nil {
			return fmt.Errorf("dsd: failed to unpack json: %w, data: %s", err, truncate(data))
		}
		return nil
	case CBOR:
		err = cborDecoder.Unmarshal(data, t)
		if err != nil {
			return fmt.Errorf("dsd: failed to unpack cbor: %w, data: %s", err, truncate(data))
		}
		return nil
	case MsgPack:
		err = msgpack.Unmarshal(data, t)
		if err != nil {
			return fmt.Errorf("dsd: failed to unpack msgpack: %w, data: %s", err, truncate(data))
		}
		return nil
	default:
		return fmt.Errorf("dsd: tried to load unknown type %d, data: %s", format, truncate(data))
	}
}

func loadFormat(data []byte) (format uint8, read int, err error) {
	format, read, err = varint.Unpack8(data)
	if err != nil {
		return 0, 0, err
	}
	if len(data) <= read {
		return 0, 0, ErrNoMoreSpace
	}

	return format, read, nil
}

// Dump stores the interface as a dsd formatted data structure.
func Dump(t interface{}, format uint8) ([]byte, error) {
	return DumpIndent(t, format, "")
}

// DumpIndent stores the interface as a dsd formatted data structure with indentation, if available.
func DumpIndent(t interface{}, format uint8, indent string) ([]byte, error) {
	format, ok := ValidateSerializationFormat(format)
	if !ok {
		return nil, ErrIncompatibleFormat
	}

	data, err := dumpWithoutIdentifier(t, format, indent)
	if err != nil {
		return nil, err
	}

	return append(varint.Pack8(format), data...), nil
}

func dumpWithoutIdentifier(t interface{}, format uint8, indent string) ([]byte, error) {
	var data []byte
	var err error
	switch format {
	case RAW:
		var ok bool
		data, ok = t.([]byte)
		if !ok {
			return nil, ErrIncompatibleFormat
		}
	case JSON:
		if indent != "" {
			data, err = json.MarshalIndent(t, "", indent)
		} else {
			data, err = json.Marshal(t)
		}
		if err != nil {
			return nil, err
		}
	case CBOR:
		data, err = cbor.Marshal(t)
		if err != nil {
			return nil, err
		}
	case MsgPack:
		data, err = msgpack.Marshal(t)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("dsd: tried to dump unknown type %d", format)
	}

	return data, nil
}

func truncate(data []byte) string {
	if len(data) > 32 {
		return fmt.Sprintf("%q...", data[:32])
	}
	return fmt.Sprintf("%q", data)
}
