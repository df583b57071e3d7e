package dsd

import (
	"errors"
	"strings"
)

// Errors.
var (
	ErrIncompatibleFormat = errors.New("dsd: format is incompatible with operation")
	ErrIsRaw              = errors.New("dsd: given data is in raw format")
	ErrNoMoreSpace        = errors.New("dsd: no more space left after reading dsd type")
	ErrUnknownFormat      = errors.New("dsd: format is unknown")
)

// Format types.
const (
	AUTO = 0

	// Serialization types.
	RAW     = 1
	CBOR    = 67 // C
	GenCode = 71 // G (reserved)
	JSON    = 74 // J
	MsgPack = 77 // M

	// Compression types.
	GZIP = 90 // Z

	// Special types.
	LIST = 76 // L
)

// Default Formats.
var (
	DefaultSerializationFormat uint8 = JSON
	DefaultCompressionFormat   uint8 = GZIP
)

// ValidateSerializationFormat validates if the format is for serialization,
// and returns the validated format as well as the result of the validation.
// If called on the AUTO format, it returns the default serialization format.
func ValidateSerializationFormat(format uint8) (validatedFormat uint8, ok bool) {
	switch format {
	case AUTO:
		return DefaultSerializationFormat, true
	case RAW, CBOR, JSON, MsgPack:
		return format, true
	default:
		return 0, false
	}
}

// ValidateCompressionFormat validates if the format is for compression,
// and returns the validated format as well as the result of the validation.
// If called on the AUTO format, it returns the default compression format.
func ValidateCompressionFormat(format uint8) (validatedFormat uint8, ok bool) {
	switch format {
	case AUTO:
		return DefaultCompressionFormat, true
	case GZIP:
		return format, true
	default:
		return 0, false
	}
}

// ParseFormat returns the serialization format identified by the given name.
// The empty name is parsed as AUTO.
func ParseFormat(name string) (format uint8, err error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return AUTO, nil
	case "json":
		return JSON, nil
	case "cbor":
		return CBOR, nil
	case "msgpack", "mpack":
		return MsgPack, nil
	case "raw":
		return RAW, nil
	default:
		return 0, ErrUnknownFormat
	}
}

// FormatName returns the name of the given format.
func FormatName(format uint8) string {
	switch format {
	case AUTO:
		return "auto"
	case RAW:
		return "raw"
	case CBOR:
		return "cbor"
	case JSON:
		return "json"
	case MsgPack:
		return "msgpack"
	case GZIP:
		return "gzip"
	default:
		return "unknown"
	}
}
