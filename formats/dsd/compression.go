package dsd

import (
	"bytes"
	"compress/gzip"
	"errors"

	"github.com/safing/objectbase/formats/varint"
)

// DumpAndCompress stores the interface as a dsd formatted data structure and compresses the resulting data.
func DumpAndCompress(t interface{}, format uint8, compression uint8) ([]byte, error) {
	// Check if compression format is valid.
	compression, ok := ValidateCompressionFormat(compression)
	if !ok {
		return nil, ErrIncompatibleFormat
	}

	// Create a buffer and add the compression format to it.
	buf := bytes.NewBuffer(nil)
	_, _ = buf.Write(varint.Pack8(compression))

	// Serialize the data.
	data, err := Dump(t, format)
	if err != nil {
		return nil, err
	}

	// Compress the data.
	switch compression {
	case GZIP:
		gzipWriter, err := gzip.NewWriterLevel(buf, gzip.BestCompression)
		if err != nil {
			return nil, err
		}

		n, err := gzipWriter.Write(data)
		if err != nil {
			return nil, err
		}
		if n != len(data) {
			return nil, errors.New("dsd: failed to fully write to gzip compressor")
		}

		// Flush and write gzip footer.
		err = gzipWriter.Close()
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrIncompatibleFormat
	}

	return buf.Bytes(), nil
}

// DecompressAndLoad decompresses the data using the specified compression format and then loads the resulting data blob into the interface.
func DecompressAndLoad(data []byte, compression uint8, t interface{}) (format uint8, err error) {
	// Check if compression format is valid.
	_, ok := ValidateCompressionFormat(compression)
	if !ok {
		return 0, ErrIncompatibleFormat
	}

	// Prepare buffer.
	buf := bytes.NewBuffer(nil)

	// Decompress the data.
	switch compression {
	case GZIP:
		gzipReader, err := gzip.NewReader(bytes.NewBuffer(data))
		if err != nil {
			return 0, err
		}

		_, err = buf.ReadFrom(gzipReader)
		if err != nil {
			return 0, err
		}

		// Flush and verify gzip footer.
		err = gzipReader.Close()
		if err != nil {
			return 0, err
		}
	default:
		return 0, ErrIncompatibleFormat
	}

	// Get serialization format.
	data = buf.Bytes()
	format, read, err := loadFormat(data)
	if err != nil {
		return 0, err
	}

	// Compressed data must not be compressed again.
	if _, ok := ValidateSerializationFormat(format); !ok {
		return 0, ErrIncompatibleFormat
	}

	return format, LoadAsFormat(data[read:], format, t)
}
