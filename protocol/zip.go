package protocol

import "encoding/binary"

// ZipUint64 encodes an unsigned integer as a uvarint, the number
// format used inside node records.
func ZipUint64(v uint64) []byte {
	return binary.AppendUvarint(nil, v)
}

// UnzipUint64 decodes a uvarint; returns 0 for malformed input.
func UnzipUint64(data []byte) uint64 {
	v, n := binary.Uvarint(data)
	if n <= 0 {
		return 0
	}
	return v
}

// AppendZipUint64 appends the uvarint form of v.
func AppendZipUint64(into []byte, v uint64) []byte {
	return binary.AppendUvarint(into, v)
}

// TakeZipUint64 decodes one uvarint off the front of data.
func TakeZipUint64(data []byte) (v uint64, rest []byte) {
	v, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, nil
	}
	return v, data[n:]
}
