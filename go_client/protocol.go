package fdfs

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"
)

// sizeSuffixes are the human-readable units used by formatSize, matching
// the original client's appromix() stepping (B, KB, MB, ... YB).
var sizeSuffixes = [...]string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// encodeHeader encodes a FastDFS protocol header into a 10-byte array.
// The header format is:
//   - Bytes 0-7: Body length (8 bytes, big-endian uint64)
//   - Byte 8: Command code
//   - Byte 9: Status code (0 for request, error code for response)
func encodeHeader(length int64, cmd byte, status byte) []byte {
	header := make([]byte, FdfsProtoHeaderLen)
	binary.BigEndian.PutUint64(header[0:8], uint64(length))
	header[8] = cmd
	header[9] = status
	return header
}

// decodeHeader decodes a FastDFS protocol header from a byte array.
// The data must be at least 10 bytes long; only the first 10 are read.
func decodeHeader(data []byte) (*TrackerHeader, error) {
	if len(data) < FdfsProtoHeaderLen {
		return nil, ErrInvalidResponse
	}

	return &TrackerHeader{
		Length: int64(binary.BigEndian.Uint64(data[0:8])),
		Cmd:    data[8],
		Status: data[9],
	}, nil
}

// splitFileID splits a FastDFS file ID into its components.
// A file ID has the format: "groupName/path/to/file"
func splitFileID(fileID string) (string, string, error) {
	idx := strings.IndexByte(fileID, '/')
	if idx < 0 {
		return "", "", ErrInvalidFileID
	}

	groupName := fileID[:idx]
	remoteFilename := fileID[idx+1:]

	if len(groupName) > FdfsGroupNameMaxLen {
		return "", "", ErrInvalidFileID
	}
	if len(remoteFilename) == 0 {
		return "", "", ErrInvalidFileID
	}

	return groupName, remoteFilename, nil
}

// joinFileID constructs a complete file ID from its components.
// This is the inverse operation of splitFileID.
func joinFileID(groupName, remoteFilename string) string {
	return groupName + "/" + remoteFilename
}

// encodeMetadata encodes metadata key-value pairs into FastDFS wire format.
// Format: key1<0x02>value1<0x01>key2<0x02>value2<0x01>
//
// Insertion order is preserved via the caller-supplied keys slice,
// matching the source's reliance on Python dict insertion order (spec's
// "Metadata map ordering" design note).
func encodeMetadata(keys []string, metadata map[string]string) []byte {
	if len(metadata) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, key := range keys {
		value := metadata[key]
		if len(key) > FdfsMaxMetaNameLen {
			key = key[:FdfsMaxMetaNameLen]
		}
		if len(value) > FdfsMaxMetaValueLen {
			value = value[:FdfsMaxMetaValueLen]
		}
		buf.WriteString(key)
		buf.WriteByte(FdfsFieldSeparator)
		buf.WriteString(value)
		buf.WriteByte(FdfsRecordSeparator)
	}

	return buf.Bytes()
}

// decodeMetadata decodes FastDFS wire format metadata into a map, preserving
// insertion order in the returned key slice.
func decodeMetadata(data []byte) (map[string]string, []string, error) {
	if len(data) == 0 {
		return map[string]string{}, nil, nil
	}

	metadata := make(map[string]string)
	var order []string
	records := bytes.Split(data, []byte{FdfsRecordSeparator})

	for _, record := range records {
		if len(record) == 0 {
			continue
		}

		fields := bytes.SplitN(record, []byte{FdfsFieldSeparator}, 2)
		if len(fields) != 2 {
			continue
		}

		key := string(fields[0])
		if _, exists := metadata[key]; !exists {
			order = append(order, key)
		}
		metadata[key] = string(fields[1])
	}

	return metadata, order, nil
}

// getFileExtName extracts the file extension from a filename, preferring a
// double extension (e.g. "tar.gz") when present. The result is not
// truncated here; padString cuts it to the protocol's 6-byte field when it
// is packed. Grounded on original_source/utils.py's
// get_file_ext_name: a trailing extension whose penultimate segment still
// contains a path separator doesn't count as a double extension.
func getFileExtName(filename string) string {
	parts := strings.Split(filename, ".")
	if len(parts) <= 1 {
		return ""
	}

	last := parts[len(parts)-1]
	if strings.ContainsAny(last, `/\`) {
		return ""
	}

	ext := last
	if len(parts) > 2 {
		penultimate := parts[len(parts)-2]
		if !strings.ContainsAny(penultimate, `/\`) {
			ext = penultimate + "." + last
		}
	}

	return ext
}

// formatSize renders a byte count human-readably, e.g. "10.25MB", stepping
// through B, KB, MB, GB, TB, PB, EB, ZB, YB. Grounded on
// original_source/utils.py's appromix().
func formatSize(size int64) string {
	if size < 0 {
		return "0B"
	}
	if size < 1024 {
		return strconv.FormatInt(size, 10) + "B"
	}

	f := float64(size)
	for _, suffix := range sizeSuffixes[1:] {
		f /= 1024
		if f < 1024 {
			return strconv.FormatFloat(f, 'f', 2, 64) + suffix
		}
	}
	return strconv.FormatFloat(f, 'f', 2, 64) + sizeSuffixes[len(sizeSuffixes)-1]
}

// padString pads a string to a fixed length with null bytes (0x00).
// If the string is longer than length, it is truncated.
func padString(s string, length int) []byte {
	buf := make([]byte, length)
	if len(s) > length {
		s = s[:length]
	}
	copy(buf, s)
	return buf
}

// unpadString removes trailing null bytes from a byte slice.
func unpadString(data []byte) string {
	return string(bytes.TrimRight(data, "\x00"))
}

// encodeInt64 encodes a 64-bit integer to an 8-byte big-endian representation.
func encodeInt64(n int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf
}

// decodeInt64 decodes an 8-byte big-endian representation to a 64-bit integer.
func decodeInt64(data []byte) int64 {
	if len(data) < 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(data))
}

// decodeUint64 decodes an 8-byte big-endian representation to an unsigned
// 64-bit integer, used for the protocol's counter fields.
func decodeUint64(data []byte) uint64 {
	if len(data) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

// decodeInt32 decodes a 4-byte big-endian representation to a 32-bit integer.
func decodeInt32(data []byte) int32 {
	if len(data) < 4 {
		return 0
	}
	return int32(binary.BigEndian.Uint32(data))
}

// itoa is a small indirection to strconv.Itoa kept local so call sites read
// like the rest of the protocol helpers in this file.
func itoa(n int) string {
	return strconv.Itoa(n)
}
