//go:build !linux

package fdfs

import "os"

// sendFilePayload falls back to a buffered copy on platforms without a
// sendfile(2) syscall wired up; only Linux gets the zero-copy path.
func sendFilePayload(conn *Connection, f *os.File, size int64) error {
	return bufferedCopy(conn, f, size)
}
