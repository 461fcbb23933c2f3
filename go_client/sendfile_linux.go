//go:build linux

package fdfs

import (
	"errors"
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

var errNoRawConn = errors.New("connection does not expose a raw file descriptor")

// connSyscallConn extracts the raw syscall.RawConn backing conn's TCP
// socket, if any.
func connSyscallConn(conn *Connection) (syscall.RawConn, error) {
	sc, ok := conn.netConn().(syscall.Conn)
	if !ok {
		return nil, errNoRawConn
	}
	return sc.SyscallConn()
}

// sendFilePayload transmits size bytes from f (positioned at its current
// offset) directly to conn's underlying socket via the sendfile(2)
// syscall, avoiding a user-space copy through conn.Send's buffer. Falls
// back to bufferedCopy if the connection or file doesn't expose a raw
// file descriptor (e.g. it's wrapped, or running under a test double).
func sendFilePayload(conn *Connection, f *os.File, size int64) error {
	rawConn, err := connSyscallConn(conn)
	if err != nil {
		return bufferedCopy(conn, f, size)
	}

	var sendErr error
	ctrlErr := rawConn.Control(func(outFd uintptr) {
		off, statErr := f.Seek(0, io.SeekCurrent)
		if statErr != nil {
			sendErr = statErr
			return
		}
		remaining := size
		for remaining > 0 {
			n, err := unix.Sendfile(int(outFd), int(f.Fd()), &off, int(remaining))
			if n > 0 {
				remaining -= int64(n)
			}
			if err != nil {
				if err == unix.EAGAIN || err == unix.EINTR {
					continue
				}
				sendErr = err
				return
			}
			if n == 0 {
				sendErr = io.ErrUnexpectedEOF
				return
			}
		}
	})
	if ctrlErr != nil {
		return bufferedCopy(conn, f, size)
	}
	if sendErr != nil {
		return &NetworkError{Op: "sendfile", Addr: conn.Addr(), Err: sendErr}
	}
	return nil
}
