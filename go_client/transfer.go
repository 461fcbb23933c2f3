package fdfs

import (
	"bufio"
	"io"
	"os"
	"time"
)

// ioChunkSize bounds how much of a streamed upload or download payload is
// held in memory at once, whether that's the portable fallback for a
// missing sendfile(2) path or a response body written straight to disk.
const ioChunkSize = 64 * 1024

// bufferedCopy streams size bytes from f to conn in ioChunkSize
// chunks. This is the portable fallback sendFilePayload uses when the
// platform or connection type doesn't support sendfile(2).
func bufferedCopy(conn *Connection, f *os.File, size int64) error {
	return bufferedCopyTimeout(conn, f, size, 0)
}

func bufferedCopyTimeout(conn *Connection, f *os.File, size int64, timeout time.Duration) error {
	r := bufio.NewReaderSize(io.LimitReader(f, size), ioChunkSize)
	buf := make([]byte, ioChunkSize)

	var sent int64
	for sent < size {
		n, err := r.Read(buf)
		if n > 0 {
			if werr := conn.Send(buf[:n], timeout); werr != nil {
				return werr
			}
			sent += int64(n)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return &NetworkError{Op: "read", Addr: conn.Addr(), Err: err}
		}
	}
	if sent != size {
		return &NetworkError{Op: "read", Addr: conn.Addr(), Err: io.ErrUnexpectedEOF}
	}
	return nil
}

// bufferedDownloadCopy reads exactly size bytes from conn and writes them
// to w in ioChunkSize chunks, so a downloaded file is never buffered
// whole in memory. This is the download-side counterpart to
// bufferedCopy.
func bufferedDownloadCopy(conn *Connection, w io.Writer, size int64, timeout time.Duration) error {
	var received int64
	for received < size {
		want := int64(ioChunkSize)
		if remaining := size - received; remaining < want {
			want = remaining
		}

		chunk, err := conn.ReceiveFull(int(want), timeout)
		if err != nil {
			return err
		}
		if _, werr := w.Write(chunk); werr != nil {
			return &NetworkError{Op: "write", Addr: conn.Addr(), Err: werr}
		}
		received += int64(len(chunk))
	}
	return nil
}

// uploadPayload describes the source of an upload's file content,
// abstracting over an in-memory buffer and a file on disk so upload
// dialogs can dispatch to the zero-copy sendfile path when possible
// without duplicating the wire-protocol framing.
type uploadPayload struct {
	size int64
	data []byte   // set when the payload is an in-memory buffer
	file *os.File // set when the payload is backed by an open file
}

func bufferPayload(data []byte) uploadPayload {
	return uploadPayload{size: int64(len(data)), data: data}
}

func filePayload(f *os.File, size int64) uploadPayload {
	return uploadPayload{size: size, file: f}
}

// send writes the payload's bytes to conn, using sendfile when the
// payload is file-backed and falling back to a plain Send for in-memory
// buffers.
func (p uploadPayload) send(conn *Connection, timeout time.Duration) error {
	if p.file != nil {
		return sendFilePayload(conn, p.file, p.size)
	}
	if len(p.data) == 0 {
		return nil
	}
	return conn.Send(p.data, timeout)
}
