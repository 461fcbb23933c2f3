package fdfs

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// newUploadTestClient wires a tracker mock (always resolving to storageAddr)
// and the given storage mock into one client.
func newUploadTestClient(t *testing.T, storageAddr string, storageHandler func(conn net.Conn)) *Client {
	t.Helper()

	host, portStr, err := net.SplitHostPort(storageAddr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	trackerAddr := startMockTracker(t, func(conn net.Conn) {
		header := make([]byte, FdfsProtoHeaderLen)
		io.ReadFull(conn, header)
		decoded, _ := decodeHeader(header)
		if decoded.Length > 0 {
			reqBody := make([]byte, decoded.Length)
			io.ReadFull(conn, reqBody)
		}

		body := bytes.Buffer{}
		body.Write(padString("group1", FdfsGroupNameMaxLen))
		body.Write(padString(host, IPAddressSize-1))
		body.Write(encodeInt64(int64(port)))
		if decoded.Cmd == TrackerProtoCmdServiceQueryStoreWithoutGroupOne || decoded.Cmd == TrackerProtoCmdServiceQueryStoreWithGroupOne {
			body.WriteByte(0)
		}

		respHeader := encodeHeader(int64(body.Len()), decoded.Cmd, 0)
		conn.Write(respHeader)
		conn.Write(body.Bytes())
	})

	ln, err := net.Listen("tcp", storageAddr)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		storageHandler(conn)
	}()

	return newTestClient(t, trackerAddr)
}

func TestUploadBufferRoundTrip(t *testing.T) {
	storageLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	storageAddr := storageLn.Addr().String()
	storageLn.Close()

	client := newUploadTestClient(t, storageAddr, func(conn net.Conn) {
		header := make([]byte, FdfsProtoHeaderLen)
		io.ReadFull(conn, header)
		decoded, _ := decodeHeader(header)
		reqBody := make([]byte, decoded.Length)
		io.ReadFull(conn, reqBody)

		respBody := bytes.Buffer{}
		respBody.Write(padString("group1", FdfsGroupNameMaxLen))
		respBody.WriteString("M00/00/00/test.txt")

		respHeader := encodeHeader(int64(respBody.Len()), StorageProtoCmdUploadFile, 0)
		conn.Write(respHeader)
		conn.Write(respBody.Bytes())
	})

	fileID, err := client.UploadBuffer(context.Background(), []byte("hello world"), "txt", nil)
	require.NoError(t, err)
	require.Equal(t, "group1/M00/00/00/test.txt", fileID)
}

func TestUploadBufferEmptyFails(t *testing.T) {
	client := newTestClient(t, "127.0.0.1:1")
	_, err := client.UploadBuffer(context.Background(), nil, "txt", nil)
	require.ErrorIs(t, err, ErrEmptyBuffer)
}

func TestDownloadFileRoundTrip(t *testing.T) {
	storageLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	storageAddr := storageLn.Addr().String()
	storageLn.Close()

	payload := []byte("downloaded content")

	client := newUploadTestClient(t, storageAddr, func(conn net.Conn) {
		header := make([]byte, FdfsProtoHeaderLen)
		io.ReadFull(conn, header)
		decoded, _ := decodeHeader(header)
		reqBody := make([]byte, decoded.Length)
		io.ReadFull(conn, reqBody)

		respHeader := encodeHeader(int64(len(payload)), StorageProtoCmdDownloadFile, 0)
		conn.Write(respHeader)
		conn.Write(payload)
	})

	data, err := client.DownloadFile(context.Background(), "group1/M00/00/00/test.txt")
	require.NoError(t, err)
	require.Equal(t, payload, data)
}
