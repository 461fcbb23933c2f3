package fdfs

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// startMockTracker runs handler once per accepted connection on an
// ephemeral localhost port and returns its address.
func startMockTracker(t *testing.T, handler func(conn net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}()

	return ln.Addr().String()
}

func newTestClient(t *testing.T, addr string) *Client {
	t.Helper()
	client, err := NewClient(&ClientConfig{
		TrackerAddrs:   []string{addr},
		NetworkTimeout: 2 * time.Second,
		ConnectTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestQueryStoreStorageWithoutGroup(t *testing.T) {
	addr := startMockTracker(t, func(conn net.Conn) {
		header := make([]byte, FdfsProtoHeaderLen)
		io.ReadFull(conn, header)

		body := bytes.Buffer{}
		body.Write(padString("group1", FdfsGroupNameMaxLen))
		body.Write(padString("192.168.1.50", IPAddressSize-1))
		body.Write(encodeInt64(23000))
		body.WriteByte(3)

		respHeader := encodeHeader(int64(body.Len()), TrackerProtoCmdServiceQueryStoreWithoutGroupOne, 0)
		conn.Write(respHeader)
		conn.Write(body.Bytes())
	})

	client := newTestClient(t, addr)
	server, err := client.queryStoreStorage(context.Background(), "")
	require.NoError(t, err)

	require.Equal(t, "group1", server.GroupName)
	require.Equal(t, "192.168.1.50", server.IPAddr)
	require.Equal(t, 23000, server.Port)
	require.Equal(t, byte(3), server.StorePathIndex)
}

func TestQueryUpdateStorage(t *testing.T) {
	addr := startMockTracker(t, func(conn net.Conn) {
		header := make([]byte, FdfsProtoHeaderLen)
		io.ReadFull(conn, header)
		decoded, _ := decodeHeader(header)
		reqBody := make([]byte, decoded.Length)
		io.ReadFull(conn, reqBody)

		body := bytes.Buffer{}
		body.Write(padString("group1", FdfsGroupNameMaxLen))
		body.Write(padString("10.0.0.5", IPAddressSize-1))
		body.Write(encodeInt64(23000))

		respHeader := encodeHeader(int64(body.Len()), TrackerProtoCmdServiceQueryUpdate, 0)
		conn.Write(respHeader)
		conn.Write(body.Bytes())
	})

	client := newTestClient(t, addr)
	server, err := client.queryUpdateStorage(context.Background(), "group1", "M00/00/00/test.jpg")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.5", server.IPAddr)
	require.Equal(t, 23000, server.Port)
}

func TestQueryStoreStorageErrorStatus(t *testing.T) {
	addr := startMockTracker(t, func(conn net.Conn) {
		header := make([]byte, FdfsProtoHeaderLen)
		io.ReadFull(conn, header)
		conn.Write(encodeHeader(0, TrackerProtoCmdServiceQueryStoreWithoutGroupOne, 2))
	})

	client := newTestClient(t, addr)
	_, err := client.queryStoreStorage(context.Background(), "")
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestRecvHeaderNonzeroStatusReturnsMappedError(t *testing.T) {
	addr := startMockTracker(t, func(conn net.Conn) {
		conn.Write(encodeHeader(0, TrackerProtoCmdServiceQueryStoreWithoutGroupOne, 2))
	})

	client := newTestClient(t, addr)
	conn, err := client.trackerPool.Get(context.Background(), "")
	require.NoError(t, err)
	defer client.trackerPool.Put(conn)

	_, err = client.recvHeader(conn)
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestListOneGroup(t *testing.T) {
	addr := startMockTracker(t, func(conn net.Conn) {
		header := make([]byte, FdfsProtoHeaderLen)
		io.ReadFull(conn, header)
		decoded, _ := decodeHeader(header)
		reqBody := make([]byte, decoded.Length)
		io.ReadFull(conn, reqBody)

		record := bytes.Buffer{}
		record.Write(padString("group1", fdfsGroupNameRecordLen))
		for i := 0; i < 11; i++ {
			record.Write(encodeInt64(int64(i + 1)))
		}

		respHeader := encodeHeader(int64(record.Len()), TrackerProtoCmdServerListOneGroup, 0)
		conn.Write(respHeader)
		conn.Write(record.Bytes())
	})

	client := newTestClient(t, addr)
	info, err := client.ListOneGroup(context.Background(), "group1")
	require.NoError(t, err)
	require.Equal(t, "group1", info.GroupName)
	require.Equal(t, int64(1), info.TotalMB)
	require.Equal(t, int64(11), info.CurrentTrunkFileID)
}
