package fdfs

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startEchoServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 4096)
				for {
					n, err := c.Read(buf)
					if n > 0 {
						c.Write(buf[:n])
					}
					if err != nil {
						return
					}
				}
			}(conn)
		}
	}()

	return ln.Addr().String()
}

func TestConnectionSendReceiveFull(t *testing.T) {
	addr := startEchoServer(t)
	conn, err := NewConnection(addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	msg := []byte("hello fastdfs")
	require.NoError(t, conn.Send(msg, time.Second))

	got, err := conn.ReceiveFull(len(msg), time.Second)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestConnectionPoolGetReusesIdleConnection(t *testing.T) {
	addr := startEchoServer(t)
	pool, err := NewConnectionPool([]string{addr}, 4, time.Second, time.Minute)
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()
	conn1, err := pool.Get(ctx, addr)
	require.NoError(t, err)

	require.NoError(t, pool.Put(conn1))

	conn2, err := pool.Get(ctx, addr)
	require.NoError(t, err)
	assert.Same(t, conn1, conn2)
}

func TestConnectionPoolGetDynamicAddr(t *testing.T) {
	addr := startEchoServer(t)
	pool, err := NewConnectionPool(nil, 4, time.Second, time.Minute)
	require.NoError(t, err)
	defer pool.Close()

	conn, err := pool.Get(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, addr, conn.Addr())
}

func TestConnectionPoolClosedRejectsGet(t *testing.T) {
	addr := startEchoServer(t)
	pool, err := NewConnectionPool([]string{addr}, 4, time.Second, time.Minute)
	require.NoError(t, err)
	require.NoError(t, pool.Close())

	_, err = pool.Get(context.Background(), addr)
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestConnectionPoolPickAddrFailsWithNoAddrs(t *testing.T) {
	pool, err := NewConnectionPool(nil, 4, time.Second, time.Minute)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoStorageServer)
}

func TestConnectionPoolGetFailsPastMaxConns(t *testing.T) {
	addr := startEchoServer(t)
	pool, err := NewConnectionPool([]string{addr}, 1, time.Second, time.Minute)
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()
	conn1, err := pool.Get(ctx, addr)
	require.NoError(t, err)

	_, err = pool.Get(ctx, addr)
	var poolErr *PoolError
	require.ErrorAs(t, err, &poolErr)

	require.NoError(t, pool.Put(conn1))

	conn2, err := pool.Get(ctx, addr)
	require.NoError(t, err)
	require.NoError(t, pool.Put(conn2))
}

func TestConnectionPoolForkDetectionRebuildsPools(t *testing.T) {
	addr := startEchoServer(t)
	pool, err := NewConnectionPool([]string{addr}, 4, time.Second, time.Minute)
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()
	conn, err := pool.Get(ctx, addr)
	require.NoError(t, err)
	require.NoError(t, pool.Put(conn))

	pool.mu.Lock()
	originalPool := pool.pools[addr]
	pool.pid = pool.pid + 1000003 // force a pid mismatch on the next Get
	pool.mu.Unlock()

	conn2, err := pool.Get(ctx, addr)
	require.NoError(t, err)
	require.NoError(t, pool.Put(conn2))

	pool.mu.RLock()
	rebuiltPool := pool.pools[addr]
	pid := pool.pid
	pool.mu.RUnlock()

	assert.NotSame(t, originalPool, rebuiltPool)
	assert.Equal(t, os.Getpid(), pid)
}
