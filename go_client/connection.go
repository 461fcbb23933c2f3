package fdfs

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// maxConnectAttempts bounds how many times the pool will retry dialing a
// fresh connection for a single Get before giving up, per spec.md §5's
// "bounded retry on connect failure."
const maxConnectAttempts = 10

// Connection represents a TCP connection to a FastDFS server (tracker or storage).
// It wraps a net.Conn with additional metadata and thread-safe operations.
// Each connection tracks its last usage time for idle timeout management.
type Connection struct {
	conn     net.Conn   // underlying TCP connection
	addr     string     // server address in "host:port" format
	lastUsed time.Time  // timestamp of last Send/Receive operation
	mu       sync.Mutex // protects concurrent access to the connection
}

// NewConnection establishes a new TCP connection to a FastDFS server.
// The connection is established with the specified timeout and is ready for use.
//
// Parameters:
//   - addr: server address in "host:port" format (e.g., "192.168.1.100:22122")
//   - timeout: maximum time to wait for connection establishment
//
// Returns:
//   - *Connection: ready-to-use connection
//   - error: NetworkError if connection fails
func NewConnection(addr string, timeout time.Duration) (*Connection, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, &NetworkError{
			Op:   "dial",
			Addr: addr,
			Err:  err,
		}
	}

	return &Connection{
		conn:     conn,
		addr:     addr,
		lastUsed: time.Now(),
	}, nil
}

// Send transmits data to the server with optional timeout.
// This method is thread-safe and updates the lastUsed timestamp.
func (c *Connection) Send(data []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}

	n, err := c.conn.Write(data)
	if err != nil {
		return &NetworkError{
			Op:   "write",
			Addr: c.addr,
			Err:  err,
		}
	}

	if n != len(data) {
		return &NetworkError{
			Op:   "write",
			Addr: c.addr,
			Err:  fmt.Errorf("incomplete write: %d/%d bytes", n, len(data)),
		}
	}

	c.lastUsed = time.Now()
	return nil
}

// Receive reads up to 'size' bytes from the server.
// This method may return fewer bytes than requested. Use ReceiveFull if you
// need exactly 'size' bytes.
func (c *Connection) Receive(size int, timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
	}

	buf := make([]byte, size)
	n, err := c.conn.Read(buf)
	if err != nil {
		return nil, &NetworkError{
			Op:   "read",
			Addr: c.addr,
			Err:  err,
		}
	}

	c.lastUsed = time.Now()
	return buf[:n], nil
}

// ReceiveFull reads exactly 'size' bytes from the server. The timeout
// applies to each individual read, not to the entire operation.
func (c *Connection) ReceiveFull(size int, timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf := make([]byte, size)
	offset := 0

	for offset < size {
		if timeout > 0 {
			c.conn.SetReadDeadline(time.Now().Add(timeout))
		}
		n, err := c.conn.Read(buf[offset:])
		if err != nil {
			return nil, &NetworkError{
				Op:   "read",
				Addr: c.addr,
				Err:  err,
			}
		}
		offset += n
	}

	c.lastUsed = time.Now()
	return buf, nil
}

// Close terminates the connection and releases resources.
// It's safe to call Close multiple times.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsAlive performs a non-blocking check to determine if the connection is
// still valid. It attempts a 1ms read with timeout; if it times out, the
// connection is considered alive. This is a heuristic check and may not
// detect all failure modes.
func (c *Connection) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return false
	}

	one := []byte{0}
	c.conn.SetReadDeadline(time.Now().Add(1 * time.Millisecond))
	_, err := c.conn.Read(one)
	c.conn.SetReadDeadline(time.Time{})

	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}

	return err == nil
}

// LastUsed returns the timestamp of the last Send or Receive operation.
func (c *Connection) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// Addr returns the server address this connection is connected to.
func (c *Connection) Addr() string {
	return c.addr
}

// netConn exposes the underlying net.Conn for the sendfile fast path.
func (c *Connection) netConn() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// ConnectionPool manages a pool of reusable connections to multiple tracker
// addresses (and, dynamically, storage server addresses discovered via
// AddAddr). It maintains separate LIFO pools per server address and
// rebuilds itself if the owning process has forked since construction,
// mirroring ConnectionPool._check_pid in the original client.
type ConnectionPool struct {
	addrs          []string               // list of server addresses
	maxConns       int                     // max connections per server
	connectTimeout time.Duration           // timeout for new connections
	idleTimeout    time.Duration           // max idle time before cleanup
	pools          map[string]*serverPool  // per-server connection pools
	pid            int                     // pid recorded at last (re)build
	mu             sync.RWMutex            // protects pools map, addrs, pid and closed flag
	closed         bool                    // true if pool is closed
	log            *logrus.Entry           // structured logging sink
}

// serverPool holds connections for a single server.
type serverPool struct {
	addr      string        // server address
	conns     []*Connection // available connections (LIFO stack)
	inUse     int           // connections currently checked out, bounded by maxConns
	mu        sync.Mutex    // protects conns slice, inUse
	lastClean time.Time     // last time idle connections were cleaned
}

// NewConnectionPool creates a new connection pool for the specified
// tracker addresses. The pool starts empty; connections are created
// on-demand when Get is called.
func NewConnectionPool(addrs []string, maxConns int, connectTimeout, idleTimeout time.Duration) (*ConnectionPool, error) {
	pool := &ConnectionPool{
		addrs:          addrs,
		maxConns:       maxConns,
		connectTimeout: connectTimeout,
		idleTimeout:    idleTimeout,
		pools:          make(map[string]*serverPool),
		pid:            os.Getpid(),
		log:            logger.WithField("component", "pool"),
	}

	for _, addr := range addrs {
		pool.pools[addr] = &serverPool{
			addr:      addr,
			conns:     make([]*Connection, 0, maxConns),
			lastClean: time.Now(),
		}
	}

	return pool, nil
}

// checkFork rebuilds the pool in place if the current pid no longer
// matches the pid recorded at construction or the last rebuild. A forked
// child process must never reuse the parent's live sockets; every idle
// pooled connection is closed and the per-server pools are replaced with
// empty ones. Connections checked out at that moment are not reached.
func (p *ConnectionPool) checkFork() {
	pid := os.Getpid()

	p.mu.RLock()
	mismatch := pid != p.pid
	p.mu.RUnlock()
	if !mismatch {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pid == p.pid {
		return
	}

	p.log.WithFields(logrus.Fields{"old_pid": p.pid, "new_pid": pid}).Warn("fork detected, rebuilding connection pool")

	for _, sp := range p.pools {
		sp.mu.Lock()
		for _, conn := range sp.conns {
			conn.Close()
		}
		sp.conns = nil
		sp.mu.Unlock()
	}

	rebuilt := make(map[string]*serverPool, len(p.addrs))
	for _, addr := range p.addrs {
		rebuilt[addr] = &serverPool{
			addr:      addr,
			conns:     make([]*Connection, 0, p.maxConns),
			lastClean: time.Now(),
		}
	}
	p.pools = rebuilt
	p.pid = pid
}

// pickAddr returns a randomly chosen address from the pool's known
// addresses, matching the "random candidate among configured trackers"
// selection policy.
func (p *ConnectionPool) pickAddr() (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.addrs) == 0 {
		return "", ErrNoStorageServer
	}
	return p.addrs[rand.Intn(len(p.addrs))], nil
}

// Get retrieves a connection from the pool or creates a new one. It
// prefers reusing existing idle connections but will create new ones if
// needed, retrying dial failures up to maxConnectAttempts times before
// giving up. When addr is "" a random configured address is chosen.
// Live connections per address (idle plus checked-out) are bounded by
// maxConns; once that many are in use, Get fails immediately with a
// PoolError instead of dialing another.
func (p *ConnectionPool) Get(ctx context.Context, addr string) (*Connection, error) {
	p.checkFork()

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrClientClosed
	}
	p.mu.RUnlock()

	if addr == "" {
		var err error
		addr, err = p.pickAddr()
		if err != nil {
			return nil, err
		}
	}

	p.mu.RLock()
	sp, ok := p.pools[addr]
	p.mu.RUnlock()

	if !ok {
		p.mu.Lock()
		sp, ok = p.pools[addr]
		if !ok {
			sp = &serverPool{
				addr:      addr,
				conns:     make([]*Connection, 0, p.maxConns),
				lastClean: time.Now(),
			}
			p.pools[addr] = sp
		}
		p.mu.Unlock()
	}

	sp.mu.Lock()
	for len(sp.conns) > 0 {
		conn := sp.conns[len(sp.conns)-1]
		sp.conns = sp.conns[:len(sp.conns)-1]
		sp.mu.Unlock()

		if conn.IsAlive() {
			sp.mu.Lock()
			sp.inUse++
			sp.mu.Unlock()
			p.log.WithField("addr", addr).Debug("reusing pooled connection")
			return conn, nil
		}
		conn.Close()

		sp.mu.Lock()
	}

	if sp.inUse >= p.maxConns {
		sp.mu.Unlock()
		return nil, &PoolError{Pool: addr, Message: fmt.Sprintf("pool exhausted: %d connections already in use (max %d)", sp.inUse, p.maxConns)}
	}
	sp.inUse++
	sp.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		select {
		case <-ctx.Done():
			sp.mu.Lock()
			sp.inUse--
			sp.mu.Unlock()
			return nil, ctx.Err()
		default:
		}

		conn, err := NewConnection(addr, p.connectTimeout)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		p.log.WithFields(logrus.Fields{"addr": addr, "attempt": attempt}).Warn("connect attempt failed")
	}

	sp.mu.Lock()
	sp.inUse--
	sp.mu.Unlock()

	return nil, &PoolError{Pool: addr, Message: fmt.Sprintf("exhausted %d connect attempts: %v", maxConnectAttempts, lastErr)}
}

// Put returns a connection to the pool for reuse. The connection is only
// kept if the pool is open, not at capacity, and the connection hasn't
// been idle too long; otherwise it is closed.
func (p *ConnectionPool) Put(conn *Connection) error {
	if conn == nil {
		return nil
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return conn.Close()
	}

	sp, ok := p.pools[conn.Addr()]
	p.mu.RUnlock()

	if !ok {
		return conn.Close()
	}

	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.inUse > 0 {
		sp.inUse--
	}

	if len(sp.conns) >= p.maxConns {
		return conn.Close()
	}

	if time.Since(conn.LastUsed()) > p.idleTimeout {
		return conn.Close()
	}

	sp.conns = append(sp.conns, conn)

	if time.Since(sp.lastClean) > p.idleTimeout {
		p.cleanPool(sp)
	}

	return nil
}

// cleanPool removes stale and dead connections from a server pool. The
// serverPool must be locked by the caller.
func (p *ConnectionPool) cleanPool(sp *serverPool) {
	now := time.Now()
	validConns := make([]*Connection, 0, len(sp.conns))

	for _, conn := range sp.conns {
		if now.Sub(conn.LastUsed()) > p.idleTimeout || !conn.IsAlive() {
			conn.Close()
		} else {
			validConns = append(validConns, conn)
		}
	}

	sp.conns = validConns
	sp.lastClean = now
}

// AddAddr dynamically adds a new server address to the pool. This is used
// for storage servers discovered at runtime via tracker queries. If the
// address already exists, this is a no-op.
func (p *ConnectionPool) AddAddr(addr string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	for _, a := range p.addrs {
		if a == addr {
			return
		}
	}

	p.addrs = append(p.addrs, addr)
	p.pools[addr] = &serverPool{
		addr:      addr,
		conns:     make([]*Connection, 0, p.maxConns),
		lastClean: time.Now(),
	}
}

// Close shuts down the connection pool and closes all connections. After
// Close is called, Get will return ErrClientClosed. It's safe to call
// Close multiple times.
func (p *ConnectionPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true

	for _, sp := range p.pools {
		sp.mu.Lock()
		for _, conn := range sp.conns {
			conn.Close()
		}
		sp.conns = nil
		sp.mu.Unlock()
	}

	return nil
}
