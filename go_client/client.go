// Package fdfs provides a Go client for FastDFS distributed file system.
//
// # Copyright (C) 2025 FastDFS Go Client Contributors
//
// FastDFS may be copied only under the terms of the GNU General
// Public License V3, which may be found in the FastDFS source kit.
package fdfs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Client represents a FastDFS client instance.
type Client struct {
	config      *ClientConfig
	trackerPool *ConnectionPool
	storagePool *ConnectionPool
	log         *logrus.Entry
	mu          sync.RWMutex
	closed      bool
}

// ClientConfig holds the configuration for a FastDFS client. It is the
// in-memory shape produced either directly by callers or by
// internal/config's client.conf loader.
type ClientConfig struct {
	// TrackerAddrs is the list of tracker server addresses in format "host:port"
	TrackerAddrs []string

	// MaxConns is the maximum number of connections per tracker server
	MaxConns int

	// ConnectTimeout is the timeout for establishing connections
	ConnectTimeout time.Duration

	// NetworkTimeout is the timeout for network I/O operations
	NetworkTimeout time.Duration

	// IdleTimeout is the timeout for idle connections in the pool
	IdleTimeout time.Duration

	// RetryCount is the number of attempts for retryable operations
	RetryCount int

	// Logger overrides the package-level default logger for this client.
	Logger *logrus.Logger
}

// NewClient creates a new FastDFS client with the given configuration.
func NewClient(config *ClientConfig) (*Client, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if config.MaxConns == 0 {
		config.MaxConns = 10
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 5 * time.Second
	}
	if config.NetworkTimeout == 0 {
		config.NetworkTimeout = 30 * time.Second
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = 60 * time.Second
	}
	if config.RetryCount == 0 {
		config.RetryCount = 3
	}

	log := logger
	if config.Logger != nil {
		log = config.Logger
	}

	client := &Client{
		config: config,
		log:    log.WithField("component", "client"),
	}

	trackerPool, err := NewConnectionPool(config.TrackerAddrs, config.MaxConns,
		config.ConnectTimeout, config.IdleTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracker pool: %w", err)
	}
	client.trackerPool = trackerPool

	storagePool, err := NewConnectionPool([]string{}, config.MaxConns,
		config.ConnectTimeout, config.IdleTimeout)
	if err != nil {
		trackerPool.Close()
		return nil, fmt.Errorf("failed to create storage pool: %w", err)
	}
	trackerPool.log = log.WithField("component", "pool")
	storagePool.log = log.WithField("component", "pool")
	client.storagePool = storagePool

	return client, nil
}

// withRetry runs op up to c.config.RetryCount times, backing off by
// (attempt+1) seconds between tries, stopping early when terminal
// reports the error isn't worth retrying or the context is done.
// Consolidates the duplicated per-operation retry loops the teacher
// client wrote out by hand for every command.
func withRetry[T any](ctx context.Context, c *Client, name string, terminal func(error) bool, op func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < c.config.RetryCount; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if terminal(err) {
			return zero, err
		}

		if attempt < c.config.RetryCount-1 {
			c.log.WithFields(logrus.Fields{"op": name, "attempt": attempt + 1}).Warn("retrying after error")
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(time.Second * time.Duration(attempt+1)):
			}
		}
	}
	return zero, lastErr
}

// notRetryable is the default terminal-error predicate: input validation
// and missing-file errors never succeed on retry.
func notRetryable(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrFileNotFound) ||
		errors.Is(err, ErrInvalidFileID) ||
		errors.Is(err, ErrEmptyBuffer) ||
		errors.Is(err, ErrEmptyPrefix)
}

// UploadFile uploads a file from the local filesystem to FastDFS.
func (c *Client) UploadFile(ctx context.Context, localFilename string, metadata map[string]string) (string, error) {
	if err := c.checkClosed(); err != nil {
		return "", err
	}
	return withRetry(ctx, c, "UploadFile", notRetryable, func() (string, error) {
		return c.uploadFileInternal(ctx, localFilename, metadata, false)
	})
}

// UploadBuffer uploads data from a byte buffer to FastDFS.
func (c *Client) UploadBuffer(ctx context.Context, data []byte, fileExtName string, metadata map[string]string) (string, error) {
	if err := c.checkClosed(); err != nil {
		return "", err
	}
	return withRetry(ctx, c, "UploadBuffer", notRetryable, func() (string, error) {
		return c.uploadBufferInternal(ctx, data, fileExtName, metadata, false)
	})
}

// UploadFileToGroup uploads a file, pinning it to a specific storage
// group instead of letting the tracker choose one (query_store_with_group).
func (c *Client) UploadFileToGroup(ctx context.Context, groupName, localFilename string, metadata map[string]string) (string, error) {
	if err := c.checkClosed(); err != nil {
		return "", err
	}
	return withRetry(ctx, c, "UploadFileToGroup", notRetryable, func() (string, error) {
		return c.uploadFileToGroupInternal(ctx, groupName, localFilename, metadata, false)
	})
}

// UploadBufferToGroup uploads a buffer, pinning it to a specific storage group.
func (c *Client) UploadBufferToGroup(ctx context.Context, groupName string, data []byte, fileExtName string, metadata map[string]string) (string, error) {
	if err := c.checkClosed(); err != nil {
		return "", err
	}
	return withRetry(ctx, c, "UploadBufferToGroup", notRetryable, func() (string, error) {
		return c.uploadBufferToGroupInternal(ctx, groupName, data, fileExtName, metadata, false)
	})
}

// UploadAppenderFile uploads an appender file that can be modified later.
func (c *Client) UploadAppenderFile(ctx context.Context, localFilename string, metadata map[string]string) (string, error) {
	if err := c.checkClosed(); err != nil {
		return "", err
	}
	return withRetry(ctx, c, "UploadAppenderFile", notRetryable, func() (string, error) {
		return c.uploadFileInternal(ctx, localFilename, metadata, true)
	})
}

// UploadAppenderBuffer uploads an appender file from a buffer.
func (c *Client) UploadAppenderBuffer(ctx context.Context, data []byte, fileExtName string, metadata map[string]string) (string, error) {
	if err := c.checkClosed(); err != nil {
		return "", err
	}
	return withRetry(ctx, c, "UploadAppenderBuffer", notRetryable, func() (string, error) {
		return c.uploadBufferInternal(ctx, data, fileExtName, metadata, true)
	})
}

// UploadSlaveFile uploads a slave file associated with a master file,
// e.g. a derived thumbnail sharing the master's base name plus a prefix.
func (c *Client) UploadSlaveFile(ctx context.Context, masterFileID, prefixName, fileExtName string,
	data []byte, metadata map[string]string) (string, error) {
	if err := c.checkClosed(); err != nil {
		return "", err
	}
	return withRetry(ctx, c, "UploadSlaveFile", notRetryable, func() (string, error) {
		return c.uploadSlaveFileInternal(ctx, masterFileID, prefixName, fileExtName, data, metadata)
	})
}

// DownloadFile downloads a file from FastDFS and returns its content.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	return withRetry(ctx, c, "DownloadFile", notRetryable, func() ([]byte, error) {
		return c.downloadFileInternal(ctx, fileID, 0, 0)
	})
}

// DownloadFileRange downloads a specific range of bytes from a file.
// offset=0, length=0 means the whole file.
func (c *Client) DownloadFileRange(ctx context.Context, fileID string, offset, length int64) ([]byte, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	return withRetry(ctx, c, "DownloadFileRange", notRetryable, func() ([]byte, error) {
		return c.downloadFileInternal(ctx, fileID, offset, length)
	})
}

// DownloadToFile downloads a file and saves it to the local filesystem.
func (c *Client) DownloadToFile(ctx context.Context, fileID, localFilename string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	_, err := withRetry(ctx, c, "DownloadToFile", notRetryable, func() (struct{}, error) {
		return struct{}{}, c.downloadToFileInternal(ctx, fileID, localFilename)
	})
	return err
}

// DeleteFile deletes a file from FastDFS.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	_, err := withRetry(ctx, c, "DeleteFile", notRetryable, func() (struct{}, error) {
		return struct{}{}, c.deleteFileInternal(ctx, fileID)
	})
	return err
}

// AppendFile appends data to an appender file. Per the source client's
// documented behavior, append is never retried: a failed append doesn't
// re-query the tracker and try again, since a partial append isn't
// safely repeatable.
func (c *Client) AppendFile(ctx context.Context, fileID string, data []byte) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	return c.appendFileInternal(ctx, fileID, data)
}

// ModifyFile overwrites content of an appender file at the given offset.
// Not retried, for the same reason as AppendFile.
func (c *Client) ModifyFile(ctx context.Context, fileID string, offset int64, data []byte) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	return c.modifyFileInternal(ctx, fileID, offset, data)
}

// TruncateFile truncates an appender file to the given size. Not
// retried, for the same reason as AppendFile.
func (c *Client) TruncateFile(ctx context.Context, fileID string, size int64) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	return c.truncateFileInternal(ctx, fileID, size)
}

// SetMetadata sets metadata for a file.
func (c *Client) SetMetadata(ctx context.Context, fileID string, metadata map[string]string, flag MetadataFlag) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	_, err := withRetry(ctx, c, "SetMetadata", notRetryable, func() (struct{}, error) {
		return struct{}{}, c.setMetadataInternal(ctx, fileID, metadata, flag)
	})
	return err
}

// GetMetadata retrieves metadata for a file.
func (c *Client) GetMetadata(ctx context.Context, fileID string) (map[string]string, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	return withRetry(ctx, c, "GetMetadata", notRetryable, func() (map[string]string, error) {
		return c.getMetadataInternal(ctx, fileID)
	})
}

// GetFileInfo retrieves file information including size, create time, and CRC32.
func (c *Client) GetFileInfo(ctx context.Context, fileID string) (*FileInfo, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	return withRetry(ctx, c, "GetFileInfo", notRetryable, func() (*FileInfo, error) {
		return c.getFileInfoInternal(ctx, fileID)
	})
}

// FileExists checks if a file exists on the storage server. A
// FileNotFound result is reported as (false, nil) rather than an error.
func (c *Client) FileExists(ctx context.Context, fileID string) (bool, error) {
	if err := c.checkClosed(); err != nil {
		return false, err
	}

	_, err := c.GetFileInfo(ctx, fileID)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close closes the client and releases all pooled connections.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.trackerPool != nil {
		if err := c.trackerPool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("tracker pool: %w", err))
		}
	}
	if c.storagePool != nil {
		if err := c.storagePool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage pool: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// checkClosed returns an error if the client is closed.
func (c *Client) checkClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}
	return nil
}

// validateConfig validates the client configuration.
func validateConfig(config *ClientConfig) error {
	if config == nil {
		return errors.New("config is nil")
	}
	if len(config.TrackerAddrs) == 0 {
		return errors.New("tracker addresses are required")
	}
	for _, addr := range config.TrackerAddrs {
		if addr == "" {
			return errors.New("tracker address cannot be empty")
		}
	}
	return nil
}
