package fdfs

import (
	"bytes"
	"context"
	"os"
)

// downloadRequest performs the DOWNLOAD_FILE request/response dialog up
// to (but not including) reading the response body: offset:u64 |
// download_size:u64 | group_name:16 | remote_filename:N. offset=0,
// length=0 means the whole file. The returned connection holds exactly
// respLength unread body bytes; callers must drain all of them before
// returning it to the pool.
func (c *Client) downloadRequest(ctx context.Context, fileID string, offset, length int64) (conn *Connection, respLength int64, err error) {
	groupName, remoteFilename, err := splitFileID(fileID)
	if err != nil {
		return nil, 0, err
	}

	storageServer, err := c.queryFetchStorage(ctx, groupName, remoteFilename)
	if err != nil {
		return nil, 0, err
	}

	conn, err = c.storagePool.Get(ctx, storageServer.Addr())
	if err != nil {
		return nil, 0, err
	}

	bodyLen := int64(8 + 8 + FdfsGroupNameMaxLen + len(remoteFilename))
	header := encodeHeader(bodyLen, StorageProtoCmdDownloadFile, 0)

	var buf bytes.Buffer
	buf.Write(encodeInt64(offset))
	buf.Write(encodeInt64(length))
	buf.Write(padString(groupName, FdfsGroupNameMaxLen))
	buf.WriteString(remoteFilename)

	if err := conn.Send(header, c.config.NetworkTimeout); err != nil {
		c.storagePool.Put(conn)
		return nil, 0, err
	}
	if err := conn.Send(buf.Bytes(), c.config.NetworkTimeout); err != nil {
		c.storagePool.Put(conn)
		return nil, 0, err
	}

	respHeader, err := c.recvHeader(conn)
	if err != nil {
		c.storagePool.Put(conn)
		return nil, 0, err
	}

	return conn, respHeader.Length, nil
}

// downloadFileInternal downloads a whole or partial file into memory.
func (c *Client) downloadFileInternal(ctx context.Context, fileID string, offset, length int64) ([]byte, error) {
	conn, respLength, err := c.downloadRequest(ctx, fileID, offset, length)
	if err != nil {
		return nil, err
	}
	defer c.storagePool.Put(conn)

	if respLength <= 0 {
		return []byte{}, nil
	}

	return conn.ReceiveFull(int(respLength), c.config.NetworkTimeout)
}

// downloadToFileInternal downloads the whole file, streaming the
// response body straight to localFilename in bounded chunks rather than
// buffering it whole in memory. Any existing content is truncated.
func (c *Client) downloadToFileInternal(ctx context.Context, fileID, localFilename string) error {
	conn, respLength, err := c.downloadRequest(ctx, fileID, 0, 0)
	if err != nil {
		return err
	}
	defer c.storagePool.Put(conn)

	f, err := os.Create(localFilename)
	if err != nil {
		return err
	}
	defer f.Close()

	if respLength <= 0 {
		return nil
	}

	return bufferedDownloadCopy(conn, f, respLength, c.config.NetworkTimeout)
}

// deleteFileInternal performs DELETE_FILE: group_name:16 |
// remote_filename:N. No response body.
func (c *Client) deleteFileInternal(ctx context.Context, fileID string) error {
	groupName, remoteFilename, err := splitFileID(fileID)
	if err != nil {
		return err
	}

	storageServer, err := c.queryUpdateStorage(ctx, groupName, remoteFilename)
	if err != nil {
		return err
	}

	conn, err := c.storagePool.Get(ctx, storageServer.Addr())
	if err != nil {
		return err
	}
	defer c.storagePool.Put(conn)

	bodyLen := int64(FdfsGroupNameMaxLen + len(remoteFilename))
	header := encodeHeader(bodyLen, StorageProtoCmdDeleteFile, 0)

	var buf bytes.Buffer
	buf.Write(padString(groupName, FdfsGroupNameMaxLen))
	buf.WriteString(remoteFilename)

	if err := conn.Send(header, c.config.NetworkTimeout); err != nil {
		return err
	}
	if err := conn.Send(buf.Bytes(), c.config.NetworkTimeout); err != nil {
		return err
	}

	_, err = c.recvHeader(conn)
	return err
}
