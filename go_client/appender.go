package fdfs

import (
	"bytes"
	"context"
)

// appendFileInternal performs APPEND_FILE: appended_filename_len:u64 |
// file_size:u64 | appended_filename:len, then the file payload.
func (c *Client) appendFileInternal(ctx context.Context, fileID string, data []byte) error {
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

	bodyLen := int64(8+8+len(remoteFilename)) + int64(len(data))
	header := encodeHeader(bodyLen, StorageProtoCmdAppendFile, 0)

	var buf bytes.Buffer
	buf.Write(encodeInt64(int64(len(remoteFilename))))
	buf.Write(encodeInt64(int64(len(data))))
	buf.WriteString(remoteFilename)
	buf.Write(data)

	if err := conn.Send(header, c.config.NetworkTimeout); err != nil {
		return err
	}
	if err := conn.Send(buf.Bytes(), c.config.NetworkTimeout); err != nil {
		return err
	}

	_, err = c.recvHeader(conn)
	return err
}

// modifyFileInternal performs MODIFY_FILE: appender_filename_len:u64 |
// offset:u64 | file_size:u64 | appender_filename:len, then the file
// payload.
func (c *Client) modifyFileInternal(ctx context.Context, fileID string, offset int64, data []byte) error {
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

	bodyLen := int64(8+8+8+len(remoteFilename)) + int64(len(data))
	header := encodeHeader(bodyLen, StorageProtoCmdModifyFile, 0)

	var buf bytes.Buffer
	buf.Write(encodeInt64(int64(len(remoteFilename))))
	buf.Write(encodeInt64(offset))
	buf.Write(encodeInt64(int64(len(data))))
	buf.WriteString(remoteFilename)
	buf.Write(data)

	if err := conn.Send(header, c.config.NetworkTimeout); err != nil {
		return err
	}
	if err := conn.Send(buf.Bytes(), c.config.NetworkTimeout); err != nil {
		return err
	}

	_, err = c.recvHeader(conn)
	return err
}

// truncateFileInternal performs TRUNCATE_FILE: appender_filename_len:u64
// | new_size:u64 | appender_filename:len. No payload.
func (c *Client) truncateFileInternal(ctx context.Context, fileID string, size int64) error {
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

	bodyLen := int64(8 + 8 + len(remoteFilename))
	header := encodeHeader(bodyLen, StorageProtoCmdTruncateFile, 0)

	var buf bytes.Buffer
	buf.Write(encodeInt64(int64(len(remoteFilename))))
	buf.Write(encodeInt64(size))
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
