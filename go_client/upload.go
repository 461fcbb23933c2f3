package fdfs

import (
	"bytes"
	"context"
	"os"
)

// uploadNonSlave performs UPLOAD_FILE/UPLOAD_APPENDER_FILE: the storage
// server is located by queryStoreStorage (fresh upload, no existing file
// to anchor to), and the body prefix is
// store_path_index:u8 | file_size:u64 | ext_name:6. groupName, when
// non-empty, pins the upload to that group (query_store_with_group)
// instead of letting the tracker pick one (query_store_no_group).
func (c *Client) uploadNonSlave(ctx context.Context, groupName string, payload uploadPayload, extName string, metadata map[string]string, isAppender bool) (string, error) {
	storageServer, err := c.queryStoreStorage(ctx, groupName)
	if err != nil {
		return "", err
	}

	conn, err := c.storagePool.Get(ctx, storageServer.Addr())
	if err != nil {
		return "", err
	}
	defer c.storagePool.Put(conn)

	cmd := byte(StorageProtoCmdUploadFile)
	if isAppender {
		cmd = byte(StorageProtoCmdUploadAppenderFile)
	}

	extNameBytes := padString(extName, FdfsFileExtNameMaxLen)
	bodyLen := int64(1+8+FdfsFileExtNameMaxLen) + payload.size
	header := encodeHeader(bodyLen, cmd, 0)

	var prefix bytes.Buffer
	prefix.WriteByte(storageServer.StorePathIndex)
	prefix.Write(encodeInt64(payload.size))
	prefix.Write(extNameBytes)

	if err := conn.Send(header, c.config.NetworkTimeout); err != nil {
		return "", err
	}
	if err := conn.Send(prefix.Bytes(), c.config.NetworkTimeout); err != nil {
		return "", err
	}
	if err := payload.send(conn, c.config.NetworkTimeout); err != nil {
		return "", err
	}

	fileID, err := c.recvUploadResponse(conn)
	if err != nil {
		return "", err
	}

	return c.applyUploadMetadata(ctx, fileID, metadata)
}

// uploadSlave performs UPLOAD_SLAVE_FILE: the storage server is located
// via queryUpdateStorage against the master file, and the body prefix is
// master_filename_len:u64 | file_size:u64 | prefix_name:16 | ext_name:6 |
// master_filename.
func (c *Client) uploadSlave(ctx context.Context, masterFileID, prefixName, extName string, payload uploadPayload, metadata map[string]string) (string, error) {
	if prefixName == "" {
		return "", ErrEmptyPrefix
	}

	groupName, masterFilename, err := splitFileID(masterFileID)
	if err != nil {
		return "", err
	}
	if len(prefixName) > FdfsFilePrefixMaxLen {
		prefixName = prefixName[:FdfsFilePrefixMaxLen]
	}

	storageServer, err := c.queryUpdateStorage(ctx, groupName, masterFilename)
	if err != nil {
		return "", err
	}

	conn, err := c.storagePool.Get(ctx, storageServer.Addr())
	if err != nil {
		return "", err
	}
	defer c.storagePool.Put(conn)

	extNameBytes := padString(extName, FdfsFileExtNameMaxLen)
	prefixNameBytes := padString(prefixName, FdfsFilePrefixMaxLen)

	bodyLen := int64(8+8+FdfsFilePrefixMaxLen+FdfsFileExtNameMaxLen+len(masterFilename)) + payload.size
	header := encodeHeader(bodyLen, StorageProtoCmdUploadSlaveFile, 0)

	var prefix bytes.Buffer
	prefix.Write(encodeInt64(int64(len(masterFilename))))
	prefix.Write(encodeInt64(payload.size))
	prefix.Write(prefixNameBytes)
	prefix.Write(extNameBytes)
	prefix.WriteString(masterFilename)

	if err := conn.Send(header, c.config.NetworkTimeout); err != nil {
		return "", err
	}
	if err := conn.Send(prefix.Bytes(), c.config.NetworkTimeout); err != nil {
		return "", err
	}
	if err := payload.send(conn, c.config.NetworkTimeout); err != nil {
		return "", err
	}

	fileID, err := c.recvUploadResponse(conn)
	if err != nil {
		return "", err
	}

	return c.applyUploadMetadata(ctx, fileID, metadata)
}

// recvUploadResponse reads the shared upload response shape:
// group_name:16 | remote_filename:pkg_len-16.
func (c *Client) recvUploadResponse(conn *Connection) (string, error) {
	respHeader, err := c.recvHeader(conn)
	if err != nil {
		return "", err
	}
	if respHeader.Length <= FdfsGroupNameMaxLen {
		return "", ErrInvalidResponse
	}

	respBody, err := conn.ReceiveFull(int(respHeader.Length), c.config.NetworkTimeout)
	if err != nil {
		return "", err
	}

	groupName := unpadString(respBody[:FdfsGroupNameMaxLen])
	remoteFilename := string(respBody[FdfsGroupNameMaxLen:])
	return joinFileID(groupName, remoteFilename), nil
}

// applyUploadMetadata sets metadata on a freshly uploaded file, rolling
// the upload back with DELETE_FILE if the metadata write fails, per the
// facade's documented rollback behavior.
func (c *Client) applyUploadMetadata(ctx context.Context, fileID string, metadata map[string]string) (string, error) {
	if len(metadata) == 0 {
		return fileID, nil
	}

	if err := c.setMetadataInternal(ctx, fileID, metadata, MetadataOverwrite); err != nil {
		if delErr := c.deleteFileInternal(ctx, fileID); delErr != nil {
			c.log.WithError(delErr).WithField("file_id", fileID).Warn("rollback delete after metadata failure also failed")
		}
		return "", err
	}
	return fileID, nil
}

// uploadFileInternal uploads a local file, streaming its content in
// chunks (or via sendfile, platform permitting) rather than reading the
// whole file into memory.
func (c *Client) uploadFileInternal(ctx context.Context, localFilename string, metadata map[string]string, isAppender bool) (string, error) {
	return c.uploadFileToGroupInternal(ctx, "", localFilename, metadata, isAppender)
}

// uploadFileToGroupInternal is uploadFileInternal pinned to a caller-chosen
// group via query_store_with_group instead of letting the tracker pick.
func (c *Client) uploadFileToGroupInternal(ctx context.Context, groupName, localFilename string, metadata map[string]string, isAppender bool) (string, error) {
	f, err := os.Open(localFilename)
	if err != nil {
		return "", ErrFileNotFound
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", ErrFileNotFound
	}

	extName := getFileExtName(localFilename)
	return c.uploadNonSlave(ctx, groupName, filePayload(f, stat.Size()), extName, metadata, isAppender)
}

// uploadBufferInternal uploads an in-memory buffer.
func (c *Client) uploadBufferInternal(ctx context.Context, data []byte, fileExtName string, metadata map[string]string, isAppender bool) (string, error) {
	return c.uploadBufferToGroupInternal(ctx, "", data, fileExtName, metadata, isAppender)
}

// uploadBufferToGroupInternal is uploadBufferInternal pinned to a
// caller-chosen group via query_store_with_group.
func (c *Client) uploadBufferToGroupInternal(ctx context.Context, groupName string, data []byte, fileExtName string, metadata map[string]string, isAppender bool) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyBuffer
	}
	return c.uploadNonSlave(ctx, groupName, bufferPayload(data), fileExtName, metadata, isAppender)
}

// uploadSlaveFileInternal uploads a slave file derived from masterFileID.
func (c *Client) uploadSlaveFileInternal(ctx context.Context, masterFileID, prefixName, fileExtName string, data []byte, metadata map[string]string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyBuffer
	}
	return c.uploadSlave(ctx, masterFileID, prefixName, fileExtName, bufferPayload(data), metadata)
}
