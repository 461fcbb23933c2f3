package fdfs

import (
	"bytes"
	"context"
	"time"
)

// setMetadataInternal performs SET_METADATA: filename_len:u64 |
// meta_len:u64 | op_flag:u8 | group_name:16 | remote_filename:filename_len
// | meta:meta_len. Returns status only.
func (c *Client) setMetadataInternal(ctx context.Context, fileID string, metadata map[string]string, flag MetadataFlag) error {
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

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	metaBytes := encodeMetadata(keys, metadata)

	bodyLen := int64(8+8+1+FdfsGroupNameMaxLen+len(remoteFilename)) + int64(len(metaBytes))
	header := encodeHeader(bodyLen, StorageProtoCmdSetMetadata, 0)

	var buf bytes.Buffer
	buf.Write(encodeInt64(int64(len(remoteFilename))))
	buf.Write(encodeInt64(int64(len(metaBytes))))
	buf.WriteByte(byte(flag))
	buf.Write(padString(groupName, FdfsGroupNameMaxLen))
	buf.WriteString(remoteFilename)
	buf.Write(metaBytes)

	if err := conn.Send(header, c.config.NetworkTimeout); err != nil {
		return err
	}
	if err := conn.Send(buf.Bytes(), c.config.NetworkTimeout); err != nil {
		return err
	}

	_, err = c.recvHeader(conn)
	return err
}

// getMetadataInternal performs GET_METADATA: group_name:16 |
// remote_filename:N. Empty response body means an empty map.
func (c *Client) getMetadataInternal(ctx context.Context, fileID string) (map[string]string, error) {
	groupName, remoteFilename, err := splitFileID(fileID)
	if err != nil {
		return nil, err
	}

	storageServer, err := c.queryUpdateStorage(ctx, groupName, remoteFilename)
	if err != nil {
		return nil, err
	}

	conn, err := c.storagePool.Get(ctx, storageServer.Addr())
	if err != nil {
		return nil, err
	}
	defer c.storagePool.Put(conn)

	bodyLen := int64(FdfsGroupNameMaxLen + len(remoteFilename))
	header := encodeHeader(bodyLen, StorageProtoCmdGetMetadata, 0)

	var buf bytes.Buffer
	buf.Write(padString(groupName, FdfsGroupNameMaxLen))
	buf.WriteString(remoteFilename)

	if err := conn.Send(header, c.config.NetworkTimeout); err != nil {
		return nil, err
	}
	if err := conn.Send(buf.Bytes(), c.config.NetworkTimeout); err != nil {
		return nil, err
	}

	respHeader, err := c.recvHeader(conn)
	if err != nil {
		return nil, err
	}
	if respHeader.Length == 0 {
		return map[string]string{}, nil
	}

	metaBytes, err := conn.ReceiveFull(int(respHeader.Length), c.config.NetworkTimeout)
	if err != nil {
		return nil, err
	}

	metadata, _, err := decodeMetadata(metaBytes)
	return metadata, err
}

// getFileInfoInternal performs QUERY_FILE_INFO: group_name:16 |
// remote_filename:N. Response body: file_size:u64 | create_timestamp:u64
// | crc32:u32 | source_ip_addr:16.
func (c *Client) getFileInfoInternal(ctx context.Context, fileID string) (*FileInfo, error) {
	groupName, remoteFilename, err := splitFileID(fileID)
	if err != nil {
		return nil, err
	}

	storageServer, err := c.queryUpdateStorage(ctx, groupName, remoteFilename)
	if err != nil {
		return nil, err
	}

	conn, err := c.storagePool.Get(ctx, storageServer.Addr())
	if err != nil {
		return nil, err
	}
	defer c.storagePool.Put(conn)

	bodyLen := int64(FdfsGroupNameMaxLen + len(remoteFilename))
	header := encodeHeader(bodyLen, StorageProtoCmdQueryFileInfo, 0)

	var buf bytes.Buffer
	buf.Write(padString(groupName, FdfsGroupNameMaxLen))
	buf.WriteString(remoteFilename)

	if err := conn.Send(header, c.config.NetworkTimeout); err != nil {
		return nil, err
	}
	if err := conn.Send(buf.Bytes(), c.config.NetworkTimeout); err != nil {
		return nil, err
	}

	respHeader, err := c.recvHeader(conn)
	if err != nil {
		return nil, err
	}

	const expectedLen = 8 + 8 + 4 + IPAddressSize
	if respHeader.Length < expectedLen {
		return nil, ErrInvalidResponse
	}

	respBody, err := conn.ReceiveFull(int(respHeader.Length), c.config.NetworkTimeout)
	if err != nil {
		return nil, err
	}

	fileSize := decodeInt64(respBody[0:8])
	createTimestamp := decodeInt64(respBody[8:16])
	crc32 := uint32(decodeInt32(respBody[16:20]))
	ipAddr := unpadString(respBody[20:36])

	return &FileInfo{
		FileSize:     fileSize,
		CreateTime:   time.Unix(createTimestamp, 0),
		CRC32:        crc32,
		SourceIPAddr: ipAddr,
	}, nil
}
