package fdfs

import (
	"bytes"
	"context"
	"time"
)

// trackerQueryStorageBodyLen is the fixed response body size for both the
// stor_without_group and stor_with_group queries:
// group_name(16) + ip_addr(15) + port(8) + store_path_index(1).
const trackerQueryStorageBodyLen = FdfsGroupNameMaxLen + (IPAddressSize - 1) + 8 + 1

// trackerQueryFetchBodyLen is the fixed response body size for the
// query_update / query_fetch dialog: group_name(16) + ip_addr(15) + port(8).
const trackerQueryFetchBodyLen = FdfsGroupNameMaxLen + (IPAddressSize - 1) + 8

// queryStoreStorage asks a tracker which storage server (and store path
// index) a new upload should go to. When groupName is empty it uses
// TRACKER_PROTO_CMD_SERVICE_QUERY_STORE_WITHOUT_GROUP_ONE; otherwise it
// pins the query to that group with the _WITH_GROUP_ONE variant.
func (c *Client) queryStoreStorage(ctx context.Context, groupName string) (*StorageServer, error) {
	conn, err := c.trackerPool.Get(ctx, "")
	if err != nil {
		return nil, err
	}
	defer c.trackerPool.Put(conn)

	var bodyLen int64
	var cmd byte
	var body []byte

	if groupName == "" {
		cmd = TrackerProtoCmdServiceQueryStoreWithoutGroupOne
	} else {
		cmd = TrackerProtoCmdServiceQueryStoreWithGroupOne
		bodyLen = FdfsGroupNameMaxLen
		body = padString(groupName, FdfsGroupNameMaxLen)
	}

	header := encodeHeader(bodyLen, cmd, 0)
	if err := conn.Send(header, c.config.NetworkTimeout); err != nil {
		return nil, err
	}
	if len(body) > 0 {
		if err := conn.Send(body, c.config.NetworkTimeout); err != nil {
			return nil, err
		}
	}

	respHeader, err := c.recvHeader(conn)
	if err != nil {
		return nil, err
	}
	if respHeader.Length <= 0 {
		return nil, ErrNoStorageServer
	}

	respBody, err := conn.ReceiveFull(int(respHeader.Length), c.config.NetworkTimeout)
	if err != nil {
		return nil, err
	}
	if len(respBody) != trackerQueryStorageBodyLen {
		return nil, &ResponseError{Op: "queryStoreStorage", Message: "unexpected response length"}
	}

	offset := 0
	respGroup := unpadString(respBody[offset : offset+FdfsGroupNameMaxLen])
	offset += FdfsGroupNameMaxLen
	ipAddr := unpadString(respBody[offset : offset+IPAddressSize-1])
	offset += IPAddressSize - 1
	port := int(decodeInt64(respBody[offset : offset+8]))
	offset += 8
	storePathIndex := respBody[offset]

	return &StorageServer{
		GroupName:      respGroup,
		IPAddr:         ipAddr,
		Port:           port,
		StorePathIndex: storePathIndex,
	}, nil
}

// queryStorageForOp resolves the storage server that owns fileID, using
// cmd to select between the query_update (mutating operations: delete,
// set_meta, append, modify, truncate, slave upload, query_file_info) and
// query_fetch (download) tracker dialogs. Both share the same wire format,
// grounded on _tracker_do_query_storage in the original client.
func (c *Client) queryStorageForOp(ctx context.Context, groupName, remoteFilename string, cmd byte) (*StorageServer, error) {
	conn, err := c.trackerPool.Get(ctx, "")
	if err != nil {
		return nil, err
	}
	defer c.trackerPool.Put(conn)

	bodyLen := int64(FdfsGroupNameMaxLen + len(remoteFilename))
	header := encodeHeader(bodyLen, cmd, 0)

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

	respBody, err := conn.ReceiveFull(int(respHeader.Length), c.config.NetworkTimeout)
	if err != nil {
		return nil, err
	}
	if len(respBody) != trackerQueryFetchBodyLen {
		return nil, &ResponseError{Op: "queryStorageForOp", Message: "unexpected response length"}
	}

	offset := 0
	respGroup := unpadString(respBody[offset : offset+FdfsGroupNameMaxLen])
	offset += FdfsGroupNameMaxLen
	ipAddr := unpadString(respBody[offset : offset+IPAddressSize-1])
	offset += IPAddressSize - 1
	port := int(decodeInt64(respBody[offset : offset+8]))

	return &StorageServer{
		GroupName: respGroup,
		IPAddr:    ipAddr,
		Port:      port,
	}, nil
}

// queryUpdateStorage resolves the storage server for a mutating operation
// against an existing file (delete, append, modify, truncate, set_meta,
// query_file_info, slave upload).
func (c *Client) queryUpdateStorage(ctx context.Context, groupName, remoteFilename string) (*StorageServer, error) {
	return c.queryStorageForOp(ctx, groupName, remoteFilename, TrackerProtoCmdServiceQueryUpdate)
}

// queryFetchStorage resolves the storage server to download a file from.
func (c *Client) queryFetchStorage(ctx context.Context, groupName, remoteFilename string) (*StorageServer, error) {
	return c.queryStorageForOp(ctx, groupName, remoteFilename, TrackerProtoCmdServiceQueryFetchOne)
}

// recvHeader reads and decodes a 10-byte response header, translating a
// non-zero status into its mapped error.
func (c *Client) recvHeader(conn *Connection) (*TrackerHeader, error) {
	raw, err := conn.ReceiveFull(FdfsProtoHeaderLen, c.config.NetworkTimeout)
	if err != nil {
		return nil, err
	}
	header, err := decodeHeader(raw)
	if err != nil {
		return nil, err
	}
	if header.Status != 0 {
		return nil, mapStatusToError(header.Status)
	}
	return header, nil
}

// ListOneGroup fetches aggregate information for a single storage group.
func (c *Client) ListOneGroup(ctx context.Context, groupName string) (*GroupInfo, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	conn, err := c.trackerPool.Get(ctx, "")
	if err != nil {
		return nil, err
	}
	defer c.trackerPool.Put(conn)

	header := encodeHeader(FdfsGroupNameMaxLen, TrackerProtoCmdServerListOneGroup, 0)
	if err := conn.Send(header, c.config.NetworkTimeout); err != nil {
		return nil, err
	}
	if err := conn.Send(padString(groupName, FdfsGroupNameMaxLen), c.config.NetworkTimeout); err != nil {
		return nil, err
	}

	respHeader, err := c.recvHeader(conn)
	if err != nil {
		return nil, err
	}

	respBody, err := conn.ReceiveFull(int(respHeader.Length), c.config.NetworkTimeout)
	if err != nil {
		return nil, err
	}
	if len(respBody) != groupRecordLen {
		return nil, &ResponseError{Op: "ListOneGroup", Message: "unexpected response length"}
	}

	return decodeGroupInfo(respBody), nil
}

// ListAllGroups fetches aggregate information for every storage group
// known to the tracker.
func (c *Client) ListAllGroups(ctx context.Context) ([]*GroupInfo, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	conn, err := c.trackerPool.Get(ctx, "")
	if err != nil {
		return nil, err
	}
	defer c.trackerPool.Put(conn)

	header := encodeHeader(0, TrackerProtoCmdServerListAllGroups, 0)
	if err := conn.Send(header, c.config.NetworkTimeout); err != nil {
		return nil, err
	}

	respHeader, err := c.recvHeader(conn)
	if err != nil {
		return nil, err
	}
	if respHeader.Length == 0 {
		return nil, nil
	}

	respBody, err := conn.ReceiveFull(int(respHeader.Length), c.config.NetworkTimeout)
	if err != nil {
		return nil, err
	}
	if len(respBody)%groupRecordLen != 0 {
		return nil, &ResponseError{Op: "ListAllGroups", Message: "response size not a multiple of the group record length"}
	}

	count := len(respBody) / groupRecordLen
	groups := make([]*GroupInfo, 0, count)
	for i := 0; i < count; i++ {
		record := respBody[i*groupRecordLen : (i+1)*groupRecordLen]
		groups = append(groups, decodeGroupInfo(record))
	}
	return groups, nil
}

// ListServers fetches detailed per-server status for every storage server
// in groupName, optionally filtered to a single storageIP.
func (c *Client) ListServers(ctx context.Context, groupName, storageIP string) ([]*StorageInfo, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	conn, err := c.trackerPool.Get(ctx, "")
	if err != nil {
		return nil, err
	}
	defer c.trackerPool.Put(conn)

	ipLen := len(storageIP)
	if ipLen >= IPAddressSize {
		ipLen = IPAddressSize - 1
	}

	bodyLen := int64(FdfsGroupNameMaxLen + ipLen)
	header := encodeHeader(bodyLen, TrackerProtoCmdServerListStorage, 0)

	var buf bytes.Buffer
	buf.Write(padString(groupName, FdfsGroupNameMaxLen))
	if ipLen > 0 {
		buf.WriteString(storageIP[:ipLen])
	}

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
		return nil, nil
	}

	respBody, err := conn.ReceiveFull(int(respHeader.Length), c.config.NetworkTimeout)
	if err != nil {
		return nil, err
	}
	if len(respBody)%storageRecordLen != 0 {
		return nil, &ResponseError{Op: "ListServers", Message: "response size not a multiple of the storage record length"}
	}

	count := len(respBody) / storageRecordLen
	servers := make([]*StorageInfo, 0, count)
	for i := 0; i < count; i++ {
		record := respBody[i*storageRecordLen : (i+1)*storageRecordLen]
		servers = append(servers, decodeStorageInfo(record))
	}
	return servers, nil
}

// decodeGroupInfo decodes one fixed-width Group_info record:
// group_name(17) + 11 * uint64.
func decodeGroupInfo(record []byte) *GroupInfo {
	name := unpadString(record[:fdfsGroupNameRecordLen])
	off := fdfsGroupNameRecordLen
	next := func() int64 {
		v := decodeInt64(record[off : off+8])
		off += 8
		return v
	}
	return &GroupInfo{
		GroupName:          name,
		TotalMB:            next(),
		FreeMB:             next(),
		TrunkFreeMB:        next(),
		StorageCount:       next(),
		StoragePort:        next(),
		StorageHTTPPort:    next(),
		ActiveCount:        next(),
		CurrentWriteServer: next(),
		StorePathCount:     next(),
		SubdirCountPerPath: next(),
		CurrentTrunkFileID: next(),
	}
}

// decodeStorageInfo decodes one fixed-width Storage_info record:
// status(1) + id(16) + ip(16) + domain(128) + src_ip(16) + version(6) +
// 52*uint64 + trunk_flag(1). Matches spec.md §3's 52-counter layout
// rather than the original Python's duplicated total_append_bytes
// assignment (see DESIGN.md).
func decodeStorageInfo(record []byte) *StorageInfo {
	off := 0
	byteAt := func() byte {
		v := record[off]
		off++
		return v
	}
	strField := func(n int) string {
		v := unpadString(record[off : off+n])
		off += n
		return v
	}
	u64 := func() uint64 {
		v := decodeUint64(record[off : off+8])
		off += 8
		return v
	}
	i64 := func() int64 {
		return int64(u64())
	}
	ts := func() time.Time {
		return time.Unix(i64(), 0)
	}

	info := &StorageInfo{}
	info.Status = byteAt()
	info.ID = strField(FdfsStorageIDMaxSize)
	info.IPAddr = strField(IPAddressSize)
	info.DomainName = strField(FdfsDomainNameMaxLen)
	info.SrcIPAddr = strField(IPAddressSize)
	info.Version = strField(FdfsVersionSize)

	info.JoinTime = ts()
	info.UpTime = ts()
	info.TotalMB = i64()
	info.FreeMB = i64()
	info.UploadPriority = i64()
	info.StorePathCount = i64()
	info.SubdirCountPerPath = i64()
	info.StoragePort = i64()
	info.StorageHTTPPort = i64()
	info.CurrentWritePath = i64()

	info.TotalUploadCount = u64()
	info.SuccessUploadCount = u64()
	info.TotalAppendCount = u64()
	info.SuccessAppendCount = u64()
	info.TotalModifyCount = u64()
	info.SuccessModifyCount = u64()
	info.TotalTruncateCount = u64()
	info.SuccessTruncateCount = u64()
	info.TotalSetMetaCount = u64()
	info.SuccessSetMetaCount = u64()
	info.TotalDeleteCount = u64()
	info.SuccessDeleteCount = u64()
	info.TotalDownloadCount = u64()
	info.SuccessDownloadCount = u64()
	info.TotalGetMetaCount = u64()
	info.SuccessGetMetaCount = u64()
	info.TotalCreateLinkCount = u64()
	info.SuccessCreateLinkCount = u64()
	info.TotalDeleteLinkCount = u64()
	info.SuccessDeleteLinkCount = u64()

	info.TotalUploadBytes = u64()
	info.SuccessUploadBytes = u64()
	info.TotalAppendBytes = u64()
	info.SuccessAppendBytes = u64()
	info.TotalModifyBytes = u64()
	info.SuccessModifyBytes = u64()
	info.TotalDownloadBytes = u64()
	info.SuccessDownloadBytes = u64()
	info.TotalSyncInBytes = u64()
	info.SuccessSyncInBytes = u64()
	info.TotalSyncOutBytes = u64()
	info.SuccessSyncOutBytes = u64()

	info.TotalFileOpenCount = u64()
	info.SuccessFileOpenCount = u64()
	info.TotalFileReadCount = u64()
	info.SuccessFileReadCount = u64()
	info.TotalFileWriteCount = u64()
	info.SuccessFileWriteCount = u64()

	info.LastSourceSync = ts()
	info.LastSyncUpdate = ts()
	info.LastSyncedTime = ts()
	info.LastHeartbeatTime = ts()
	info.IfTrunkServer = byteAt() != 0

	return info
}
