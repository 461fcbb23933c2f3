package fdfs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		config  *ClientConfig
		wantErr bool
	}{
		{
			name: "valid config",
			config: &ClientConfig{
				TrackerAddrs: []string{"192.168.1.100:22122"},
			},
			wantErr: false,
		},
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
		{
			name: "empty tracker addrs",
			config: &ClientConfig{
				TrackerAddrs: []string{},
			},
			wantErr: true,
		},
		{
			name: "empty tracker addr string",
			config: &ClientConfig{
				TrackerAddrs: []string{""},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, client)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, client)
				if client != nil {
					client.Close()
				}
			}
		})
	}
}

func TestClientDefaults(t *testing.T) {
	config := &ClientConfig{
		TrackerAddrs: []string{"192.168.1.100:22122"},
	}

	client, err := NewClient(config)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 10, client.config.MaxConns)
	assert.Equal(t, 5*time.Second, client.config.ConnectTimeout)
	assert.Equal(t, 30*time.Second, client.config.NetworkTimeout)
	assert.Equal(t, 60*time.Second, client.config.IdleTimeout)
	assert.Equal(t, 3, client.config.RetryCount)
}

func TestClientCloseIsIdempotent(t *testing.T) {
	client, err := NewClient(&ClientConfig{TrackerAddrs: []string{"192.168.1.100:22122"}})
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
}

func TestClientRejectsCallsAfterClose(t *testing.T) {
	client, err := NewClient(&ClientConfig{TrackerAddrs: []string{"192.168.1.100:22122"}})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	ctx := context.Background()
	_, err = client.UploadBuffer(ctx, []byte("data"), "txt", nil)
	assert.ErrorIs(t, err, ErrClientClosed)

	err = client.DeleteFile(ctx, "group1/M00/00/00/test.jpg")
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestSplitFileID(t *testing.T) {
	tests := []struct {
		name         string
		fileID       string
		wantGroup    string
		wantFilename string
		wantErr      bool
	}{
		{
			name:         "valid file ID",
			fileID:       "group1/M00/00/00/test.jpg",
			wantGroup:    "group1",
			wantFilename: "M00/00/00/test.jpg",
			wantErr:      false,
		},
		{
			name:    "empty file ID",
			fileID:  "",
			wantErr: true,
		},
		{
			name:    "no separator",
			fileID:  "group1",
			wantErr: true,
		},
		{
			name:         "empty group",
			fileID:       "/M00/00/00/test.jpg",
			wantGroup:    "",
			wantFilename: "M00/00/00/test.jpg",
			wantErr:      false,
		},
		{
			name:    "empty filename",
			fileID:  "group1/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group, filename, err := splitFileID(tt.fileID)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantGroup, group)
				assert.Equal(t, tt.wantFilename, filename)
			}
		})
	}
}

func TestJoinFileID(t *testing.T) {
	fileID := joinFileID("group1", "M00/00/00/test.jpg")
	assert.Equal(t, "group1/M00/00/00/test.jpg", fileID)
}

func TestGetFileExtName(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{name: "jpg extension", filename: "test.jpg", want: "jpg"},
		{name: "double extension", filename: "archive.tar.gz", want: "tar.gz"},
		{name: "multiple dots double ext", filename: "test.file.txt", want: "file.txt"},
		{name: "no extension", filename: "testfile", want: ""},
		{name: "long extension kept whole", filename: "test.verylongext", want: "verylongext"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := getFileExtName(tt.filename)
			assert.Equal(t, tt.want, ext)
		})
	}
}

func TestEncodeDecodeMetadataPreservesOrder(t *testing.T) {
	metadata := map[string]string{
		"author":  "John Doe",
		"date":    "2025-01-15",
		"version": "1.0",
	}
	keys := []string{"version", "author", "date"}

	encoded := encodeMetadata(keys, metadata)
	decoded, decodedKeys, err := decodeMetadata(encoded)
	require.NoError(t, err)

	assert.Equal(t, keys, decodedKeys)
	assert.Equal(t, metadata, decoded)
}

func TestEncodeDecodeMetadataEmpty(t *testing.T) {
	encoded := encodeMetadata(nil, nil)
	assert.Empty(t, encoded)

	decoded, keys, err := decodeMetadata(encoded)
	require.NoError(t, err)
	assert.Empty(t, decoded)
	assert.Empty(t, keys)
}

func TestEncodeDecodeHeader(t *testing.T) {
	tests := []struct {
		name   string
		length int64
		cmd    byte
		status byte
	}{
		{name: "normal header", length: 1024, cmd: 11, status: 0},
		{name: "zero length", length: 0, cmd: 12, status: 0},
		{name: "nonzero status still round-trips", length: 100, cmd: 13, status: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := encodeHeader(tt.length, tt.cmd, tt.status)
			assert.Equal(t, FdfsProtoHeaderLen, len(encoded))

			decoded, err := decodeHeader(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.length, decoded.Length)
			assert.Equal(t, tt.cmd, decoded.Cmd)
			assert.Equal(t, tt.status, decoded.Status)
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{size: 512, want: "512B"},
		{size: 1024, want: "1.00KB"},
		{size: 10 * 1024 * 1024, want: "10.00MB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.size))
	}
}
