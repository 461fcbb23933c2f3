package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReaderSectionLess(t *testing.T) {
	content := `
# FastDFS client config
connect_timeout = 5
network_timeout = 30
tracker_server = 10.0.0.1:22122
tracker_server = 10.0.0.2:22122
`
	cfg, err := LoadReader("client.conf", strings.NewReader(content))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"10.0.0.1:22122", "10.0.0.2:22122"}, cfg.TrackerAddrs)
	assert.Equal(t, 5*1e9, float64(cfg.ConnectTimeout))
	assert.Equal(t, 30*1e9, float64(cfg.NetworkTimeout))
}

func TestLoadReaderMissingTrackerServer(t *testing.T) {
	content := `connect_timeout = 5`
	_, err := LoadReader("client.conf", strings.NewReader(content))
	assert.Error(t, err)
}

func TestLoadReaderRejectsBadPort(t *testing.T) {
	content := `tracker_server = 10.0.0.1:notaport`
	_, err := LoadReader("client.conf", strings.NewReader(content))
	assert.Error(t, err)
}

func TestLoadReaderStripsInlineComment(t *testing.T) {
	content := `tracker_server = 10.0.0.1:22122 ; primary
tracker_server = 10.0.0.2:22122 ; secondary
`
	cfg, err := LoadReader("client.conf", strings.NewReader(content))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"10.0.0.1:22122", "10.0.0.2:22122"}, cfg.TrackerAddrs)
}

func TestStripInlineComment(t *testing.T) {
	assert.Equal(t, "10.0.0.1:22122", stripInlineComment("10.0.0.1:22122 ; primary"))
	assert.Equal(t, "a;b", stripInlineComment("a;b"))
	assert.Equal(t, "10.0.0.1:22122", stripInlineComment("10.0.0.1:22122"))
}

func TestSplitHostPort(t *testing.T) {
	host, port, err := splitHostPort("10.0.0.1:22122")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", host)
	assert.Equal(t, "22122", port)

	_, _, err = splitHostPort("no-port")
	assert.Error(t, err)
}
