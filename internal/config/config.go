// Package config loads FastDFS client.conf-style configuration files
// into a fdfs.ClientConfig.
package config

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Unknwon/goconfig"

	fdfs "github.com/hay86/fdfs-client-go/go_client"
)

// defaultSection is the synthetic section name prepended to
// section-less client.conf files so goconfig's section/key model
// can parse them, mirroring the original client's Fdfs_ConfigParser.
const defaultSection = "__config__"

// Load reads a client.conf-style file at path and returns the
// equivalent fdfs.ClientConfig.
func Load(path string) (*fdfs.ClientConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &fdfs.ConfigError{Path: path, Err: err}
	}
	defer f.Close()

	return LoadReader(path, f)
}

// LoadReader parses client.conf content from r. path is used only for
// error messages.
func LoadReader(path string, r io.Reader) (*fdfs.ClientConfig, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &fdfs.ConfigError{Path: path, Err: err}
	}

	trackerAddrs, err := collectTrackerAddrs(raw)
	if err != nil {
		return nil, &fdfs.ConfigError{Path: path, Err: err}
	}
	if len(trackerAddrs) == 0 {
		return nil, &fdfs.ConfigError{Path: path, Err: fmt.Errorf("tracker_server not set")}
	}

	cf, err := goconfig.LoadFromReader(bytes.NewReader(prependSection(raw)))
	if err != nil {
		return nil, &fdfs.ConfigError{Path: path, Err: err}
	}

	config := &fdfs.ClientConfig{TrackerAddrs: trackerAddrs}

	if seconds, err := cf.Int(defaultSection, "connect_timeout"); err == nil {
		config.ConnectTimeout = time.Duration(seconds) * time.Second
	}
	if seconds, err := cf.Int(defaultSection, "network_timeout"); err == nil {
		config.NetworkTimeout = time.Duration(seconds) * time.Second
	}
	if seconds, err := cf.Int(defaultSection, "idle_timeout"); err == nil {
		config.IdleTimeout = time.Duration(seconds) * time.Second
	}
	if n, err := cf.Int(defaultSection, "max_conns"); err == nil {
		config.MaxConns = n
	}

	// http_tracker_http_port is read for config-file compatibility with
	// the original project but has no effect: the HTTP gateway is out
	// of scope for this data-plane client.
	_ = cf.MustValue(defaultSection, "http_tracker_http_port")

	return config, nil
}

// prependSection wraps section-less content with the synthetic
// [__config__] header goconfig needs, unless the file already starts
// with a section header of its own.
func prependSection(raw []byte) []byte {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			return raw
		}
		break
	}

	var buf bytes.Buffer
	buf.WriteString("[" + defaultSection + "]\n")
	buf.Write(raw)
	return buf.Bytes()
}

// collectTrackerAddrs scans raw client.conf content for repeated
// "tracker_server = host:port" lines, collecting every host that
// shares the last-seen port into one address slice. A continuation
// line (leading whitespace, extending the previous key's value) is
// ignored for this key since FastDFS client.conf never wraps it.
func collectTrackerAddrs(raw []byte) ([]string, error) {
	var hosts []string
	var lastPort string

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "rem ") {
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok || key != "tracker_server" {
			continue
		}

		host, port, err := splitHostPort(value)
		if err != nil {
			return nil, fmt.Errorf("invalid tracker_server %q: %w", value, err)
		}
		hosts = append(hosts, host)
		lastPort = port
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	addrs := make([]string, 0, len(hosts))
	for _, host := range hosts {
		addrs = append(addrs, host+":"+lastPort)
	}
	return addrs, nil
}

func splitKeyValue(line string) (key, value string, ok bool) {
	idx := strings.IndexAny(line, "=:")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(stripInlineComment(line[idx+1:]))
	return key, value, true
}

// stripInlineComment truncates value at the first ';' that is preceded
// by whitespace, matching the original client's option-value parsing: a
// ';' only starts a comment when it follows a spacing character, so
// "10.0.0.1:22122 ; primary" becomes "10.0.0.1:22122" while a bare
// "a;b" is left untouched.
func stripInlineComment(value string) string {
	pos := strings.Index(value, ";")
	if pos > 0 && isSpace(value[pos-1]) {
		return value[:pos]
	}
	return value
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '\v' || b == '\f'
}

func splitHostPort(hostPort string) (host, port string, err error) {
	idx := strings.LastIndex(hostPort, ":")
	if idx < 0 {
		return "", "", fmt.Errorf("missing ':'")
	}
	host = hostPort[:idx]
	port = hostPort[idx+1:]
	if host == "" || port == "" {
		return "", "", fmt.Errorf("empty host or port")
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", "", fmt.Errorf("non-numeric port %q", port)
	}
	return host, port, nil
}
