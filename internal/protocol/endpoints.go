package protocol

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/universal-console/serialconsole/internal/errors"
)

// ChannelCommand builds the frame selecting channel index
func ChannelCommand(index int) string {
	return ChannelPrefix + strconv.Itoa(index)
}

// ParseChannelCommand extracts the index from a "CHANNEL:<n>" frame. Only a
// non-negative decimal integer is accepted.
func ParseChannelCommand(frame string) (int, bool) {
	if !strings.HasPrefix(frame, ChannelPrefix) {
		return 0, false
	}
	digits := strings.TrimSpace(frame[len(ChannelPrefix):])
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// BuildURL assembles the multiplexer endpoint. A zero port means DefaultPort
// and an empty path means "/".
func BuildURL(host string, port int, path string, tls bool) string {
	if port == 0 {
		port = DefaultPort
	}
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	scheme := "ws"
	if tls {
		scheme = "wss"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   path,
	}
	return u.String()
}

// ValidateURL checks that raw is a ws or wss URL with a host
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrConfiguration, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: unsupported scheme %q", errors.ErrConfiguration, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: missing host in %q", errors.ErrConfiguration, raw)
	}
	return nil
}
