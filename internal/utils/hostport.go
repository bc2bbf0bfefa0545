package utils

import "net"

// HostNoPort returns the host part (no port) from strings like "ip:port", "[v6]:port", or "ip".
func HostNoPort(s string) string {
	if s == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}
