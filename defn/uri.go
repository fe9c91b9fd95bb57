package defn

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// FaceURI is a parsed face URI: scheme://host[:port][/path]
// Bracketed IPv6 hosts and Ethernet MAC "hosts" are
// normalized away from their bracket/wrapper syntax so that equality
// and round-tripping are straightforward.
type FaceURI struct {
	Scheme string
	Host   string
	Port   uint16
	Path   string
}

var validSchemes = map[string]bool{
	"tcp4": true, "tcp6": true,
	"udp4": true, "udp6": true,
	"unix": true, "fd": true,
	"ether": true, "dev": true,
}

// ParseFaceURI parses a face URI string.
func ParseFaceURI(s string) (*FaceURI, error) {
	schemeSep := strings.Index(s, "://")
	if schemeSep < 0 {
		return nil, fmt.Errorf("face uri %q: missing scheme separator", s)
	}
	scheme := s[:schemeSep]
	if !validSchemes[scheme] {
		return nil, fmt.Errorf("face uri %q: unknown scheme %q", s, scheme)
	}
	rest := s[schemeSep+3:]

	u := &FaceURI{Scheme: scheme}

	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		u.Path = rest[slash+1:]
		rest = rest[:slash]
	}

	switch scheme {
	case "ether":
		if !strings.HasPrefix(rest, "[") || !strings.HasSuffix(rest, "]") {
			return nil, fmt.Errorf("face uri %q: ethernet host must be bracketed", s)
		}
		mac := rest[1 : len(rest)-1]
		if _, err := net.ParseMAC(mac); err != nil {
			return nil, fmt.Errorf("face uri %q: %w", s, err)
		}
		u.Host = mac
		return u, nil
	case "dev", "unix", "fd":
		u.Host = rest
		return u, nil
	}

	// tcp4/tcp6/udp4/udp6: host[:port], with bracketed IPv6 literals.
	host, port, err := splitHostPort(rest)
	if err != nil {
		return nil, fmt.Errorf("face uri %q: %w", s, err)
	}
	u.Host = host
	u.Port = port
	return u, nil
}

func splitHostPort(rest string) (string, uint16, error) {
	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", 0, fmt.Errorf("unterminated IPv6 literal")
		}
		host := rest[1:end]
		remainder := rest[end+1:]
		if remainder == "" {
			return host, 0, nil
		}
		if !strings.HasPrefix(remainder, ":") {
			return "", 0, fmt.Errorf("expected ':port' after IPv6 literal")
		}
		port, err := strconv.ParseUint(remainder[1:], 10, 16)
		if err != nil {
			return "", 0, fmt.Errorf("invalid port: %w", err)
		}
		return host, uint16(port), nil
	}

	if idx := strings.LastIndexByte(rest, ':'); idx >= 0 {
		host := rest[:idx]
		port, err := strconv.ParseUint(rest[idx+1:], 10, 16)
		if err != nil {
			return "", 0, fmt.Errorf("invalid port: %w", err)
		}
		return host, uint16(port), nil
	}
	return rest, 0, nil
}

// String formats the FaceURI back into its canonical string form.
// ParseFaceURI(u.String()) == u for every valid FaceURI.
func (u *FaceURI) String() string {
	var sb strings.Builder
	sb.WriteString(u.Scheme)
	sb.WriteString("://")

	switch u.Scheme {
	case "ether":
		sb.WriteByte('[')
		sb.WriteString(u.Host)
		sb.WriteByte(']')
	case "dev", "unix", "fd":
		sb.WriteString(u.Host)
	default:
		if strings.Contains(u.Host, ":") {
			sb.WriteByte('[')
			sb.WriteString(u.Host)
			sb.WriteByte(']')
		} else {
			sb.WriteString(u.Host)
		}
		if u.Port != 0 {
			sb.WriteByte(':')
			sb.WriteString(strconv.Itoa(int(u.Port)))
		}
	}
	if u.Path != "" {
		sb.WriteByte('/')
		sb.WriteString(u.Path)
	}
	return sb.String()
}

// MakeNullFaceURI returns the canonical URI for the null (drop) face.
func MakeNullFaceURI() *FaceURI {
	return &FaceURI{Scheme: "fd", Host: "-1"}
}

// FormatEthernetAddr formats a 6-byte hardware address, used for the
// default Ethernet multicast group and for round-trip
// testing of MAC parse/format.
func FormatEthernetAddr(addr net.HardwareAddr) string {
	return addr.String()
}

// ParseEthernetAddr parses a colon-separated MAC address string.
func ParseEthernetAddr(s string) (net.HardwareAddr, error) {
	return net.ParseMAC(s)
}
