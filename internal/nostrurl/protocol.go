// Package nostrurl decodes nostr:// remote URLs and orders the server
// protocols a git transport should attempt.
package nostrurl

import (
	"fmt"
	"strings"
)

// ServerProtocol is one way of talking to a git server.
type ServerProtocol int

const (
	ProtocolUnknown ServerProtocol = iota
	ProtocolFilesystem
	ProtocolSsh
	ProtocolHttp
	ProtocolUnauthHttp
	ProtocolHttps
	ProtocolUnauthHttps
	ProtocolFtp
)

func (p ServerProtocol) String() string {
	switch p {
	case ProtocolFilesystem:
		return "filesystem"
	case ProtocolSsh:
		return "ssh"
	case ProtocolHttp:
		return "http"
	case ProtocolUnauthHttp:
		return "unauthenticated http"
	case ProtocolHttps:
		return "https"
	case ProtocolUnauthHttps:
		return "unauthenticated https"
	case ProtocolFtp:
		return "ftp"
	}
	return "unknown"
}

// AllowsPrompt reports whether credential prompts are permitted; only
// the authenticated variants may ask.
func (p ServerProtocol) AllowsPrompt() bool {
	switch p {
	case ProtocolSsh, ProtocolHttp, ProtocolHttps, ProtocolFtp:
		return true
	}
	return false
}

// ParseProtocol maps a user-pinned protocol name onto a ServerProtocol.
func ParseProtocol(name string) (ServerProtocol, error) {
	switch strings.ToLower(name) {
	case "ssh":
		return ProtocolSsh, nil
	case "http":
		return ProtocolHttp, nil
	case "unauthhttp":
		return ProtocolUnauthHttp, nil
	case "https":
		return ProtocolHttps, nil
	case "unauthhttps":
		return ProtocolUnauthHttps, nil
	case "ftp":
		return ProtocolFtp, nil
	case "file", "filesystem":
		return ProtocolFilesystem, nil
	}
	return ProtocolUnknown, fmt.Errorf("unknown protocol %q", name)
}

// CloneURL is a git server address taken from a repository announcement.
type CloneURL struct {
	Raw string
}

// Protocol derives the protocol of the URL's scheme.
func (u CloneURL) Protocol() ServerProtocol {
	raw := u.Raw
	switch {
	case strings.HasPrefix(raw, "file://"):
		return ProtocolFilesystem
	case strings.HasPrefix(raw, "https://"):
		return ProtocolHttps
	case strings.HasPrefix(raw, "http://"):
		return ProtocolHttp
	case strings.HasPrefix(raw, "ftp://"):
		return ProtocolFtp
	case strings.HasPrefix(raw, "ssh://"), strings.HasPrefix(raw, "git@"):
		return ProtocolSsh
	}
	return ProtocolUnknown
}

// ReadProtocolsToTry orders the candidate protocols for a server. The
// caller attempts each in turn and commits to the first that succeeds.
// A pinned protocol short-circuits everything except filesystem URLs.
func ReadProtocolsToTry(server CloneURL, pinned ServerProtocol) []ServerProtocol {
	switch {
	case server.Protocol() == ProtocolFilesystem:
		return []ServerProtocol{ProtocolFilesystem}
	case pinned != ProtocolUnknown:
		return []ServerProtocol{pinned}
	case server.Protocol() == ProtocolHttp:
		return []ServerProtocol{ProtocolUnauthHttp, ProtocolSsh, ProtocolHttp}
	case server.Protocol() == ProtocolFtp:
		return []ServerProtocol{ProtocolFtp, ProtocolSsh}
	default:
		return []ServerProtocol{ProtocolUnauthHttps, ProtocolSsh, ProtocolHttps}
	}
}

// URLFor rewrites the server address for the given protocol. An SSH
// attempt on a non-SSH address uses SwitchCloneURL's git@host:path form,
// which fails for schemes other than https://; addresses already in an
// SSH form, and every other protocol, keep the original address.
func URLFor(server CloneURL, p ServerProtocol) (string, error) {
	if p != ProtocolSsh || server.Protocol() == ProtocolSsh {
		return server.Raw, nil
	}
	return SwitchCloneURL(server.Raw)
}
