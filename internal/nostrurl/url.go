package nostrurl

import (
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
)

// ErrNotNeventOrNaddr is surfaced when the bech32 part of a nostr URL is
// neither an nevent nor an naddr. Interactive callers re-prompt on it.
var ErrNotNeventOrNaddr = fmt.Errorf("not a valid nevent or naddr")

// Decoded is the parsed form of a nostr://<bech32> remote URL. Exactly
// one of Event and Coordinate is set.
type Decoded struct {
	// Event points at the repository announcement event directly.
	Event *nostr.EventPointer
	// Coordinate addresses the announcement by (kind, pubkey, identifier).
	Coordinate *nostr.EntityPointer
	// Protocol is the user-pinned server protocol, ProtocolUnknown when
	// the URL does not pin one.
	Protocol ServerProtocol
}

// Relays returns the relay hints embedded in the bech32.
func (d *Decoded) Relays() []string {
	if d.Event != nil {
		return d.Event.Relays
	}
	return d.Coordinate.Relays
}

// Parse decodes a remote URL of the form nostr://<bech32>, or
// nostr://<protocol>/<bech32> to pin a server protocol.
func Parse(raw string) (*Decoded, error) {
	rest, ok := strings.CutPrefix(raw, "nostr://")
	if !ok {
		return nil, fmt.Errorf("%q is not a nostr remote URL", raw)
	}
	d := &Decoded{}
	if proto, bech, found := strings.Cut(rest, "/"); found {
		p, err := ParseProtocol(proto)
		if err != nil {
			return nil, fmt.Errorf("invalid pinned protocol in %q: %w", raw, err)
		}
		d.Protocol = p
		rest = bech
	}

	prefix, value, err := nip19.Decode(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotNeventOrNaddr, err)
	}
	switch prefix {
	case "nevent":
		ptr := value.(nostr.EventPointer)
		d.Event = &ptr
	case "naddr":
		ptr := value.(nostr.EntityPointer)
		d.Coordinate = &ptr
	default:
		return nil, ErrNotNeventOrNaddr
	}
	return d, nil
}

// SwitchCloneURL rewrites between the https://host/path, ssh://host/path
// and git@host:path spellings of a clone address. https and git@ convert
// to each other losslessly; ssh:// converts to git@ dropping only the
// scheme. Malformed inputs return a descriptive error.
func SwitchCloneURL(raw string) (string, error) {
	switch {
	case strings.HasPrefix(raw, "https://"):
		parts := strings.Split(strings.TrimPrefix(raw, "https://"), "/")
		if len(parts) < 2 {
			return "", fmt.Errorf("invalid https URL format: %s", raw)
		}
		return fmt.Sprintf("git@%s:%s", parts[0], strings.Join(parts[1:], "/")), nil
	case strings.HasPrefix(raw, "ssh://"):
		parts := strings.Split(strings.TrimPrefix(raw, "ssh://"), "/")
		if len(parts) < 2 {
			return "", fmt.Errorf("invalid ssh URL format: %s", raw)
		}
		return fmt.Sprintf("git@%s:%s", parts[0], strings.Join(parts[1:], "/")), nil
	case strings.HasPrefix(raw, "git@"):
		host, path, found := strings.Cut(raw, ":")
		if !found || path == "" {
			return "", fmt.Errorf("invalid git@ URL format: %s", raw)
		}
		return fmt.Sprintf("https://%s/%s", strings.TrimPrefix(host, "git@"), path), nil
	}
	return "", fmt.Errorf("unsupported URL protocol: %s", raw)
}
