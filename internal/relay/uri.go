package relay

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURI reports a pairing URI that does not follow the
// wc:<topic>@<version>?relay-protocol=...&symKey=... shape.
var ErrInvalidURI = errors.New("relay: invalid pairing uri")

const (
	uriScheme        = "wc"
	supportedVersion = "2"
)

// URI is a parsed pairing URI.
type URI struct {
	Topic         string
	Version       string
	RelayProtocol string
	SymKey        []byte
}

// ParseURI parses and validates a pairing URI.
func ParseURI(raw string) (URI, error) {
	rest, ok := strings.CutPrefix(raw, uriScheme+":")
	if !ok {
		return URI{}, fmt.Errorf("%w: missing %q scheme", ErrInvalidURI, uriScheme)
	}
	// Tolerate the wc://topic@... form some dApps produce.
	rest = strings.TrimPrefix(rest, "//")

	head, query, _ := strings.Cut(rest, "?")
	topic, version, ok := strings.Cut(head, "@")
	if !ok || topic == "" {
		return URI{}, fmt.Errorf("%w: missing topic or version", ErrInvalidURI)
	}
	if version != supportedVersion {
		return URI{}, fmt.Errorf("%w: unsupported protocol version %q", ErrInvalidURI, version)
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return URI{}, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	symKey, err := hex.DecodeString(values.Get("symKey"))
	if err != nil || len(symKey) != symKeySize {
		return URI{}, fmt.Errorf("%w: symKey must be %d hex bytes", ErrInvalidURI, symKeySize)
	}
	protocol := values.Get("relay-protocol")
	if protocol == "" {
		protocol = "irn"
	}

	return URI{Topic: topic, Version: version, RelayProtocol: protocol, SymKey: symKey}, nil
}
