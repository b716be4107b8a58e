package did

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Method is the DID method didlink mints identifiers under.
const Method = "didlink"

// DID is a parsed decentralized identifier per the W3C DID v1.0 syntax:
// did:<method>:<method-specific-id>.
type DID struct {
	id               string
	method           string
	methodSpecificID string
}

// Parse validates and splits a DID string.
func Parse(s string) (DID, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 || parts[0] != "did" {
		return DID{}, fmt.Errorf("did: invalid format %q", s)
	}

	method := parts[1]
	if method == "" || len(method) > 50 {
		return DID{}, fmt.Errorf("did: invalid method name %q", method)
	}
	for _, r := range method {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return DID{}, fmt.Errorf("did: invalid method name %q", method)
		}
	}

	specific := strings.Join(parts[2:], ":")
	if specific == "" {
		return DID{}, fmt.Errorf("did: empty method-specific id in %q", s)
	}

	return DID{id: s, method: method, methodSpecificID: specific}, nil
}

// Generate mints a fresh random identifier under the didlink method.
func Generate() DID {
	b := make([]byte, 16)
	rand.Read(b)
	specific := hex.EncodeToString(b)
	return DID{
		id:               "did:" + Method + ":" + specific,
		method:           Method,
		methodSpecificID: specific,
	}
}

// ID returns the complete DID string.
func (d DID) ID() string { return d.id }

// Method returns the DID method.
func (d DID) Method() string { return d.method }

// MethodSpecificID returns the method-specific identifier.
func (d DID) MethodSpecificID() string { return d.methodSpecificID }

func (d DID) String() string { return d.id }
