// Package kms wraps the managed root-key service used to wrap and unwrap
// data encryption keys. Providers hold no key material of their own and
// treat every call as a fallible remote operation with a bounded timeout.
package kms

// KeyPath is the hierarchical name of a root key.
type KeyPath struct {
	Project  string
	Location string
	KeyRing  string
	KeyID    string
}

func (p KeyPath) String() string {
	return p.Project + "/" + p.Location + "/" + p.KeyRing + "/" + p.KeyID
}

// KeyMetadata describes a root key for audit and display. Never carries
// secret material.
type KeyMetadata struct {
	KeyID    string `json:"key_id"`
	Location string `json:"location"`
	RingID   string `json:"ring_id"`
	Enabled  bool   `json:"enabled"`
}
