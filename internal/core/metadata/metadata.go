// Package metadata holds the key/value headers a dispatcher hands to every
// handler and fault handler it builds, independent of how those headers
// are represented on the wire. The one entry dispatch always populates is
// "messageType", set to the wire type name of the message being processed
// (see dispatch.metadataFrom); handler constructors that need it read it
// back out of the handlers.Context they're given.
package metadata

// Metadata represents the headers carried alongside a message. Keys are
// plain strings rather than a closed enum so dispatch and handler code can
// agree on conventions like "messageType" without this package knowing
// about either.
type Metadata map[string]string

func (m Metadata) cloneWithExtra(extra int) Metadata {
	size := len(m) + extra
	if size <= 0 {
		return Metadata{}
	}

	cloned := make(Metadata, size)
	for k, v := range m {
		cloned[k] = v
	}
	return cloned
}

// Clone returns a shallow copy of the metadata map.
func (m Metadata) Clone() Metadata {
	return m.cloneWithExtra(0)
}

// With returns a cloned metadata map containing the provided key/value pair.
func (m Metadata) With(key, value string) Metadata {
	cloned := m.cloneWithExtra(1)
	cloned[key] = value
	return cloned
}

// WithAll returns a cloned metadata map containing the supplied entries.
func (m Metadata) WithAll(entries Metadata) Metadata {
	cloned := m.cloneWithExtra(len(entries))
	for k, v := range entries {
		cloned[k] = v
	}
	return cloned
}

// New constructs a Metadata map from alternating key/value pairs.
func New(pairs ...string) Metadata {
	md := make(Metadata, len(pairs)/2)
	for i := 0; i < len(pairs)-1; i += 2 {
		md[pairs[i]] = pairs[i+1]
	}
	return md
}
