package mmdb

import "github.com/geoindex/mmdbreader/mmdbdecode"

type readerOptions struct{}

// ReaderOption configures Open/FromBytes. None are defined yet; the type
// exists so new options (e.g. caching) can be added without an API break,
// matching the teacher's own forward-compatible pattern.
type ReaderOption func(*readerOptions)

// Options configures a single Lookup or Within call (spec §6.2).
type Options struct {
	// Only restricts decoding to the named top-level fields. Nil decodes
	// every field.
	Only *mmdbdecode.Only
}

// only returns the projection to pass to the decoder, tolerating a nil
// Options (meaning "decode everything").
func (o *Options) only() *mmdbdecode.Only {
	if o == nil {
		return nil
	}
	return o.Only
}
