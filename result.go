package mmdb

import (
	"github.com/geoindex/mmdbreader/ipaddr"
	"github.com/geoindex/mmdbreader/mmdbdecode"
)

// notFoundOffset marks a Result that resolved to an empty tree slot,
// mirroring the teacher's result.go sentinel.
const notFoundOffset = ^uint(0)

// Result is a lazy lookup outcome: the tree descent has already happened,
// but the record itself is decoded only when Decode/DecodePath is called.
// It also exposes RecordOffset, a stable identifier for the record within
// this Reader's data section (spec §6, "Supplemented Features").
type Result struct {
	r       *Reader
	opts    *Options
	network ipaddr.Network
	err     error
	offset  uint
}

// LookupOffset resolves addr without decoding, deferring that cost to
// Result.Decode/DecodePath. Useful for callers that want RecordOffset as a
// cache key before deciding whether to materialize the record at all.
func (r *Reader) LookupOffset(addr ipaddr.Address, opts *Options) Result {
	if r.buffer == nil {
		return Result{err: ErrClosed}
	}
	node, prefixLen, err := r.findAddress(addr)
	if err != nil {
		return Result{err: err}
	}
	network := addr.Network(prefixLen)
	if node == 0 {
		return Result{r: r, opts: opts, network: network, offset: notFoundOffset}
	}
	offset, err := r.resolveDataOffset(node)
	if err != nil {
		return Result{err: err, network: network, offset: notFoundOffset}
	}
	return Result{r: r, opts: opts, network: network, offset: offset}
}

// Decode unmarshals the record into target, honoring the projection the
// Result was looked up with. It is a no-op (nil error, target unchanged)
// when Found is false.
func (res Result) Decode(target any) error {
	if res.err != nil {
		return res.err
	}
	if res.offset == notFoundOffset {
		return nil
	}
	return res.r.decoder.Decode(res.offset, target, mmdbdecode.NewArena(), res.opts.only())
}

// DecodePath unmarshals only the value reached by following path (a
// sequence of map keys and array indices) into target, without
// materializing the rest of the record. It is a no-op when Found is false
// or when the path does not resolve.
func (res Result) DecodePath(target any, path ...any) error {
	if res.err != nil {
		return res.err
	}
	if res.offset == notFoundOffset {
		return nil
	}
	raw := res.r.decoder.NewRaw(res.offset)
	leaf, ok, err := raw.Path(path...)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return res.r.decoder.Decode(leaf.Offset(), target, mmdbdecode.NewArena(), nil)
}

// Err reports an error encountered while resolving the lookup itself (as
// opposed to one from a later Decode call).
func (res Result) Err() error {
	return res.err
}

// Found reports whether the tree held a record for the looked-up address.
func (res Result) Found() bool {
	return res.err == nil && res.offset != notFoundOffset
}

// Network returns the network the resolved record covers.
func (res Result) Network() ipaddr.Network {
	return res.network
}

// RecordOffset returns the record's offset within this Reader's data
// section: a stable identity for the record across repeated lookups
// against the same open Reader, useful as a cache key. It is meaningless
// once the Reader is closed or reopened against a different file.
func (res Result) RecordOffset() uintptr {
	return uintptr(res.offset)
}
