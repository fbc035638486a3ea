package mmdb

import (
	"github.com/geoindex/mmdbreader/ipaddr"
	"github.com/geoindex/mmdbreader/mmdbdecode"
)

const withinCacheSize = 16

// withinFrame is one entry of the within-iterator's depth-first work
// stack (spec §4.7).
type withinFrame struct {
	node uint
	addr ipaddr.Address
	plen int
}

type cachedRecord struct {
	valid   bool
	pointer uint
	value   mmdbdecode.Any
	network ipaddr.Network
}

// WithinIterator enumerates every (sub-)network with a record inside a
// starting network, depth-first, left-before-right (spec §4.7). Create
// one with Reader.Within; it is not safe for concurrent use by multiple
// goroutines.
type WithinIterator struct {
	r        *Reader
	opts     *Options
	stack    []withinFrame
	cache    [withinCacheSize]cachedRecord
	cacheIdx int
}

// Within returns an iterator over every record inside network (spec
// §4.7). It returns ErrClosed for a closed Reader, ErrInvalidPrefixLen
// when the prefix length exceeds the address's bit width, and any error
// met while reading tree nodes on the way down to the starting node.
func (r *Reader) Within(network ipaddr.Network, opts *Options) (*WithinIterator, error) {
	if r.buffer == nil {
		return nil, ErrClosed
	}
	addr := network.Addr
	p := network.Prefix
	if p > addr.BitLen() {
		return nil, ErrInvalidPrefixLen
	}

	node := uint(0)
	if addr.Family() == ipaddr.V4 && r.Metadata.IPVersion == 6 {
		node = r.ipv4Start
	}
	nodeCount := r.Metadata.NodeCount

	i := 0
	for ; i < p; i++ {
		if node >= nodeCount {
			break
		}
		bit := addr.BitAt(i)
		next, err := readNode(r.buffer, node, bit, uint(r.Metadata.RecordSize))
		if err != nil {
			return nil, err
		}
		node = next
	}

	it := &WithinIterator{r: r, opts: opts}
	it.stack = append(it.stack, withinFrame{node: node, addr: addr, plen: i})
	return it, nil
}

// Next advances the iterator. It returns ok=false once the traversal is
// exhausted, with err nil. value, when ok is true, is the decoded dynamic
// record (spec §4.4's Any), honoring the projection from the Options
// passed to Within.
func (it *WithinIterator) Next() (network ipaddr.Network, value mmdbdecode.Any, ok bool, err error) {
	pointer, network, ok, err := it.advance()
	if err != nil || !ok {
		return ipaddr.Network{}, mmdbdecode.Any{}, false, err
	}
	value, err = it.decodeAny(pointer, network)
	if err != nil {
		return ipaddr.Network{}, mmdbdecode.Any{}, false, err
	}
	return network, value, true, nil
}

// NextStruct advances the iterator the same way Next does, but
// materializes the record into target (a non-nil pointer) via the
// struct/map materializer instead of the dynamic Any fallback - the
// Within-iterator counterpart of the Lookup/LookupAny split on Reader,
// and of the teacher's own Iterator.Next(result interface{}) in
// traverse.go, which decodes each visited node directly into a
// caller-supplied value rather than an intermediate dynamic type.
func (it *WithinIterator) NextStruct(target any) (network ipaddr.Network, ok bool, err error) {
	pointer, network, ok, err := it.advance()
	if err != nil || !ok {
		return ipaddr.Network{}, false, err
	}
	offset, err := it.r.resolveDataOffset(pointer)
	if err != nil {
		return ipaddr.Network{}, false, err
	}
	if err := it.r.decoder.Decode(offset, target, mmdbdecode.NewArena(), it.opts.only()); err != nil {
		return ipaddr.Network{}, false, err
	}
	return network, true, nil
}

// advance runs the depth-first stack walk shared by Next and NextStruct,
// stopping at the next tree pointer with a record attached (spec §4.7).
// It returns ok=false, with err nil, once the traversal is exhausted.
func (it *WithinIterator) advance() (pointer uint, network ipaddr.Network, ok bool, err error) {
	r := it.r
	nodeCount := r.Metadata.NodeCount

	for len(it.stack) > 0 {
		frame := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]

		if r.Metadata.IPVersion == 6 && frame.node == r.ipv4Start &&
			frame.addr.BitLen() == 128 && !frame.addr.IsV4InV6() {
			continue
		}

		switch {
		case frame.node > nodeCount:
			return frame.node, frame.addr.Network(frame.plen), true, nil
		case frame.node == nodeCount:
			continue
		default:
			right, err := readNode(r.buffer, frame.node, 1, uint(r.Metadata.RecordSize))
			if err != nil {
				return 0, ipaddr.Network{}, false, err
			}
			left, err := readNode(r.buffer, frame.node, 0, uint(r.Metadata.RecordSize))
			if err != nil {
				return 0, ipaddr.Network{}, false, err
			}
			it.stack = append(it.stack,
				withinFrame{node: right, addr: frame.addr.WithBit(frame.plen), plen: frame.plen + 1},
				withinFrame{node: left, addr: frame.addr, plen: frame.plen + 1},
			)
		}
	}
	return 0, ipaddr.Network{}, false, nil
}

// decodeAny materializes the record at the tree pointer value into the
// dynamic Any fallback, consulting (and populating) the fixed-capacity
// ring buffer cache, per spec §4.7. NextStruct bypasses this cache: a
// per-call caller-supplied target type can't be cached across pointers
// the way a self-contained Any value can.
func (it *WithinIterator) decodeAny(nodeValue uint, network ipaddr.Network) (mmdbdecode.Any, error) {
	for i := range it.cache {
		if it.cache[i].valid && it.cache[i].pointer == nodeValue {
			return it.cache[i].value, nil
		}
	}

	offset, err := it.r.resolveDataOffset(nodeValue)
	if err != nil {
		return mmdbdecode.Any{}, err
	}
	value, err := it.r.decoder.DecodeAny(offset, mmdbdecode.NewArena(), it.opts.only())
	if err != nil {
		return mmdbdecode.Any{}, err
	}

	it.cache[it.cacheIdx] = cachedRecord{valid: true, pointer: nodeValue, value: value, network: network}
	it.cacheIdx = (it.cacheIdx + 1) % withinCacheSize
	return value, nil
}
