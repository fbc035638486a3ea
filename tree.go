package mmdb

import "github.com/geoindex/mmdbreader/ipaddr"

// dataSectionSeparatorSize is the width of the zero separator between the
// search tree and the data section (spec §6.1).
const dataSectionSeparatorSize = 16

// readNode reads one of a node's two child records (bit selects left/right),
// per the exact packing of spec §4.5.
func readNode(buffer []byte, node, bit, recordSize uint) (uint, error) {
	switch recordSize {
	case 24:
		offset := node*6 + bit*3
		return be24(buffer, offset), nil
	case 28:
		base := node * 7
		shared := uint(buffer[base+3])
		var nibble uint
		if bit == 0 {
			nibble = (shared >> 4) << 24
		} else {
			nibble = (shared & 0x0F) << 24
		}
		offset := base + bit*4
		return nibble | be24(buffer, offset), nil
	case 32:
		offset := node*8 + bit*4
		return be32(buffer, offset), nil
	default:
		return 0, UnknownRecordSizeError{RecordSize: recordSize}
	}
}

func be24(b []byte, offset uint) uint {
	return (uint(b[offset]) << 16) | (uint(b[offset+1]) << 8) | uint(b[offset+2])
}

func be32(b []byte, offset uint) uint {
	return (uint(b[offset]) << 24) | (uint(b[offset+1]) << 16) | (uint(b[offset+2]) << 8) | uint(b[offset+3])
}

// findAddress walks the search tree for addr per spec §4.5's findAddress,
// returning the terminal node value and the number of bits consumed. A
// return of (0, n) means "no record"; (v, n) with v > node_count means a
// data-section pointer; any other outcome is an error.
func (r *Reader) findAddress(addr ipaddr.Address) (uint, int, error) {
	node := uint(0)
	if addr.Family() == ipaddr.V4 && r.Metadata.IPVersion == 6 {
		node = r.ipv4Start
	}
	nodeCount := r.Metadata.NodeCount
	bitCount := addr.BitLen()

	i := 0
	for ; i < bitCount; i++ {
		if node >= nodeCount {
			break
		}
		bit := addr.BitAt(i)
		next, err := readNode(r.buffer, node, bit, uint(r.Metadata.RecordSize))
		if err != nil {
			return 0, 0, err
		}
		node = next
	}

	switch {
	case node == nodeCount:
		return 0, i, nil
	case node > nodeCount:
		return node, i, nil
	default:
		return 0, 0, ErrInvalidTreeNode
	}
}

// computeIPv4Start locates the root of the IPv4 subtree within an IPv6 database by
// walking 96 left children from node 0, per spec §4.5. For an IPv4-only
// database the subtree root is node 0 itself.
func (r *Reader) computeIPv4Start() error {
	if r.Metadata.IPVersion != 6 {
		r.ipv4Start = 0
		return nil
	}
	node := uint(0)
	nodeCount := r.Metadata.NodeCount
	for i := 0; i < 96 && node < nodeCount; i++ {
		next, err := readNode(r.buffer, node, 0, uint(r.Metadata.RecordSize))
		if err != nil {
			return err
		}
		node = next
	}
	r.ipv4Start = node
	return nil
}
