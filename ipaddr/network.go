package ipaddr

import (
	"fmt"
	"strconv"
	"strings"
)

// Network is an (address, prefix length) pair, the unit yielded by lookups
// and the within-iterator.
type Network struct {
	Addr   Address
	Prefix int
}

// AllV4 is the canonical "every IPv4 address" network, 0.0.0.0/0.
var AllV4 = Network{Addr: FromBytes([]byte{0, 0, 0, 0}), Prefix: 0}

// AllV6 is the canonical "every IPv6 address" network, ::/0.
var AllV6 = Network{Addr: FromBytes(make([]byte, 16)), Prefix: 0}

// Parse parses "a.b.c.d[/p]" or "h:h:...:h[/p]", defaulting the prefix to
// the address's full bit width when omitted.
func Parse(s string) (Network, error) {
	addrPart, prefixPart, hasPrefix := strings.Cut(s, "/")
	addr, err := ParseAddress(addrPart)
	if err != nil {
		return Network{}, err
	}
	if !hasPrefix {
		return Network{Addr: addr, Prefix: addr.BitLen()}, nil
	}
	p, err := strconv.Atoi(prefixPart)
	if err != nil {
		return Network{}, fmt.Errorf("ipaddr: invalid prefix in %q: %w", s, err)
	}
	if p < 0 || p > addr.BitLen() {
		return Network{}, fmt.Errorf("ipaddr: prefix %d out of range for %q", p, s)
	}
	return Network{Addr: addr.Mask(p), Prefix: p}, nil
}

// String formats the network as dotted-quad/prefix for IPv4, or as eight
// big-endian zero-padded 16-bit hex groups/prefix for IPv6, per spec §3.
func (n Network) String() string {
	if n.Addr.Family() == V4 {
		b := n.Addr.Bytes()
		return fmt.Sprintf("%d.%d.%d.%d/%d", b[0], b[1], b[2], b[3], n.Prefix)
	}
	b := n.Addr.Bytes()
	groups := make([]string, 8)
	for i := range groups {
		groups[i] = fmt.Sprintf("%04x", uint16(b[2*i])<<8|uint16(b[2*i+1]))
	}
	return strings.Join(groups, ":") + "/" + strconv.Itoa(n.Prefix)
}

// Contains reports whether addr falls within this network.
func (n Network) Contains(addr Address) bool {
	if addr.BitLen() != n.Addr.BitLen() {
		return false
	}
	masked := addr.Mask(n.Prefix)
	return string(masked.Bytes()) == string(n.Addr.Bytes())
}
