package mmdb

import (
	"bytes"
	"net/netip"
	"testing"

	"github.com/geoindex/mmdbreader/ipaddr"
	"github.com/geoindex/mmdbreader/mmdbdecode"
)

// FuzzFromBytes targets file-format parsing, database initialization, and
// lookup/within traversal: every error path here must return a Go error,
// never panic, on arbitrary bytes.
func FuzzFromBytes(f *testing.F) {
	f.Add(testFixture)
	f.Add(testFixture[:len(testFixture)-50])
	f.Add([]byte("not an mmdb file"))
	f.Add([]byte{0x00, 0x01, 0x02, 0x03})
	f.Add(bytes.Repeat([]byte{0xFF}, 1024))
	f.Add([]byte{})

	f.Fuzz(func(_ *testing.T, data []byte) {
		r, err := FromBytes(data)
		if err != nil {
			return
		}
		defer r.Close() //nolint:errcheck

		addr := ipaddr.FromNetIP(netip.MustParseAddr("1.1.1.1"))
		var rec map[string]any
		_, _, _ = r.Lookup(addr, &rec, nil) //nolint:errcheck

		network, err := ipaddr.Parse("0.0.0.0/0")
		if err != nil {
			return
		}
		it, err := r.Within(network, nil)
		if err != nil {
			return
		}
		for i := 0; i < 1000; i++ {
			_, _, ok, err := it.Next()
			if err != nil || !ok {
				break
			}
		}
	})
}

// FuzzDecodeAny targets the data-section decoder directly, isolating
// control-byte/pointer-indirection parsing from the tree walker: every
// malformed encoding must surface as an error, never a panic or an
// infinite loop (guarded by mmdbdecode's maximum data structure depth).
func FuzzDecodeAny(f *testing.F) {
	f.Add(testFixture[28:46]) // this package's own data section
	f.Add([]byte{0xe1, 0x45, 'v', 'a', 'l', 'u', 'e', 0x21, 'A'})
	f.Add([]byte{0x01, 0x04}) // truncated extended-type control sequence
	f.Add([]byte{0x20})       // pointer control byte with no payload
	f.Add(bytes.Repeat([]byte{0xc0}, 32))

	f.Fuzz(func(_ *testing.T, data []byte) {
		d := mmdbdecode.New(data)
		_, _ = d.DecodeAny(0, mmdbdecode.NewArena(), nil) //nolint:errcheck
	})
}
