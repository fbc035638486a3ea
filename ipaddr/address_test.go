package ipaddr

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBytesRoundTrip(t *testing.T) {
	for _, b := range [][]byte{
		{1, 2, 3, 4},
		{0, 0, 0, 0},
		{0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
	} {
		a := FromBytes(b)
		assert.Equal(t, b, a.Bytes(), "round-trip must preserve bytes")
	}
}

func TestFromBytesInvalidLength(t *testing.T) {
	assert.Panics(t, func() { FromBytes([]byte{1, 2, 3}) })
}

func TestBitAt(t *testing.T) {
	a := FromBytes([]byte{0b10110000, 0, 0, 0})
	assert.Equal(t, uint(1), a.BitAt(0))
	assert.Equal(t, uint(0), a.BitAt(1))
	assert.Equal(t, uint(1), a.BitAt(2))
	assert.Equal(t, uint(1), a.BitAt(3))
	assert.Equal(t, uint(0), a.BitAt(4))
}

func TestIsV4InV6(t *testing.T) {
	v4in6 := FromBytes(append(make([]byte, 12), 1, 2, 3, 4))
	assert.True(t, v4in6.IsV4InV6())

	notV4 := FromBytes(append(make([]byte, 11), 1, 1, 2, 3, 4))
	assert.False(t, notV4.IsV4InV6())

	v4 := FromBytes([]byte{1, 2, 3, 4})
	assert.False(t, v4.IsV4InV6())
}

func TestMaskZeroIsAllZero(t *testing.T) {
	a := FromBytes([]byte{255, 255, 255, 255})
	masked := a.Mask(0)
	assert.Equal(t, []byte{0, 0, 0, 0}, masked.Bytes())

	v6 := FromBytes(make([]byte, 16))
	for i := range v6.bytes {
		v6.bytes[i] = 0xFF
	}
	assert.Equal(t, make([]byte, 16), v6.Mask(0).Bytes())
}

func TestMaskFullWidthIsIdentity(t *testing.T) {
	a := FromBytes([]byte{1, 2, 3, 4})
	assert.Equal(t, a.Bytes(), a.Mask(32).Bytes())
}

func TestMaskPartial(t *testing.T) {
	a := FromBytes([]byte{0b11111111, 0b11111111, 0, 0})
	masked := a.Mask(12)
	assert.Equal(t, byte(0b11111111), masked.Bytes()[0])
	assert.Equal(t, byte(0b11110000), masked.Bytes()[1])
}

func TestNetworkV4InV6Collapse(t *testing.T) {
	v4in6 := FromBytes(append(make([]byte, 12), 192, 168, 1, 1))
	net := v4in6.Network(96 + 24)
	require.Equal(t, V4, net.Addr.Family())
	assert.Equal(t, 24, net.Prefix)
	assert.Equal(t, "192.168.1.0/24", net.String())
}

func TestFromNetIP(t *testing.T) {
	addr := netip.MustParseAddr("203.0.113.5")
	a := FromNetIP(addr)
	assert.Equal(t, V4, a.Family())
	assert.Equal(t, addr, a.ToNetIP())

	v6 := netip.MustParseAddr("2001:db8::1")
	a6 := FromNetIP(v6)
	assert.Equal(t, V6, a6.Family())
	assert.Equal(t, v6, a6.ToNetIP())
}
