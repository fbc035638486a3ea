package ipaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndStringRoundTripV4(t *testing.T) {
	cases := []string{"1.0.0.0/24", "0.0.0.0/0"}
	for _, s := range cases {
		n, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, n.String(), s)
	}
}

func TestIPv6ExpandedFormat(t *testing.T) {
	n, err := Parse("2001:db8::/32")
	require.NoError(t, err)
	assert.Equal(t, "2001:0db8:0000:0000:0000:0000:0000:0000/32", n.String())
}

func TestAllAddressesCanonical(t *testing.T) {
	// The "all addresses" networks are all-zero; the formatter always
	// expands IPv6 to eight hex groups (per R3/S2), so ::/0 prints in
	// its expanded form here rather than the compressed "::" shorthand.
	assert.Equal(t, "0.0.0.0/0", AllV4.String())
	assert.Equal(t, "0000:0000:0000:0000:0000:0000:0000:0000/0", AllV6.String())
}

func TestParseDefaultsPrefixToFullWidth(t *testing.T) {
	n, err := Parse("1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 32, n.Prefix)
}

func TestParseRejectsOutOfRangePrefix(t *testing.T) {
	_, err := Parse("1.2.3.4/33")
	assert.Error(t, err)
}

func TestContains(t *testing.T) {
	n, err := Parse("10.0.0.0/8")
	require.NoError(t, err)
	inside, _ := ParseAddress("10.1.2.3")
	outside, _ := ParseAddress("11.0.0.1")
	assert.True(t, n.Contains(inside))
	assert.False(t, n.Contains(outside))
}
