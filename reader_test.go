package mmdb

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoindex/mmdbreader/ipaddr"
)

// testFixture is a hand-built, minimal IPv4/record_size-24 database with
// exactly two assigned /2 networks ("0.0.0.0/2" -> {"value":"A"},
// "64.0.0.0/2" -> {"value":"B"}) and the rest of the address space
// unassigned. Built and cross-checked byte-by-byte against this package's
// decode logic with a standalone script, since the Go toolchain cannot be
// run in this environment to generate it from a real encoder.
var testFixture = []byte{
	0x00, 0x00, 0x01, 0x00, 0x00, 0x02, 0x00, 0x00, 0x12, 0x00, 0x00, 0x1b,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xe1, 0x45, 0x76, 0x61, 0x6c, 0x75, 0x65, 0x41, 0x41,
	0xe1, 0x45, 0x76, 0x61, 0x6c, 0x75, 0x65, 0x41, 0x42,
	0xab, 0xcd, 0xef, 0x4d, 0x61, 0x78, 0x4d, 0x69, 0x6e, 0x64, 0x2e, 0x63, 0x6f, 0x6d,
	0xe9,
	0x5b, 0x62, 0x69, 0x6e, 0x61, 0x72, 0x79, 0x5f, 0x66, 0x6f, 0x72, 0x6d, 0x61, 0x74, 0x5f, 0x6d, 0x61, 0x6a, 0x6f, 0x72, 0x5f, 0x76, 0x65, 0x72, 0x73, 0x69, 0x6f, 0x6e, 0xa1, 0x02,
	0x5b, 0x62, 0x69, 0x6e, 0x61, 0x72, 0x79, 0x5f, 0x66, 0x6f, 0x72, 0x6d, 0x61, 0x74, 0x5f, 0x6d, 0x69, 0x6e, 0x6f, 0x72, 0x5f, 0x76, 0x65, 0x72, 0x73, 0x69, 0x6f, 0x6e, 0xa0,
	0x4b, 0x62, 0x75, 0x69, 0x6c, 0x64, 0x5f, 0x65, 0x70, 0x6f, 0x63, 0x68, 0x01, 0x02, 0x01,
	0x4d, 0x64, 0x61, 0x74, 0x61, 0x62, 0x61, 0x73, 0x65, 0x5f, 0x74, 0x79, 0x70, 0x65, 0x44, 0x54, 0x65, 0x73, 0x74,
	0x4b, 0x64, 0x65, 0x73, 0x63, 0x72, 0x69, 0x70, 0x74, 0x69, 0x6f, 0x6e, 0xe1, 0x42, 0x65, 0x6e, 0x44, 0x54, 0x65, 0x73, 0x74,
	0x4a, 0x69, 0x70, 0x5f, 0x76, 0x65, 0x72, 0x73, 0x69, 0x6f, 0x6e, 0xa1, 0x04,
	0x49, 0x6c, 0x61, 0x6e, 0x67, 0x75, 0x61, 0x67, 0x65, 0x73, 0x01, 0x04, 0x42, 0x65, 0x6e,
	0x4a, 0x6e, 0x6f, 0x64, 0x65, 0x5f, 0x63, 0x6f, 0x75, 0x6e, 0x74, 0xc1, 0x02,
	0x4b, 0x72, 0x65, 0x63, 0x6f, 0x72, 0x64, 0x5f, 0x73, 0x69, 0x7a, 0x65, 0xa1, 0x18,
}

func addrV4(t *testing.T, s string) ipaddr.Address {
	t.Helper()
	return ipaddr.FromNetIP(netip.MustParseAddr(s))
}

func TestFromBytesMetadata(t *testing.T) {
	r, err := FromBytes(testFixture)
	require.NoError(t, err)

	assert.EqualValues(t, 2, r.Metadata.BinaryFormatMajorVersion)
	assert.EqualValues(t, 0, r.Metadata.BinaryFormatMinorVersion)
	assert.EqualValues(t, 1, r.Metadata.BuildEpoch)
	assert.Equal(t, "Test", r.Metadata.DatabaseType)
	assert.Equal(t, map[string]string{"en": "Test"}, r.Metadata.Description)
	assert.EqualValues(t, 4, r.Metadata.IPVersion)
	assert.Equal(t, []string{"en"}, r.Metadata.Languages)
	assert.EqualValues(t, 2, r.Metadata.NodeCount)
	assert.EqualValues(t, 24, r.Metadata.RecordSize)
	assert.Equal(t, int64(1), r.Metadata.BuildTime().Unix())
}

func TestFromBytesMissingMarker(t *testing.T) {
	_, err := FromBytes(testFixture[:46]) // tree, separator and data section only
	require.ErrorIs(t, err, ErrMetadataStartNotFound)
}

func TestLookupStruct(t *testing.T) {
	r, err := FromBytes(testFixture)
	require.NoError(t, err)

	var rec struct {
		Value string `mmdb:"value"`
	}
	found, network, err := r.Lookup(addrV4(t, "1.2.3.4"), &rec, nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "A", rec.Value)
	assert.Equal(t, "0.0.0.0/2", network.String())

	rec.Value = ""
	found, network, err = r.Lookup(addrV4(t, "100.0.0.1"), &rec, nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "B", rec.Value)
	assert.Equal(t, "64.0.0.0/2", network.String())
}

func TestLookupNotFound(t *testing.T) {
	r, err := FromBytes(testFixture)
	require.NoError(t, err)

	var rec struct {
		Value string `mmdb:"value"`
	}
	found, network, err := r.Lookup(addrV4(t, "200.1.2.3"), &rec, nil)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "", rec.Value)
	assert.Equal(t, "128.0.0.0/1", network.String())
}

func TestLookupAny(t *testing.T) {
	r, err := FromBytes(testFixture)
	require.NoError(t, err)

	found, network, value, err := r.LookupAny(addrV4(t, "1.2.3.4"), nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "0.0.0.0/2", network.String())
	got, ok := value.Get("value")
	require.True(t, ok)
	assert.Equal(t, "A", got.Str)
}

func TestLookupOnClosedReader(t *testing.T) {
	r, err := FromBytes(testFixture)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, _, err = r.Lookup(addrV4(t, "1.2.3.4"), nil, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpenAndMapFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.mmdb")
	require.NoError(t, os.WriteFile(path, testFixture, 0o600))

	r, err := Open(path, int64(len(testFixture)))
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	var rec struct {
		Value string `mmdb:"value"`
	}
	found, _, err := r.Lookup(addrV4(t, "1.2.3.4"), &rec, nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "A", rec.Value)

	mapped, err := MapFile(path)
	require.NoError(t, err)
	defer mapped.Close() //nolint:errcheck

	found, _, err = mapped.Lookup(addrV4(t, "100.0.0.1"), &rec, nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "B", rec.Value)
}

func TestOpenEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.mmdb")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := Open(path, 1024)
	require.Error(t, err)
}
