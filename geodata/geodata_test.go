package geodata

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mmdb "github.com/geoindex/mmdbreader"
	"github.com/geoindex/mmdbreader/ipaddr"
	"github.com/geoindex/mmdbreader/mmdbdecode"
)

// countryFixture is a hand-built single-record database (every address
// resolves to the same record) encoding {"country":{"iso_code":"SE"}},
// built the same way as the root package's testFixture and cross-checked
// byte-by-byte against this package's own decode logic.
var countryFixture = []byte{
	0x00, 0x00, 0x11, 0x00, 0x00, 0x11,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xe1, 0x47, 0x63, 0x6f, 0x75, 0x6e, 0x74, 0x72, 0x79,
	0xe1, 0x48, 0x69, 0x73, 0x6f, 0x5f, 0x63, 0x6f, 0x64, 0x65, 0x42, 0x53, 0x45,
	0xab, 0xcd, 0xef, 0x4d, 0x61, 0x78, 0x4d, 0x69, 0x6e, 0x64, 0x2e, 0x63, 0x6f, 0x6d,
	0xe9,
	0x5b, 0x62, 0x69, 0x6e, 0x61, 0x72, 0x79, 0x5f, 0x66, 0x6f, 0x72, 0x6d, 0x61, 0x74, 0x5f, 0x6d, 0x61, 0x6a, 0x6f, 0x72, 0x5f, 0x76, 0x65, 0x72, 0x73, 0x69, 0x6f, 0x6e, 0xa1, 0x02,
	0x5b, 0x62, 0x69, 0x6e, 0x61, 0x72, 0x79, 0x5f, 0x66, 0x6f, 0x72, 0x6d, 0x61, 0x74, 0x5f, 0x6d, 0x69, 0x6e, 0x6f, 0x72, 0x5f, 0x76, 0x65, 0x72, 0x73, 0x69, 0x6f, 0x6e, 0xa0,
	0x4b, 0x62, 0x75, 0x69, 0x6c, 0x64, 0x5f, 0x65, 0x70, 0x6f, 0x63, 0x68, 0x01, 0x02, 0x01,
	0x4d, 0x64, 0x61, 0x74, 0x61, 0x62, 0x61, 0x73, 0x65, 0x5f, 0x74, 0x79, 0x70, 0x65, 0x44, 0x54, 0x65, 0x73, 0x74,
	0x4b, 0x64, 0x65, 0x73, 0x63, 0x72, 0x69, 0x70, 0x74, 0x69, 0x6f, 0x6e, 0xe1, 0x42, 0x65, 0x6e, 0x44, 0x54, 0x65, 0x73, 0x74,
	0x4a, 0x69, 0x70, 0x5f, 0x76, 0x65, 0x72, 0x73, 0x69, 0x6f, 0x6e, 0xa1, 0x04,
	0x49, 0x6c, 0x61, 0x6e, 0x67, 0x75, 0x61, 0x67, 0x65, 0x73, 0x01, 0x04, 0x42, 0x65, 0x6e,
	0x4a, 0x6e, 0x6f, 0x64, 0x65, 0x5f, 0x63, 0x6f, 0x75, 0x6e, 0x74, 0xc1, 0x01,
	0x4b, 0x72, 0x65, 0x63, 0x6f, 0x72, 0x64, 0x5f, 0x73, 0x69, 0x7a, 0x65, 0xa1, 0x18,
}

func TestCountryLookup(t *testing.T) {
	r, err := FromBytes(countryFixture)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	addr := ipaddr.FromNetIP(netip.MustParseAddr("89.160.20.128"))
	rec, err := r.Country(addr)
	require.NoError(t, err)
	assert.Equal(t, "SE", rec.Country.IsoCode)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.Error(t, err)
}

// testCorpusFile resolves a path into the standard MaxMind test corpus
// (not vendored in this workspace) and skips the calling test if absent,
// so S1-S6 of spec.md §8 run against the real fixtures whenever a
// checkout of github.com/maxmind/MaxMind-DB is available alongside this
// module, and are otherwise reported as skipped rather than failing.
func testCorpusFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("test-data", "test-data", name)
	if _, err := os.Stat(path); err != nil {
		t.Skipf("standard MaxMind-DB test corpus not present: %s", path)
	}
	return path
}

func TestScenarioCountryLookup(t *testing.T) {
	path := testCorpusFile(t, "GeoLite2-Country-Test.mmdb")
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	addr := ipaddr.FromNetIP(netip.MustParseAddr("89.160.20.128"))
	rec, err := r.Country(addr)
	require.NoError(t, err)
	assert.Equal(t, "SE", rec.Country.IsoCode)
	assert.EqualValues(t, 2661886, rec.Country.GeoNameID)
	assert.True(t, rec.Country.IsInEuropeanUnion)
	assert.Equal(t, "EU", rec.Continent.Code)
	assert.Equal(t, "Europe", rec.Continent.Names["en"])
	assert.Equal(t, "", rec.RepresentedCountry.IsoCode)
}

func TestScenarioCountryLookupIPv6(t *testing.T) {
	path := testCorpusFile(t, "GeoLite2-Country-Test.mmdb")
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	addr := ipaddr.FromNetIP(netip.MustParseAddr("2001:218:ffff:ffff:ffff:ffff:ffff:ffff"))
	rec, err := r.Country(addr)
	require.NoError(t, err)
	assert.Equal(t, "JP", rec.Country.IsoCode)
}

func TestScenarioASNLookup(t *testing.T) {
	path := testCorpusFile(t, "GeoLite2-ASN-Test.mmdb")
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	addr := ipaddr.FromNetIP(netip.MustParseAddr("89.160.20.128"))
	rec, err := r.ASN(addr)
	require.NoError(t, err)
	assert.EqualValues(t, 29518, rec.AutonomousSystemNumber)
	assert.Equal(t, "Bredband2 AB", rec.AutonomousSystemOrganization)
}

func TestScenarioCityProjection(t *testing.T) {
	path := testCorpusFile(t, "GeoLite2-City-Test.mmdb")
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	addr := ipaddr.FromNetIP(netip.MustParseAddr("89.160.20.128"))
	opts := &mmdb.Options{Only: mmdbdecode.NewOnly("city", "country")}
	rec, err := r.City(addr, opts)
	require.NoError(t, err)
	assert.EqualValues(t, 2694762, rec.City.GeoNameID)
	assert.Equal(t, "SE", rec.Country.IsoCode)
	assert.EqualValues(t, 2661886, rec.Country.GeoNameID)

	// Everything outside the projection (spec §8 S4) must come back zero,
	// not merely unchecked.
	assert.Equal(t, "", rec.Continent.Code)
	assert.Zero(t, rec.Continent.GeoNameID)
	assert.Nil(t, rec.Continent.Names)
	assert.Zero(t, rec.Location.Latitude)
	assert.Zero(t, rec.Location.Longitude)
	assert.Equal(t, "", rec.Location.TimeZone)
	assert.Equal(t, "", rec.Postal.Code)
	assert.Equal(t, "", rec.RegisteredCountry.IsoCode)
	assert.Equal(t, "", rec.RepresentedCountry.IsoCode)
	assert.Nil(t, rec.Subdivisions)
	assert.False(t, rec.Traits.IsAnonymousProxy)
}

func TestScenarioEnterpriseLookup(t *testing.T) {
	path := testCorpusFile(t, "GeoIP2-Enterprise-Test.mmdb")
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	addr := ipaddr.FromNetIP(netip.MustParseAddr("74.209.24.0"))
	rec, err := r.Enterprise(addr)
	require.NoError(t, err)
	assert.EqualValues(t, 11, rec.City.Confidence)
	assert.Equal(t, "12037", rec.Postal.Code)
	assert.EqualValues(t, 11, rec.Postal.Confidence)
	assert.InDelta(t, 0.34, rec.Traits.StaticIPScore, 0.001)
	assert.True(t, rec.Traits.IsLegitimateProxy)
	assert.EqualValues(t, 532, rec.Location.MetroCode)
}
