// Package geodata is a worked example of typed schemas layered on top of
// package mmdb, in the shape of github.com/oschwald/geoip2-golang: each
// type here corresponds to one of the standard GeoIP2/GeoLite2 database
// products and is decoded via Reader.Lookup's struct path rather than the
// dynamic Any fallback.
package geodata

import (
	mmdb "github.com/geoindex/mmdbreader"
	"github.com/geoindex/mmdbreader/ipaddr"
)

// Names is the insertion-unordered localized-name map every place record
// carries, keyed by language code ("en", "de", "zh-CN", ...).
type Names map[string]string

type continent struct {
	Code      string `mmdb:"code"`
	GeoNameID uint   `mmdb:"geoname_id"`
	Names     Names  `mmdb:"names"`
}

type country struct {
	GeoNameID         uint   `mmdb:"geoname_id"`
	IsoCode           string `mmdb:"iso_code"`
	Names             Names  `mmdb:"names"`
	IsInEuropeanUnion bool   `mmdb:"is_in_european_union"`
}

type representedCountry struct {
	GeoNameID uint   `mmdb:"geoname_id"`
	IsoCode   string `mmdb:"iso_code"`
	Names     Names  `mmdb:"names"`
	Type      string `mmdb:"type"`
}

type subdivision struct {
	Confidence uint   `mmdb:"confidence"`
	GeoNameID  uint   `mmdb:"geoname_id"`
	IsoCode    string `mmdb:"iso_code"`
	Names      Names  `mmdb:"names"`
}

type traits struct {
	IsAnonymousProxy    bool    `mmdb:"is_anonymous_proxy"`
	IsSatelliteProvider bool    `mmdb:"is_satellite_provider"`
	IsLegitimateProxy   bool    `mmdb:"is_legitimate_proxy"`
	StaticIPScore       float64 `mmdb:"static_ip_score"`
}

// Country corresponds to the GeoIP2/GeoLite2 Country databases (spec.md
// §8 scenario S1/S2).
type Country struct {
	Continent          continent          `mmdb:"continent"`
	Country            country            `mmdb:"country"`
	RegisteredCountry  country            `mmdb:"registered_country"`
	RepresentedCountry representedCountry `mmdb:"represented_country"`
	Traits             traits             `mmdb:"traits"`
}

// City corresponds to the GeoIP2/GeoLite2 City databases (spec.md §8
// scenario S4/S5), adding place, location, and postal fields on top of
// Country.
type City struct {
	City struct {
		GeoNameID uint  `mmdb:"geoname_id"`
		Names     Names `mmdb:"names"`
	} `mmdb:"city"`
	Continent         continent   `mmdb:"continent"`
	Country           country     `mmdb:"country"`
	Location          location    `mmdb:"location"`
	Postal            postal      `mmdb:"postal"`
	RegisteredCountry country     `mmdb:"registered_country"`
	RepresentedCountry representedCountry `mmdb:"represented_country"`
	Subdivisions      []subdivision `mmdb:"subdivisions"`
	Traits            traits        `mmdb:"traits"`
}

type location struct {
	AccuracyRadius uint    `mmdb:"accuracy_radius"`
	Latitude       float64 `mmdb:"latitude"`
	Longitude      float64 `mmdb:"longitude"`
	MetroCode      uint    `mmdb:"metro_code"`
	TimeZone       string  `mmdb:"time_zone"`
}

type postal struct {
	Code       string `mmdb:"code"`
	Confidence uint   `mmdb:"confidence"`
}

// Enterprise corresponds to the GeoIP2 Enterprise database (spec.md §8
// scenario S6): a City record where every place field additionally
// carries a confidence score.
type Enterprise struct {
	City struct {
		Confidence uint  `mmdb:"confidence"`
		GeoNameID  uint  `mmdb:"geoname_id"`
		Names      Names `mmdb:"names"`
	} `mmdb:"city"`
	Continent          continent          `mmdb:"continent"`
	Country            country            `mmdb:"country"`
	Location           location           `mmdb:"location"`
	Postal             postal             `mmdb:"postal"`
	RegisteredCountry  country            `mmdb:"registered_country"`
	RepresentedCountry representedCountry `mmdb:"represented_country"`
	Subdivisions       []subdivision      `mmdb:"subdivisions"`
	Traits             traits             `mmdb:"traits"`
}

// ASN corresponds to the GeoLite2 ASN database (spec.md §8 scenario S3).
type ASN struct {
	AutonomousSystemNumber       uint   `mmdb:"autonomous_system_number"`
	AutonomousSystemOrganization string `mmdb:"autonomous_system_organization"`
}

// Reader wraps mmdb.Reader with the typed lookups above, mirroring
// geoip2-golang's wrapper shape over maxminddb.Reader.
type Reader struct {
	db *mmdb.Reader
}

// Open memory-maps the database file at path (see mmdb.MapFile).
func Open(path string) (*Reader, error) {
	db, err := mmdb.MapFile(path)
	if err != nil {
		return nil, err
	}
	return &Reader{db: db}, nil
}

// FromBytes wraps an already-loaded database image (see mmdb.FromBytes).
func FromBytes(data []byte) (*Reader, error) {
	db, err := mmdb.FromBytes(data)
	if err != nil {
		return nil, err
	}
	return &Reader{db: db}, nil
}

// Close releases the underlying database resources.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Country looks up addr in a GeoIP2/GeoLite2 Country-shaped database.
func (r *Reader) Country(addr ipaddr.Address) (*Country, error) {
	var rec Country
	if _, _, err := r.db.Lookup(addr, &rec, nil); err != nil {
		return nil, err
	}
	return &rec, nil
}

// City looks up addr in a GeoIP2/GeoLite2 City-shaped database.
func (r *Reader) City(addr ipaddr.Address, opts *mmdb.Options) (*City, error) {
	var rec City
	if _, _, err := r.db.Lookup(addr, &rec, opts); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Enterprise looks up addr in a GeoIP2 Enterprise-shaped database.
func (r *Reader) Enterprise(addr ipaddr.Address) (*Enterprise, error) {
	var rec Enterprise
	if _, _, err := r.db.Lookup(addr, &rec, nil); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ASN looks up addr in a GeoLite2 ASN-shaped database.
func (r *Reader) ASN(addr ipaddr.Address) (*ASN, error) {
	var rec ASN
	if _, _, err := r.db.Lookup(addr, &rec, nil); err != nil {
		return nil, err
	}
	return &rec, nil
}
