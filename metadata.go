package mmdb

import "time"

// Metadata holds the fields decoded from the metadata section at the tail
// of the file (spec §3, §6.1). Field names follow the wire format exactly.
type Metadata struct {
	// BinaryFormatMajorVersion is the major version of the MaxMind DB
	// binary format this file was written with.
	BinaryFormatMajorVersion uint16 `mmdb:"binary_format_major_version"`
	// BinaryFormatMinorVersion is the minor version of the binary format.
	BinaryFormatMinorVersion uint16 `mmdb:"binary_format_minor_version"`
	// BuildEpoch is the database build timestamp, Unix epoch seconds.
	BuildEpoch uint64 `mmdb:"build_epoch"`
	// DatabaseType identifies the record schema this file was built for
	// (e.g. "GeoLite2-City"); not interpreted by this package.
	DatabaseType string `mmdb:"database_type"`
	// Description holds localized descriptions keyed by language code.
	Description map[string]string `mmdb:"description"`
	// IPVersion is 4 for an IPv4-only tree, 6 for a tree that also
	// addresses IPv4 through its IPv4-in-IPv6 subtree.
	IPVersion uint16 `mmdb:"ip_version"`
	// Languages lists the locale codes the record schema may localize.
	Languages []string `mmdb:"languages"`
	// NodeCount is the number of nodes in the search tree.
	NodeCount uint `mmdb:"node_count"`
	// RecordSize is the bit width of each of a node's two records: 24,
	// 28, or 32.
	RecordSize uint16 `mmdb:"record_size"`
}

// BuildTime converts BuildEpoch into a time.Time.
func (m Metadata) BuildTime() time.Time {
	return time.Unix(int64(m.BuildEpoch), 0)
}
