package mmdb

import (
	"fmt"

	"github.com/geoindex/mmdbreader/ipaddr"
)

// Verify checks that the database looks internally consistent: metadata
// fields hold sane values, the tree/data-section separator is all zero,
// and every record reachable by walking the whole address space decodes
// without error. It is stricter than strictly required to read a
// database and may reject files real readers tolerate.
func (r *Reader) Verify() error {
	if r.buffer == nil {
		return ErrClosed
	}
	if err := r.verifyMetadata(); err != nil {
		return err
	}
	if err := r.verifyDataSectionSeparator(); err != nil {
		return err
	}
	return r.verifySearchTree()
}

func (r *Reader) verifyMetadata() error {
	m := r.Metadata
	if m.BinaryFormatMajorVersion != 2 {
		return testError("binary_format_major_version", 2, m.BinaryFormatMajorVersion)
	}
	if m.DatabaseType == "" {
		return testError("database_type", "non-empty string", m.DatabaseType)
	}
	if len(m.Description) == 0 {
		return testError("description", "non-empty map", m.Description)
	}
	if m.IPVersion != 4 && m.IPVersion != 6 {
		return testError("ip_version", "4 or 6", m.IPVersion)
	}
	if m.RecordSize != 24 && m.RecordSize != 28 && m.RecordSize != 32 {
		return testError("record_size", "24, 28, or 32", m.RecordSize)
	}
	if m.NodeCount == 0 {
		return testError("node_count", "positive integer", m.NodeCount)
	}
	return nil
}

func (r *Reader) verifyDataSectionSeparator() error {
	start := r.Metadata.NodeCount * uint(r.Metadata.RecordSize/4)
	end := start + dataSectionSeparatorSize
	if end > uint(len(r.buffer)) {
		return CorruptedTreeError{Reason: "data section separator exceeds file size"}
	}
	for _, b := range r.buffer[start:end] {
		if b != 0 {
			return CorruptedTreeError{Reason: "non-zero byte in data section separator"}
		}
	}
	return nil
}

func (r *Reader) verifySearchTree() error {
	all := ipaddr.AllV4
	if r.Metadata.IPVersion == 6 {
		all = ipaddr.AllV6
	}
	it, err := r.Within(all, nil)
	if err != nil {
		return err
	}
	for {
		_, _, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

func testError(field string, expected, actual any) error {
	return CorruptedTreeError{Reason: fmt.Sprintf("%s: expected %v, found %v", field, expected, actual)}
}
