package mmdbdecode

// Only is a projection over the top-level fields of a record (spec
// §4.4): when present, only matching top-level map entries are
// materialized; everything else is skipped without allocating.
// Projection applies only to the outermost map - nested maps and arrays
// are always fully decoded (spec §4.4, §9).
type Only struct {
	names map[string]struct{}
}

// NewOnly builds a projection selecting exactly the given top-level field
// names. An empty or nil NewOnly call still produces a non-nil *Only that
// allows nothing; pass nil as *Only (not NewOnly()) to mean "decode
// everything".
func NewOnly(names ...string) *Only {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return &Only{names: set}
}

func (o *Only) allows(name string) bool {
	if o == nil {
		return true
	}
	_, ok := o.names[name]
	return ok
}
