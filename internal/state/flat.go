package state

// From builds a nested Map from dotted-path keys, the compact notation
// action descriptors and goals are declared in.
func From(pairs map[string]any) Map {
	m := New()
	for path, v := range pairs {
		m.Set(path, v)
	}
	return m
}
