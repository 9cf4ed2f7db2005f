package quota

// Equal compares two definitions by value: id, name, export name, selection
// mode and the levels regardless of order. IsMulti is not part of the
// comparison.
func (d *VariableDefinition) Equal(o *VariableDefinition) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.ID == o.ID &&
		d.Name == o.Name &&
		d.OdinVariableName == o.OdinVariableName &&
		d.Selection == o.Selection &&
		ScrambledEqual(d.Levels, o.Levels)
}

// Equal compares two catalogs by value regardless of insertion order.
func (c *Catalog) Equal(o *Catalog) bool {
	if c == nil || o == nil {
		return c == o
	}
	return ScrambledEqualFunc(c.All(), o.All(), (*VariableDefinition).Equal)
}

// ScrambledEqual reports whether a and b hold the same elements with the same
// multiplicity, in any order.
func ScrambledEqual[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[T]int, len(a))
	for _, x := range a {
		counts[x]++
	}
	for _, x := range b {
		if counts[x] == 0 {
			return false
		}
		counts[x]--
	}
	return true
}

// ScrambledEqualFunc is ScrambledEqual for element types that are not
// comparable. Every element of b is matched against at most one element of a.
func ScrambledEqualFunc[T any](a, b []T, eq func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(a))
	for _, y := range b {
		matched := false
		for i, x := range a {
			if !used[i] && eq(x, y) {
				used[i] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
