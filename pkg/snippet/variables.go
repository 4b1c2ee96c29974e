package snippet

// Resolver supplies values for named variables. Resolve is a pure lookup:
// the second result reports whether the resolver knows the name.
type Resolver interface {
	Resolve(name string) (string, bool)
}

// MapResolver resolves variables from a fixed map.
type MapResolver map[string]string

func (me MapResolver) Resolve(name string) (string, bool) {
	value, ok := me[name]
	return value, ok
}

// CompositeResolver tries each resolver in order, first hit wins.
type CompositeResolver []Resolver

func (me CompositeResolver) Resolve(name string) (string, bool) {
	for _, r := range me {
		if value, ok := r.Resolve(name); ok {
			return value, ok
		}
	}
	return "", false
}

// ResolveVariables asks resolver for a value for every variable marker in
// the tree. Unresolved variables keep their declared default children.
// This pass runs once, before first render; values are not refreshed on
// later edits.
func (me *Snippet) ResolveVariables(resolver Resolver) {
	if resolver == nil {
		return
	}
	me.Walk(func(m Marker) bool {
		if v, ok := m.(*Variable); ok {
			if value, ok := resolver.Resolve(v.Name); ok {
				v.resolved = &value
			}
		}
		return true
	})
}
