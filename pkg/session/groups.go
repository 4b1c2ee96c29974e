package session

import (
	"sort"

	"github.com/walteh/snipkit/pkg/snippet"
)

// groupIndex maps a tabstop index to the ordered list of placeholder
// markers sharing it. The first entry of each group, in document order, is
// the canonical mirror. It is rebuilt whenever the tree changes shape,
// including when an edit collapses nested tabstops, and never mutated
// during navigation.
type groupIndex struct {
	groups map[int][]*snippet.Placeholder

	// order is the navigation order: ascending distinct indices with 0,
	// the terminal stop, always last.
	order []int
}

func buildGroupIndex(snip *snippet.Snippet) *groupIndex {
	gi := &groupIndex{groups: make(map[int][]*snippet.Placeholder)}
	snip.Walk(func(m snippet.Marker) bool {
		if ph, ok := m.(*snippet.Placeholder); ok {
			gi.groups[ph.Index] = append(gi.groups[ph.Index], ph)
		}
		return true
	})
	for index := range gi.groups {
		if index != 0 {
			gi.order = append(gi.order, index)
		}
	}
	sort.Ints(gi.order)
	if _, ok := gi.groups[0]; ok {
		gi.order = append(gi.order, 0)
	}
	return gi
}

// canonical returns the first-declared mirror for a tabstop index, the
// authoritative source for propagation.
func (me *groupIndex) canonical(index int) *snippet.Placeholder {
	mirrors := me.groups[index]
	if len(mirrors) == 0 {
		return nil
	}
	return mirrors[0]
}

func (me *groupIndex) mirrors(index int) []*snippet.Placeholder {
	return me.groups[index]
}

func (me *groupIndex) orderPos(index int) int {
	for i, v := range me.order {
		if v == index {
			return i
		}
	}
	return -1
}
