package services

import (
	"cmp"
	"slices"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/aggregates/person"
)

type hierarchyNode struct {
	person   person.Person
	children []int
}

// Hierarchy is an arena of leadership people with supervisor links resolved to indices.
type Hierarchy struct {
	nodes []hierarchyNode
	index map[string]int
}

func NewHierarchy(people []person.Person) *Hierarchy {
	sorted := slices.Clone(people)
	slices.SortFunc(sorted, func(a, b person.Person) int { return cmp.Compare(a.ID(), b.ID()) })

	h := &Hierarchy{
		nodes: make([]hierarchyNode, 0, len(sorted)),
		index: make(map[string]int, len(sorted)),
	}
	for _, p := range sorted {
		if p.ID() == "" {
			continue
		}
		if _, dup := h.index[p.ID()]; dup {
			continue
		}
		h.index[p.ID()] = len(h.nodes)
		h.nodes = append(h.nodes, hierarchyNode{person: p})
	}
	for i, n := range h.nodes {
		parent, ok := h.index[n.person.SupervisorID()]
		if !ok || parent == i {
			continue
		}
		h.nodes[parent].children = append(h.nodes[parent].children, i)
	}
	return h
}

func (h *Hierarchy) Len() int { return len(h.nodes) }

func (h *Hierarchy) Lookup(id string) (person.Person, bool) {
	i, ok := h.index[id]
	if !ok {
		return person.Person{}, false
	}
	return h.nodes[i].person, true
}

// Children returns the direct subordinates of id holding role, ordered by id.
func (h *Hierarchy) Children(id string, role person.Role) []person.Person {
	i, ok := h.index[id]
	if !ok {
		return nil
	}
	out := make([]person.Person, 0, len(h.nodes[i].children))
	for _, c := range h.nodes[i].children {
		if p := h.nodes[c].person; p.Role() == role {
			out = append(out, p)
		}
	}
	return out
}

// ByRole returns every person holding role, ordered by id.
func (h *Hierarchy) ByRole(role person.Role) []person.Person {
	var out []person.Person
	for _, n := range h.nodes {
		if n.person.Role() == role {
			out = append(out, n.person)
		}
	}
	return out
}
