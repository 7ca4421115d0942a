package workflow

// Ancestors is an immutable set of node identities on one root-to-leaf
// path. With returns a new set; siblings extending the same parent never
// see each other's entries.
type Ancestors struct {
	id     string
	parent *Ancestors
}

// NewAncestors builds a path holding the given identities.
func NewAncestors(ids ...string) *Ancestors {
	var a *Ancestors
	for _, id := range ids {
		a = a.With(id)
	}
	return a
}

func (a *Ancestors) With(id string) *Ancestors {
	return &Ancestors{id: id, parent: a}
}

func (a *Ancestors) Contains(id string) bool {
	for n := a; n != nil; n = n.parent {
		if n.id == id {
			return true
		}
	}
	return false
}

// Len is the path length.
func (a *Ancestors) Len() int {
	n := 0
	for ; a != nil; a = a.parent {
		n++
	}
	return n
}
