package workflow

import (
	"sort"

	"github.com/VectorBits/solflow/src/internal/model"
)

// FunctionSet is a set of functions keyed by identity.
type FunctionSet map[*model.Function]struct{}

func (s FunctionSet) Add(f *model.Function) { s[f] = struct{}{} }

func (s FunctionSet) Merge(o FunctionSet) {
	for f := range o {
		s[f] = struct{}{}
	}
}

func (s FunctionSet) Has(f *model.Function) bool {
	_, ok := s[f]
	return ok
}

// Sorted returns the members ordered by key for stable iteration.
func (s FunctionSet) Sorted() []*model.Function {
	out := make([]*model.Function, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// FindReachableEntryPoints walks callers of target inside contract back to
// the entry points that reach it. visited is shared by the whole search;
// pass nil to start a fresh one.
func FindReachableEntryPoints(target *model.Function, contract *model.Contract, visited map[string]struct{}) FunctionSet {
	found := FunctionSet{}
	if target == nil {
		return found
	}
	if visited == nil {
		visited = make(map[string]struct{})
	}
	key := target.Key()
	if _, ok := visited[key]; ok {
		return found
	}
	visited[key] = struct{}{}

	if IsEntryPoint(target) {
		found.Add(target)
	}
	if contract == nil {
		return found
	}

	for _, caller := range contract.Functions {
		if caller == nil {
			continue
		}
		if callsDirectly(caller, target) {
			found.Merge(FindReachableEntryPoints(caller, contract, visited))
		}
		for _, ce := range caller.CallsAsExpressions {
			if ce.Called == model.Entity(target) {
				found.Merge(FindReachableEntryPoints(caller, contract, visited))
			}
		}
	}
	return found
}

func callsDirectly(caller, target *model.Function) bool {
	for _, c := range caller.InternalCalls {
		if c == target {
			return true
		}
	}
	return false
}
