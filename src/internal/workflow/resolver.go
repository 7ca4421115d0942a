package workflow

import (
	"sort"

	"github.com/VectorBits/solflow/src/internal/model"
)

// overridingFunctions walks the overridden-by relation breadth first.
// The seen set is keyed by canonical name so malformed override cycles
// terminate.
func overridingFunctions(fn *model.Function) []*model.Function {
	if fn == nil || fn.CanonicalName == "" {
		return nil
	}
	seen := map[string]struct{}{fn.CanonicalName: {}}
	var out []*model.Function
	queue := append([]*model.Function(nil), fn.OverriddenBy...)
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if f == nil || f.CanonicalName == "" {
			continue
		}
		if _, ok := seen[f.CanonicalName]; ok {
			continue
		}
		seen[f.CanonicalName] = struct{}{}
		out = append(out, f)
		queue = append(queue, f.OverriddenBy...)
	}
	return out
}

// ResolveToImplementation maps an interface or abstract declaration to the
// best concrete override. The input is returned unchanged when it is already
// concrete or when no implemented candidate exists.
func ResolveToImplementation(fn *model.Function, excludeDependencies bool) *model.Function {
	if fn == nil || fn.CanonicalName == "" {
		return fn
	}
	decl := fn.Contract
	inIface := decl != nil && decl.IsInterface
	inAbstract := decl != nil && decl.IsAbstract
	if fn.IsImplemented && !inIface && !inAbstract {
		return fn
	}

	var impls []*model.Function
	member := make(map[*model.Function]struct{})
	add := func(f *model.Function) {
		if _, ok := member[f]; ok {
			return
		}
		member[f] = struct{}{}
		impls = append(impls, f)
	}

	for _, f := range overridingFunctions(fn) {
		if f.IsImplemented {
			add(f)
		}
	}

	if inIface {
		for _, derived := range decl.DerivedContracts {
			if derived == nil || derived.IsInterface {
				continue
			}
			for _, f := range derived.Functions {
				if f == nil || !f.IsImplemented {
					continue
				}
				if sameSignature(f, fn) {
					add(f)
				}
			}
		}
	}

	if len(impls) == 0 {
		return fn
	}

	if excludeDependencies {
		var firstParty []*model.Function
		for _, f := range impls {
			if !IsDependency(f) {
				firstParty = append(firstParty, f)
			}
		}
		if len(firstParty) > 0 {
			impls = firstParty
		}
	}

	sort.SliceStable(impls, func(i, j int) bool {
		si, sj := implementationScore(impls[i]), implementationScore(impls[j])
		if si != sj {
			return si > sj
		}
		return impls[i].CanonicalName < impls[j].CanonicalName
	})
	return impls[0]
}

// sameSignature compares full names, falling back to the bare name when
// either side has no signature.
func sameSignature(a, b *model.Function) bool {
	if a.FullName != "" && b.FullName != "" {
		return a.FullName == b.FullName
	}
	return a.Name != "" && a.Name == b.Name
}

func implementationScore(f *model.Function) int {
	s := 0
	if c := f.Contract; c != nil {
		if !c.IsInterface {
			s += 10
		}
		if !c.IsAbstract {
			s += 5
		}
		if c.IsFullyImplemented {
			s += 2
		}
	}
	if !IsDependency(f) {
		s += 3
	}
	return s
}
