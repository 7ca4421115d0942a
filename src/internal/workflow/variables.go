package workflow

import (
	"sort"

	"github.com/VectorBits/solflow/src/internal/model"
)

// ExtractVariables builds the state-variable writer index for every
// concrete contract of prog. Interface and abstract contracts are skipped;
// their variables surface through the concrete children.
func ExtractVariables(prog *model.Program, workspaceRoot string, excludeDependencies bool) []ContractVariables {
	if prog == nil {
		return []ContractVariables{}
	}
	type groupKey struct{ path, contract string }
	groups := make(map[groupKey][]StateVariable)

	for _, contract := range prog.Contracts {
		if contract == nil || contract.IsInterface || contract.IsAbstract {
			continue
		}
		if excludeDependencies && IsDependency(contract) {
			continue
		}
		loc, ok := ResolveLocation(contract, workspaceRoot)
		if !ok {
			continue
		}
		contractName := contract.Name
		if contractName == "" {
			contractName = unknownLabel
		}

		for _, v := range writableVariables(contract) {
			writers := variableWriters(contract, v.CanonicalName)
			if len(writers) == 0 {
				continue
			}
			refs := make([]WriterRef, 0, len(writers))
			for ep := range writers {
				epContract := contractName
				if ep.Contract != nil && ep.Contract.Name != "" {
					epContract = ep.Contract.Name
				}
				refs = append(refs, WriterRef{
					FlowID:   loc.File + "::" + ep.CanonicalName,
					Label:    FunctionLabel(ep),
					Contract: epContract,
					Location: locationPtr(ep, workspaceRoot),
				})
			}
			sort.Slice(refs, func(i, j int) bool {
				if refs[i].Contract != refs[j].Contract {
					return refs[i].Contract < refs[j].Contract
				}
				if refs[i].Label != refs[j].Label {
					return refs[i].Label < refs[j].Label
				}
				return refs[i].FlowID < refs[j].FlowID
			})

			key := groupKey{loc.File, contractName}
			groups[key] = append(groups[key], stateVariable(v, contractName, loc.File, workspaceRoot, refs))
		}
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].path != keys[j].path {
			return keys[i].path < keys[j].path
		}
		return keys[i].contract < keys[j].contract
	})

	out := make([]ContractVariables, 0, len(keys))
	for _, k := range keys {
		vars := groups[k]
		sort.SliceStable(vars, func(i, j int) bool {
			li, lj := vars[i].Location, vars[j].Location
			if (li == nil) != (lj == nil) {
				return li != nil
			}
			if li != nil && li.Line != lj.Line {
				return li.Line < lj.Line
			}
			return vars[i].Name < vars[j].Name
		})
		out = append(out, ContractVariables{Path: k.path, Contract: k.contract, Vars: vars})
	}
	return out
}

// writableVariables merges declared and transitively written variables of a
// contract by canonical name, keeping declaration order first.
func writableVariables(contract *model.Contract) []*model.Variable {
	seen := make(map[string]struct{})
	var out []*model.Variable
	add := func(vars []*model.Variable) {
		for _, v := range vars {
			if v == nil || !v.Mutable() || v.CanonicalName == "" {
				continue
			}
			if _, ok := seen[v.CanonicalName]; ok {
				continue
			}
			seen[v.CanonicalName] = struct{}{}
			out = append(out, v)
		}
	}
	add(contract.StateVariables)
	add(contract.AllStateVariablesWritten)
	return out
}

// variableWriters finds the entry points of contract that write the
// variable, following non-entry writers back through their callers.
// Variables are compared by canonical name because inherited variables may
// be distinct objects.
func variableWriters(contract *model.Contract, canonical string) FunctionSet {
	writers := FunctionSet{}
	for _, fn := range contract.Functions {
		if fn == nil || fn.TopLevel || !writes(fn, canonical) {
			continue
		}
		if IsEntryPoint(fn) {
			writers.Add(fn)
			continue
		}
		writers.Merge(FindReachableEntryPoints(fn, contract, nil))
	}
	return writers
}

func writes(fn *model.Function, canonical string) bool {
	for _, v := range fn.WrittenVariables() {
		if v != nil && v.CanonicalName == canonical {
			return true
		}
	}
	return false
}

func stateVariable(v *model.Variable, contractName, file, workspaceRoot string, refs []WriterRef) StateVariable {
	name := v.Name
	if name == "" {
		name = unknownLabel
	}
	typ := v.Type
	if typ == "" {
		typ = "unknown"
	}
	sv := StateVariable{
		VarID:       file + "::" + contractName + "." + name,
		Name:        name,
		Type:        typ,
		Contract:    contractName,
		IsConstant:  v.IsConstant,
		IsImmutable: v.IsImmutable,
		Location:    locationPtr(v, workspaceRoot),
		Modifiers:   refs,
	}
	if v.Contract != nil && v.Contract.Name != "" && v.Contract.Name != contractName {
		from := v.Contract.Name
		sv.Inherited = true
		sv.InheritedFrom = &from
	}
	return sv
}
