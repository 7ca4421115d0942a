package workflow

import (
	"github.com/VectorBits/solflow/src/internal/model"
)

// Fixtures only carry relative filenames, so an empty workspace root
// resolves locations to exactly those paths.

func mapping(file string, line int) *model.SourceMapping {
	return &model.SourceMapping{Relative: file, Lines: []int{line, line + 1}}
}

func newContract(name, file string, line int) *model.Contract {
	return &model.Contract{ID: name, Name: name, IsFullyImplemented: true, Source: mapping(file, line)}
}

func newInterface(name, file string, line int) *model.Contract {
	c := newContract(name, file, line)
	c.IsInterface = true
	c.IsFullyImplemented = false
	return c
}

type funcOpt func(*model.Function)

func visibility(v model.Visibility) funcOpt {
	return func(f *model.Function) { f.Visibility = v }
}

func unimplemented(f *model.Function) { f.IsImplemented = false }
func view(f *model.Function)          { f.View = true }
func constructor(f *model.Function) {
	f.IsConstructor = true
	f.Kind = model.FunctionKindConstructor
}

// newFunc declares a public, implemented, parameterless function on c.
func newFunc(c *model.Contract, name string, line int, opts ...funcOpt) *model.Function {
	f := &model.Function{
		ID:            c.Name + "." + name,
		CanonicalName: c.Name + "." + name + "()",
		FullName:      name + "()",
		Name:          name,
		Kind:          model.FunctionKindFunction,
		IsImplemented: true,
		Visibility:    model.VisibilityPublic,
		Contract:      c,
	}
	if c.Source != nil {
		f.Source = mapping(c.Source.Relative, line)
	}
	for _, opt := range opts {
		opt(f)
	}
	c.Functions = append(c.Functions, f)
	c.FunctionsDeclared = append(c.FunctionsDeclared, f)
	return f
}

func newVar(c *model.Contract, name, typ string, line int) *model.Variable {
	v := &model.Variable{
		ID:            c.Name + "." + name,
		Name:          name,
		Type:          typ,
		CanonicalName: c.Name + "." + name,
		Contract:      c,
	}
	if c.Source != nil {
		v.Source = mapping(c.Source.Relative, line)
	}
	c.StateVariables = append(c.StateVariables, v)
	return v
}

// calls appends a statement node to f holding the given call instructions,
// positioned at the given source offset.
func calls(f *model.Function, start int, cs ...*model.Call) *model.Node {
	s := start
	n := &model.Node{ID: len(f.Nodes) + 1, Source: &model.SourceMapping{Start: &s}, Calls: cs}
	f.Nodes = append(f.Nodes, n)
	return n
}

func internalCall(target model.Entity) *model.Call {
	return &model.Call{Kind: model.CallInternal, Target: target}
}

func highLevelCall(target model.Entity) *model.Call {
	return &model.Call{Kind: model.CallHighLevel, Target: target}
}

func solidityCall(name string) *model.Call {
	return &model.Call{Kind: model.CallSolidity, Target: &model.Builtin{Name: name}}
}

// callsInternally records the call both in the body and in the internal
// call list, as the analyzer does.
func callsInternally(caller, callee *model.Function, start int) {
	calls(caller, start, internalCall(callee))
	caller.InternalCalls = append(caller.InternalCalls, callee)
}

func writesVar(f *model.Function, vars ...*model.Variable) {
	f.StateVariablesWritten = append(f.StateVariablesWritten, vars...)
}

func program(contracts ...*model.Contract) *model.Program {
	p := &model.Program{Version: model.SchemaVersion}
	seenFn := make(map[*model.Function]struct{})
	seenVar := make(map[*model.Variable]struct{})
	for _, c := range contracts {
		p.Contracts = append(p.Contracts, c)
		for _, f := range c.FunctionsDeclared {
			if _, ok := seenFn[f]; !ok {
				seenFn[f] = struct{}{}
				p.Functions = append(p.Functions, f)
			}
		}
		for _, v := range c.StateVariables {
			if _, ok := seenVar[v]; !ok {
				seenVar[v] = struct{}{}
				p.Variables = append(p.Variables, v)
			}
		}
	}
	p.Index()
	return p
}

func labels(nodes []CallNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Label)
	}
	return out
}

func kinds(targets []CallTarget) []CallKindLabel {
	out := make([]CallKindLabel, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.Kind)
	}
	return out
}
