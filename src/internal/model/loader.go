package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/VectorBits/solflow/src/internal/logger"
)

// SchemaVersion is the model document version written by the exporter.
const SchemaVersion = 1

type rawProgram struct {
	Version   int           `json:"version"`
	Contracts []rawContract `json:"contracts"`
	Functions []rawFunction `json:"functions"`
	Variables []rawVariable `json:"variables"`
}

type rawContract struct {
	ID                       string         `json:"id"`
	Name                     string         `json:"name"`
	IsInterface              bool           `json:"is_interface"`
	IsAbstract               bool           `json:"is_abstract"`
	IsLibrary                bool           `json:"is_library"`
	IsFullyImplemented       bool           `json:"is_fully_implemented"`
	Inheritance              []string       `json:"inheritance"`
	DerivedContracts         []string       `json:"derived_contracts"`
	Functions                []string       `json:"functions"`
	FunctionsDeclared        []string       `json:"functions_declared"`
	StateVariables           []string       `json:"state_variables"`
	AllStateVariablesWritten []string       `json:"all_state_variables_written"`
	Source                   *SourceMapping `json:"source"`
}

type rawModifier struct {
	Modifier        string `json:"modifier,omitempty"`
	BaseConstructor string `json:"base_constructor,omitempty"`
	Contract        string `json:"contract,omitempty"`
}

type rawTarget struct {
	Function   string `json:"function,omitempty"`
	Variable   string `json:"variable,omitempty"`
	Contract   string `json:"contract,omitempty"`
	Builtin    string `json:"builtin,omitempty"`
	IsVariable bool   `json:"is_variable,omitempty"`
}

type rawCall struct {
	Kind           CallKind   `json:"kind"`
	Target         *rawTarget `json:"target"`
	IsModifierCall bool       `json:"is_modifier_call,omitempty"`
}

type rawNode struct {
	ID     int            `json:"id"`
	Source *SourceMapping `json:"source"`
	Calls  []rawCall      `json:"calls"`
}

type rawFunction struct {
	ID                           string         `json:"id"`
	CanonicalName                string         `json:"canonical_name"`
	FullName                     string         `json:"full_name"`
	Name                         string         `json:"name"`
	SoliditySignature            string         `json:"solidity_signature"`
	Kind                         FunctionKind   `json:"kind"`
	IsImplemented                bool           `json:"is_implemented"`
	IsConstructor                bool           `json:"is_constructor"`
	IsFallback                   bool           `json:"is_fallback"`
	IsReceive                    bool           `json:"is_receive"`
	IsConstructorVariables       bool           `json:"is_constructor_variables"`
	View                         bool           `json:"view"`
	Pure                         bool           `json:"pure"`
	TopLevel                     bool           `json:"top_level"`
	Visibility                   Visibility     `json:"visibility"`
	Contract                     string         `json:"contract"`
	Modifiers                    []rawModifier  `json:"modifiers"`
	ExplicitBaseConstructorCalls []string       `json:"explicit_base_constructor_calls"`
	OverriddenBy                 []string       `json:"overridden_by"`
	InternalCalls                []string       `json:"internal_calls"`
	CallsAsExpressions           []*rawTarget   `json:"calls_as_expressions"`
	Nodes                        []rawNode      `json:"nodes"`
	StateVariablesWritten        []string       `json:"state_variables_written"`
	AllStateVariablesWritten     []string       `json:"all_state_variables_written"`
	Source                       *SourceMapping `json:"source"`
}

type rawVariable struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	CanonicalName string         `json:"canonical_name"`
	IsConstant    bool           `json:"is_constant"`
	IsImmutable   bool           `json:"is_immutable"`
	Contract      string         `json:"contract"`
	Source        *SourceMapping `json:"source"`
}

// LoadFile reads a model document from disk.
func LoadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a model document and links its cross references.
// Dangling references are dropped; duplicate IDs are an error.
func Parse(data []byte) (*Program, error) {
	var raw rawProgram
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if raw.Version > SchemaVersion {
		return nil, fmt.Errorf("unsupported model version %d (max %d)", raw.Version, SchemaVersion)
	}

	l := &linker{prog: &Program{Version: raw.Version}}
	if err := l.allocate(&raw); err != nil {
		return nil, err
	}
	l.link(&raw)
	l.prog.Digest = crypto.Keccak256Hash(data).Hex()
	if l.dangling > 0 {
		logger.Debug("model: dropped %d dangling references", l.dangling)
	}
	return l.prog, nil
}

type linker struct {
	prog     *Program
	dangling int
}

// allocate creates every entity first so that links can point forward.
func (l *linker) allocate(raw *rawProgram) error {
	p := l.prog
	for _, rc := range raw.Contracts {
		p.Contracts = append(p.Contracts, &Contract{
			ID:                 rc.ID,
			Name:               rc.Name,
			IsInterface:        rc.IsInterface,
			IsAbstract:         rc.IsAbstract,
			IsLibrary:          rc.IsLibrary,
			IsFullyImplemented: rc.IsFullyImplemented,
			Source:             rc.Source,
		})
	}
	for _, rf := range raw.Functions {
		p.Functions = append(p.Functions, &Function{
			ID:                     rf.ID,
			CanonicalName:          rf.CanonicalName,
			FullName:               rf.FullName,
			Name:                   rf.Name,
			SoliditySignature:      rf.SoliditySignature,
			Kind:                   rf.Kind,
			IsImplemented:          rf.IsImplemented,
			IsConstructor:          rf.IsConstructor,
			IsFallback:             rf.IsFallback,
			IsReceive:              rf.IsReceive,
			IsConstructorVariables: rf.IsConstructorVariables,
			View:                   rf.View,
			Pure:                   rf.Pure,
			TopLevel:               rf.TopLevel,
			Visibility:             rf.Visibility,
			Source:                 rf.Source,
		})
	}
	for _, rv := range raw.Variables {
		p.Variables = append(p.Variables, &Variable{
			ID:            rv.ID,
			Name:          rv.Name,
			Type:          rv.Type,
			CanonicalName: rv.CanonicalName,
			IsConstant:    rv.IsConstant,
			IsImmutable:   rv.IsImmutable,
			Source:        rv.Source,
		})
	}

	seen := make(map[string]struct{}, len(p.Contracts)+len(p.Functions)+len(p.Variables))
	check := func(kind EntityKind, id string) error {
		if id == "" {
			return fmt.Errorf("%s without id", kind)
		}
		key := string(kind) + ":" + id
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate %s id %q", kind, id)
		}
		seen[key] = struct{}{}
		return nil
	}
	for _, c := range p.Contracts {
		if err := check(KindContract, c.ID); err != nil {
			return err
		}
	}
	for _, f := range p.Functions {
		if err := check(KindFunction, f.ID); err != nil {
			return err
		}
	}
	for _, v := range p.Variables {
		if err := check(KindVariable, v.ID); err != nil {
			return err
		}
	}
	p.Index()
	return nil
}

func (l *linker) link(raw *rawProgram) {
	p := l.prog
	for i, rc := range raw.Contracts {
		c := p.Contracts[i]
		c.Inheritance = l.contracts(rc.Inheritance)
		c.DerivedContracts = l.contracts(rc.DerivedContracts)
		c.Functions = l.functions(rc.Functions)
		c.FunctionsDeclared = l.functions(rc.FunctionsDeclared)
		c.StateVariables = l.variables(rc.StateVariables)
		c.AllStateVariablesWritten = l.variables(rc.AllStateVariablesWritten)
	}
	for i, rf := range raw.Functions {
		f := p.Functions[i]
		f.Contract = l.contract(rf.Contract)
		for _, rm := range rf.Modifiers {
			ref := ModifierRef{
				Modifier:        l.function(rm.Modifier),
				BaseConstructor: l.function(rm.BaseConstructor),
				Contract:        l.contract(rm.Contract),
			}
			if ref.Modifier == nil && ref.BaseConstructor == nil && ref.Contract == nil {
				continue
			}
			f.Modifiers = append(f.Modifiers, ref)
		}
		f.ExplicitBaseConstructorCalls = l.functions(rf.ExplicitBaseConstructorCalls)
		f.OverriddenBy = l.functions(rf.OverriddenBy)
		f.InternalCalls = l.functions(rf.InternalCalls)
		for _, rt := range rf.CallsAsExpressions {
			f.CallsAsExpressions = append(f.CallsAsExpressions, CallExpression{Called: l.target(rt)})
		}
		for _, rn := range rf.Nodes {
			n := &Node{ID: rn.ID, Source: rn.Source}
			for _, rcall := range rn.Calls {
				n.Calls = append(n.Calls, &Call{
					Kind:           rcall.Kind,
					Target:         l.target(rcall.Target),
					IsModifierCall: rcall.IsModifierCall,
				})
			}
			f.Nodes = append(f.Nodes, n)
		}
		f.StateVariablesWritten = l.variables(rf.StateVariablesWritten)
		if rf.AllStateVariablesWritten != nil {
			f.AllStateVariablesWritten = l.variables(rf.AllStateVariablesWritten)
			if f.AllStateVariablesWritten == nil {
				f.AllStateVariablesWritten = []*Variable{}
			}
		}
	}
	for i, rv := range raw.Variables {
		p.Variables[i].Contract = l.contract(rv.Contract)
	}
}

// target never returns a typed nil inside the interface.
func (l *linker) target(rt *rawTarget) Entity {
	if rt == nil {
		return nil
	}
	switch {
	case rt.Function != "":
		if f := l.function(rt.Function); f != nil {
			return f
		}
	case rt.Variable != "":
		if v := l.variable(rt.Variable); v != nil {
			return v
		}
	case rt.Contract != "":
		if c := l.contract(rt.Contract); c != nil {
			return c
		}
	case rt.Builtin != "":
		return &Builtin{Name: rt.Builtin, IsVariable: rt.IsVariable}
	}
	return nil
}

func (l *linker) contract(id string) *Contract {
	if id == "" {
		return nil
	}
	c := l.prog.Contract(id)
	if c == nil {
		l.dangling++
	}
	return c
}

func (l *linker) function(id string) *Function {
	if id == "" {
		return nil
	}
	f := l.prog.Function(id)
	if f == nil {
		l.dangling++
	}
	return f
}

func (l *linker) variable(id string) *Variable {
	if id == "" {
		return nil
	}
	v := l.prog.Variable(id)
	if v == nil {
		l.dangling++
	}
	return v
}

func (l *linker) contracts(ids []string) []*Contract {
	var out []*Contract
	for _, id := range ids {
		if c := l.contract(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (l *linker) functions(ids []string) []*Function {
	var out []*Function
	for _, id := range ids {
		if f := l.function(id); f != nil {
			out = append(out, f)
		}
	}
	return out
}

func (l *linker) variables(ids []string) []*Variable {
	var out []*Variable
	for _, id := range ids {
		if v := l.variable(id); v != nil {
			out = append(out, v)
		}
	}
	return out
}
