package model

import "strings"

// EntityKind tags the variant behind an Entity.
type EntityKind string

const (
	KindContract EntityKind = "contract"
	KindFunction EntityKind = "function"
	KindVariable EntityKind = "variable"
	KindBuiltin  EntityKind = "builtin"
)

type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityExternal Visibility = "external"
	VisibilityInternal Visibility = "internal"
	VisibilityPrivate  Visibility = "private"
)

type FunctionKind string

const (
	FunctionKindFunction    FunctionKind = "function"
	FunctionKindModifier    FunctionKind = "modifier"
	FunctionKindConstructor FunctionKind = "constructor"
	FunctionKindFallback    FunctionKind = "fallback"
	FunctionKindReceive     FunctionKind = "receive"
)

// CallKind is the upstream classification of a call instruction.
type CallKind string

const (
	CallInternal        CallKind = "internal"
	CallInternalDynamic CallKind = "internal_dynamic"
	CallHighLevel       CallKind = "high_level"
	CallLibrary         CallKind = "library"
	CallSolidity        CallKind = "solidity"
)

// SourceMapping 实体在源码中的位置
type SourceMapping struct {
	Absolute     string `json:"absolute,omitempty"`
	Relative     string `json:"relative,omitempty"`
	Lines        []int  `json:"lines,omitempty"`
	Start        *int   `json:"start,omitempty"`
	IsDependency bool   `json:"is_dependency,omitempty"`
}

// Mappable is anything that may carry a source mapping.
type Mappable interface {
	Mapping() *SourceMapping
}

// Entity is a reference into the program model. Canonical returns "" for
// entities without a canonical name (Solidity built-ins, contracts).
type Entity interface {
	Mappable
	EntityKind() EntityKind
	EntityName() string
	Canonical() string
}

type Contract struct {
	ID                       string
	Name                     string
	IsInterface              bool
	IsAbstract               bool
	IsLibrary                bool
	IsFullyImplemented       bool
	Inheritance              []*Contract
	DerivedContracts         []*Contract
	Functions                []*Function
	FunctionsDeclared        []*Function
	StateVariables           []*Variable
	AllStateVariablesWritten []*Variable
	Source                   *SourceMapping
}

func (c *Contract) EntityKind() EntityKind { return KindContract }
func (c *Contract) EntityName() string { return c.Name }
func (c *Contract) Canonical() string { return "" }

func (c *Contract) Mapping() *SourceMapping {
	if c == nil {
		return nil
	}
	return c.Source
}

// ModifierRef is one entry of a function's modifier list. Base constructor
// invocations written in modifier position carry BaseConstructor (or only
// Contract when the base has no declared constructor).
type ModifierRef struct {
	Modifier        *Function
	BaseConstructor *Function
	Contract        *Contract
}

// Call is a single call instruction inside a statement node.
type Call struct {
	Kind           CallKind
	Target         Entity
	IsModifierCall bool
}

// Node is one statement of a function body.
type Node struct {
	ID     int
	Source *SourceMapping
	Calls  []*Call
}

func (n *Node) Mapping() *SourceMapping {
	if n == nil {
		return nil
	}
	return n.Source
}

type CallExpression struct {
	Called Entity
}

type Function struct {
	ID                     string
	CanonicalName          string
	FullName               string
	Name                   string
	SoliditySignature      string
	Kind                   FunctionKind
	IsImplemented          bool
	IsConstructor          bool
	IsFallback             bool
	IsReceive              bool
	IsConstructorVariables bool
	View                   bool
	Pure                   bool
	// TopLevel marks free functions that are not bound to a contract.
	TopLevel   bool
	Visibility Visibility
	Contract   *Contract

	Modifiers                    []ModifierRef
	ExplicitBaseConstructorCalls []*Function
	OverriddenBy                 []*Function
	InternalCalls                []*Function
	CallsAsExpressions           []CallExpression
	Nodes                        []*Node

	StateVariablesWritten []*Variable
	// AllStateVariablesWritten is the transitive write set; nil when the
	// analyzer did not export it.
	AllStateVariablesWritten []*Variable

	Source *SourceMapping
}

func (f *Function) EntityKind() EntityKind { return KindFunction }
func (f *Function) EntityName() string { return f.Name }
func (f *Function) Canonical() string { return f.CanonicalName }

func (f *Function) Mapping() *SourceMapping {
	if f == nil {
		return nil
	}
	return f.Source
}

// WrittenVariables prefers the transitive write set and falls back to the
// direct one.
func (f *Function) WrittenVariables() []*Variable {
	if f == nil {
		return nil
	}
	if f.AllStateVariablesWritten != nil {
		return f.AllStateVariablesWritten
	}
	return f.StateVariablesWritten
}

// Key identifies the function for visited sets.
func (f *Function) Key() string {
	if f.CanonicalName != "" {
		return f.CanonicalName
	}
	return "#" + f.ID
}

type Variable struct {
	ID            string
	Name          string
	Type          string
	CanonicalName string
	IsConstant    bool
	IsImmutable   bool
	Contract      *Contract
	Source        *SourceMapping
}

func (v *Variable) EntityKind() EntityKind { return KindVariable }
func (v *Variable) EntityName() string { return v.Name }
func (v *Variable) Canonical() string { return v.CanonicalName }

func (v *Variable) Mapping() *SourceMapping {
	if v == nil {
		return nil
	}
	return v.Source
}

// Mutable reports whether the variable can be written after deployment.
func (v *Variable) Mutable() bool {
	return !v.IsConstant && !v.IsImmutable
}

// Builtin is a Solidity global function or variable such as
// "require(bool,string)" or "msg.sender".
type Builtin struct {
	Name       string
	IsVariable bool
}

func (b *Builtin) EntityKind() EntityKind { return KindBuiltin }
func (b *Builtin) EntityName() string { return b.Name }
func (b *Builtin) Canonical() string { return "" }
func (b *Builtin) Mapping() *SourceMapping { return nil }

// BareName strips a parameter signature: "require(bool)" -> "require".
func BareName(name string) string {
	if i := strings.IndexByte(name, '('); i >= 0 {
		return name[:i]
	}
	return name
}

// Program is the frozen model produced by the analyzer.
type Program struct {
	Version   int
	Contracts []*Contract
	Functions []*Function
	Variables []*Variable
	// Digest is the Keccak-256 of the serialized model, empty for programs
	// built in memory.
	Digest string

	contractsByID map[string]*Contract
	functionsByID map[string]*Function
	variablesByID map[string]*Variable
}

func (p *Program) Contract(id string) *Contract {
	if p == nil {
		return nil
	}
	return p.contractsByID[id]
}

func (p *Program) Function(id string) *Function {
	if p == nil {
		return nil
	}
	return p.functionsByID[id]
}

func (p *Program) Variable(id string) *Variable {
	if p == nil {
		return nil
	}
	return p.variablesByID[id]
}

// Index rebuilds the ID lookup tables from the entity slices.
func (p *Program) Index() {
	p.contractsByID = make(map[string]*Contract, len(p.Contracts))
	p.functionsByID = make(map[string]*Function, len(p.Functions))
	p.variablesByID = make(map[string]*Variable, len(p.Variables))
	for _, c := range p.Contracts {
		p.contractsByID[c.ID] = c
	}
	for _, f := range p.Functions {
		p.functionsByID[f.ID] = f
	}
	for _, v := range p.Variables {
		p.variablesByID[v.ID] = v
	}
}
