package workflow

import (
	"github.com/VectorBits/solflow/src/internal/model"
)

const unknownLabel = "<unknown>"

// CallNode is one edge of an entry point's call tree. A cycle node never
// has children.
type CallNode struct {
	Label     string        `json:"label"`
	Contract  *string       `json:"contract"`
	KindLabel CallKindLabel `json:"kindLabel"`
	Tooltip   string        `json:"tooltip"`
	Location  *Location     `json:"location"`
	Cycle     bool          `json:"cycle"`
	Calls     []CallNode    `json:"calls"`
}

// TreeOptions configures call tree construction.
type TreeOptions struct {
	WorkspaceRoot       string
	MaxDepth            int
	ExcludeDependencies bool
	ExpandDependencies  bool
}

// TreeBuilder expands call trees over a read-only model. It holds no
// mutable state and is safe for concurrent use.
type TreeBuilder struct {
	opts TreeOptions
}

func NewTreeBuilder(opts TreeOptions) *TreeBuilder {
	return &TreeBuilder{opts: opts}
}

// Build returns the calls of fn at the given depth. ancestors holds the
// identities on the path from the root and is the only cycle check.
func (b *TreeBuilder) Build(fn *model.Function, depth int, ancestors *Ancestors) []CallNode {
	children := []CallNode{}
	if fn == nil || depth >= b.opts.MaxDepth {
		return children
	}

	for _, ct := range CollectCalls(fn) {
		if ct.Target == nil {
			continue
		}
		target := ct.Target
		if f, ok := target.(*model.Function); ok {
			target = ResolveToImplementation(f, b.opts.ExcludeDependencies)
		}

		node := CallNode{KindLabel: ct.Kind, Calls: []CallNode{}}
		var id string
		canonical := target.Canonical()
		if canonical != "" {
			id = canonical
			node.Label = entityLabel(target)
			node.Contract = declarerName(target)
			node.Location = locationPtr(target, b.opts.WorkspaceRoot)
		} else if name := target.EntityName(); name != "" {
			id = string(ct.Kind) + ":" + name
			node.Label = name
		} else {
			id = string(ct.Kind) + ":" + unknownLabel
			node.Label = unknownLabel
		}
		if node.Location == nil && ct.Callsite != nil {
			node.Location = locationPtr(ct.Callsite, b.opts.WorkspaceRoot)
		}

		node.Tooltip = node.Label
		if canonical != "" {
			node.Tooltip = canonical
		}

		node.Cycle = ancestors.Contains(id)
		if !node.Cycle && canonical != "" && b.shouldDescend(target) {
			if f, ok := target.(*model.Function); ok {
				node.Calls = b.Build(f, depth+1, ancestors.With(id))
			}
		}
		children = append(children, node)
	}
	return children
}

func (b *TreeBuilder) shouldDescend(target model.Entity) bool {
	if b.opts.ExpandDependencies {
		return true
	}
	return !(b.opts.ExcludeDependencies && IsDependency(target))
}

// FunctionLabel is the display name of a function: its name, else its full
// name without parameters.
func FunctionLabel(f *model.Function) string {
	if f == nil {
		return unknownLabel
	}
	if f.Name != "" {
		return f.Name
	}
	if f.FullName != "" {
		return model.BareName(f.FullName)
	}
	return unknownLabel
}

func entityLabel(e model.Entity) string {
	if f, ok := e.(*model.Function); ok {
		return FunctionLabel(f)
	}
	if name := e.EntityName(); name != "" {
		return name
	}
	return unknownLabel
}

func declarerName(e model.Entity) *string {
	f, ok := e.(*model.Function)
	if !ok || f.Contract == nil || f.Contract.Name == "" {
		return nil
	}
	name := f.Contract.Name
	return &name
}
