package renderers

import (
	"fmt"
	"strings"

	"github.com/VectorBits/solflow/src/internal/workflow"
)

type MarkdownRenderer struct{}

func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// RenderCallTree 以嵌套列表渲染调用树
func (r *MarkdownRenderer) RenderCallTree(nodes []workflow.CallNode) string {
	if len(nodes) == 0 {
		return "_no calls_\n"
	}
	var b strings.Builder
	r.renderNodes(&b, nodes, 0)
	return b.String()
}

func (r *MarkdownRenderer) renderNodes(b *strings.Builder, nodes []workflow.CallNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		b.WriteString(indent)
		b.WriteString("- ")
		b.WriteString(getKindIcon(n.KindLabel))
		b.WriteString(" `")
		b.WriteString(n.Label)
		b.WriteString("`")
		if n.Contract != nil && *n.Contract != "" {
			b.WriteString(fmt.Sprintf(" (%s)", *n.Contract))
		}
		b.WriteString(fmt.Sprintf(" _%s_", n.KindLabel))
		if loc := FormatLocation(n.Location); loc != "" {
			b.WriteString(" @ ")
			b.WriteString(loc)
		}
		if n.Cycle {
			b.WriteString(" ↺ cycle")
		}
		b.WriteString("\n")
		r.renderNodes(b, n.Calls, depth+1)
	}
}

// RenderVariable renders one state variable with its writer table.
func (r *MarkdownRenderer) RenderVariable(v workflow.StateVariable) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("#### `%s %s`", v.Type, v.Name))
	if v.Inherited && v.InheritedFrom != nil {
		b.WriteString(fmt.Sprintf(" (inherited from %s)", *v.InheritedFrom))
	}
	b.WriteString("\n\n")
	if loc := FormatLocation(v.Location); loc != "" {
		b.WriteString(fmt.Sprintf("Declared at %s\n\n", loc))
	}
	b.WriteString("| Writer | Contract | Location |\n|---|---|---|\n")
	for _, w := range v.Modifiers {
		b.WriteString(fmt.Sprintf("| `%s` | %s | %s |\n", escapeCell(w.Label), escapeCell(w.Contract), FormatLocation(w.Location)))
	}
	b.WriteString("\n")
	return b.String()
}

// FormatLocation renders a location as file:line with a 1-based line.
func FormatLocation(loc *workflow.Location) string {
	if loc == nil || loc.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", loc.File, loc.Line+1)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func getKindIcon(kind workflow.CallKindLabel) string {
	switch kind {
	case workflow.KindModifier:
		return "🛡️"
	case workflow.KindBaseConstructor:
		return "🏗️"
	case workflow.KindExternal:
		return "🌐"
	case workflow.KindLibrary:
		return "📚"
	case workflow.KindSolidity:
		return "⚙️"
	default:
		return "➡️"
	}
}
