package report

import (
	"fmt"
	"strings"

	"github.com/VectorBits/solflow/src/internal/report/renderers"
	"github.com/VectorBits/solflow/src/internal/workflow"
)

type Generator interface {
	Generate(report *Report) (string, error)
}

type MarkdownGenerator struct {
	renderer *renderers.MarkdownRenderer
}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{renderer: renderers.NewMarkdownRenderer()}
}

// Generate 生成 markdown 报告
func (g *MarkdownGenerator) Generate(report *Report) (string, error) {
	if report == nil || report.Document == nil {
		return "", fmt.Errorf("report has no document")
	}
	doc := report.Document
	var b strings.Builder

	b.WriteString("# Solflow Workflow Report\n\n")
	b.WriteString(fmt.Sprintf("**Target**: %s\n", report.Target))
	if report.Backend != "" {
		b.WriteString(fmt.Sprintf("**Backend**: %s\n", report.Backend))
	}
	b.WriteString(fmt.Sprintf("**Generated**: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	if !doc.OK {
		b.WriteString("## ❌ Extraction Failed\n\n")
		b.WriteString(fmt.Sprintf("%s\n\n", doc.Error))
		if doc.Traceback != "" {
			b.WriteString("<details>\n<summary>Traceback</summary>\n\n")
			b.WriteString(fmt.Sprintf("```\n%s\n```\n\n", strings.TrimRight(doc.Traceback, "\n")))
			b.WriteString("</details>\n")
		}
		return b.String(), nil
	}

	b.WriteString("## Statistics\n\n")
	b.WriteString(fmt.Sprintf("- **Files**: %d\n", len(doc.Files)))
	b.WriteString(fmt.Sprintf("- **Entry Points**: %d\n", doc.EntryPointCount()))
	b.WriteString(fmt.Sprintf("- **Written State Variables**: %d\n\n", doc.VariableCount()))

	b.WriteString("## Workflows\n\n")
	if len(doc.Files) == 0 {
		b.WriteString("_No entry points found._\n\n")
	}
	for _, file := range doc.Files {
		b.WriteString(fmt.Sprintf("### 📄 `%s`\n\n", file.Path))
		for _, ep := range file.EntryPoints {
			g.writeEntryPoint(&b, ep)
		}
	}

	b.WriteString("## State Variable Writers\n\n")
	if len(doc.Variables) == 0 {
		b.WriteString("_No written state variables._\n\n")
	}
	for i, group := range doc.Variables {
		b.WriteString(fmt.Sprintf("### %s (`%s`)\n\n", group.Contract, group.Path))
		for _, v := range group.Vars {
			b.WriteString(g.renderer.RenderVariable(v))
		}
		if i < len(doc.Variables)-1 {
			b.WriteString("---\n\n")
		}
	}

	return b.String(), nil
}

func (g *MarkdownGenerator) writeEntryPoint(b *strings.Builder, ep workflow.EntryPoint) {
	b.WriteString(fmt.Sprintf("#### %s.%s", ep.Contract, ep.Label))
	if ep.Selector != "" {
		b.WriteString(fmt.Sprintf(" `%s`", ep.Selector))
	}
	b.WriteString("\n\n")
	if ep.Inherited && ep.InheritedFrom != nil {
		b.WriteString(fmt.Sprintf("Inherited from **%s**. ", *ep.InheritedFrom))
	}
	if loc := renderers.FormatLocation(&ep.Location); loc != "" {
		b.WriteString(fmt.Sprintf("Defined at %s\n\n", loc))
	} else if ep.Inherited {
		b.WriteString("\n\n")
	}
	b.WriteString(g.renderer.RenderCallTree(ep.Calls))
	b.WriteString("\n")
}
