package workflow

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/VectorBits/solflow/src/internal/logger"
	"github.com/VectorBits/solflow/src/internal/model"
)

// DefaultMaxDepth bounds call trees when no depth is configured.
const DefaultMaxDepth = 10

// Options configures an Extractor.
type Options struct {
	WorkspaceRoot       string
	MaxDepth            int
	ExcludeDependencies bool
	ExpandDependencies  bool
	// Concurrency bounds the number of call trees built at once.
	Concurrency int
	// Progress, when set, is called after each call tree with the number
	// of finished and queued entry points. It may be called concurrently.
	Progress func(done, total int)
}

// Extractor turns a program model into a workflow document.
type Extractor struct {
	opts Options
	tree *TreeBuilder
}

func NewExtractor(opts Options) *Extractor {
	if opts.MaxDepth < 1 {
		opts.MaxDepth = 1
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Extractor{
		opts: opts,
		tree: NewTreeBuilder(TreeOptions{
			WorkspaceRoot:       opts.WorkspaceRoot,
			MaxDepth:            opts.MaxDepth,
			ExcludeDependencies: opts.ExcludeDependencies,
			ExpandDependencies:  opts.ExpandDependencies,
		}),
	}
}

// entryJob is an entry point waiting for its call tree.
type entryJob struct {
	fn       *model.Function
	file     string
	record   EntryPoint
	ancestor string
	skipped  bool
}

// Extract builds the call trees of every entry point and the variable
// writer index. Only context cancellation is reported as an error; a panic
// while expanding one entry point drops that entry point alone.
func (e *Extractor) Extract(ctx context.Context, prog *model.Program) (*Document, error) {
	if prog == nil {
		return nil, fmt.Errorf("extract workflows: nil program")
	}

	jobs := e.entryJobs(prog)
	logger.Debug("workflow: %d entry points queued", len(jobs))

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i := range jobs {
		job := &jobs[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.buildCalls(job)
			if e.opts.Progress != nil {
				e.opts.Progress(int(done.Add(1)), len(jobs))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build call trees: %w", err)
	}

	byFile := make(map[string][]EntryPoint)
	for _, job := range jobs {
		if job.skipped {
			continue
		}
		byFile[job.file] = append(byFile[job.file], job.record)
	}
	files := make([]FileWorkflows, 0, len(byFile))
	for path, eps := range byFile {
		sort.SliceStable(eps, func(i, j int) bool {
			a, b := eps[i], eps[j]
			if a.Inherited != b.Inherited {
				return !a.Inherited
			}
			if a.Location.Line != b.Location.Line {
				return a.Location.Line < b.Location.Line
			}
			return a.Label < b.Label
		})
		files = append(files, FileWorkflows{Path: path, EntryPoints: eps})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extract variables: %w", err)
	}
	variables := ExtractVariables(prog, e.opts.WorkspaceRoot, e.opts.ExcludeDependencies)

	return &Document{
		Version:   DocumentVersion,
		OK:        true,
		Files:     files,
		Variables: variables,
	}, nil
}

func (e *Extractor) buildCalls(job *entryJob) {
	defer func() {
		if r := recover(); r != nil {
			job.skipped = true
			logger.Warn("workflow: skipping %s: %v", job.record.FlowID, r)
			logger.Debug("%s", debug.Stack())
		}
	}()
	job.record.Calls = e.tree.Build(job.fn, 0, NewAncestors(job.ancestor))
}

// entryJobs lists direct entry points followed by the entry points that
// concrete contracts inherit from abstract or dependency parents.
func (e *Extractor) entryJobs(prog *model.Program) []entryJob {
	abstract := make(map[string]struct{})
	var concrete []*model.Contract
	for _, c := range prog.Contracts {
		if c == nil {
			continue
		}
		if e.opts.ExcludeDependencies && IsDependency(c) {
			continue
		}
		if c.IsAbstract {
			abstract[c.Name] = struct{}{}
		} else if !c.IsInterface {
			concrete = append(concrete, c)
		}
	}

	var jobs []entryJob
	seen := make(map[string]struct{})
	for _, f := range prog.Functions {
		if f == nil || f.CanonicalName == "" {
			continue
		}
		if _, dup := seen[f.CanonicalName]; dup {
			continue
		}
		seen[f.CanonicalName] = struct{}{}

		if f.TopLevel || f.Kind == model.FunctionKindModifier {
			continue
		}
		if e.opts.ExcludeDependencies && IsDependency(f) {
			continue
		}
		if !IsStateChangingEntryPoint(f) {
			continue
		}
		if _, ok := abstract[contractName(f)]; ok {
			continue
		}
		if job, ok := e.directJob(f); ok {
			jobs = append(jobs, job)
		}
	}

	for _, c := range concrete {
		for _, inh := range e.inheritedFunctions(c, abstract) {
			if job, ok := e.inheritedJob(inh.fn, inh.origin, c); ok {
				jobs = append(jobs, job)
			}
		}
	}
	return jobs
}

func contractName(f *model.Function) string {
	if f.Contract == nil {
		return ""
	}
	return f.Contract.Name
}

func (e *Extractor) directJob(f *model.Function) (entryJob, bool) {
	loc, ok := ResolveLocation(f, e.opts.WorkspaceRoot)
	if !ok {
		return entryJob{}, false
	}
	return e.newJob(f, loc.File, contractName(f), loc.File+"::"+f.CanonicalName, ""), true
}

func (e *Extractor) inheritedJob(f *model.Function, origin string, concrete *model.Contract) (entryJob, bool) {
	loc, ok := ResolveLocation(concrete, e.opts.WorkspaceRoot)
	if !ok {
		return entryJob{}, false
	}
	flowID := fmt.Sprintf("%s::%s.%s::from::%s", loc.File, concrete.Name, FunctionLabel(f), origin)
	return e.newJob(f, loc.File, concrete.Name, flowID, origin), true
}

func (e *Extractor) newJob(f *model.Function, file, contract, flowID, origin string) entryJob {
	label := FunctionLabel(f)
	tooltip := label + " • " + file
	if f.CanonicalName != "" {
		tooltip = f.CanonicalName + " • " + file
	}
	location := Location{File: file}
	if loc, ok := ResolveLocation(f, e.opts.WorkspaceRoot); ok {
		location = loc
	}
	record := EntryPoint{
		FlowID:   flowID,
		Label:    label,
		Contract: contract,
		Tooltip:  tooltip,
		Selector: Selector(f),
		Location: location,
		Calls:    []CallNode{},
	}
	if origin != "" {
		from := origin
		record.Inherited = true
		record.InheritedFrom = &from
	}
	ancestor := f.CanonicalName
	if ancestor == "" {
		ancestor = label
	}
	return entryJob{fn: f, file: file, record: record, ancestor: ancestor}
}

type inheritedFunction struct {
	fn     *model.Function
	origin string
}

// inheritedFunctions lists state-changing entry points a concrete contract
// picks up from abstract or dependency parents and does not override.
// Entries are deduplicated by full name; constructors by parent and name.
func (e *Extractor) inheritedFunctions(c *model.Contract, abstract map[string]struct{}) []inheritedFunction {
	var out []inheritedFunction
	seen := make(map[string]struct{})
	for _, parent := range c.Inheritance {
		if parent == nil {
			continue
		}
		_, isAbstract := abstract[parent.Name]
		isDependency := e.opts.ExcludeDependencies && IsDependency(parent)
		if !isAbstract && !isDependency {
			continue
		}
		for _, f := range parent.FunctionsDeclared {
			if f == nil || f.TopLevel || !IsStateChangingEntryPoint(f) {
				continue
			}
			name := signatureName(f)
			key := name
			if f.IsConstructor {
				key = parent.Name + "." + name
			}
			if _, dup := seen[key]; dup {
				continue
			}
			if !f.IsConstructor && overrides(c, name) {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, inheritedFunction{fn: f, origin: parent.Name})
		}
	}
	return out
}

func signatureName(f *model.Function) string {
	if f.FullName != "" {
		return f.FullName
	}
	return f.Name
}

func overrides(c *model.Contract, fullName string) bool {
	for _, own := range c.FunctionsDeclared {
		if own != nil && signatureName(own) == fullName {
			return true
		}
	}
	return false
}
