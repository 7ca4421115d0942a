package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DocumentVersion is the version of the workflow document layout.
const DocumentVersion = 1

// Document is the result of one extraction. On failure only Error and
// Traceback are emitted.
type Document struct {
	Version   int                 `json:"version"`
	OK        bool                `json:"ok"`
	Files     []FileWorkflows     `json:"files,omitempty"`
	Variables []ContractVariables `json:"variables,omitempty"`
	Error     string              `json:"error,omitempty"`
	Traceback string              `json:"traceback,omitempty"`
}

type FileWorkflows struct {
	Path        string       `json:"path"`
	EntryPoints []EntryPoint `json:"entrypoints"`
}

// EntryPoint is one externally reachable function with its call tree.
// FlowID is unique per file, contract, function and inheritance origin.
type EntryPoint struct {
	FlowID        string     `json:"flowId"`
	Label         string     `json:"label"`
	Contract      string     `json:"contract"`
	Tooltip       string     `json:"tooltip"`
	Inherited     bool       `json:"inherited"`
	InheritedFrom *string    `json:"inheritedFrom"`
	Selector      string     `json:"selector,omitempty"`
	Location      Location   `json:"location"`
	Calls         []CallNode `json:"calls"`
}

type ContractVariables struct {
	Path     string          `json:"path"`
	Contract string          `json:"contract"`
	Vars     []StateVariable `json:"vars"`
}

// StateVariable is a mutable state variable and the entry points that can
// write it. Variables without writers are never emitted.
type StateVariable struct {
	VarID         string      `json:"varId"`
	Name          string      `json:"name"`
	Type          string      `json:"type"`
	Contract      string      `json:"contract"`
	Inherited     bool        `json:"inherited"`
	InheritedFrom *string     `json:"inheritedFrom"`
	IsConstant    bool        `json:"isConstant"`
	IsImmutable   bool        `json:"isImmutable"`
	Location      *Location   `json:"location"`
	Modifiers     []WriterRef `json:"modifiers"`
}

// WriterRef points at an entry point able to write a variable.
type WriterRef struct {
	FlowID   string    `json:"flowId"`
	Label    string    `json:"label"`
	Contract string    `json:"contract"`
	Location *Location `json:"location"`
}

type successDocument struct {
	Version   int                 `json:"version"`
	OK        bool                `json:"ok"`
	Files     []FileWorkflows     `json:"files"`
	Variables []ContractVariables `json:"variables"`
}

type failureDocument struct {
	Version   int    `json:"version"`
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	Traceback string `json:"traceback,omitempty"`
}

// MarshalJSON emits either the success or the failure layout. Empty
// success lists are written as [] rather than null.
func (d Document) MarshalJSON() ([]byte, error) {
	version := d.Version
	if version == 0 {
		version = DocumentVersion
	}
	if !d.OK {
		return json.Marshal(failureDocument{Version: version, Error: d.Error, Traceback: d.Traceback})
	}
	out := successDocument{Version: version, OK: true, Files: d.Files, Variables: d.Variables}
	if out.Files == nil {
		out.Files = []FileWorkflows{}
	}
	if out.Variables == nil {
		out.Variables = []ContractVariables{}
	}
	return json.Marshal(out)
}

// EntryPointCount is the number of entry points across all files.
func (d Document) EntryPointCount() int {
	n := 0
	for _, f := range d.Files {
		n += len(f.EntryPoints)
	}
	return n
}

// VariableCount is the number of state variables with at least one writer.
func (d Document) VariableCount() int {
	n := 0
	for _, g := range d.Variables {
		n += len(g.Vars)
	}
	return n
}

// PanicError carries a recovered panic and the stack it was raised on.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Failure builds the failure document for err. The traceback lists the
// wrapped error chain, followed by the goroutine stack for panics.
func Failure(err error) *Document {
	if err == nil {
		err = errors.New("unknown error")
	}
	var sb strings.Builder
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Fprintf(&sb, "%T: %s\n", e, e.Error())
	}
	var pe *PanicError
	if errors.As(err, &pe) && len(pe.Stack) > 0 {
		sb.WriteString("\n")
		sb.Write(pe.Stack)
	}
	return &Document{
		Version:   DocumentVersion,
		OK:        false,
		Error:     err.Error(),
		Traceback: sb.String(),
	}
}
