package workflow

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/VectorBits/solflow/src/internal/model"
)

// CallKindLabel is the display classification of a call tree edge.
type CallKindLabel string

const (
	KindModifier        CallKindLabel = "Modifier"
	KindBaseConstructor CallKindLabel = "BaseConstructor"
	KindInternal        CallKindLabel = "Internal"
	KindExternal        CallKindLabel = "External"
	KindLibrary         CallKindLabel = "Library"
	KindSolidity        CallKindLabel = "Solidity"
)

// CallTarget is one call-like event of a function. Callsite is only set for
// body calls and serves as a location fallback.
type CallTarget struct {
	Kind     CallKindLabel
	Target   model.Entity
	Callsite *model.Node
}

// builtins are Solidity statements and globals that never show up as calls.
var builtins = map[string]struct{}{
	"require": {}, "assert": {}, "revert": {}, "return": {},

	"abi.encode": {}, "abi.encodePacked": {}, "abi.encodeWithSelector": {},
	"abi.encodeWithSignature": {}, "abi.encodeCall": {}, "abi.decode": {},

	"keccak256": {}, "sha256": {}, "ripemd160": {},
	"bytes.concat": {}, "string.concat": {},
	"ecrecover": {},
	"addmod": {}, "mulmod": {},
	"blockhash": {},

	// EIP-1153
	"tload": {}, "tstore": {},

	"mload": {}, "mstore": {}, "calldataload": {}, "sload": {}, "sstore": {},
	"signextend": {},
	"gasleft": {}, "type": {},
}

// IsBuiltin reports whether name, with or without a parameter list, is a
// filtered Solidity built-in.
func IsBuiltin(name string) bool {
	_, ok := builtins[model.BareName(name)]
	return ok
}

// identity keys constructors for dedup; entities without a canonical name
// fall back to pointer identity.
func identity(e model.Entity) string {
	if c := e.Canonical(); c != "" {
		return c
	}
	return fmt.Sprintf("%s@%p", e.EntityKind(), e)
}

// CollectCalls lists the calls of fn in execution order: modifiers, base
// constructors, then body calls by source position.
func CollectCalls(fn *model.Function) []CallTarget {
	if fn == nil {
		return nil
	}
	var targets []CallTarget
	seenCtors := make(map[string]struct{})

	for _, mod := range fn.Modifiers {
		switch {
		case mod.BaseConstructor != nil:
			id := identity(mod.BaseConstructor)
			if _, ok := seenCtors[id]; !ok {
				seenCtors[id] = struct{}{}
				targets = append(targets, CallTarget{Kind: KindBaseConstructor, Target: mod.BaseConstructor})
			}
		case mod.Modifier != nil:
			targets = append(targets, CallTarget{Kind: KindModifier, Target: mod.Modifier})
		case mod.Contract != nil:
			// base contract without a declared constructor
			targets = append(targets, CallTarget{Kind: KindModifier, Target: mod.Contract})
		}
	}

	for _, ctor := range fn.ExplicitBaseConstructorCalls {
		if ctor == nil {
			continue
		}
		id := identity(ctor)
		if _, ok := seenCtors[id]; ok {
			continue
		}
		seenCtors[id] = struct{}{}
		targets = append(targets, CallTarget{Kind: KindBaseConstructor, Target: ctor})
	}

	for _, node := range sortedNodes(fn.Nodes) {
		for _, call := range node.Calls {
			if call == nil || call.Target == nil || call.IsModifierCall {
				continue
			}
			target := call.Target
			id := identity(target)
			if _, ok := seenCtors[id]; ok {
				continue
			}
			if f, ok := target.(*model.Function); ok && f.IsConstructor {
				seenCtors[id] = struct{}{}
			}

			name := target.EntityName()
			if strings.HasPrefix(name, "revert ") || IsBuiltin(name) {
				continue
			}
			targets = append(targets, CallTarget{Kind: callKindLabel(call), Target: target, Callsite: node})
		}
	}
	return targets
}

func callKindLabel(call *model.Call) CallKindLabel {
	switch {
	case call.Kind == model.CallLibrary:
		return KindLibrary
	case call.Kind == model.CallHighLevel:
		return KindExternal
	case call.Kind == model.CallSolidity:
		return KindSolidity
	case call.Kind == model.CallInternalDynamic:
		// callee is a function-typed local, exported as a builtin name
		return KindInternal
	}
	if _, ok := call.Target.(*model.Builtin); ok {
		return KindSolidity
	}
	return KindInternal
}

// sortedNodes orders statements by source offset, then first line, with
// unmapped nodes last. Node ID breaks ties.
func sortedNodes(nodes []*model.Node) []*model.Node {
	out := make([]*model.Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := nodePosition(out[i]), nodePosition(out[j])
		if pi != pj {
			return pi < pj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func nodePosition(n *model.Node) int64 {
	if src := n.Source; src != nil {
		if src.Start != nil {
			return int64(*src.Start)
		}
		if len(src.Lines) > 0 {
			return int64(src.Lines[0])
		}
	}
	return math.MaxInt64
}
