package workflow

import "github.com/VectorBits/solflow/src/internal/model"

func externallyVisible(v model.Visibility) bool {
	return v == model.VisibilityPublic || v == model.VisibilityExternal
}

func isSpecial(f *model.Function) bool {
	return f.IsConstructor || f.IsFallback || f.IsReceive
}

// IsEntryPoint reports whether f is reachable from outside the contract,
// view and pure functions included.
func IsEntryPoint(f *model.Function) bool {
	if f == nil || !f.IsImplemented || f.IsConstructorVariables {
		return false
	}
	return isSpecial(f) || externallyVisible(f.Visibility)
}

// IsStateChangingEntryPoint is IsEntryPoint without view and pure functions.
func IsStateChangingEntryPoint(f *model.Function) bool {
	if f == nil || !f.IsImplemented || f.IsConstructorVariables {
		return false
	}
	if f.View || f.Pure {
		return false
	}
	return isSpecial(f) || externallyVisible(f.Visibility)
}
