package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/VectorBits/solflow/src/internal/model"
)

func TestFindReachableEntryPointsThroughHelpers(t *testing.T) {
	c := newContract("Pool", "src/Pool.sol", 1)
	swap := newFunc(c, "swap", 2)
	mint := newFunc(c, "mint", 4)
	update := newFunc(c, "_update", 6, visibility(model.VisibilityPrivate))
	sync := newFunc(c, "_sync", 8, visibility(model.VisibilityInternal))
	callsInternally(swap, update, 10)
	callsInternally(update, sync, 20)
	mint.CallsAsExpressions = append(mint.CallsAsExpressions, model.CallExpression{Called: sync})

	got := FindReachableEntryPoints(sync, c, nil)
	assert.Len(t, got, 2)
	assert.True(t, got.Has(swap))
	assert.True(t, got.Has(mint))
	assert.Equal(t, []*model.Function{mint, swap}, got.Sorted())
}

func TestFindReachableEntryPointsMutualRecursion(t *testing.T) {
	c := newContract("M", "src/M.sol", 1)
	entry := newFunc(c, "entry", 2)
	a := newFunc(c, "_a", 4, visibility(model.VisibilityInternal))
	b := newFunc(c, "_b", 6, visibility(model.VisibilityInternal))
	callsInternally(a, b, 10)
	callsInternally(b, a, 20)
	callsInternally(entry, a, 30)

	got := FindReachableEntryPoints(b, c, nil)
	assert.Equal(t, []*model.Function{entry}, got.Sorted())
}

func TestFindReachableEntryPointsSharesVisited(t *testing.T) {
	c := newContract("V", "src/V.sol", 1)
	entry := newFunc(c, "entry", 2)
	helper := newFunc(c, "_helper", 4, visibility(model.VisibilityInternal))
	callsInternally(entry, helper, 10)

	visited := map[string]struct{}{entry.CanonicalName: {}}
	got := FindReachableEntryPoints(helper, c, visited)
	assert.Empty(t, got)
	assert.Contains(t, visited, helper.CanonicalName)
}

func TestFindReachableEntryPointsEntryItself(t *testing.T) {
	c := newContract("E", "src/E.sol", 1)
	entry := newFunc(c, "entry", 2)
	assert.Equal(t, []*model.Function{entry}, FindReachableEntryPoints(entry, c, nil).Sorted())
	assert.Empty(t, FindReachableEntryPoints(nil, c, nil))
}
