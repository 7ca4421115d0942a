package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VectorBits/solflow/src/internal/model"
)

func TestDocumentMarshalEmptySuccess(t *testing.T) {
	data, err := json.Marshal(Document{OK: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"ok":true,"files":[],"variables":[]}`, string(data))
}

func TestDocumentMarshalFailure(t *testing.T) {
	doc := Failure(fmt.Errorf("build model: %w", errors.New("solc exited with status 1")))
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, float64(1), out["version"])
	assert.Equal(t, false, out["ok"])
	assert.Equal(t, "build model: solc exited with status 1", out["error"])
	assert.Contains(t, out["traceback"], "solc exited with status 1")
	assert.NotContains(t, out, "files")
}

func TestFailureIncludesPanicStack(t *testing.T) {
	doc := Failure(fmt.Errorf("extract: %w", &PanicError{Value: "boom", Stack: []byte("goroutine 1 [running]:")}))
	assert.False(t, doc.OK)
	assert.Equal(t, "extract: panic: boom", doc.Error)
	assert.Contains(t, doc.Traceback, "goroutine 1 [running]:")

	assert.Equal(t, "unknown error", Failure(nil).Error)
}

func TestEntryPointJSONLayout(t *testing.T) {
	from := "Base"
	ep := EntryPoint{
		FlowID:        "src/T.sol::T.pause::from::Base",
		Label:         "pause",
		Contract:      "T",
		Tooltip:       "Base.pause() • src/T.sol",
		Inherited:     true,
		InheritedFrom: &from,
		Location:      Location{File: "src/Base.sol", Line: 4},
		Calls:         []CallNode{},
	}
	data, err := json.Marshal(ep)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"flowId": "src/T.sol::T.pause::from::Base",
		"label": "pause",
		"contract": "T",
		"tooltip": "Base.pause() • src/T.sol",
		"inherited": true,
		"inheritedFrom": "Base",
		"location": {"file": "src/Base.sol", "line": 4, "character": 0},
		"calls": []
	}`, string(data))
}

func TestDocumentCounts(t *testing.T) {
	doc := Document{
		OK:        true,
		Files:     []FileWorkflows{{EntryPoints: make([]EntryPoint, 2)}, {EntryPoints: make([]EntryPoint, 3)}},
		Variables: []ContractVariables{{Vars: make([]StateVariable, 4)}},
	}
	assert.Equal(t, 5, doc.EntryPointCount())
	assert.Equal(t, 4, doc.VariableCount())
}

func TestSelector(t *testing.T) {
	f := &model.Function{Name: "transfer", SoliditySignature: "transfer(address,uint256)", Visibility: model.VisibilityExternal}
	assert.Equal(t, "0xa9059cbb", Selector(f))

	f.SoliditySignature = ""
	f.FullName = "balanceOf(address)"
	assert.Equal(t, "0x70a08231", Selector(f))

	assert.Empty(t, Selector(&model.Function{FullName: "constructor()", IsConstructor: true, Visibility: model.VisibilityPublic}))
	assert.Empty(t, Selector(&model.Function{FullName: "_mint(address)", Visibility: model.VisibilityInternal}))
	assert.Empty(t, Selector(nil))
}
