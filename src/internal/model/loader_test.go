package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleModel = `{
  "version": 1,
  "contracts": [
    {"id": "c1", "name": "IVault", "is_interface": true, "derived_contracts": ["c2"], "functions": ["f1"], "functions_declared": ["f1"],
     "source": {"absolute": "/ws/src/IVault.sol", "relative": "src/IVault.sol", "lines": [3, 4, 5]}},
    {"id": "c2", "name": "Vault", "is_fully_implemented": true, "inheritance": ["c1"], "functions": ["f2", "f3"], "functions_declared": ["f2", "f3"],
     "state_variables": ["v1"], "all_state_variables_written": ["v1", "missing"],
     "source": {"absolute": "/ws/src/Vault.sol", "lines": [7]}}
  ],
  "functions": [
    {"id": "f1", "canonical_name": "IVault.deposit(uint256)", "full_name": "deposit(uint256)", "name": "deposit",
     "visibility": "external", "contract": "c1", "overridden_by": ["f2"]},
    {"id": "f2", "canonical_name": "Vault.deposit(uint256)", "full_name": "deposit(uint256)", "name": "deposit",
     "solidity_signature": "deposit(uint256)", "is_implemented": true, "visibility": "external", "contract": "c2",
     "modifiers": [{"modifier": "f3"}, {"modifier": "nope"}],
     "nodes": [
       {"id": 1, "source": {"start": 120, "lines": [12]}, "calls": [
         {"kind": "solidity", "target": {"builtin": "require(bool,string)"}},
         {"kind": "internal", "target": {"function": "f3"}},
         {"kind": "internal", "target": {"function": "ghost"}}
       ]}
     ],
     "state_variables_written": ["v1"], "all_state_variables_written": []},
    {"id": "f3", "canonical_name": "Vault.onlyOwner()", "full_name": "onlyOwner()", "name": "onlyOwner",
     "kind": "modifier", "is_implemented": true, "visibility": "internal", "contract": "c2"}
  ],
  "variables": [
    {"id": "v1", "name": "total", "type": "uint256", "canonical_name": "Vault.total", "contract": "c2"}
  ]
}`

func TestParseLinksReferences(t *testing.T) {
	prog, err := Parse([]byte(sampleModel))
	require.NoError(t, err)

	require.Len(t, prog.Contracts, 2)
	require.Len(t, prog.Functions, 3)
	require.Len(t, prog.Variables, 1)
	assert.NotEmpty(t, prog.Digest)

	iface := prog.Contract("c1")
	vault := prog.Contract("c2")
	require.NotNil(t, iface)
	require.NotNil(t, vault)
	assert.Equal(t, []*Contract{vault}, iface.DerivedContracts)
	assert.Equal(t, []*Contract{iface}, vault.Inheritance)
	assert.Len(t, vault.AllStateVariablesWritten, 1, "dangling variable reference is dropped")

	decl := prog.Function("f1")
	impl := prog.Function("f2")
	assert.Same(t, iface, decl.Contract)
	assert.Equal(t, []*Function{impl}, decl.OverriddenBy)

	require.Len(t, impl.Modifiers, 1)
	assert.Same(t, prog.Function("f3"), impl.Modifiers[0].Modifier)

	require.Len(t, impl.Nodes, 1)
	calls := impl.Nodes[0].Calls
	require.Len(t, calls, 3)
	builtin, ok := calls[0].Target.(*Builtin)
	require.True(t, ok)
	assert.Equal(t, "require(bool,string)", builtin.Name)
	assert.Same(t, prog.Function("f3"), calls[1].Target)
	assert.Nil(t, calls[2].Target, "unresolved call target must be a nil interface")
	require.NotNil(t, impl.Nodes[0].Source.Start)
	assert.Equal(t, 120, *impl.Nodes[0].Source.Start)

	assert.NotNil(t, impl.AllStateVariablesWritten)
	assert.Empty(t, impl.WrittenVariables(), "an exported empty transitive set wins over the direct set")
	assert.Nil(t, decl.AllStateVariablesWritten)

	assert.Same(t, vault, prog.Variable("v1").Contract)
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	_, err := Parse([]byte(`{"version":1,"functions":[{"id":"f"},{"id":"f"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate function id")
}

func TestParseRejectsNewerVersion(t *testing.T) {
	_, err := Parse([]byte(`{"version":99}`))
	require.Error(t, err)
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"contracts": [`))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleModel), 0644))

	prog, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, prog.Functions, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestBareName(t *testing.T) {
	assert.Equal(t, "require", BareName("require(bool,string)"))
	assert.Equal(t, "abi.encode", BareName("abi.encode()"))
	assert.Equal(t, "gasleft", BareName("gasleft"))
}

func TestWrittenVariablesFallsBackToDirectSet(t *testing.T) {
	v := &Variable{Name: "x"}
	f := &Function{StateVariablesWritten: []*Variable{v}}
	assert.Equal(t, []*Variable{v}, f.WrittenVariables())

	var nilFn *Function
	assert.Nil(t, nilFn.WrittenVariables())
}
