package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VectorBits/solflow/src/internal/workflow"
)

func strPtr(s string) *string { return &s }

func sampleDocument() *workflow.Document {
	owner := "Ownable"
	return &workflow.Document{
		Version: workflow.DocumentVersion,
		OK:      true,
		Files: []workflow.FileWorkflows{{
			Path: "src/Vault.sol",
			EntryPoints: []workflow.EntryPoint{
				{
					FlowID:   "src/Vault.sol::Vault.deposit()",
					Label:    "deposit()",
					Contract: "Vault",
					Selector: "0xd0e30db0",
					Location: workflow.Location{File: "src/Vault.sol", Line: 11},
					Calls: []workflow.CallNode{
						{
							Label:     "whenNotPaused()",
							Contract:  strPtr("Pausable"),
							KindLabel: workflow.KindModifier,
							Location:  &workflow.Location{File: "src/Pausable.sol", Line: 4},
							Calls:     []workflow.CallNode{},
						},
						{
							Label:     "_credit(uint256)",
							Contract:  strPtr("Vault"),
							KindLabel: workflow.KindInternal,
							Calls: []workflow.CallNode{{
								Label:     "deposit()",
								Contract:  strPtr("Vault"),
								KindLabel: workflow.KindInternal,
								Cycle:     true,
								Calls:     []workflow.CallNode{},
							}},
						},
					},
				},
				{
					FlowID:        "src/Vault.sol::Vault.renounceOwnership()::from::Ownable",
					Label:         "renounceOwnership()",
					Contract:      "Vault",
					Inherited:     true,
					InheritedFrom: &owner,
					Location:      workflow.Location{File: "lib/oz/Ownable.sol", Line: 20},
					Calls:         []workflow.CallNode{},
				},
			},
		}},
		Variables: []workflow.ContractVariables{{
			Path:     "src/Vault.sol",
			Contract: "Vault",
			Vars: []workflow.StateVariable{{
				VarID:    "src/Vault.sol::Vault.total",
				Name:     "total",
				Type:     "uint256",
				Contract: "Vault",
				Location: &workflow.Location{File: "src/Vault.sol", Line: 6},
				Modifiers: []workflow.WriterRef{{
					FlowID:   "src/Vault.sol::Vault.deposit()",
					Label:    "deposit()",
					Contract: "Vault",
				}},
			}},
		}},
	}
}

func TestMarkdownGenerator(t *testing.T) {
	out, err := NewMarkdownGenerator().Generate(NewReport("./vault", "model_file", sampleDocument()))
	require.NoError(t, err)

	assert.Contains(t, out, "# Solflow Workflow Report")
	assert.Contains(t, out, "**Backend**: model_file")
	assert.Contains(t, out, "- **Entry Points**: 2")
	assert.Contains(t, out, "### 📄 `src/Vault.sol`")
	assert.Contains(t, out, "#### Vault.deposit() `0xd0e30db0`")
	assert.Contains(t, out, "Defined at src/Vault.sol:12")
	assert.Contains(t, out, "Inherited from **Ownable**.")
	assert.Contains(t, out, "- 🛡️ `whenNotPaused()` (Pausable) _Modifier_ @ src/Pausable.sol:5")
	assert.Contains(t, out, "  - ➡️ `deposit()` (Vault) _Internal_ ↺ cycle")
	assert.Contains(t, out, "#### `uint256 total`")
	assert.Contains(t, out, "| `deposit()` | Vault |  |")
	assert.Contains(t, out, "_no calls_")
}

func TestMarkdownGeneratorFailure(t *testing.T) {
	doc := workflow.Failure(errors.New("slither is not importable"))
	out, err := NewMarkdownGenerator().Generate(NewReport("x", "", doc))
	require.NoError(t, err)
	assert.Contains(t, out, "Extraction Failed")
	assert.Contains(t, out, "slither is not importable")
	assert.NotContains(t, out, "## Statistics")
}

func TestMarkdownGeneratorRequiresDocument(t *testing.T) {
	_, err := NewMarkdownGenerator().Generate(&Report{})
	assert.Error(t, err)
}

func TestReporterSavesAtomically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	r := NewReporter(NewMarkdownGenerator(), NewFileStorage(dir))
	rep := NewReport("/work/my vault/", "slither", sampleDocument())
	rep.GeneratedAt = time.Unix(1700000000, 0)

	path, err := r.GenerateAndSave(rep)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "workflow_report_my_vault_"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Vault.deposit()")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestReportFilename(t *testing.T) {
	at := time.Unix(0, 42)
	ok := &Report{Target: "contracts/Token.sol", GeneratedAt: at, Document: sampleDocument()}
	assert.Equal(t, "workflow_report_Token.sol_42.md", reportFilename(ok))

	failed := &Report{Target: "./vault/", GeneratedAt: at, Document: workflow.Failure(errors.New("boom"))}
	assert.Equal(t, "workflow_report_vault_failed_42.md", reportFilename(failed))
}

func TestSanitizeFilenameComponent(t *testing.T) {
	assert.Equal(t, "unknown", sanitizeFilenameComponent("  "))
	assert.Equal(t, "unknown", sanitizeFilenameComponent("..."))
	assert.Equal(t, "a_b.sol", sanitizeFilenameComponent("a b.sol"))
}
