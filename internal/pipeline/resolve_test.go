package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/qcflow/internal/document"
	"github.com/vk/qcflow/internal/format"
	"github.com/vk/qcflow/internal/registry"
)

func mustParseYAML(t *testing.T, text string) *document.Document {
	t.Helper()
	doc, err := format.Parse(text, format.YAML)
	require.NoError(t, err)
	return doc
}

const sampleWorkflow = `
version: v1
Mole:
  atom: |
    H 0 0 0
    H 0 0 1
  basis: sto-3g
HF:
  conv_tol: 1e-9
  density_fit:
    auxbasis: weigend
  newton:
    micro: 2
  results:
    - e_tot
ddCOSMO:
  eps: 1.8
CCSD:
  results:
    - e_corr
Gradients:
`

func TestResolveSampleWorkflow(t *testing.T) {
	t.Parallel()

	doc := mustParseYAML(t, sampleWorkflow)
	p, err := Resolve(doc, registry.New())
	require.NoError(t, err)

	require.Equal(t, "v1", p.Version)
	require.Len(t, p.Stages, 5)

	mole, hf, solvent, ccsd, grad := p.Stages[0], p.Stages[1], p.Stages[2], p.Stages[3], p.Stages[4]

	require.Equal(t, registry.CategoryEnvironment, mole.Category)
	require.Equal(t, -1, mole.Predecessor)

	require.Equal(t, registry.CategoryMethod, hf.Category)
	require.Equal(t, 0, hf.Predecessor)
	require.Len(t, hf.Wrappers, 2)
	require.Equal(t, "density_fit", hf.Wrappers[0].Name)
	require.Equal(t, "newton", hf.Wrappers[1].Name)
	require.Len(t, hf.Results, 1)
	require.False(t, hf.Options.Has("results"), "results must never bind as an option")
	require.False(t, hf.Options.Has("density_fit"), "wrappers must never bind as options")

	require.Equal(t, registry.CategoryModifier, solvent.Category)
	require.Equal(t, 1, solvent.Predecessor, "solvent model wraps the SCF stage")

	require.Equal(t, registry.CategoryMethod, ccsd.Category)
	require.Equal(t, 2, ccsd.Predecessor, "CCSD hangs off the solvent-wrapped SCF")

	require.Equal(t, registry.CategoryProperty, grad.Category)
	require.Equal(t, 3, grad.Predecessor)
}

func TestPropertyStageDoesNotUpdateReference(t *testing.T) {
	t.Parallel()

	doc := mustParseYAML(t, "Mole:\n  basis: sto-3g\nHF:\nGradients:\nMP2:\n")
	p, err := Resolve(doc, registry.New())
	require.NoError(t, err)

	require.Len(t, p.Stages, 4)
	// MP2 chains from HF, not from the Gradients property read.
	require.Equal(t, 1, p.Stages[3].Predecessor)
}

func TestChainedPropertiesOption(t *testing.T) {
	t.Parallel()

	doc := mustParseYAML(t, "Mole:\n  basis: sto-3g\nHF:\ngeomopt:\nMP2:\n")
	p, err := Resolve(doc, registry.New(), WithChainedProperties())
	require.NoError(t, err)

	// With chaining on, the optimized geometry becomes the reference.
	require.Equal(t, 2, p.Stages[3].Predecessor)
}

func TestParametrizedBlockName(t *testing.T) {
	t.Parallel()

	doc := mustParseYAML(t, "Mole:\n  basis: sto-3g\nHF:\nCASSCF(2,2):\n  results:\n    - e_tot\n")
	p, err := Resolve(doc, registry.New())
	require.NoError(t, err)

	cas := p.Stages[2]
	require.Equal(t, "CASSCF", cas.Kind)
	require.Equal(t, "CASSCF(2,2)", cas.Block)
	require.True(t, cas.Known)
	require.Equal(t, []any{int64(2), int64(2)}, cas.Args)
}

func TestQuotedArgumentKeepsComma(t *testing.T) {
	t.Parallel()

	doc := mustParseYAML(t, "Mole:\n  basis: sto-3g\nCustom(\"a,b\", 3):\n")
	p, err := Resolve(doc, registry.New())
	require.NoError(t, err)

	st := p.Stages[1]
	require.Equal(t, "Custom", st.Kind)
	require.Equal(t, []any{"a,b", int64(3)}, st.Args)
}

func TestUnterminatedQuoteInArguments(t *testing.T) {
	t.Parallel()

	doc := mustParseYAML(t, "Mole:\n  basis: sto-3g\nCustom(\"a,b):\n")
	_, err := Resolve(doc, registry.New())
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestDottedBlockNameIsRejected(t *testing.T) {
	t.Parallel()

	doc := mustParseYAML(t, "Mole:\n  basis: sto-3g\nHF:\nscf.chkfile: water.chk\n")
	_, err := Resolve(doc, registry.New())
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, "scf.chkfile", schemaErr.Block)
	require.Contains(t, schemaErr.Msg, "dotted")
}

func TestUnknownNamePassesThrough(t *testing.T) {
	t.Parallel()

	doc := mustParseYAML(t, "Mole:\n  basis: sto-3g\nSHCI:\n  results:\n    - e_tot\n")
	p, err := Resolve(doc, registry.New())
	require.NoError(t, err)

	st := p.Stages[1]
	require.False(t, st.Known)
	require.Equal(t, "SHCI", st.Kind)
	require.Equal(t, registry.CategoryMethod, st.Category)
	require.Equal(t, 0, st.Predecessor)
}

func TestMisplacedEnvironmentBlock(t *testing.T) {
	t.Parallel()

	doc := &document.Document{}
	doc.Append("Mole", document.NewMapping())
	doc.Append("HF", nil)
	doc.Append("Cell", document.NewMapping())

	_, err := Resolve(doc, registry.New())
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, "Cell", schemaErr.Block)
	require.Equal(t, 2, schemaErr.Index)
}

func TestMethodWithoutReferenceFails(t *testing.T) {
	t.Parallel()

	doc := mustParseYAML(t, "HF:\n  conv_tol: 1e-9\n")
	_, err := Resolve(doc, registry.New())
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, "HF", schemaErr.Block)
}

func TestScalarStageBodyFails(t *testing.T) {
	t.Parallel()

	doc := &document.Document{}
	doc.Append("Mole", document.NewMapping())
	doc.Append("HF", "not-a-mapping")
	_, err := Resolve(doc, registry.New())
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestImportBlockForms(t *testing.T) {
	t.Parallel()

	doc := mustParseYAML(t, "import: pyscf.dft\nMole:\n  basis: sto-3g\n")
	p, err := Resolve(doc, registry.New())
	require.NoError(t, err)
	require.Equal(t, []string{"pyscf.dft"}, p.Imports)

	doc = mustParseYAML(t, "import:\n  - pyscf.dft\n  - pyscf.tools\nMole:\n  basis: sto-3g\n")
	p, err = Resolve(doc, registry.New())
	require.NoError(t, err)
	require.Equal(t, []string{"pyscf.dft", "pyscf.tools"}, p.Imports)

	doc = mustParseYAML(t, "import:\n  - 3\nMole:\n  basis: sto-3g\n")
	_, err = Resolve(doc, registry.New())
	require.Error(t, err)
}

func TestRegistryIsNotMutatedByResolution(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	doc := mustParseYAML(t, "Mole:\n  basis: sto-3g\nSHCI:\n")
	_, err := Resolve(doc, reg)
	require.NoError(t, err)

	// Passthrough resolution must not register the unknown kind.
	_, ok := reg.Lookup("SHCI")
	require.False(t, ok)
}
