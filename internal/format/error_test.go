package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/qcflow/internal/document"
)

func TestParseErrorsCarryTheFormat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		format Format
		text   string
	}{
		{"yaml unclosed flow", YAML, "Mole:\n  atom: [unclosed\n"},
		{"yaml top-level scalar", YAML, "just a string\n"},
		{"json truncated", JSON, `{"Mole": {"basis": }`},
		{"json top-level array", JSON, `[1, 2]`},
		{"toml bare equals", TOML, "= 3\n"},
		{"hcl unclosed block", HCL, "Mole {\n  basis = \"sto-3g\"\n"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tc.text, tc.format)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			require.Equal(t, tc.format, parseErr.Format)
		})
	}
}

func TestJSONParseErrorCarriesPosition(t *testing.T) {
	t.Parallel()

	_, err := Parse("{\n  \"Mole\": {\n    \"basis\": }\n}\n", JSON)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, 3, parseErr.Line)
}

func TestHCLLabeledStageBlock(t *testing.T) {
	t.Parallel()

	text := "stage \"CASSCF(2,2)\" {\n  results = [\"e_tot\"]\n}\n"
	doc, err := Parse(text, HCL)
	require.NoError(t, err)
	require.Equal(t, []string{"CASSCF(2,2)"}, doc.Names())

	// Writing the same document must fall back to the labeled form, since
	// the name is not a valid HCL identifier.
	out, err := Serialize(doc, HCL)
	require.NoError(t, err)
	require.Contains(t, out, `stage "CASSCF(2,2)"`)
}

func TestTOMLScalarBlockAfterTableIsRejected(t *testing.T) {
	t.Parallel()

	doc := &document.Document{}
	doc.Append("Mole", document.NewMapping())
	doc.Append("version", "v1")
	_, err := Serialize(doc, TOML)
	require.Error(t, err)
}

func TestTOMLNullIsRejected(t *testing.T) {
	t.Parallel()

	body := document.NewMapping()
	body.Set("basis", nil)
	doc := &document.Document{}
	doc.Append("Mole", body)
	_, err := Serialize(doc, TOML)
	require.ErrorContains(t, err, "null")
}

func TestDecodeJSONValue(t *testing.T) {
	t.Parallel()

	v, err := DecodeJSONValue(`{"block": "HF", "value": [1, 2.5, "x"]}`)
	require.NoError(t, err)
	m, ok := v.(*document.Mapping)
	require.True(t, ok)
	require.Equal(t, []string{"block", "value"}, m.Keys())
	val, _ := m.Get("value")
	require.Equal(t, []any{int64(1), 2.5, "x"}, val)

	_, err = DecodeJSONValue(`{"a": 1} trailing`)
	require.Error(t, err)
}
