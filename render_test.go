package docxmerge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, text string, vars map[string]string) string {
	t.Helper()
	tmpl, err := Compile("test", text)
	require.NoError(t, err)
	out, err := tmpl.Render(vars)
	require.NoError(t, err)
	return out
}

func TestRender_Substitution(t *testing.T) {
	vars := map[string]string{"NOM": "Dupont", "FACTURE": "001"}

	assert.Equal(t, "Cher Dupont, facture 001.", render(t, "Cher {{NOM}}, facture {{FACTURE}}.", vars))
	assert.Equal(t, "Dupont-001.docx", render(t, "{{ NOM }}-{{FACTURE}}.docx", vars))
	assert.Equal(t, "Dupont", render(t, "{{.NOM}}", vars))
	assert.Equal(t, "no placeholders", render(t, "no placeholders", vars))
	assert.Equal(t, "", render(t, "", vars))
}

func TestRender_Helpers(t *testing.T) {
	vars := map[string]string{"NOM": " Dupont "}

	assert.Equal(t, " DUPONT ", render(t, "{{NOM | upper}}", vars))
	assert.Equal(t, "dupont", render(t, "{{NOM | trim | lower}}", vars))
	assert.Equal(t, "[ Dupont ]", render(t, `{{printf "[%s]" NOM}}`, vars))
}

func TestRender_NonIdentifierName(t *testing.T) {
	vars := map[string]string{"2024_TOTAL": "42", "": "blank"}

	assert.Equal(t, "42", render(t, `{{index . "2024_TOTAL"}}`, vars))
}

func TestRender_IndexMissingKey_Error(t *testing.T) {
	tmpl, err := Compile("pattern", `{{index . "2024_TOTAL"}}.docx`)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024_TOTAL"}, tmpl.Names())

	out, err := tmpl.Render(map[string]string{"NOM": "Dupont"})
	require.ErrorIs(t, err, ErrUndefinedVariable)
	assert.Empty(t, out)
}

func TestRender_IndexVariableKey_Error(t *testing.T) {
	tmpl, err := Compile("test", `{{$k := "PRENOM"}}{{index . $k}}`)
	require.NoError(t, err)
	assert.Empty(t, tmpl.Names())

	_, err = tmpl.Render(map[string]string{"NOM": "Dupont"})
	require.ErrorIs(t, err, ErrUndefinedVariable)

	var undef *UndefinedError
	require.True(t, errors.As(err, &undef))
	assert.Equal(t, "PRENOM", undef.Name)
}

func TestRender_Conditional(t *testing.T) {
	text := "{{if REMISE}}remise {{REMISE}}{{else}}sans remise{{end}}"

	assert.Equal(t, "remise 10%", render(t, text, map[string]string{"REMISE": "10%"}))
	assert.Equal(t, "sans remise", render(t, text, map[string]string{"REMISE": ""}))
}

func TestRender_Undefined_Error(t *testing.T) {
	tmpl, err := Compile("pattern", "{{NOM}}-{{PRENOM}}.docx")
	require.NoError(t, err)

	out, err := tmpl.Render(map[string]string{"NOM": "Dupont"})
	require.ErrorIs(t, err, ErrUndefinedVariable)
	assert.Empty(t, out)

	var undef *UndefinedError
	require.True(t, errors.As(err, &undef))
	assert.Equal(t, "PRENOM", undef.Name)
	assert.Equal(t, "pattern", undef.Template)
}

func TestRender_UndefinedField_Error(t *testing.T) {
	tmpl, err := Compile("test", "{{.PRENOM}}")
	require.NoError(t, err)

	_, err = tmpl.Render(map[string]string{"NOM": "Dupont"})
	require.ErrorIs(t, err, ErrUndefinedVariable)
}

func TestCompile_Syntax_Error(t *testing.T) {
	for _, text := range []string{
		"{{NOM",
		"{{NOM}",
		"<w:t>{{NO</w:t></w:r><w:r><w:t>M}}</w:t>",
		"{{if NOM}}unterminated",
		"{{end}}",
	} {
		_, err := Compile("test", text)
		assert.ErrorIs(t, err, ErrTemplateSyntax, "Compile(%q)", text)
	}
}

func TestTemplate_Names(t *testing.T) {
	tmpl, err := Compile("test", `{{B}} {{A | lower}} {{printf "%s" C}} {{.D}} {{if E}}{{F}}{{end}} {{B}}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, tmpl.Names())
}

func TestTemplate_Names_IgnoresFieldsOutsideRootDot(t *testing.T) {
	tmpl, err := Compile("test", `{{with A}}{{.Inner}}{{end}}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, tmpl.Names())
}

func TestCompileXML_EscapesValues(t *testing.T) {
	tmpl, err := CompileXML("body", "<w:t>{{NOM}} / {{NOM | upper}}</w:t>")
	require.NoError(t, err)

	out, err := tmpl.Render(map[string]string{"NOM": "Dupont & <Fils>"})
	require.NoError(t, err)
	assert.Equal(t, "<w:t>Dupont &amp; &lt;Fils&gt; / DUPONT &amp; &lt;FILS&gt;</w:t>", out)
}

func TestCompileXML_Declarations(t *testing.T) {
	tmpl, err := CompileXML("body", "{{$n := NOM}}<w:t>{{$n}}</w:t>")
	require.NoError(t, err)

	out, err := tmpl.Render(map[string]string{"NOM": "a&b"})
	require.NoError(t, err)
	assert.Equal(t, "<w:t>a&amp;b</w:t>", out)
}

func TestCompile_LeavesValuesRaw(t *testing.T) {
	assert.Equal(t, "a&b", render(t, "{{NOM}}", map[string]string{"NOM": "a&b"}))
}

func TestTemplate_RenderTwice(t *testing.T) {
	tmpl, err := CompileXML("body", "{{NOM}}")
	require.NoError(t, err)

	for _, name := range []string{"Dupont", "Martin"} {
		out, err := tmpl.Render(map[string]string{"NOM": name})
		require.NoError(t, err)
		assert.Equal(t, name, out)
	}
}
