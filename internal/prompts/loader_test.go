package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(Tailoring, "system")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Never invent employers")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.yaml", "system")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(Analysis, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.yaml", "system")
	})
}

func TestFormat(t *testing.T) {
	template := "Hello {{.Name}}, welcome to {{.Company}}!"
	data := map[string]string{
		"Name":    "Alice",
		"Company": "Acme Corp",
	}

	assert.Equal(t, "Hello Alice, welcome to Acme Corp!", Format(template, data))
}

func TestFormat_LeavesUnknownPlaceholders(t *testing.T) {
	assert.Equal(t, "{{.Missing}} stays", Format("{{.Missing}} stays", map[string]string{"Other": "x"}))
}

func TestRender_AllPlaceholdersFilled(t *testing.T) {
	data := map[string]string{
		"JobTitle":   "Backend Engineer",
		"Company":    "Acme",
		"JobContent": "Go and Postgres",
		"Analysis":   "",
		"Resume":     "{}",
	}

	for _, file := range []string{Tailoring, Analysis} {
		t.Run(file, func(t *testing.T) {
			out, err := Render(file, "user", data)
			require.NoError(t, err)
			assert.NotContains(t, out, "{{.")
			assert.Contains(t, out, "Backend Engineer")
		})
	}
}

func TestList(t *testing.T) {
	keys, err := List(Analysis)
	require.NoError(t, err)
	assert.Equal(t, []string{"system", "user"}, keys)
}
