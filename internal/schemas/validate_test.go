package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validTailoring = `{
  "resume": {
    "personalInfo": {"fullName": "Ada Lovelace", "email": "ada@example.com"},
    "professionalSummary": {"content": "Engineer."},
    "workExperiences": [{
      "company": "Analytical Engines", "position": "Engineer",
      "startDate": "2020-01-01", "endDate": null, "current": true,
      "highlights": ["Shipped the difference engine"]
    }],
    "education": [],
    "skills": [{"name": "Go", "level": "expert"}, {"name": "SQL", "level": null}]
  },
  "notes": {
    "summary": "Emphasised backend work.",
    "matchedKeywords": [{"keyword": "Go", "importance": "high"}],
    "addedKeywords": [],
    "majorChanges": ["Rewrote summary"],
    "suggestions": [{"section": "projects", "suggestion": "Add a Postgres project"}]
  }
}`

func TestEmbeddedSchemasLoad(t *testing.T) {
	for _, name := range []string{TailoredResume, JobAnalysis} {
		t.Run(name, func(t *testing.T) {
			doc, err := Load(name)
			require.NoError(t, err)
			assert.Equal(t, "object", doc["type"])
			assert.NotEmpty(t, doc["required"])
		})
	}
}

func TestLoad_ReturnsIndependentCopies(t *testing.T) {
	a, err := Load(JobAnalysis)
	require.NoError(t, err)
	a["type"] = "mutated"

	b, err := Load(JobAnalysis)
	require.NoError(t, err)
	assert.Equal(t, "object", b["type"])
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load("missing.schema.json")
	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestValidate_TailoredResume(t *testing.T) {
	assert.NoError(t, Validate(TailoredResume, []byte(validTailoring)))
}

func TestValidate_TailoredResume_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing notes", `{"resume": {"personalInfo": {}, "professionalSummary": {"content": ""}, "workExperiences": [], "education": [], "skills": []}}`},
		{"bad date", `{"resume": {"personalInfo": {}, "professionalSummary": {"content": ""}, "workExperiences": [{"company": "A", "position": "B", "startDate": "Jan 2020", "current": false}], "education": [], "skills": []}, "notes": {"summary": "", "matchedKeywords": [], "addedKeywords": [], "majorChanges": [], "suggestions": []}}`},
		{"bad skill level", `{"resume": {"personalInfo": {}, "professionalSummary": {"content": ""}, "workExperiences": [], "education": [], "skills": [{"name": "Go", "level": "guru"}]}, "notes": {"summary": "", "matchedKeywords": [], "addedKeywords": [], "majorChanges": [], "suggestions": []}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(TailoredResume, []byte(tt.doc))
			require.Error(t, err)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidate_JobAnalysis(t *testing.T) {
	valid := `{
		"requirements": [{"text": "5 years of Go", "category": "experience", "importance": "high"}],
		"keywords": [{"keyword": "Go", "importance": "high"}],
		"experienceLevel": "senior",
		"cultureSignals": ["remote-first"],
		"atsCompatibilityScore": 80,
		"summary": "Backend role."
	}`
	assert.NoError(t, Validate(JobAnalysis, []byte(valid)))

	outOfRange := `{"requirements": [], "keywords": [], "experienceLevel": "mid", "cultureSignals": [], "atsCompatibilityScore": 140, "summary": ""}`
	err := Validate(JobAnalysis, []byte(outOfRange))
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "atsCompatibilityScore", validationErr.Errors[0].Field)
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name": "x"}`))

	err := ValidateJSONString(schema, `{}`)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
	assert.Contains(t, validationErr.Error(), "validation failed")
}

func TestValidateJSONString_BadSchema(t *testing.T) {
	err := ValidateJSONString(`{"type": 12}`, `{}`)
	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}
