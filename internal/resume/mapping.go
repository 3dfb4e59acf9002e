package resume

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/saadk408/victry/internal/casing"
	"github.com/saadk408/victry/internal/db"
	"github.com/saadk408/victry/internal/types"
)

var storageSections = map[types.Section]db.Section{
	types.SectionPersonalInfo:        db.SectionPersonalInfo,
	types.SectionProfessionalSummary: db.SectionProfessionalSummary,
	types.SectionWorkExperiences:     db.SectionWorkExperiences,
	types.SectionEducation:           db.SectionEducation,
	types.SectionSkills:              db.SectionSkills,
	types.SectionProjects:            db.SectionProjects,
	types.SectionCertifications:      db.SectionCertifications,
	types.SectionSocialLinks:         db.SectionSocialLinks,
	types.SectionCustomSections:      db.SectionCustomSections,
}

func storageSection(s types.Section) (db.Section, error) {
	sec, ok := storageSections[s]
	if !ok {
		return "", types.NewValidationError("section", fmt.Sprintf("unknown section %q", s))
	}
	return sec, nil
}

// Assemble converts the stored rows of a resume into the application tree.
// Missing one-to-one sections become empty defaults and missing collections
// become empty arrays.
func Assemble(b *db.ResumeBundle) (*types.Resume, error) {
	var r types.Resume
	if err := casing.Default.Decode(b, &r); err != nil {
		return nil, fmt.Errorf("failed to assemble resume %s: %w", b.ID, err)
	}
	r.Normalize()
	return &r, nil
}

// Decompose converts an application tree into storage rows. Empty one-to-one
// sections that were never stored produce no row.
func Decompose(r *types.Resume) (*db.ResumeBundle, error) {
	var b db.ResumeBundle
	if err := casing.Default.Encode(r, &b); err != nil {
		return nil, fmt.Errorf("failed to decompose resume: %w", err)
	}
	if r.PersonalInfo.IsZero() {
		b.PersonalInfo = nil
	}
	if r.ProfessionalSummary.IsZero() {
		b.ProfessionalSummary = nil
	}
	return &b, nil
}

// checkDocuments rejects free-form documents whose keys would not survive
// the trip through storage unchanged.
func checkDocuments(r *types.Resume) error {
	docs := []struct {
		field string
		doc   map[string]any
	}{
		{"metadata", r.Metadata},
		{"formatOptions", r.FormatOptions},
	}
	for _, d := range docs {
		if path, ok := casing.Default.Reversible(d.doc); !ok {
			return types.NewValidationError(d.field+"."+path, "key cannot be stored, use camelCase keys")
		}
	}
	return nil
}

// decomposeSections converts supplied section content into storage rows.
// Supplied one-to-one sections are kept even when empty.
func decomposeSections(set *types.SectionSet) (*db.ResumeBundle, error) {
	var b db.ResumeBundle
	if err := casing.Default.Encode(set, &b); err != nil {
		return nil, fmt.Errorf("failed to decompose sections: %w", err)
	}
	return &b, nil
}

// sectionsOf returns the content of r as a SectionSet with every section supplied.
func sectionsOf(r *types.Resume) *types.SectionSet {
	pi, ps := r.PersonalInfo, r.ProfessionalSummary
	return &types.SectionSet{
		PersonalInfo:        &pi,
		ProfessionalSummary: &ps,
		WorkExperiences:     r.WorkExperiences,
		Education:           r.Education,
		Skills:              r.Skills,
		Projects:            r.Projects,
		Certifications:      r.Certifications,
		SocialLinks:         r.SocialLinks,
		CustomSections:      r.CustomSections,
	}
}

// only returns a set holding just one section of set.
func only(set *types.SectionSet, section types.Section) *types.SectionSet {
	out := &types.SectionSet{}
	switch section {
	case types.SectionPersonalInfo:
		out.PersonalInfo = set.PersonalInfo
	case types.SectionProfessionalSummary:
		out.ProfessionalSummary = set.ProfessionalSummary
	case types.SectionWorkExperiences:
		out.WorkExperiences = set.WorkExperiences
	case types.SectionEducation:
		out.Education = set.Education
	case types.SectionSkills:
		out.Skills = set.Skills
	case types.SectionProjects:
		out.Projects = set.Projects
	case types.SectionCertifications:
		out.Certifications = set.Certifications
	case types.SectionSocialLinks:
		out.SocialLinks = set.SocialLinks
	case types.SectionCustomSections:
		out.CustomSections = set.CustomSections
	}
	return out
}

// overlay replaces the sections of r with those supplied in set.
func overlay(r *types.Resume, set *types.SectionSet) {
	if set.PersonalInfo != nil {
		r.PersonalInfo = *set.PersonalInfo
	}
	if set.ProfessionalSummary != nil {
		r.ProfessionalSummary = *set.ProfessionalSummary
	}
	if set.WorkExperiences != nil {
		r.WorkExperiences = set.WorkExperiences
	}
	if set.Education != nil {
		r.Education = set.Education
	}
	if set.Skills != nil {
		r.Skills = set.Skills
	}
	if set.Projects != nil {
		r.Projects = set.Projects
	}
	if set.Certifications != nil {
		r.Certifications = set.Certifications
	}
	if set.SocialLinks != nil {
		r.SocialLinks = set.SocialLinks
	}
	if set.CustomSections != nil {
		r.CustomSections = set.CustomSections
	}
}

type columnKind int

const (
	kindText columnKind = iota
	kindNullableText
	kindBool
	kindInt
	kindNullableScore
	kindDocument
)

var updatableKinds = map[string]columnKind{
	"title":            kindText,
	"target_job_title": kindNullableText,
	"template_id":      kindText,
	"is_base_resume":   kindBool,
	"metadata":         kindDocument,
	"format_options":   kindDocument,
	"ats_score":        kindNullableScore,
	"version":          kindInt,
}

// patchColumns maps the camelCase scalar fields of a patch onto resumes
// columns. Keys outside the allow-list and values of the wrong type are
// validation errors.
func patchColumns(fields map[string]any) (map[string]any, error) {
	cols := make(map[string]any, len(fields))
	for key, val := range fields {
		col, ok := casing.Default.Column(key)
		if !ok || !db.UpdatableResumeColumns[col] {
			return nil, types.NewValidationError(key, "field cannot be updated")
		}
		coerced, err := coerce(updatableKinds[col], val)
		if err != nil {
			return nil, types.NewValidationError(key, err.Error())
		}
		if col == "title" {
			title := strings.TrimSpace(coerced.(string))
			if title == "" {
				return nil, types.NewValidationError(key, "is required")
			}
			if len([]rune(title)) > types.MaxTitleLength {
				return nil, types.NewValidationError(key, fmt.Sprintf("must be at most %d characters", types.MaxTitleLength))
			}
			coerced = title
		}
		cols[col] = coerced
	}
	return cols, nil
}

func coerce(kind columnKind, val any) (any, error) {
	switch kind {
	case kindText:
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string")
		}
		return s, nil
	case kindNullableText:
		if val == nil {
			return (*string)(nil), nil
		}
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string or null")
		}
		return &s, nil
	case kindBool:
		b, ok := val.(bool)
		if !ok {
			return nil, fmt.Errorf("must be a boolean")
		}
		return b, nil
	case kindInt:
		n, err := integer(val)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return n, nil
	case kindNullableScore:
		if val == nil {
			return (*int)(nil), nil
		}
		n, err := integer(val)
		if err != nil {
			return nil, err
		}
		if n < 0 || n > 100 {
			return nil, fmt.Errorf("must be between 0 and 100")
		}
		return &n, nil
	case kindDocument:
		if val == nil {
			return map[string]any{}, nil
		}
		doc, ok := val.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("must be an object")
		}
		if path, ok := casing.Default.Reversible(doc); !ok {
			return nil, fmt.Errorf("key %q cannot be stored, use camelCase keys", path)
		}
		return casing.Default.ToSnake(doc), nil
	}
	return nil, fmt.Errorf("unsupported field")
}

// integer accepts JSON numbers that fit a Postgres integer column.
func integer(val any) (int, error) {
	var f float64
	switch v := val.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			f = float64(i)
			break
		}
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("must be an integer")
		}
		f = parsed
	case float64:
		f = v
	case int:
		f = float64(v)
	default:
		return 0, fmt.Errorf("must be an integer")
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("must be an integer")
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("is out of range")
	}
	return int(f), nil
}

// scrub removes storage identity and timestamps from a JSON tree so it can
// be shown to the model.
func scrub(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for _, k := range []string{"id", "resumeId", "customSectionId", "createdAt", "updatedAt"} {
			delete(t, k)
		}
		for k, child := range t {
			t[k] = scrub(child)
		}
		return t
	case []any:
		for i := range t {
			t[i] = scrub(t[i])
		}
		return t
	}
	return v
}
