// Package casing translates between storage keys (snake_case column names)
// and application keys (camelCase JSON field names).
//
// All renaming goes through a single bidirectional table of field pairs.
// Keys missing from the table (for example keys inside free-form JSON
// documents) fall back to a mechanical conversion that is lossless for
// well-formed keys in either style.
package casing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Pair associates a storage key with its application key.
type Pair struct {
	Snake string
	Camel string
}

// Fields is the mapping table for every column and nested document key used
// by the resume and job description aggregates.
var Fields = []Pair{
	// shared
	{"id", "id"},
	{"user_id", "userId"},
	{"resume_id", "resumeId"},
	{"created_at", "createdAt"},
	{"updated_at", "updatedAt"},
	{"display_order", "displayOrder"},
	{"title", "title"},
	{"description", "description"},
	{"location", "location"},
	{"url", "url"},
	{"name", "name"},
	{"highlights", "highlights"},
	{"start_date", "startDate"},
	{"end_date", "endDate"},
	{"current", "current"},

	// resumes
	{"target_job_title", "targetJobTitle"},
	{"template_id", "templateId"},
	{"is_base_resume", "isBaseResume"},
	{"version", "version"},
	{"metadata", "metadata"},
	{"format_options", "formatOptions"},
	{"ats_score", "atsScore"},
	{"original_resume_id", "originalResumeId"},
	{"job_description_id", "jobDescriptionId"},

	// resume tree sections
	{"personal_info", "personalInfo"},
	{"professional_summary", "professionalSummary"},
	{"work_experiences", "workExperiences"},
	{"education", "education"},
	{"skills", "skills"},
	{"projects", "projects"},
	{"certifications", "certifications"},
	{"social_links", "socialLinks"},
	{"custom_sections", "customSections"},
	{"entries", "entries"},

	// personal_info
	{"full_name", "fullName"},
	{"email", "email"},
	{"phone", "phone"},

	// professional_summaries
	{"content", "content"},

	// work_experiences
	{"company", "company"},
	{"position", "position"},

	// education
	{"institution", "institution"},
	{"degree", "degree"},
	{"field_of_study", "fieldOfStudy"},
	{"gpa", "gpa"},

	// skills
	{"level", "level"},
	{"category", "category"},

	// projects
	{"technologies", "technologies"},

	// certifications
	{"issuer", "issuer"},
	{"issue_date", "issueDate"},
	{"expiry_date", "expiryDate"},
	{"credential_id", "credentialId"},

	// social_links
	{"platform", "platform"},
	{"username", "username"},

	// custom_entries
	{"custom_section_id", "customSectionId"},
	{"subtitle", "subtitle"},
	{"date_range", "dateRange"},

	// job_descriptions
	{"employment_type", "employmentType"},
	{"analysis", "analysis"},

	// job_analyses
	{"requirements", "requirements"},
	{"keywords", "keywords"},
	{"experience_level", "experienceLevel"},
	{"culture_signals", "cultureSignals"},
	{"ats_compatibility_score", "atsCompatibilityScore"},
	{"summary", "summary"},
	{"text", "text"},
	{"keyword", "keyword"},
	{"importance", "importance"},

	// tailoring notes kept in resume metadata
	{"tailoring", "tailoring"},
	{"matched_keywords", "matchedKeywords"},
	{"added_keywords", "addedKeywords"},
	{"major_changes", "majorChanges"},
	{"suggestions", "suggestions"},
	{"section", "section"},
	{"suggestion", "suggestion"},
	{"tailored_at", "tailoredAt"},
}

// Default is the mapper built from Fields.
var Default = MustNew(Fields)

var (
	snakePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z][a-z0-9]*)*$`)
	camelPattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)
)

// Mapper renames keys in both directions.
type Mapper struct {
	toCamel map[string]string
	toSnake map[string]string
}

// New builds a Mapper and rejects tables that are not one-to-one.
func New(pairs []Pair) (*Mapper, error) {
	m := &Mapper{
		toCamel: make(map[string]string, len(pairs)),
		toSnake: make(map[string]string, len(pairs)),
	}
	for _, p := range pairs {
		if p.Snake == "" || p.Camel == "" {
			return nil, fmt.Errorf("casing: empty key in pair %q/%q", p.Snake, p.Camel)
		}
		if prev, ok := m.toCamel[p.Snake]; ok && prev != p.Camel {
			return nil, fmt.Errorf("casing: %q maps to both %q and %q", p.Snake, prev, p.Camel)
		}
		if prev, ok := m.toSnake[p.Camel]; ok && prev != p.Snake {
			return nil, fmt.Errorf("casing: %q maps to both %q and %q", p.Camel, prev, p.Snake)
		}
		m.toCamel[p.Snake] = p.Camel
		m.toSnake[p.Camel] = p.Snake
	}
	return m, nil
}

// MustNew is New that panics on an invalid table.
func MustNew(pairs []Pair) *Mapper {
	m, err := New(pairs)
	if err != nil {
		panic(err)
	}
	return m
}

// Column returns the storage key for a camelCase field. Only keys present in
// the table are accepted, which makes it usable as a column allow-list.
func (m *Mapper) Column(camel string) (string, bool) {
	snake, ok := m.toSnake[camel]
	return snake, ok
}

// Field returns the application key for a storage column present in the table.
func (m *Mapper) Field(snake string) (string, bool) {
	camel, ok := m.toCamel[snake]
	return camel, ok
}

// CamelKey renames a single storage key.
func (m *Mapper) CamelKey(key string) string {
	if camel, ok := m.toCamel[key]; ok {
		return camel
	}
	if !snakePattern.MatchString(key) {
		return key
	}
	var sb strings.Builder
	upper := false
	for _, r := range key {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// SnakeKey renames a single application key.
func (m *Mapper) SnakeKey(key string) string {
	if snake, ok := m.toSnake[key]; ok {
		return snake
	}
	if !camelPattern.MatchString(key) {
		return key
	}
	var sb strings.Builder
	for _, r := range key {
		if unicode.IsUpper(r) {
			sb.WriteByte('_')
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Reversible reports whether every object key in v comes back unchanged
// from SnakeKey followed by CamelKey. When it does not, path names the first
// offending key, e.g. "theme.line_height". Keys that pass cannot collide in
// storage.
func (m *Mapper) Reversible(v any) (path string, ok bool) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if m.CamelKey(m.SnakeKey(k)) != k {
				return k, false
			}
			if p, ok := m.Reversible(t[k]); !ok {
				if strings.HasPrefix(p, "[") {
					return k + p, false
				}
				return k + "." + p, false
			}
		}
	case []any:
		for i, val := range t {
			if p, ok := m.Reversible(val); !ok {
				if strings.HasPrefix(p, "[") {
					return fmt.Sprintf("[%d]%s", i, p), false
				}
				return fmt.Sprintf("[%d].%s", i, p), false
			}
		}
	}
	return "", true
}

// ToCamel renames every object key in a decoded JSON value, recursing into
// nested objects and arrays. Values are left untouched.
func (m *Mapper) ToCamel(v any) any {
	return m.rename(v, m.CamelKey)
}

// ToSnake is the inverse of ToCamel.
func (m *Mapper) ToSnake(v any) any {
	return m.rename(v, m.SnakeKey)
}

func (m *Mapper) rename(v any, key func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[key(k)] = m.rename(val, key)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = m.rename(val, key)
		}
		return out
	default:
		return v
	}
}

// Decode converts a storage-shaped value (snake_case JSON tags) into an
// application-shaped value (camelCase JSON tags).
func (m *Mapper) Decode(src, dst any) error {
	return m.convert(src, dst, m.ToCamel)
}

// Encode converts an application-shaped value into a storage-shaped value.
func (m *Mapper) Encode(src, dst any) error {
	return m.convert(src, dst, m.ToSnake)
}

func (m *Mapper) convert(src, dst any, rename func(any) any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("casing: marshal source: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return fmt.Errorf("casing: decode source: %w", err)
	}

	renamed, err := json.Marshal(rename(generic))
	if err != nil {
		return fmt.Errorf("casing: marshal renamed: %w", err)
	}
	if err := json.Unmarshal(renamed, dst); err != nil {
		return fmt.Errorf("casing: decode into %T: %w", dst, err)
	}
	return nil
}
