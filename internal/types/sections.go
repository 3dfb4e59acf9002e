package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Section names one child section of a resume.
type Section string

const (
	SectionPersonalInfo        Section = "personal-info"
	SectionProfessionalSummary Section = "professional-summary"
	SectionWorkExperiences     Section = "work-experiences"
	SectionEducation           Section = "education"
	SectionSkills              Section = "skills"
	SectionProjects            Section = "projects"
	SectionCertifications      Section = "certifications"
	SectionSocialLinks         Section = "social-links"
	SectionCustomSections      Section = "custom-sections"
)

// AllSections lists every section in assembly order.
var AllSections = []Section{
	SectionPersonalInfo,
	SectionProfessionalSummary,
	SectionWorkExperiences,
	SectionEducation,
	SectionSkills,
	SectionProjects,
	SectionCertifications,
	SectionSocialLinks,
	SectionCustomSections,
}

// sectionFields maps a section to its field name on Resume.
var sectionFields = map[Section]string{
	SectionPersonalInfo:        "personalInfo",
	SectionProfessionalSummary: "professionalSummary",
	SectionWorkExperiences:     "workExperiences",
	SectionEducation:           "education",
	SectionSkills:              "skills",
	SectionProjects:            "projects",
	SectionCertifications:      "certifications",
	SectionSocialLinks:         "socialLinks",
	SectionCustomSections:      "customSections",
}

// ParseSection validates a URL slug.
func ParseSection(s string) (Section, error) {
	sec := Section(s)
	if _, ok := sectionFields[sec]; !ok {
		return "", NewValidationError("section", fmt.Sprintf("unknown section %q", s))
	}
	return sec, nil
}

// Field returns the camelCase field holding the section on Resume.
func (s Section) Field() string {
	return sectionFields[s]
}

// Singular reports whether the section holds at most one row per resume.
func (s Section) Singular() bool {
	return s == SectionPersonalInfo || s == SectionProfessionalSummary
}

// SectionSet carries replacement content for any subset of sections. A nil
// pointer or nil slice means the section was not supplied.
type SectionSet struct {
	PersonalInfo        *PersonalInfo        `json:"personalInfo,omitempty"`
	ProfessionalSummary *ProfessionalSummary `json:"professionalSummary,omitempty"`
	WorkExperiences     []WorkExperience     `json:"workExperiences,omitempty" validate:"dive"`
	Education           []Education          `json:"education,omitempty" validate:"dive"`
	Skills              []Skill              `json:"skills,omitempty" validate:"dive"`
	Projects            []Project            `json:"projects,omitempty" validate:"dive"`
	Certifications      []Certification      `json:"certifications,omitempty" validate:"dive"`
	SocialLinks         []SocialLink         `json:"socialLinks,omitempty" validate:"dive"`
	CustomSections      []CustomSection      `json:"customSections,omitempty" validate:"dive"`
}

// Supplied lists the sections present in the set.
func (s *SectionSet) Supplied() []Section {
	var out []Section
	if s.PersonalInfo != nil {
		out = append(out, SectionPersonalInfo)
	}
	if s.ProfessionalSummary != nil {
		out = append(out, SectionProfessionalSummary)
	}
	if s.WorkExperiences != nil {
		out = append(out, SectionWorkExperiences)
	}
	if s.Education != nil {
		out = append(out, SectionEducation)
	}
	if s.Skills != nil {
		out = append(out, SectionSkills)
	}
	if s.Projects != nil {
		out = append(out, SectionProjects)
	}
	if s.Certifications != nil {
		out = append(out, SectionCertifications)
	}
	if s.SocialLinks != nil {
		out = append(out, SectionSocialLinks)
	}
	if s.CustomSections != nil {
		out = append(out, SectionCustomSections)
	}
	return out
}

// DecodeSection parses the payload of a single-section write. Singular
// sections take an object; collection sections take an array.
func DecodeSection(section Section, payload []byte) (*SectionSet, error) {
	field := section.Field()
	if field == "" {
		return nil, NewValidationError("section", fmt.Sprintf("unknown section %q", section))
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewValidationError(field, "body is required")
	}
	if section.Singular() && trimmed[0] != '{' {
		return nil, NewValidationError(field, "expected an object")
	}
	if !section.Singular() && trimmed[0] != '[' {
		return nil, NewValidationError(field, "expected an array")
	}

	wrapped, err := json.Marshal(map[string]json.RawMessage{field: trimmed})
	if err != nil {
		return nil, err
	}
	var set SectionSet
	if err := json.Unmarshal(wrapped, &set); err != nil {
		return nil, NewValidationError(field, err.Error())
	}
	return &set, nil
}

// ResumePatch is a partial update of a resume. Fields holds the supplied
// scalar and document fields keyed by their camelCase names; Sections holds
// supplied child collections.
type ResumePatch struct {
	Fields   map[string]any
	Sections SectionSet
}

// UnmarshalJSON splits the body into scalar fields and section content.
func (p *ResumePatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Fields = make(map[string]any)
	sectionRaw := make(map[string]json.RawMessage)
	isSection := make(map[string]bool, len(sectionFields))
	for _, f := range sectionFields {
		isSection[f] = true
	}

	for k, v := range raw {
		if isSection[k] {
			sectionRaw[k] = v
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.UseNumber()
		var val any
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("field %s: %w", k, err)
		}
		p.Fields[k] = val
	}

	if len(sectionRaw) == 0 {
		return nil
	}
	encoded, err := json.Marshal(sectionRaw)
	if err != nil {
		return err
	}
	// an empty array decodes to a non-nil slice, so it still counts as supplied
	return json.Unmarshal(encoded, &p.Sections)
}

// IsEmpty reports whether the patch changes nothing.
func (p *ResumePatch) IsEmpty() bool {
	return len(p.Fields) == 0 && len(p.Sections.Supplied()) == 0
}
