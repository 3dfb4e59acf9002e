// Package types provides the application-facing (camelCase) shapes of the
// resume and job description aggregates.
package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxTitleLength is the longest resume title, in characters.
const MaxTitleLength = 200

// DerivedTitle appends suffix to base, shortening base so the result fits
// within MaxTitleLength. A suffix that alone is too long is cut as well.
func DerivedTitle(base, suffix string) string {
	room := MaxTitleLength - len([]rune(suffix))
	if room < 1 {
		return truncateRunes(strings.TrimSpace(base)+suffix, MaxTitleLength)
	}
	return strings.TrimRight(truncateRunes(base, room), " ") + suffix
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Resume is the assembled resume aggregate: the top-level record plus every
// section. Collections are never null; they serialize as empty arrays.
type Resume struct {
	ID               uuid.UUID      `json:"id"`
	UserID           uuid.UUID      `json:"userId"`
	Title            string         `json:"title" validate:"required,max=200"`
	TargetJobTitle   *string        `json:"targetJobTitle" validate:"omitempty,max=200"`
	TemplateID       string         `json:"templateId" validate:"max=100"`
	IsBaseResume     bool           `json:"isBaseResume"`
	Version          int            `json:"version" validate:"gte=0"`
	Metadata         map[string]any `json:"metadata"`
	FormatOptions    map[string]any `json:"formatOptions"`
	ATSScore         *int           `json:"atsScore" validate:"omitempty,gte=0,lte=100"`
	OriginalResumeID *uuid.UUID     `json:"originalResumeId"`
	JobDescriptionID *uuid.UUID     `json:"jobDescriptionId"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`

	PersonalInfo        PersonalInfo        `json:"personalInfo"`
	ProfessionalSummary ProfessionalSummary `json:"professionalSummary"`
	WorkExperiences     []WorkExperience    `json:"workExperiences" validate:"dive"`
	Education           []Education         `json:"education" validate:"dive"`
	Skills              []Skill             `json:"skills" validate:"dive"`
	Projects            []Project           `json:"projects" validate:"dive"`
	Certifications      []Certification     `json:"certifications" validate:"dive"`
	SocialLinks         []SocialLink        `json:"socialLinks" validate:"dive"`
	CustomSections      []CustomSection     `json:"customSections" validate:"dive"`
}

// ResumeSummary is the list view of a resume, without sections.
type ResumeSummary struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	TargetJobTitle   *string    `json:"targetJobTitle"`
	TemplateID       string     `json:"templateId"`
	IsBaseResume     bool       `json:"isBaseResume"`
	Version          int        `json:"version"`
	ATSScore         *int       `json:"atsScore"`
	OriginalResumeID *uuid.UUID `json:"originalResumeId"`
	JobDescriptionID *uuid.UUID `json:"jobDescriptionId"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// PersonalInfo holds contact details. A resume has at most one.
type PersonalInfo struct {
	ID        *uuid.UUID `json:"id,omitempty"`
	ResumeID  *uuid.UUID `json:"resumeId,omitempty"`
	FullName  string     `json:"fullName" validate:"max=200"`
	Email     string     `json:"email" validate:"omitempty,email"`
	Phone     string     `json:"phone" validate:"omitempty,phone"`
	Location  string     `json:"location" validate:"max=200"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// IsZero reports whether no contact field is set and the record was never stored.
func (p PersonalInfo) IsZero() bool {
	return p.ID == nil && p.FullName == "" && p.Email == "" && p.Phone == "" && p.Location == ""
}

// ProfessionalSummary is the free-text summary paragraph. A resume has at most one.
type ProfessionalSummary struct {
	ID        *uuid.UUID `json:"id,omitempty"`
	ResumeID  *uuid.UUID `json:"resumeId,omitempty"`
	Content   string     `json:"content" validate:"max=5000"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// IsZero reports whether the summary is empty and was never stored.
func (s ProfessionalSummary) IsZero() bool {
	return s.ID == nil && s.Content == ""
}

// WorkExperience is one job in the work history.
type WorkExperience struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	ResumeID     *uuid.UUID `json:"resumeId,omitempty"`
	Company      string     `json:"company" validate:"required,max=200"`
	Position     string     `json:"position" validate:"required,max=200"`
	Location     *string    `json:"location"`
	StartDate    string     `json:"startDate" validate:"required,isodate"`
	EndDate      *string    `json:"endDate" validate:"omitempty,isodate"`
	Current      bool       `json:"current"`
	Description  string     `json:"description"`
	Highlights   []string   `json:"highlights"`
	DisplayOrder int        `json:"displayOrder"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// Education is one degree or program.
type Education struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	ResumeID     *uuid.UUID `json:"resumeId,omitempty"`
	Institution  string     `json:"institution" validate:"required,max=200"`
	Degree       string     `json:"degree" validate:"required,max=200"`
	FieldOfStudy *string    `json:"fieldOfStudy"`
	Location     *string    `json:"location"`
	StartDate    string     `json:"startDate" validate:"required,isodate"`
	EndDate      *string    `json:"endDate" validate:"omitempty,isodate"`
	Current      bool       `json:"current"`
	GPA          *float64   `json:"gpa" validate:"omitempty,gte=0,lte=10"`
	Highlights   []string   `json:"highlights"`
	DisplayOrder int        `json:"displayOrder"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// SkillLevel is the self-assessed proficiency of a skill.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillExpert       SkillLevel = "expert"
)

// Skill is a single named skill.
type Skill struct {
	ID           *uuid.UUID  `json:"id,omitempty"`
	ResumeID     *uuid.UUID  `json:"resumeId,omitempty"`
	Name         string      `json:"name" validate:"required,max=100"`
	Level        *SkillLevel `json:"level" validate:"omitempty,oneof=beginner intermediate advanced expert"`
	Category     *string     `json:"category"`
	DisplayOrder int         `json:"displayOrder"`
	CreatedAt    *time.Time  `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time  `json:"updatedAt,omitempty"`
}

// Project is a personal or professional project.
type Project struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	ResumeID     *uuid.UUID `json:"resumeId,omitempty"`
	Name         string     `json:"name" validate:"required,max=200"`
	Description  string     `json:"description"`
	URL          *string    `json:"url" validate:"omitempty,url"`
	StartDate    *string    `json:"startDate" validate:"omitempty,isodate"`
	EndDate      *string    `json:"endDate" validate:"omitempty,isodate"`
	Technologies []string   `json:"technologies"`
	Highlights   []string   `json:"highlights"`
	DisplayOrder int        `json:"displayOrder"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// Certification is a professional certification.
type Certification struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	ResumeID     *uuid.UUID `json:"resumeId,omitempty"`
	Name         string     `json:"name" validate:"required,max=200"`
	Issuer       string     `json:"issuer" validate:"required,max=200"`
	IssueDate    *string    `json:"issueDate" validate:"omitempty,isodate"`
	ExpiryDate   *string    `json:"expiryDate" validate:"omitempty,isodate"`
	CredentialID *string    `json:"credentialId"`
	URL          *string    `json:"url" validate:"omitempty,url"`
	DisplayOrder int        `json:"displayOrder"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// SocialLink is a profile link such as GitHub or LinkedIn.
type SocialLink struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	ResumeID     *uuid.UUID `json:"resumeId,omitempty"`
	Platform     string     `json:"platform" validate:"required,max=50"`
	URL          string     `json:"url" validate:"required,url"`
	Username     *string    `json:"username"`
	DisplayOrder int        `json:"displayOrder"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// CustomSection is a user-defined section holding free-form entries.
type CustomSection struct {
	ID           *uuid.UUID    `json:"id,omitempty"`
	ResumeID     *uuid.UUID    `json:"resumeId,omitempty"`
	Title        string        `json:"title" validate:"required,max=200"`
	DisplayOrder int           `json:"displayOrder"`
	Entries      []CustomEntry `json:"entries" validate:"dive"`
	CreatedAt    *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time    `json:"updatedAt,omitempty"`
}

// CustomEntry is one item inside a CustomSection.
type CustomEntry struct {
	ID              *uuid.UUID `json:"id,omitempty"`
	CustomSectionID *uuid.UUID `json:"customSectionId,omitempty"`
	Title           string     `json:"title" validate:"required,max=200"`
	Subtitle        *string    `json:"subtitle"`
	DateRange       *string    `json:"dateRange"`
	Description     string     `json:"description"`
	DisplayOrder    int        `json:"displayOrder"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

// Normalize replaces nil collections and documents with empty values so the
// aggregate always serializes the same shape.
func (r *Resume) Normalize() {
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	if r.FormatOptions == nil {
		r.FormatOptions = map[string]any{}
	}
	if r.WorkExperiences == nil {
		r.WorkExperiences = []WorkExperience{}
	}
	for i := range r.WorkExperiences {
		r.WorkExperiences[i].Highlights = nonNil(r.WorkExperiences[i].Highlights)
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	for i := range r.Education {
		r.Education[i].Highlights = nonNil(r.Education[i].Highlights)
	}
	if r.Skills == nil {
		r.Skills = []Skill{}
	}
	if r.Projects == nil {
		r.Projects = []Project{}
	}
	for i := range r.Projects {
		r.Projects[i].Technologies = nonNil(r.Projects[i].Technologies)
		r.Projects[i].Highlights = nonNil(r.Projects[i].Highlights)
	}
	if r.Certifications == nil {
		r.Certifications = []Certification{}
	}
	if r.SocialLinks == nil {
		r.SocialLinks = []SocialLink{}
	}
	if r.CustomSections == nil {
		r.CustomSections = []CustomSection{}
	}
	for i := range r.CustomSections {
		if r.CustomSections[i].Entries == nil {
			r.CustomSections[i].Entries = []CustomEntry{}
		}
	}
}

// Summary returns the list view of the resume.
func (r *Resume) Summary() ResumeSummary {
	return ResumeSummary{
		ID:               r.ID,
		Title:            r.Title,
		TargetJobTitle:   r.TargetJobTitle,
		TemplateID:       r.TemplateID,
		IsBaseResume:     r.IsBaseResume,
		Version:          r.Version,
		ATSScore:         r.ATSScore,
		OriginalResumeID: r.OriginalResumeID,
		JobDescriptionID: r.JobDescriptionID,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
