package db

import (
	"time"

	"github.com/google/uuid"
)

// ResumeRow is a row of the resumes table.
type ResumeRow struct {
	ID               uuid.UUID      `json:"id"`
	UserID           uuid.UUID      `json:"user_id"`
	Title            string         `json:"title"`
	TargetJobTitle   *string        `json:"target_job_title"`
	TemplateID       string         `json:"template_id"`
	IsBaseResume     bool           `json:"is_base_resume"`
	Version          int            `json:"version"`
	Metadata         map[string]any `json:"metadata"`
	FormatOptions    map[string]any `json:"format_options"`
	ATSScore         *int           `json:"ats_score"`
	OriginalResumeID *uuid.UUID     `json:"original_resume_id"`
	JobDescriptionID *uuid.UUID     `json:"job_description_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// PersonalInfoRow is a row of the personal_info table (one per resume).
type PersonalInfoRow struct {
	ID        uuid.UUID `json:"id"`
	ResumeID  uuid.UUID `json:"resume_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfessionalSummaryRow is a row of the professional_summaries table (one per resume).
type ProfessionalSummaryRow struct {
	ID        uuid.UUID `json:"id"`
	ResumeID  uuid.UUID `json:"resume_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkExperienceRow is a row of the work_experiences table.
type WorkExperienceRow struct {
	ID           uuid.UUID `json:"id"`
	ResumeID     uuid.UUID `json:"resume_id"`
	Company      string    `json:"company"`
	Position     string    `json:"position"`
	Location     *string   `json:"location"`
	StartDate    string    `json:"start_date"`
	EndDate      *string   `json:"end_date"`
	Current      bool      `json:"current"`
	Description  string    `json:"description"`
	Highlights   []string  `json:"highlights"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EducationRow is a row of the education table.
type EducationRow struct {
	ID           uuid.UUID `json:"id"`
	ResumeID     uuid.UUID `json:"resume_id"`
	Institution  string    `json:"institution"`
	Degree       string    `json:"degree"`
	FieldOfStudy *string   `json:"field_of_study"`
	Location     *string   `json:"location"`
	StartDate    string    `json:"start_date"`
	EndDate      *string   `json:"end_date"`
	Current      bool      `json:"current"`
	GPA          *float64  `json:"gpa"`
	Highlights   []string  `json:"highlights"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SkillRow is a row of the skills table.
type SkillRow struct {
	ID           uuid.UUID `json:"id"`
	ResumeID     uuid.UUID `json:"resume_id"`
	Name         string    `json:"name"`
	Level        *string   `json:"level"`
	Category     *string   `json:"category"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProjectRow is a row of the projects table.
type ProjectRow struct {
	ID           uuid.UUID `json:"id"`
	ResumeID     uuid.UUID `json:"resume_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	URL          *string   `json:"url"`
	StartDate    *string   `json:"start_date"`
	EndDate      *string   `json:"end_date"`
	Technologies []string  `json:"technologies"`
	Highlights   []string  `json:"highlights"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CertificationRow is a row of the certifications table.
type CertificationRow struct {
	ID           uuid.UUID `json:"id"`
	ResumeID     uuid.UUID `json:"resume_id"`
	Name         string    `json:"name"`
	Issuer       string    `json:"issuer"`
	IssueDate    *string   `json:"issue_date"`
	ExpiryDate   *string   `json:"expiry_date"`
	CredentialID *string   `json:"credential_id"`
	URL          *string   `json:"url"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SocialLinkRow is a row of the social_links table.
type SocialLinkRow struct {
	ID           uuid.UUID `json:"id"`
	ResumeID     uuid.UUID `json:"resume_id"`
	Platform     string    `json:"platform"`
	URL          string    `json:"url"`
	Username     *string   `json:"username"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CustomSectionRow is a row of the custom_sections table.
type CustomSectionRow struct {
	ID           uuid.UUID `json:"id"`
	ResumeID     uuid.UUID `json:"resume_id"`
	Title        string    `json:"title"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CustomEntryRow is a row of the custom_entries table.
type CustomEntryRow struct {
	ID              uuid.UUID `json:"id"`
	CustomSectionID uuid.UUID `json:"custom_section_id"`
	Title           string    `json:"title"`
	Subtitle        *string   `json:"subtitle"`
	DateRange       *string   `json:"date_range"`
	Description     string    `json:"description"`
	DisplayOrder    int       `json:"display_order"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CustomSectionBundle is a custom section together with its entries.
type CustomSectionBundle struct {
	CustomSectionRow
	Entries []CustomEntryRow `json:"entries"`
}

// ResumeBundle is every row of one resume, in storage shape.
type ResumeBundle struct {
	ResumeRow
	PersonalInfo        *PersonalInfoRow        `json:"personal_info"`
	ProfessionalSummary *ProfessionalSummaryRow `json:"professional_summary"`
	WorkExperiences     []WorkExperienceRow     `json:"work_experiences"`
	Education           []EducationRow          `json:"education"`
	Skills              []SkillRow              `json:"skills"`
	Projects            []ProjectRow            `json:"projects"`
	Certifications      []CertificationRow      `json:"certifications"`
	SocialLinks         []SocialLinkRow         `json:"social_links"`
	CustomSections      []CustomSectionBundle   `json:"custom_sections"`
}

// Section identifies one child table group of a resume.
type Section string

const (
	SectionPersonalInfo        Section = "personal_info"
	SectionProfessionalSummary Section = "professional_summary"
	SectionWorkExperiences     Section = "work_experiences"
	SectionEducation           Section = "education"
	SectionSkills              Section = "skills"
	SectionProjects            Section = "projects"
	SectionCertifications      Section = "certifications"
	SectionSocialLinks         Section = "social_links"
	SectionCustomSections      Section = "custom_sections"
)

// Sections lists every section in load order.
var Sections = []Section{
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

// HasRows reports whether the bundle holds any row for section.
func (b *ResumeBundle) HasRows(section Section) bool {
	switch section {
	case SectionPersonalInfo:
		return b.PersonalInfo != nil
	case SectionProfessionalSummary:
		return b.ProfessionalSummary != nil
	case SectionWorkExperiences:
		return len(b.WorkExperiences) > 0
	case SectionEducation:
		return len(b.Education) > 0
	case SectionSkills:
		return len(b.Skills) > 0
	case SectionProjects:
		return len(b.Projects) > 0
	case SectionCertifications:
		return len(b.Certifications) > 0
	case SectionSocialLinks:
		return len(b.SocialLinks) > 0
	case SectionCustomSections:
		return len(b.CustomSections) > 0
	}
	return false
}

// ResetIDs clears every row identifier so the bundle can be written as a
// brand new resume.
func (b *ResumeBundle) ResetIDs() {
	b.ID = uuid.Nil
	if b.PersonalInfo != nil {
		b.PersonalInfo.ID, b.PersonalInfo.ResumeID = uuid.Nil, uuid.Nil
	}
	if b.ProfessionalSummary != nil {
		b.ProfessionalSummary.ID, b.ProfessionalSummary.ResumeID = uuid.Nil, uuid.Nil
	}
	for i := range b.WorkExperiences {
		b.WorkExperiences[i].ID, b.WorkExperiences[i].ResumeID = uuid.Nil, uuid.Nil
	}
	for i := range b.Education {
		b.Education[i].ID, b.Education[i].ResumeID = uuid.Nil, uuid.Nil
	}
	for i := range b.Skills {
		b.Skills[i].ID, b.Skills[i].ResumeID = uuid.Nil, uuid.Nil
	}
	for i := range b.Projects {
		b.Projects[i].ID, b.Projects[i].ResumeID = uuid.Nil, uuid.Nil
	}
	for i := range b.Certifications {
		b.Certifications[i].ID, b.Certifications[i].ResumeID = uuid.Nil, uuid.Nil
	}
	for i := range b.SocialLinks {
		b.SocialLinks[i].ID, b.SocialLinks[i].ResumeID = uuid.Nil, uuid.Nil
	}
	for i := range b.CustomSections {
		cs := &b.CustomSections[i]
		cs.ID, cs.ResumeID = uuid.Nil, uuid.Nil
		for j := range cs.Entries {
			cs.Entries[j].ID, cs.Entries[j].CustomSectionID = uuid.Nil, uuid.Nil
		}
	}
}
