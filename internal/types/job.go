package types

import (
	"time"

	"github.com/google/uuid"
)

// JobDescription is a job posting saved by a user.
type JobDescription struct {
	ID             uuid.UUID    `json:"id"`
	UserID         uuid.UUID    `json:"userId"`
	Title          string       `json:"title"`
	Company        *string      `json:"company"`
	Location       *string      `json:"location"`
	Content        string       `json:"content"`
	URL            *string      `json:"url"`
	EmploymentType *string      `json:"employmentType"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	Analysis       *JobAnalysis `json:"analysis,omitempty"`
}

// JobDescriptionInput is the body of a create request.
type JobDescriptionInput struct {
	Title          string  `json:"title"`
	Company        *string `json:"company"`
	Location       *string `json:"location"`
	Content        string  `json:"content"`
	URL            *string `json:"url"`
	EmploymentType *string `json:"employmentType"`
}

// JobDescriptionPatch is the body of a partial update. Nil fields are left unchanged.
type JobDescriptionPatch struct {
	Title          *string `json:"title"`
	Company        *string `json:"company"`
	Location       *string `json:"location"`
	Content        *string `json:"content"`
	URL            *string `json:"url"`
	EmploymentType *string `json:"employmentType"`
}

// Importance ranks a keyword or requirement.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Keyword is a term extracted from a posting or matched in a resume.
type Keyword struct {
	Keyword    string     `json:"keyword"`
	Importance Importance `json:"importance"`
}

// Requirement is one stated requirement of a posting.
type Requirement struct {
	Text       string     `json:"text"`
	Category   string     `json:"category"`
	Importance Importance `json:"importance"`
}

// JobAnalysis is the AI-derived analysis of a job description. There is at
// most one per job description; re-analysis replaces it.
type JobAnalysis struct {
	ID                    uuid.UUID     `json:"id"`
	JobDescriptionID      uuid.UUID     `json:"jobDescriptionId"`
	Requirements          []Requirement `json:"requirements"`
	Keywords              []Keyword     `json:"keywords"`
	ExperienceLevel       string        `json:"experienceLevel"`
	CultureSignals        []string      `json:"cultureSignals"`
	ATSCompatibilityScore int           `json:"atsCompatibilityScore"`
	Summary               string        `json:"summary"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`
}
