package db

import (
	"time"

	"github.com/google/uuid"
)

// JobDescriptionRow is a row of the job_descriptions table.
type JobDescriptionRow struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Title          string    `json:"title"`
	Company        *string   `json:"company"`
	Location       *string   `json:"location"`
	Content        string    `json:"content"`
	URL            *string   `json:"url"`
	EmploymentType *string   `json:"employment_type"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// JobAnalysisRow is a row of the job_analyses table. Requirements and
// keywords are JSON documents stored in snake_case.
type JobAnalysisRow struct {
	ID                    uuid.UUID        `json:"id"`
	JobDescriptionID      uuid.UUID        `json:"job_description_id"`
	Requirements          []map[string]any `json:"requirements"`
	Keywords              []map[string]any `json:"keywords"`
	ExperienceLevel       string           `json:"experience_level"`
	CultureSignals        []string         `json:"culture_signals"`
	ATSCompatibilityScore int              `json:"ats_compatibility_score"`
	Summary               string           `json:"summary"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// JobDescriptionFields holds the columns of a job description update. Nil
// fields are left unchanged; an empty string clears an optional column.
type JobDescriptionFields struct {
	Title          *string
	Company        *string
	Location       *string
	Content        *string
	URL            *string
	EmploymentType *string
}
