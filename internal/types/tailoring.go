package types

import "github.com/google/uuid"

// Suggestion is an improvement the model recommends but did not apply.
type Suggestion struct {
	Section    string `json:"section"`
	Suggestion string `json:"suggestion"`
}

// TailoringNotes accompany a tailored resume and explain what changed.
type TailoringNotes struct {
	Summary         string       `json:"summary"`
	MatchedKeywords []Keyword    `json:"matchedKeywords"`
	AddedKeywords   []Keyword    `json:"addedKeywords"`
	MajorChanges    []string     `json:"majorChanges"`
	Suggestions     []Suggestion `json:"suggestions"`
}

// TailorRequest is the body of a tailoring request.
type TailorRequest struct {
	JobDescriptionID uuid.UUID `json:"jobDescriptionId" validate:"required"`
}

// DuplicateRequest is the body of a duplicate request.
type DuplicateRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1,max=200"`
}

// TailorResult is the outcome of tailoring. SkippedSections lists sections
// whose content could not be saved; the rest of the resume was kept.
type TailorResult struct {
	Resume          *Resume        `json:"resume"`
	Notes           TailoringNotes `json:"notes"`
	ATSScore        int            `json:"atsScore"`
	SkippedSections []Section      `json:"skippedSections,omitempty"`
}
