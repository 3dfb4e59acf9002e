package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saadk408/victry/internal/casing"
	"github.com/saadk408/victry/internal/db"
	"github.com/saadk408/victry/internal/llm"
	"github.com/saadk408/victry/internal/prompts"
	"github.com/saadk408/victry/internal/schemas"
	"github.com/saadk408/victry/internal/types"
)

const (
	tailorToolName    = "record_tailored_resume"
	tailorTemperature = 0.3
	tailorMaxTokens   = 8192
)

// ATSScore derives a resume score from the number of matched keywords and
// outstanding suggestions: 60 + 2 per match - 3 per suggestion, clamped to
// [0, 100].
func ATSScore(matched, suggestions int) int {
	return min(100, max(0, 60+2*matched-3*suggestions))
}

// tailorOutput is the structured payload the model returns.
type tailorOutput struct {
	Resume types.SectionSet     `json:"resume"`
	Notes  types.TailoringNotes `json:"notes"`
}

type tailorInput struct {
	source   *types.Resume
	job      *types.JobDescription
	analysis *types.JobAnalysis
}

// Tailor rewrites a resume for a job description and stores the result as a
// new resume derived from the source. Each section of the result is saved on
// its own; a section that cannot be saved is logged, left out and reported
// in SkippedSections while the rest of the resume is kept.
func (s *Service) Tailor(ctx context.Context, caller, id, jobDescriptionID uuid.UUID) (*types.TailorResult, error) {
	if s.llm == nil {
		return nil, fmt.Errorf("tailoring is not configured")
	}
	if jobDescriptionID == uuid.Nil {
		return nil, types.NewValidationError("jobDescriptionId", "is required")
	}

	in, err := s.loadTailorInput(ctx, caller, id, jobDescriptionID)
	if err != nil {
		return nil, err
	}

	// The model call runs outside any transaction so no connection is held
	// while waiting on it.
	out, err := s.generate(ctx, in)
	if err != nil {
		return nil, err
	}

	score := ATSScore(len(out.Notes.MatchedKeywords), len(out.Notes.Suggestions))
	result, err := s.storeTailored(ctx, caller, in, out, score)
	if err != nil {
		return nil, err
	}

	if s.observer != nil {
		s.observer.Tailored(score)
	}
	s.logger.Info("resume tailored",
		"source_id", id,
		"resume_id", result.Resume.ID,
		"job_description_id", jobDescriptionID,
		"ats_score", score,
		"skipped_sections", len(result.SkippedSections),
	)
	return result, nil
}

func (s *Service) loadTailorInput(ctx context.Context, caller, id, jobDescriptionID uuid.UUID) (*tailorInput, error) {
	in := &tailorInput{}
	err := s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		var err error
		if in.source, err = s.load(ctx, id); err != nil {
			return err
		}

		row, err := s.store.GetJobDescription(ctx, jobDescriptionID)
		if err != nil {
			return fmt.Errorf("job description: %w", err)
		}
		in.job = &types.JobDescription{}
		if err := casing.Default.Decode(row, in.job); err != nil {
			return err
		}

		analysis, err := s.store.GetJobAnalysis(ctx, jobDescriptionID)
		switch {
		case errors.Is(err, db.ErrNotFound):
		case err != nil:
			return err
		default:
			in.analysis = &types.JobAnalysis{}
			if err := casing.Default.Decode(analysis, in.analysis); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

func (s *Service) generate(ctx context.Context, in *tailorInput) (*tailorOutput, error) {
	req, err := buildTailorRequest(in)
	if err != nil {
		return nil, err
	}

	resp, err := s.llm.Generate(ctx, req, llm.TierAdvanced)
	if err != nil {
		return nil, err
	}
	return parseTailorOutput(resp, s.llm.Provider())
}

func buildTailorRequest(in *tailorInput) (*llm.Request, error) {
	schema, err := schemas.Load(schemas.TailoredResume)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(sectionsOf(in.source))
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(encoded, &tree); err != nil {
		return nil, err
	}
	resumeJSON, err := json.MarshalIndent(scrub(tree), "", "  ")
	if err != nil {
		return nil, err
	}

	system, err := prompts.Get(prompts.Tailoring, "system")
	if err != nil {
		return nil, err
	}
	user, err := prompts.Render(prompts.Tailoring, "user", map[string]string{
		"JobTitle":   in.job.Title,
		"Company":    deref(in.job.Company),
		"JobContent": in.job.Content,
		"Analysis":   describeAnalysis(in.analysis),
		"Resume":     string(resumeJSON),
	})
	if err != nil {
		return nil, err
	}

	return &llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: user}},
		Temperature: tailorTemperature,
		MaxTokens:   tailorMaxTokens,
		Tool: &llm.Tool{
			Name:        tailorToolName,
			Description: "Record the tailored resume and the notes explaining the changes.",
			Schema:      schema,
		},
	}, nil
}

// parseTailorOutput reads the tool payload, or JSON recovered from the
// text, and checks it against the tailored resume schema.
func parseTailorOutput(resp *llm.Response, provider llm.Provider) (*tailorOutput, error) {
	raw, err := resp.JSON()
	if err != nil {
		return nil, llm.MalformedOutput(provider, "tailoring response has no JSON payload")
	}
	if err := schemas.Validate(schemas.TailoredResume, raw); err != nil {
		return nil, &llm.Error{Kind: llm.KindMalformedOutput, Provider: provider, Message: "tailoring response does not match schema", Cause: err}
	}

	var out tailorOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &llm.Error{Kind: llm.KindMalformedOutput, Provider: provider, Message: "tailoring response cannot be decoded", Cause: err}
	}
	return &out, nil
}

func (s *Service) storeTailored(ctx context.Context, caller uuid.UUID, in *tailorInput, out *tailorOutput, score int) (*types.TailorResult, error) {
	tailored := *in.source
	overlay(&tailored, &out.Resume)

	b, err := Decompose(&tailored)
	if err != nil {
		return nil, err
	}
	b.ResetIDs()

	notes, err := notesDocument(out.Notes, in.job.ID)
	if err != nil {
		return nil, err
	}
	metadata := maps.Clone(b.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["tailoring"] = notes

	sourceID, jobID := in.source.ID, in.job.ID
	b.ResumeRow = db.ResumeRow{
		Title:            types.DerivedTitle(in.source.Title, fmt.Sprintf(" (Tailored for %s)", in.job.Title)),
		TargetJobTitle:   &in.job.Title,
		TemplateID:       in.source.TemplateID,
		IsBaseResume:     false,
		Version:          1,
		Metadata:         metadata,
		FormatOptions:    b.FormatOptions,
		ATSScore:         &score,
		OriginalResumeID: &sourceID,
		JobDescriptionID: &jobID,
	}

	sections := sectionsOf(&tailored)
	result := &types.TailorResult{Notes: out.Notes, ATSScore: score}

	err = s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		if err := s.store.InsertResume(ctx, &b.ResumeRow); err != nil {
			return fmt.Errorf("failed to create tailored resume: %w", err)
		}

		for _, section := range types.AllSections {
			sec := storageSections[section]
			if !b.HasRows(sec) {
				continue
			}
			if err := s.saveTailoredSection(ctx, b, section, sec, sections); err != nil {
				s.logger.Warn("tailored section skipped",
					"resume_id", b.ID,
					"section", section,
					"error", err,
				)
				if s.observer != nil {
					s.observer.SectionSkipped(string(section))
				}
				result.SkippedSections = append(result.SkippedSections, section)
			}
		}

		var err error
		result.Resume, err = s.load(ctx, b.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// saveTailoredSection validates and writes one section inside a savepoint so
// a failure leaves the rest of the transaction intact.
func (s *Service) saveTailoredSection(ctx context.Context, b *db.ResumeBundle, section types.Section, sec db.Section, sections *types.SectionSet) error {
	if err := types.Validate(only(sections, section)); err != nil {
		return err
	}
	return s.store.Savepoint(ctx, func(ctx context.Context) error {
		return s.store.SaveSection(ctx, b.ID, sec, b)
	})
}

// notesDocument renders the notes in storage shape for resume metadata.
func notesDocument(notes types.TailoringNotes, jobDescriptionID uuid.UUID) (map[string]any, error) {
	var doc map[string]any
	if err := casing.Default.Encode(notes, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode tailoring notes: %w", err)
	}
	doc["tailored_at"] = time.Now().UTC().Format(time.RFC3339)
	doc["job_description_id"] = jobDescriptionID.String()
	return doc, nil
}

func describeAnalysis(a *types.JobAnalysis) string {
	if a == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Prior analysis of this job:\n")
	if a.ExperienceLevel != "" {
		fmt.Fprintf(&sb, "Experience level: %s\n", a.ExperienceLevel)
	}
	if len(a.Keywords) > 0 {
		words := make([]string, 0, len(a.Keywords))
		for _, k := range a.Keywords {
			words = append(words, fmt.Sprintf("%s (%s)", k.Keyword, k.Importance))
		}
		fmt.Fprintf(&sb, "Keywords: %s\n", strings.Join(words, ", "))
	}
	for _, r := range a.Requirements {
		fmt.Fprintf(&sb, "- [%s] %s\n", r.Importance, r.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
