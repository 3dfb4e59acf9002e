// Package resume implements the resume aggregate: assembly of the stored
// rows into one tree, decomposition of a tree back into rows, duplication,
// and AI tailoring against a job description.
package resume

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/saadk408/victry/internal/db"
	"github.com/saadk408/victry/internal/llm"
	"github.com/saadk408/victry/internal/types"
)

// Store is the storage the service needs. *db.DB satisfies it.
type Store interface {
	AsUser(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context) error) error
	Savepoint(ctx context.Context, fn func(ctx context.Context) error) error

	InsertResume(ctx context.Context, r *db.ResumeRow) error
	GetResume(ctx context.Context, id uuid.UUID) (*db.ResumeRow, error)
	LoadResume(ctx context.Context, id uuid.UUID) (*db.ResumeBundle, error)
	ListResumes(ctx context.Context) ([]db.ResumeRow, error)
	UpdateResume(ctx context.Context, id uuid.UUID, fields map[string]any) (*db.ResumeRow, error)
	DeleteResume(ctx context.Context, id uuid.UUID) error
	SaveSection(ctx context.Context, resumeID uuid.UUID, section db.Section, b *db.ResumeBundle) error
	DeleteSectionItem(ctx context.Context, resumeID uuid.UUID, section db.Section, itemID uuid.UUID) error

	GetJobDescription(ctx context.Context, id uuid.UUID) (*db.JobDescriptionRow, error)
	GetJobAnalysis(ctx context.Context, jobDescriptionID uuid.UUID) (*db.JobAnalysisRow, error)
}

// Observer receives tailoring outcomes.
type Observer interface {
	SectionSkipped(section string)
	Tailored(atsScore int)
}

// Service implements the resume operations. Every operation runs in the
// caller's request scope.
type Service struct {
	store    Store
	llm      llm.Client
	logger   *slog.Logger
	observer Observer
}

// Option configures a Service.
type Option func(*Service)

// WithObserver reports tailoring outcomes to o.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// New creates a Service. client may be nil, in which case Tailor fails.
func New(store Store, client llm.Client, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: store, llm: client, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates r and stores the parent row and every present section in
// one transaction.
func (s *Service) Create(ctx context.Context, caller uuid.UUID, r *types.Resume) (*types.Resume, error) {
	r.Title = strings.TrimSpace(r.Title)
	if err := types.Validate(r); err != nil {
		return nil, err
	}
	if err := checkDocuments(r); err != nil {
		return nil, err
	}

	b, err := Decompose(r)
	if err != nil {
		return nil, err
	}
	b.ResetIDs()
	// lineage is only set by Duplicate and Tailor
	b.OriginalResumeID = nil
	b.JobDescriptionID = nil

	var out *types.Resume
	err = s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		id, err := s.insertBundle(ctx, b)
		if err != nil {
			return err
		}
		out, err = s.load(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("resume created", "resume_id", out.ID)
	return out, nil
}

// Get returns the assembled resume.
func (s *Service) Get(ctx context.Context, caller, id uuid.UUID) (*types.Resume, error) {
	var out *types.Resume
	err := s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		var err error
		out, err = s.load(ctx, id)
		return err
	})
	return out, err
}

// List returns the caller's resumes, most recently updated first.
func (s *Service) List(ctx context.Context, caller uuid.UUID) ([]types.ResumeSummary, error) {
	var rows []db.ResumeRow
	err := s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		var err error
		rows, err = s.store.ListResumes(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.ResumeSummary, 0, len(rows))
	for i := range rows {
		var summary types.ResumeSummary
		if err := decodeRow(&rows[i], &summary); err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

// Update applies a partial update. Scalar fields are written through the
// column allow-list and updated_at is always refreshed. Supplied sections
// are upserted row by row; rows that are not mentioned are kept.
func (s *Service) Update(ctx context.Context, caller, id uuid.UUID, patch *types.ResumePatch) (*types.Resume, error) {
	cols, err := patchColumns(patch.Fields)
	if err != nil {
		return nil, err
	}
	if err := types.Validate(&patch.Sections); err != nil {
		return nil, err
	}
	b, err := decomposeSections(&patch.Sections)
	if err != nil {
		return nil, err
	}

	var out *types.Resume
	err = s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		if _, err := s.store.UpdateResume(ctx, id, cols); err != nil {
			return err
		}
		for _, section := range patch.Sections.Supplied() {
			if err := s.saveSection(ctx, id, section, b); err != nil {
				return err
			}
		}
		out, err = s.load(ctx, id)
		return err
	})
	return out, err
}

// UpsertSection writes the content of one section. payload is the JSON
// object (one-to-one sections) or array (collections) of the section.
func (s *Service) UpsertSection(ctx context.Context, caller, id uuid.UUID, section types.Section, payload []byte) (*types.Resume, error) {
	set, err := types.DecodeSection(section, payload)
	if err != nil {
		return nil, err
	}
	if err := types.Validate(set); err != nil {
		return nil, err
	}
	b, err := decomposeSections(set)
	if err != nil {
		return nil, err
	}

	var out *types.Resume
	err = s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		// touches updated_at and proves the resume is visible before any child write
		if _, err := s.store.UpdateResume(ctx, id, nil); err != nil {
			return err
		}
		if err := s.saveSection(ctx, id, section, b); err != nil {
			return err
		}
		out, err = s.load(ctx, id)
		return err
	})
	return out, err
}

// DeleteSectionItem removes one row of a collection section.
func (s *Service) DeleteSectionItem(ctx context.Context, caller, id uuid.UUID, section types.Section, itemID uuid.UUID) error {
	if section.Singular() {
		return types.NewValidationError("section", fmt.Sprintf("%s has no items", section))
	}
	sec, err := storageSection(section)
	if err != nil {
		return err
	}
	return s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		if err := s.store.DeleteSectionItem(ctx, id, sec, itemID); err != nil {
			return err
		}
		_, err := s.store.UpdateResume(ctx, id, nil)
		return err
	})
}

// Delete removes a resume and all of its sections. Resumes derived from it
// keep existing with their lineage pointer cleared.
func (s *Service) Delete(ctx context.Context, caller, id uuid.UUID) error {
	err := s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		return s.store.DeleteResume(ctx, id)
	})
	if err == nil {
		s.logger.Info("resume deleted", "resume_id", id)
	}
	return err
}

// Duplicate deep-copies a resume into a new one whose original_resume_id
// points at the source. title defaults to "<source title> (Copy)".
func (s *Service) Duplicate(ctx context.Context, caller, id uuid.UUID, title *string) (*types.Resume, error) {
	var newTitle string
	if title != nil {
		newTitle = strings.TrimSpace(*title)
		if newTitle == "" || len([]rune(newTitle)) > types.MaxTitleLength {
			return nil, types.NewValidationError("title", fmt.Sprintf("must be between 1 and %d characters", types.MaxTitleLength))
		}
	}

	var out *types.Resume
	err := s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		b, err := s.store.LoadResume(ctx, id)
		if err != nil {
			return err
		}
		if newTitle == "" {
			newTitle = types.DerivedTitle(b.Title, " (Copy)")
		}

		b.ResetIDs()
		b.Title = newTitle
		b.OriginalResumeID = &id
		b.IsBaseResume = false
		b.Version = 1

		newID, err := s.insertBundle(ctx, b)
		if err != nil {
			return err
		}
		out, err = s.load(ctx, newID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("resume duplicated", "source_id", id, "resume_id", out.ID)
	return out, nil
}

// insertBundle writes the parent row and then every section holding rows.
func (s *Service) insertBundle(ctx context.Context, b *db.ResumeBundle) (uuid.UUID, error) {
	if err := s.store.InsertResume(ctx, &b.ResumeRow); err != nil {
		return uuid.Nil, err
	}
	for _, section := range db.Sections {
		if !b.HasRows(section) {
			continue
		}
		if err := s.store.SaveSection(ctx, b.ID, section, b); err != nil {
			return uuid.Nil, fmt.Errorf("failed to save %s: %w", section, err)
		}
	}
	return b.ID, nil
}

func (s *Service) saveSection(ctx context.Context, id uuid.UUID, section types.Section, b *db.ResumeBundle) error {
	sec, err := storageSection(section)
	if err != nil {
		return err
	}
	if err := s.store.SaveSection(ctx, id, sec, b); err != nil {
		return fmt.Errorf("failed to save %s: %w", section, err)
	}
	return nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*types.Resume, error) {
	b, err := s.store.LoadResume(ctx, id)
	if err != nil {
		return nil, err
	}
	return Assemble(b)
}

func decodeRow(row *db.ResumeRow, dst *types.ResumeSummary) error {
	b := db.ResumeBundle{ResumeRow: *row}
	r, err := Assemble(&b)
	if err != nil {
		return err
	}
	*dst = r.Summary()
	return nil
}

// IsNotFound reports whether err means the resume or job description is not
// visible to the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound)
}
