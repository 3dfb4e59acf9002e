// Package jobs manages saved job descriptions, their import from posting
// URLs, and their AI analysis.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/saadk408/victry/internal/casing"
	"github.com/saadk408/victry/internal/db"
	"github.com/saadk408/victry/internal/fetch"
	"github.com/saadk408/victry/internal/llm"
	"github.com/saadk408/victry/internal/types"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 50000
	maxFieldLength   = 200
)

// Store is the storage the service needs. *db.DB satisfies it.
type Store interface {
	AsUser(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context) error) error

	InsertJobDescription(ctx context.Context, j *db.JobDescriptionRow) error
	GetJobDescription(ctx context.Context, id uuid.UUID) (*db.JobDescriptionRow, error)
	ListJobDescriptions(ctx context.Context) ([]db.JobDescriptionRow, error)
	UpdateJobDescription(ctx context.Context, id uuid.UUID, f db.JobDescriptionFields) (*db.JobDescriptionRow, error)
	DeleteJobDescription(ctx context.Context, id uuid.UUID) error
	UpsertJobAnalysis(ctx context.Context, a *db.JobAnalysisRow) error
	GetJobAnalysis(ctx context.Context, jobDescriptionID uuid.UUID) (*db.JobAnalysisRow, error)
}

// PageFetcher retrieves a job posting. *fetch.Fetcher satisfies it.
type PageFetcher interface {
	JobPage(ctx context.Context, url string) (*fetch.Page, error)
}

// Service implements the job description operations.
type Service struct {
	store   Store
	fetcher PageFetcher
	llm     llm.Client
	logger  *slog.Logger
}

// New creates a Service. fetcher and client may be nil, in which case
// ImportFromURL and Analyze fail.
func New(store Store, fetcher PageFetcher, client llm.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, fetcher: fetcher, llm: client, logger: logger}
}

func validateInput(in *types.JobDescriptionInput) error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&in.Content, validation.Required, validation.RuneLength(1, MaxContentLength)),
		validation.Field(&in.Company, validation.RuneLength(0, maxFieldLength)),
		validation.Field(&in.Location, validation.RuneLength(0, maxFieldLength)),
		validation.Field(&in.EmploymentType, validation.RuneLength(0, maxFieldLength)),
		validation.Field(&in.URL, is.URL, validation.By(httpURL)),
	)
}

func validatePatch(p *types.JobDescriptionPatch) error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Title, validation.NilOrNotEmpty, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&p.Content, validation.NilOrNotEmpty, validation.RuneLength(1, MaxContentLength)),
		validation.Field(&p.Company, validation.RuneLength(0, maxFieldLength)),
		validation.Field(&p.Location, validation.RuneLength(0, maxFieldLength)),
		validation.Field(&p.EmploymentType, validation.RuneLength(0, maxFieldLength)),
		validation.Field(&p.URL, is.URL, validation.By(httpURL)),
	)
}

// httpURL matches the storage constraint on job_descriptions.url.
func httpURL(value any) error {
	s, _ := value.(*string)
	if s == nil || *s == "" {
		return nil
	}
	u, err := url.Parse(*s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("must be an http or https URL")
	}
	return nil
}

// toValidationError converts ozzo errors into the shared validation error,
// reporting the first field in name order.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return types.NewValidationError("", err.Error())
	}
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return types.NewValidationError(fields[0], errs[fields[0]].Error())
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// Create stores a new job description.
func (s *Service) Create(ctx context.Context, caller uuid.UUID, in *types.JobDescriptionInput) (*types.JobDescription, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Company, in.Location, in.URL, in.EmploymentType = trimPtr(in.Company), trimPtr(in.Location), trimPtr(in.URL), trimPtr(in.EmploymentType)
	if err := toValidationError(validateInput(in)); err != nil {
		return nil, err
	}

	row := &db.JobDescriptionRow{
		Title:          in.Title,
		Company:        emptyToNil(in.Company),
		Location:       emptyToNil(in.Location),
		Content:        in.Content,
		URL:            emptyToNil(in.URL),
		EmploymentType: emptyToNil(in.EmploymentType),
	}
	err := s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		return s.store.InsertJobDescription(ctx, row)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("job description created", "job_description_id", row.ID)
	return decodeJob(row, nil)
}

// Get returns a job description together with its analysis when one exists.
func (s *Service) Get(ctx context.Context, caller, id uuid.UUID) (*types.JobDescription, error) {
	var (
		row      *db.JobDescriptionRow
		analysis *db.JobAnalysisRow
	)
	err := s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		var err error
		if row, err = s.store.GetJobDescription(ctx, id); err != nil {
			return err
		}
		analysis, err = s.store.GetJobAnalysis(ctx, id)
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return decodeJob(row, analysis)
}

// List returns the caller's job descriptions, newest first.
func (s *Service) List(ctx context.Context, caller uuid.UUID) ([]types.JobDescription, error) {
	var rows []db.JobDescriptionRow
	err := s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		var err error
		rows, err = s.store.ListJobDescriptions(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.JobDescription, 0, len(rows))
	for i := range rows {
		j, err := decodeJob(&rows[i], nil)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, nil
}

// Update applies the supplied fields. An empty string clears an optional field.
func (s *Service) Update(ctx context.Context, caller, id uuid.UUID, p *types.JobDescriptionPatch) (*types.JobDescription, error) {
	p.Title, p.Content = trimPtr(p.Title), trimPtr(p.Content)
	p.Company, p.Location, p.URL, p.EmploymentType = trimPtr(p.Company), trimPtr(p.Location), trimPtr(p.URL), trimPtr(p.EmploymentType)
	if err := toValidationError(validatePatch(p)); err != nil {
		return nil, err
	}

	fields := db.JobDescriptionFields{
		Title:          p.Title,
		Company:        p.Company,
		Location:       p.Location,
		Content:        p.Content,
		URL:            p.URL,
		EmploymentType: p.EmploymentType,
	}
	var row *db.JobDescriptionRow
	err := s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		var err error
		row, err = s.store.UpdateJobDescription(ctx, id, fields)
		return err
	})
	if err != nil {
		return nil, err
	}
	return decodeJob(row, nil)
}

// Delete removes a job description and its analysis. Resumes tailored
// against it keep existing.
func (s *Service) Delete(ctx context.Context, caller, id uuid.UUID) error {
	err := s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		return s.store.DeleteJobDescription(ctx, id)
	})
	if err == nil {
		s.logger.Info("job description deleted", "job_description_id", id)
	}
	return err
}

// ImportFromURL fetches a job posting and saves its title and main text as
// a new job description.
func (s *Service) ImportFromURL(ctx context.Context, caller uuid.UUID, rawURL string) (*types.JobDescription, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("job import is not configured")
	}
	rawURL = strings.TrimSpace(rawURL)
	u, err := fetch.ValidateURL(rawURL)
	if err != nil {
		return nil, types.NewValidationError("url", "must be an absolute http or https URL")
	}

	page, err := s.fetcher.JobPage(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	title := page.Title
	if title == "" {
		title = "Job posting at " + u.Hostname()
	}
	in := &types.JobDescriptionInput{
		Title:   truncate(title, MaxTitleLength),
		Content: truncate(page.Text, MaxContentLength),
		URL:     &rawURL,
	}
	if page.Company != "" {
		company := truncate(page.Company, maxFieldLength)
		in.Company = &company
	}

	j, err := s.Create(ctx, caller, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("job description imported",
		"job_description_id", j.ID,
		"platform", page.Platform,
		"content_length", len(j.Content),
	)
	return j, nil
}

// GetAnalysis returns the stored analysis of a job description.
func (s *Service) GetAnalysis(ctx context.Context, caller, id uuid.UUID) (*types.JobAnalysis, error) {
	var row *db.JobAnalysisRow
	err := s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		var err error
		row, err = s.store.GetJobAnalysis(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return decodeAnalysis(row)
}

func decodeJob(row *db.JobDescriptionRow, analysis *db.JobAnalysisRow) (*types.JobDescription, error) {
	var j types.JobDescription
	if err := casing.Default.Decode(row, &j); err != nil {
		return nil, fmt.Errorf("failed to decode job description %s: %w", row.ID, err)
	}
	if analysis != nil {
		a, err := decodeAnalysis(analysis)
		if err != nil {
			return nil, err
		}
		j.Analysis = a
	}
	return &j, nil
}

func decodeAnalysis(row *db.JobAnalysisRow) (*types.JobAnalysis, error) {
	var a types.JobAnalysis
	if err := casing.Default.Decode(row, &a); err != nil {
		return nil, fmt.Errorf("failed to decode job analysis: %w", err)
	}
	if a.Requirements == nil {
		a.Requirements = []types.Requirement{}
	}
	if a.Keywords == nil {
		a.Keywords = []types.Keyword{}
	}
	if a.CultureSignals == nil {
		a.CultureSignals = []string{}
	}
	return &a, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
