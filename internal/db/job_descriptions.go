package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const jobDescriptionColumns = `id, user_id, title, company, location, content, url, employment_type, created_at, updated_at`

const jobAnalysisColumns = `id, job_description_id, requirements, keywords, experience_level, culture_signals,
	ats_compatibility_score, summary, created_at, updated_at`

func scanJobDescription(row pgx.Row) (*JobDescriptionRow, error) {
	var j JobDescriptionRow
	err := row.Scan(&j.ID, &j.UserID, &j.Title, &j.Company, &j.Location, &j.Content, &j.URL,
		&j.EmploymentType, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func scanJobAnalysis(row pgx.Row) (*JobAnalysisRow, error) {
	var a JobAnalysisRow
	err := row.Scan(&a.ID, &a.JobDescriptionID, &a.Requirements, &a.Keywords, &a.ExperienceLevel,
		&a.CultureSignals, &a.ATSCompatibilityScore, &a.Summary, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if a.Requirements == nil {
		a.Requirements = []map[string]any{}
	}
	if a.Keywords == nil {
		a.Keywords = []map[string]any{}
	}
	a.CultureSignals = textArray(a.CultureSignals)
	return &a, nil
}

// InsertJobDescription inserts a job description owned by the request user.
func (db *DB) InsertJobDescription(ctx context.Context, j *JobDescriptionRow) error {
	conn, err := db.conn(ctx)
	if err != nil {
		return err
	}

	stored, err := scanJobDescription(conn.QueryRow(ctx,
		`INSERT INTO job_descriptions (title, company, location, content, url, employment_type)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+jobDescriptionColumns,
		j.Title, j.Company, j.Location, j.Content, j.URL, j.EmploymentType,
	))
	if err != nil {
		return fmt.Errorf("failed to insert job description: %w", mapError(err))
	}
	*j = *stored
	return nil
}

// GetJobDescription returns one job description.
func (db *DB) GetJobDescription(ctx context.Context, id uuid.UUID) (*JobDescriptionRow, error) {
	conn, err := db.conn(ctx)
	if err != nil {
		return nil, err
	}

	j, err := scanJobDescription(conn.QueryRow(ctx,
		`SELECT `+jobDescriptionColumns+` FROM job_descriptions WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get job description %s: %w", id, mapError(err))
	}
	return j, nil
}

// ListJobDescriptions returns the caller's job descriptions, newest first.
func (db *DB) ListJobDescriptions(ctx context.Context) ([]JobDescriptionRow, error) {
	conn, err := db.conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, `SELECT `+jobDescriptionColumns+` FROM job_descriptions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list job descriptions: %w", err)
	}
	defer rows.Close()

	jobs := []JobDescriptionRow{}
	for rows.Next() {
		j, err := scanJobDescription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job description: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// UpdateJobDescription applies the non-nil fields and refreshes updated_at.
func (db *DB) UpdateJobDescription(ctx context.Context, id uuid.UUID, f JobDescriptionFields) (*JobDescriptionRow, error) {
	conn, err := db.conn(ctx)
	if err != nil {
		return nil, err
	}

	var (
		sets []string
		args []any
	)
	// an empty string clears a nullable column
	add := func(col string, v *string, nullable bool) {
		if v == nil {
			return
		}
		if nullable && *v == "" {
			args = append(args, nil)
		} else {
			args = append(args, *v)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("title", f.Title, false)
	add("company", f.Company, true)
	add("location", f.Location, true)
	add("content", f.Content, false)
	add("url", f.URL, true)
	add("employment_type", f.EmploymentType, true)
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	j, err := scanJobDescription(conn.QueryRow(ctx,
		fmt.Sprintf(`UPDATE job_descriptions SET %s WHERE id = $%d RETURNING %s`,
			strings.Join(sets, ", "), len(args), jobDescriptionColumns),
		args...,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update job description %s: %w", id, mapError(err))
	}
	return j, nil
}

// DeleteJobDescription removes a job description. Its analysis cascades;
// resumes tailored against it keep existing with job_description_id cleared.
func (db *DB) DeleteJobDescription(ctx context.Context, id uuid.UUID) error {
	conn, err := db.conn(ctx)
	if err != nil {
		return err
	}

	tag, err := conn.Exec(ctx, `DELETE FROM job_descriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job description %s: %w", id, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertJobAnalysis stores the analysis of a job description, replacing any
// previous one.
func (db *DB) UpsertJobAnalysis(ctx context.Context, a *JobAnalysisRow) error {
	conn, err := db.conn(ctx)
	if err != nil {
		return err
	}

	requirements, keywords := a.Requirements, a.Keywords
	if requirements == nil {
		requirements = []map[string]any{}
	}
	if keywords == nil {
		keywords = []map[string]any{}
	}

	stored, err := scanJobAnalysis(conn.QueryRow(ctx,
		`INSERT INTO job_analyses (job_description_id, requirements, keywords, experience_level,
			culture_signals, ats_compatibility_score, summary)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (job_description_id) DO UPDATE SET
			requirements = EXCLUDED.requirements, keywords = EXCLUDED.keywords,
			experience_level = EXCLUDED.experience_level, culture_signals = EXCLUDED.culture_signals,
			ats_compatibility_score = EXCLUDED.ats_compatibility_score, summary = EXCLUDED.summary,
			updated_at = now()
		 RETURNING `+jobAnalysisColumns,
		a.JobDescriptionID, requirements, keywords, a.ExperienceLevel,
		textArray(a.CultureSignals), a.ATSCompatibilityScore, a.Summary,
	))
	if err != nil {
		return fmt.Errorf("failed to save job analysis: %w", mapError(err))
	}
	*a = *stored
	return nil
}

// GetJobAnalysis returns the analysis of a job description.
func (db *DB) GetJobAnalysis(ctx context.Context, jobDescriptionID uuid.UUID) (*JobAnalysisRow, error) {
	conn, err := db.conn(ctx)
	if err != nil {
		return nil, err
	}

	a, err := scanJobAnalysis(conn.QueryRow(ctx,
		`SELECT `+jobAnalysisColumns+` FROM job_analyses WHERE job_description_id = $1`, jobDescriptionID))
	if err != nil {
		return nil, fmt.Errorf("failed to get job analysis: %w", mapError(err))
	}
	return a, nil
}
