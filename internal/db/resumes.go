package db

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const resumeColumns = `id, user_id, title, target_job_title, template_id, is_base_resume, version,
	metadata, format_options, ats_score, original_resume_id, job_description_id, created_at, updated_at`

// UpdatableResumeColumns are the resumes columns a partial update may set.
var UpdatableResumeColumns = map[string]bool{
	"title":            true,
	"target_job_title": true,
	"template_id":      true,
	"is_base_resume":   true,
	"metadata":         true,
	"format_options":   true,
	"ats_score":        true,
	"version":          true,
}

func scanResume(row pgx.Row) (*ResumeRow, error) {
	var r ResumeRow
	err := row.Scan(
		&r.ID, &r.UserID, &r.Title, &r.TargetJobTitle, &r.TemplateID, &r.IsBaseResume, &r.Version,
		&r.Metadata, &r.FormatOptions, &r.ATSScore, &r.OriginalResumeID, &r.JobDescriptionID,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	if r.FormatOptions == nil {
		r.FormatOptions = map[string]any{}
	}
	return &r, nil
}

// InsertResume inserts the parent row and fills r with the stored values.
// The owner is taken from the request scope.
func (db *DB) InsertResume(ctx context.Context, r *ResumeRow) error {
	conn, err := db.conn(ctx)
	if err != nil {
		return err
	}

	if r.TemplateID == "" {
		r.TemplateID = "modern"
	}
	if r.Version == 0 {
		r.Version = 1
	}

	stored, err := scanResume(conn.QueryRow(ctx,
		`INSERT INTO resumes (title, target_job_title, template_id, is_base_resume, version,
			metadata, format_options, ats_score, original_resume_id, job_description_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+resumeColumns,
		r.Title, r.TargetJobTitle, r.TemplateID, r.IsBaseResume, r.Version,
		jsonDoc(r.Metadata), jsonDoc(r.FormatOptions), r.ATSScore, r.OriginalResumeID, r.JobDescriptionID,
	))
	if err != nil {
		return fmt.Errorf("failed to insert resume: %w", mapError(err))
	}
	*r = *stored
	return nil
}

// GetResume returns the parent row of a resume.
func (db *DB) GetResume(ctx context.Context, id uuid.UUID) (*ResumeRow, error) {
	conn, err := db.conn(ctx)
	if err != nil {
		return nil, err
	}

	r, err := scanResume(conn.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get resume %s: %w", id, mapError(err))
	}
	return r, nil
}

// ListResumes returns the caller's resumes, most recently updated first.
func (db *DB) ListResumes(ctx context.Context) ([]ResumeRow, error) {
	conn, err := db.conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, `SELECT `+resumeColumns+` FROM resumes ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	resumes := []ResumeRow{}
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, *r)
	}
	return resumes, rows.Err()
}

// UpdateResume sets the given columns and always refreshes updated_at.
// Keys must come from UpdatableResumeColumns.
func (db *DB) UpdateResume(ctx context.Context, id uuid.UUID, fields map[string]any) (*ResumeRow, error) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !UpdatableResumeColumns[col] {
			return nil, fmt.Errorf("column %q is not updatable", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	conn, err := db.conn(ctx)
	if err != nil {
		return nil, err
	}

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		val := fields[col]
		if doc, ok := val.(map[string]any); ok {
			val = jsonDoc(doc)
		}
		args = append(args, val)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	r, err := scanResume(conn.QueryRow(ctx,
		fmt.Sprintf(`UPDATE resumes SET %s WHERE id = $%d RETURNING %s`,
			strings.Join(sets, ", "), len(args), resumeColumns),
		args...,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update resume %s: %w", id, mapError(err))
	}
	return r, nil
}

// DeleteResume removes a resume; child rows cascade.
func (db *DB) DeleteResume(ctx context.Context, id uuid.UUID) error {
	conn, err := db.conn(ctx)
	if err != nil {
		return err
	}

	tag, err := conn.Exec(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resume %s: %w", id, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadResume reads the parent row and every child row of a resume. The child
// queries are sent as one batch.
func (db *DB) LoadResume(ctx context.Context, id uuid.UUID) (*ResumeBundle, error) {
	conn, err := db.conn(ctx)
	if err != nil {
		return nil, err
	}

	parent, err := db.GetResume(ctx, id)
	if err != nil {
		return nil, err
	}
	b := &ResumeBundle{ResumeRow: *parent}

	var entries []CustomEntryRow
	batch := &pgx.Batch{}
	batch.Queue(`SELECT `+personalInfoColumns+` FROM personal_info WHERE resume_id = $1`, id).
		Query(func(rows pgx.Rows) error {
			for rows.Next() {
				r, err := scanPersonalInfo(rows)
				if err != nil {
					return err
				}
				b.PersonalInfo = r
			}
			return rows.Err()
		})
	batch.Queue(`SELECT `+summaryColumns+` FROM professional_summaries WHERE resume_id = $1`, id).
		Query(func(rows pgx.Rows) error {
			for rows.Next() {
				r, err := scanSummary(rows)
				if err != nil {
					return err
				}
				b.ProfessionalSummary = r
			}
			return rows.Err()
		})
	queueList(batch, `SELECT `+workExperienceColumns+` FROM work_experiences WHERE resume_id = $1 ORDER BY display_order, start_date DESC`, id, scanWorkExperience, &b.WorkExperiences)
	queueList(batch, `SELECT `+educationColumns+` FROM education WHERE resume_id = $1 ORDER BY display_order, start_date DESC`, id, scanEducation, &b.Education)
	queueList(batch, `SELECT `+skillColumns+` FROM skills WHERE resume_id = $1 ORDER BY display_order, created_at`, id, scanSkill, &b.Skills)
	queueList(batch, `SELECT `+projectColumns+` FROM projects WHERE resume_id = $1 ORDER BY display_order, created_at`, id, scanProject, &b.Projects)
	queueList(batch, `SELECT `+certificationColumns+` FROM certifications WHERE resume_id = $1 ORDER BY display_order, created_at`, id, scanCertification, &b.Certifications)
	queueList(batch, `SELECT `+socialLinkColumns+` FROM social_links WHERE resume_id = $1 ORDER BY display_order, created_at`, id, scanSocialLink, &b.SocialLinks)
	var sections []CustomSectionRow
	queueList(batch, `SELECT `+customSectionColumns+` FROM custom_sections WHERE resume_id = $1 ORDER BY display_order, created_at`, id, scanCustomSection, &sections)
	queueList(batch, `SELECT `+prefixed("e", customEntryColumns)+`
		FROM custom_entries e JOIN custom_sections s ON s.id = e.custom_section_id
		WHERE s.resume_id = $1 ORDER BY e.display_order, e.created_at`, id, scanCustomEntry, &entries)

	if err := conn.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to load resume %s: %w", id, mapError(err))
	}

	byParent := make(map[uuid.UUID][]CustomEntryRow, len(sections))
	for _, e := range entries {
		byParent[e.CustomSectionID] = append(byParent[e.CustomSectionID], e)
	}
	b.CustomSections = make([]CustomSectionBundle, 0, len(sections))
	for _, s := range sections {
		es := byParent[s.ID]
		if es == nil {
			es = []CustomEntryRow{}
		}
		b.CustomSections = append(b.CustomSections, CustomSectionBundle{CustomSectionRow: s, Entries: es})
	}
	return b, nil
}

// queueList queues a query whose rows are scanned into dst. dst is always
// left non-nil.
func queueList[T any](batch *pgx.Batch, sql string, id uuid.UUID, scan func(pgx.Row) (*T, error), dst *[]T) {
	*dst = []T{}
	batch.Queue(sql, id).Query(func(rows pgx.Rows) error {
		for rows.Next() {
			r, err := scan(rows)
			if err != nil {
				return err
			}
			*dst = append(*dst, *r)
		}
		return rows.Err()
	})
}

// jsonDoc guarantees a non-null JSON document for NOT NULL jsonb columns.
func jsonDoc(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// prefixed qualifies every column of a plain column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
