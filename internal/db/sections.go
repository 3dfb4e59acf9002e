package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	personalInfoColumns = `id, resume_id, full_name, email, phone, location, created_at, updated_at`

	summaryColumns = `id, resume_id, content, created_at, updated_at`

	workExperienceColumns = `id, resume_id, company, position, location,
		to_char(start_date, 'YYYY-MM-DD') AS start_date, to_char(end_date, 'YYYY-MM-DD') AS end_date,
		current, description, highlights, display_order, created_at, updated_at`

	educationColumns = `id, resume_id, institution, degree, field_of_study, location,
		to_char(start_date, 'YYYY-MM-DD') AS start_date, to_char(end_date, 'YYYY-MM-DD') AS end_date,
		current, gpa::float8 AS gpa, highlights, display_order, created_at, updated_at`

	skillColumns = `id, resume_id, name, level, category, display_order, created_at, updated_at`

	projectColumns = `id, resume_id, name, description, url,
		to_char(start_date, 'YYYY-MM-DD') AS start_date, to_char(end_date, 'YYYY-MM-DD') AS end_date,
		technologies, highlights, display_order, created_at, updated_at`

	certificationColumns = `id, resume_id, name, issuer,
		to_char(issue_date, 'YYYY-MM-DD') AS issue_date, to_char(expiry_date, 'YYYY-MM-DD') AS expiry_date,
		credential_id, url, display_order, created_at, updated_at`

	socialLinkColumns = `id, resume_id, platform, url, username, display_order, created_at, updated_at`

	customSectionColumns = `id, resume_id, title, display_order, created_at, updated_at`

	customEntryColumns = `id, custom_section_id, title, subtitle, date_range, description, display_order, created_at, updated_at`
)

// sectionTables maps each section to its table. Values are interpolated into
// SQL, so only constants belong here.
var sectionTables = map[Section]string{
	SectionPersonalInfo:        "personal_info",
	SectionProfessionalSummary: "professional_summaries",
	SectionWorkExperiences:     "work_experiences",
	SectionEducation:           "education",
	SectionSkills:              "skills",
	SectionProjects:            "projects",
	SectionCertifications:      "certifications",
	SectionSocialLinks:         "social_links",
	SectionCustomSections:      "custom_sections",
}

func scanPersonalInfo(row pgx.Row) (*PersonalInfoRow, error) {
	var r PersonalInfoRow
	if err := row.Scan(&r.ID, &r.ResumeID, &r.FullName, &r.Email, &r.Phone, &r.Location, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanSummary(row pgx.Row) (*ProfessionalSummaryRow, error) {
	var r ProfessionalSummaryRow
	if err := row.Scan(&r.ID, &r.ResumeID, &r.Content, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanWorkExperience(row pgx.Row) (*WorkExperienceRow, error) {
	var r WorkExperienceRow
	err := row.Scan(&r.ID, &r.ResumeID, &r.Company, &r.Position, &r.Location, &r.StartDate, &r.EndDate,
		&r.Current, &r.Description, &r.Highlights, &r.DisplayOrder, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Highlights = textArray(r.Highlights)
	return &r, nil
}

func scanEducation(row pgx.Row) (*EducationRow, error) {
	var r EducationRow
	err := row.Scan(&r.ID, &r.ResumeID, &r.Institution, &r.Degree, &r.FieldOfStudy, &r.Location, &r.StartDate, &r.EndDate,
		&r.Current, &r.GPA, &r.Highlights, &r.DisplayOrder, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Highlights = textArray(r.Highlights)
	return &r, nil
}

func scanSkill(row pgx.Row) (*SkillRow, error) {
	var r SkillRow
	if err := row.Scan(&r.ID, &r.ResumeID, &r.Name, &r.Level, &r.Category, &r.DisplayOrder, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanProject(row pgx.Row) (*ProjectRow, error) {
	var r ProjectRow
	err := row.Scan(&r.ID, &r.ResumeID, &r.Name, &r.Description, &r.URL, &r.StartDate, &r.EndDate,
		&r.Technologies, &r.Highlights, &r.DisplayOrder, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Technologies = textArray(r.Technologies)
	r.Highlights = textArray(r.Highlights)
	return &r, nil
}

func scanCertification(row pgx.Row) (*CertificationRow, error) {
	var r CertificationRow
	err := row.Scan(&r.ID, &r.ResumeID, &r.Name, &r.Issuer, &r.IssueDate, &r.ExpiryDate,
		&r.CredentialID, &r.URL, &r.DisplayOrder, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanSocialLink(row pgx.Row) (*SocialLinkRow, error) {
	var r SocialLinkRow
	if err := row.Scan(&r.ID, &r.ResumeID, &r.Platform, &r.URL, &r.Username, &r.DisplayOrder, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanCustomSection(row pgx.Row) (*CustomSectionRow, error) {
	var r CustomSectionRow
	if err := row.Scan(&r.ID, &r.ResumeID, &r.Title, &r.DisplayOrder, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanCustomEntry(row pgx.Row) (*CustomEntryRow, error) {
	var r CustomEntryRow
	err := row.Scan(&r.ID, &r.CustomSectionID, &r.Title, &r.Subtitle, &r.DateRange, &r.Description,
		&r.DisplayOrder, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveSection writes the rows of one section of b for resume resumeID.
// Rows with an id are updated in place, rows without one are inserted and
// receive their generated id. Rows not present in b are left untouched.
func (db *DB) SaveSection(ctx context.Context, resumeID uuid.UUID, section Section, b *ResumeBundle) error {
	conn, err := db.conn(ctx)
	if err != nil {
		return err
	}

	switch section {
	case SectionPersonalInfo:
		if b.PersonalInfo == nil {
			return nil
		}
		return savePersonalInfo(ctx, conn, resumeID, b.PersonalInfo)
	case SectionProfessionalSummary:
		if b.ProfessionalSummary == nil {
			return nil
		}
		return saveSummary(ctx, conn, resumeID, b.ProfessionalSummary)
	case SectionWorkExperiences:
		return saveEach(ctx, conn, resumeID, b.WorkExperiences, saveWorkExperience)
	case SectionEducation:
		return saveEach(ctx, conn, resumeID, b.Education, saveEducation)
	case SectionSkills:
		return saveEach(ctx, conn, resumeID, b.Skills, saveSkill)
	case SectionProjects:
		return saveEach(ctx, conn, resumeID, b.Projects, saveProject)
	case SectionCertifications:
		return saveEach(ctx, conn, resumeID, b.Certifications, saveCertification)
	case SectionSocialLinks:
		return saveEach(ctx, conn, resumeID, b.SocialLinks, saveSocialLink)
	case SectionCustomSections:
		for i := range b.CustomSections {
			cs := &b.CustomSections[i]
			if err := saveCustomSection(ctx, conn, resumeID, &cs.CustomSectionRow); err != nil {
				return err
			}
			if err := saveEach(ctx, conn, cs.ID, cs.Entries, saveCustomEntry); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown section %q", section)
}

func saveEach[T any](ctx context.Context, conn DBTX, parentID uuid.UUID, rows []T, save func(context.Context, DBTX, uuid.UUID, *T) error) error {
	for i := range rows {
		if err := save(ctx, conn, parentID, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// writeRow runs an insert when id is nil and an update otherwise, then scans
// the returned row. An update that matches nothing is ErrNotFound.
func writeRow[T any](ctx context.Context, conn DBTX, table string, id uuid.UUID, insertSQL, updateSQL string, args []any, scan func(pgx.Row) (*T, error), dst *T) error {
	var (
		r   *T
		err error
	)
	if id == uuid.Nil {
		r, err = scan(conn.QueryRow(ctx, insertSQL, args...))
	} else {
		r, err = scan(conn.QueryRow(ctx, updateSQL, append(args, id)...))
	}
	if err != nil {
		return fmt.Errorf("failed to save %s row: %w", table, mapError(err))
	}
	*dst = *r
	return nil
}

func savePersonalInfo(ctx context.Context, conn DBTX, resumeID uuid.UUID, r *PersonalInfoRow) error {
	stored, err := scanPersonalInfo(conn.QueryRow(ctx,
		`INSERT INTO personal_info (resume_id, full_name, email, phone, location)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (resume_id) DO UPDATE SET
			full_name = EXCLUDED.full_name, email = EXCLUDED.email, phone = EXCLUDED.phone,
			location = EXCLUDED.location, updated_at = now()
		 RETURNING `+personalInfoColumns,
		resumeID, r.FullName, r.Email, r.Phone, r.Location,
	))
	if err != nil {
		return fmt.Errorf("failed to save personal_info row: %w", mapError(err))
	}
	*r = *stored
	return nil
}

func saveSummary(ctx context.Context, conn DBTX, resumeID uuid.UUID, r *ProfessionalSummaryRow) error {
	stored, err := scanSummary(conn.QueryRow(ctx,
		`INSERT INTO professional_summaries (resume_id, content)
		 VALUES ($1, $2)
		 ON CONFLICT (resume_id) DO UPDATE SET content = EXCLUDED.content, updated_at = now()
		 RETURNING `+summaryColumns,
		resumeID, r.Content,
	))
	if err != nil {
		return fmt.Errorf("failed to save professional_summaries row: %w", mapError(err))
	}
	*r = *stored
	return nil
}

func saveWorkExperience(ctx context.Context, conn DBTX, resumeID uuid.UUID, r *WorkExperienceRow) error {
	return writeRow(ctx, conn, "work_experiences", r.ID,
		`INSERT INTO work_experiences (resume_id, company, position, location, start_date, end_date,
			current, description, highlights, display_order)
		 VALUES ($1, $2, $3, $4, $5::text::date, $6::text::date, $7, $8, $9, $10)
		 RETURNING `+workExperienceColumns,
		`UPDATE work_experiences SET company = $2, position = $3, location = $4,
			start_date = $5::text::date, end_date = $6::text::date, current = $7, description = $8,
			highlights = $9, display_order = $10, updated_at = now()
		 WHERE id = $11 AND resume_id = $1
		 RETURNING `+workExperienceColumns,
		[]any{resumeID, r.Company, r.Position, r.Location, r.StartDate, r.EndDate,
			r.Current, r.Description, textArray(r.Highlights), r.DisplayOrder},
		scanWorkExperience, r)
}

func saveEducation(ctx context.Context, conn DBTX, resumeID uuid.UUID, r *EducationRow) error {
	return writeRow(ctx, conn, "education", r.ID,
		`INSERT INTO education (resume_id, institution, degree, field_of_study, location, start_date, end_date,
			current, gpa, highlights, display_order)
		 VALUES ($1, $2, $3, $4, $5, $6::text::date, $7::text::date, $8, $9, $10, $11)
		 RETURNING `+educationColumns,
		`UPDATE education SET institution = $2, degree = $3, field_of_study = $4, location = $5,
			start_date = $6::text::date, end_date = $7::text::date, current = $8, gpa = $9,
			highlights = $10, display_order = $11, updated_at = now()
		 WHERE id = $12 AND resume_id = $1
		 RETURNING `+educationColumns,
		[]any{resumeID, r.Institution, r.Degree, r.FieldOfStudy, r.Location, r.StartDate, r.EndDate,
			r.Current, r.GPA, textArray(r.Highlights), r.DisplayOrder},
		scanEducation, r)
}

func saveSkill(ctx context.Context, conn DBTX, resumeID uuid.UUID, r *SkillRow) error {
	return writeRow(ctx, conn, "skills", r.ID,
		`INSERT INTO skills (resume_id, name, level, category, display_order)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+skillColumns,
		`UPDATE skills SET name = $2, level = $3, category = $4, display_order = $5, updated_at = now()
		 WHERE id = $6 AND resume_id = $1
		 RETURNING `+skillColumns,
		[]any{resumeID, r.Name, r.Level, r.Category, r.DisplayOrder},
		scanSkill, r)
}

func saveProject(ctx context.Context, conn DBTX, resumeID uuid.UUID, r *ProjectRow) error {
	return writeRow(ctx, conn, "projects", r.ID,
		`INSERT INTO projects (resume_id, name, description, url, start_date, end_date,
			technologies, highlights, display_order)
		 VALUES ($1, $2, $3, $4, $5::text::date, $6::text::date, $7, $8, $9)
		 RETURNING `+projectColumns,
		`UPDATE projects SET name = $2, description = $3, url = $4, start_date = $5::text::date,
			end_date = $6::text::date, technologies = $7, highlights = $8, display_order = $9, updated_at = now()
		 WHERE id = $10 AND resume_id = $1
		 RETURNING `+projectColumns,
		[]any{resumeID, r.Name, r.Description, r.URL, r.StartDate, r.EndDate,
			textArray(r.Technologies), textArray(r.Highlights), r.DisplayOrder},
		scanProject, r)
}

func saveCertification(ctx context.Context, conn DBTX, resumeID uuid.UUID, r *CertificationRow) error {
	return writeRow(ctx, conn, "certifications", r.ID,
		`INSERT INTO certifications (resume_id, name, issuer, issue_date, expiry_date, credential_id, url, display_order)
		 VALUES ($1, $2, $3, $4::text::date, $5::text::date, $6, $7, $8)
		 RETURNING `+certificationColumns,
		`UPDATE certifications SET name = $2, issuer = $3, issue_date = $4::text::date, expiry_date = $5::text::date,
			credential_id = $6, url = $7, display_order = $8, updated_at = now()
		 WHERE id = $9 AND resume_id = $1
		 RETURNING `+certificationColumns,
		[]any{resumeID, r.Name, r.Issuer, r.IssueDate, r.ExpiryDate, r.CredentialID, r.URL, r.DisplayOrder},
		scanCertification, r)
}

func saveSocialLink(ctx context.Context, conn DBTX, resumeID uuid.UUID, r *SocialLinkRow) error {
	return writeRow(ctx, conn, "social_links", r.ID,
		`INSERT INTO social_links (resume_id, platform, url, username, display_order)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+socialLinkColumns,
		`UPDATE social_links SET platform = $2, url = $3, username = $4, display_order = $5, updated_at = now()
		 WHERE id = $6 AND resume_id = $1
		 RETURNING `+socialLinkColumns,
		[]any{resumeID, r.Platform, r.URL, r.Username, r.DisplayOrder},
		scanSocialLink, r)
}

func saveCustomSection(ctx context.Context, conn DBTX, resumeID uuid.UUID, r *CustomSectionRow) error {
	return writeRow(ctx, conn, "custom_sections", r.ID,
		`INSERT INTO custom_sections (resume_id, title, display_order)
		 VALUES ($1, $2, $3)
		 RETURNING `+customSectionColumns,
		`UPDATE custom_sections SET title = $2, display_order = $3, updated_at = now()
		 WHERE id = $4 AND resume_id = $1
		 RETURNING `+customSectionColumns,
		[]any{resumeID, r.Title, r.DisplayOrder},
		scanCustomSection, r)
}

func saveCustomEntry(ctx context.Context, conn DBTX, sectionID uuid.UUID, r *CustomEntryRow) error {
	return writeRow(ctx, conn, "custom_entries", r.ID,
		`INSERT INTO custom_entries (custom_section_id, title, subtitle, date_range, description, display_order)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+customEntryColumns,
		`UPDATE custom_entries SET title = $2, subtitle = $3, date_range = $4, description = $5,
			display_order = $6, updated_at = now()
		 WHERE id = $7 AND custom_section_id = $1
		 RETURNING `+customEntryColumns,
		[]any{sectionID, r.Title, r.Subtitle, r.DateRange, r.Description, r.DisplayOrder},
		scanCustomEntry, r)
}

// DeleteSectionItem removes one row of a section. For custom sections the
// id may name either a section (its entries cascade) or a single entry.
func (db *DB) DeleteSectionItem(ctx context.Context, resumeID uuid.UUID, section Section, itemID uuid.UUID) error {
	conn, err := db.conn(ctx)
	if err != nil {
		return err
	}

	table, ok := sectionTables[section]
	if !ok {
		return fmt.Errorf("unknown section %q", section)
	}

	tag, err := conn.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND resume_id = $2`, table),
		itemID, resumeID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s row: %w", table, mapError(err))
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if section == SectionCustomSections {
		tag, err = conn.Exec(ctx,
			`DELETE FROM custom_entries e USING custom_sections s
			 WHERE e.id = $1 AND e.custom_section_id = s.id AND s.resume_id = $2`,
			itemID, resumeID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete custom_entries row: %w", mapError(err))
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
	}
	return ErrNotFound
}
