package resume

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/saadk408/victry/internal/db"
)

type userKey struct{}

// fakeStore keeps resumes in memory and hides rows owned by other users the
// way the row-level security policies do. AsUser and Savepoint restore a
// snapshot when their function fails.
type fakeStore struct {
	resumes  map[uuid.UUID]*db.ResumeBundle
	jobs     map[uuid.UUID]*db.JobDescriptionRow
	analyses map[uuid.UUID]*db.JobAnalysisRow

	failSections map[db.Section]error
	updates      []map[string]any
	clock        time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		resumes:      map[uuid.UUID]*db.ResumeBundle{},
		jobs:         map[uuid.UUID]*db.JobDescriptionRow{},
		analyses:     map[uuid.UUID]*db.JobAnalysisRow{},
		failSections: map[db.Section]error{},
		clock:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) user(ctx context.Context) (uuid.UUID, error) {
	u, ok := ctx.Value(userKey{}).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("query outside request scope")
	}
	return u, nil
}

type snapshot struct {
	resumes  map[uuid.UUID]*db.ResumeBundle
	jobs     map[uuid.UUID]*db.JobDescriptionRow
	analyses map[uuid.UUID]*db.JobAnalysisRow
}

func (f *fakeStore) snapshot() snapshot {
	s := snapshot{
		resumes:  map[uuid.UUID]*db.ResumeBundle{},
		jobs:     map[uuid.UUID]*db.JobDescriptionRow{},
		analyses: map[uuid.UUID]*db.JobAnalysisRow{},
	}
	for k, v := range f.resumes {
		s.resumes[k] = clone(v)
	}
	for k, v := range f.jobs {
		s.jobs[k] = clone(v)
	}
	for k, v := range f.analyses {
		s.analyses[k] = clone(v)
	}
	return s
}

func (f *fakeStore) restore(s snapshot) {
	f.resumes, f.jobs, f.analyses = s.resumes, s.jobs, s.analyses
}

func clone[T any](v *T) *T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}

func (f *fakeStore) AsUser(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context) error) error {
	if userID == uuid.Nil {
		return fmt.Errorf("request scope requires a user id")
	}
	snap := f.snapshot()
	if err := fn(context.WithValue(ctx, userKey{}, userID)); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

func (f *fakeStore) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, err := f.user(ctx); err != nil {
		return fmt.Errorf("savepoint requires a request scope")
	}
	snap := f.snapshot()
	if err := fn(ctx); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

func (f *fakeStore) visible(ctx context.Context, id uuid.UUID) (*db.ResumeBundle, error) {
	u, err := f.user(ctx)
	if err != nil {
		return nil, err
	}
	b, ok := f.resumes[id]
	if !ok || b.UserID != u {
		return nil, db.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) InsertResume(ctx context.Context, r *db.ResumeRow) error {
	u, err := f.user(ctx)
	if err != nil {
		return err
	}
	if r.OriginalResumeID != nil {
		if src, ok := f.resumes[*r.OriginalResumeID]; !ok || src.UserID != u {
			return &db.ConstraintError{Kind: db.ErrConstraint, Constraint: "resumes_original_same_owner_fkey"}
		}
	}
	if r.TemplateID == "" {
		r.TemplateID = "modern"
	}
	if r.Version == 0 {
		r.Version = 1
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	if r.FormatOptions == nil {
		r.FormatOptions = map[string]any{}
	}
	now := f.tick()
	r.ID, r.UserID, r.CreatedAt, r.UpdatedAt = uuid.New(), u, now, now
	f.resumes[r.ID] = &db.ResumeBundle{ResumeRow: *clone(r)}
	return nil
}

func (f *fakeStore) GetResume(ctx context.Context, id uuid.UUID) (*db.ResumeRow, error) {
	b, err := f.visible(ctx, id)
	if err != nil {
		return nil, err
	}
	return clone(&b.ResumeRow), nil
}

func (f *fakeStore) LoadResume(ctx context.Context, id uuid.UUID) (*db.ResumeBundle, error) {
	b, err := f.visible(ctx, id)
	if err != nil {
		return nil, err
	}
	return clone(b), nil
}

func (f *fakeStore) ListResumes(ctx context.Context) ([]db.ResumeRow, error) {
	u, err := f.user(ctx)
	if err != nil {
		return nil, err
	}
	var out []db.ResumeRow
	for _, b := range f.resumes {
		if b.UserID == u {
			out = append(out, *clone(&b.ResumeRow))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeStore) UpdateResume(ctx context.Context, id uuid.UUID, fields map[string]any) (*db.ResumeRow, error) {
	for col := range fields {
		if !db.UpdatableResumeColumns[col] {
			return nil, fmt.Errorf("column %q is not updatable", col)
		}
	}
	b, err := f.visible(ctx, id)
	if err != nil {
		return nil, err
	}
	f.updates = append(f.updates, fields)

	for col, val := range fields {
		switch col {
		case "title":
			b.Title = val.(string)
		case "target_job_title":
			b.TargetJobTitle = val.(*string)
		case "template_id":
			b.TemplateID = val.(string)
		case "is_base_resume":
			b.IsBaseResume = val.(bool)
		case "metadata":
			b.Metadata = val.(map[string]any)
		case "format_options":
			b.FormatOptions = val.(map[string]any)
		case "ats_score":
			b.ATSScore = val.(*int)
		case "version":
			b.Version = val.(int)
		}
	}
	b.UpdatedAt = f.tick()
	return clone(&b.ResumeRow), nil
}

func (f *fakeStore) DeleteResume(ctx context.Context, id uuid.UUID) error {
	if _, err := f.visible(ctx, id); err != nil {
		return err
	}
	delete(f.resumes, id)
	for _, other := range f.resumes {
		if other.OriginalResumeID != nil && *other.OriginalResumeID == id {
			other.OriginalResumeID = nil
		}
	}
	return nil
}

func (f *fakeStore) SaveSection(ctx context.Context, resumeID uuid.UUID, section db.Section, in *db.ResumeBundle) error {
	b, err := f.visible(ctx, resumeID)
	if err != nil {
		return err
	}
	if err := f.failSections[section]; err != nil {
		return err
	}

	switch section {
	case db.SectionPersonalInfo:
		if in.PersonalInfo == nil {
			return nil
		}
		row := *in.PersonalInfo
		if b.PersonalInfo != nil {
			row.ID = b.PersonalInfo.ID
		} else {
			row.ID = uuid.New()
		}
		row.ResumeID = resumeID
		b.PersonalInfo = &row
		in.PersonalInfo.ID = row.ID
	case db.SectionProfessionalSummary:
		if in.ProfessionalSummary == nil {
			return nil
		}
		row := *in.ProfessionalSummary
		if b.ProfessionalSummary != nil {
			row.ID = b.ProfessionalSummary.ID
		} else {
			row.ID = uuid.New()
		}
		row.ResumeID = resumeID
		b.ProfessionalSummary = &row
		in.ProfessionalSummary.ID = row.ID
	case db.SectionWorkExperiences:
		return upsertRows(&b.WorkExperiences, in.WorkExperiences, resumeID,
			func(r *db.WorkExperienceRow) (*uuid.UUID, *uuid.UUID) { return &r.ID, &r.ResumeID })
	case db.SectionEducation:
		return upsertRows(&b.Education, in.Education, resumeID,
			func(r *db.EducationRow) (*uuid.UUID, *uuid.UUID) { return &r.ID, &r.ResumeID })
	case db.SectionSkills:
		return upsertRows(&b.Skills, in.Skills, resumeID,
			func(r *db.SkillRow) (*uuid.UUID, *uuid.UUID) { return &r.ID, &r.ResumeID })
	case db.SectionProjects:
		return upsertRows(&b.Projects, in.Projects, resumeID,
			func(r *db.ProjectRow) (*uuid.UUID, *uuid.UUID) { return &r.ID, &r.ResumeID })
	case db.SectionCertifications:
		return upsertRows(&b.Certifications, in.Certifications, resumeID,
			func(r *db.CertificationRow) (*uuid.UUID, *uuid.UUID) { return &r.ID, &r.ResumeID })
	case db.SectionSocialLinks:
		return upsertRows(&b.SocialLinks, in.SocialLinks, resumeID,
			func(r *db.SocialLinkRow) (*uuid.UUID, *uuid.UUID) { return &r.ID, &r.ResumeID })
	case db.SectionCustomSections:
		for i := range in.CustomSections {
			cs := &in.CustomSections[i]
			entries := cs.Entries
			bundle := db.CustomSectionBundle{CustomSectionRow: cs.CustomSectionRow}
			for _, existing := range b.CustomSections {
				if cs.ID != uuid.Nil && existing.ID == cs.ID {
					bundle.Entries = existing.Entries
				}
			}
			if err := upsertRows(&b.CustomSections, []db.CustomSectionBundle{bundle}, resumeID,
				func(r *db.CustomSectionBundle) (*uuid.UUID, *uuid.UUID) { return &r.ID, &r.ResumeID }); err != nil {
				return err
			}
			stored := &b.CustomSections[len(b.CustomSections)-1]
			if cs.ID != uuid.Nil {
				for j := range b.CustomSections {
					if b.CustomSections[j].ID == cs.ID {
						stored = &b.CustomSections[j]
					}
				}
			}
			cs.ID = stored.ID
			if err := upsertRows(&stored.Entries, entries, stored.ID,
				func(r *db.CustomEntryRow) (*uuid.UUID, *uuid.UUID) { return &r.ID, &r.CustomSectionID }); err != nil {
				return err
			}
		}
	}
	return nil
}

func upsertRows[T any](dst *[]T, rows []T, parentID uuid.UUID, ids func(*T) (*uuid.UUID, *uuid.UUID)) error {
	for i := range rows {
		row := rows[i]
		id, parent := ids(&row)
		*parent = parentID
		if *id == uuid.Nil {
			*id = uuid.New()
			*dst = append(*dst, row)
			continue
		}
		found := false
		for j := range *dst {
			existing, _ := ids(&(*dst)[j])
			if *existing == *id {
				(*dst)[j] = row
				found = true
			}
		}
		if !found {
			return db.ErrNotFound
		}
	}
	return nil
}

func (f *fakeStore) DeleteSectionItem(ctx context.Context, resumeID uuid.UUID, section db.Section, itemID uuid.UUID) error {
	b, err := f.visible(ctx, resumeID)
	if err != nil {
		return err
	}
	var removed bool
	switch section {
	case db.SectionWorkExperiences:
		b.WorkExperiences, removed = without(b.WorkExperiences, itemID, func(r db.WorkExperienceRow) uuid.UUID { return r.ID })
	case db.SectionEducation:
		b.Education, removed = without(b.Education, itemID, func(r db.EducationRow) uuid.UUID { return r.ID })
	case db.SectionSkills:
		b.Skills, removed = without(b.Skills, itemID, func(r db.SkillRow) uuid.UUID { return r.ID })
	case db.SectionProjects:
		b.Projects, removed = without(b.Projects, itemID, func(r db.ProjectRow) uuid.UUID { return r.ID })
	case db.SectionCertifications:
		b.Certifications, removed = without(b.Certifications, itemID, func(r db.CertificationRow) uuid.UUID { return r.ID })
	case db.SectionSocialLinks:
		b.SocialLinks, removed = without(b.SocialLinks, itemID, func(r db.SocialLinkRow) uuid.UUID { return r.ID })
	case db.SectionCustomSections:
		b.CustomSections, removed = without(b.CustomSections, itemID, func(r db.CustomSectionBundle) uuid.UUID { return r.ID })
		for i := range b.CustomSections {
			var r bool
			b.CustomSections[i].Entries, r = without(b.CustomSections[i].Entries, itemID, func(e db.CustomEntryRow) uuid.UUID { return e.ID })
			removed = removed || r
		}
	}
	if !removed {
		return db.ErrNotFound
	}
	return nil
}

func without[T any](rows []T, id uuid.UUID, key func(T) uuid.UUID) ([]T, bool) {
	out := rows[:0]
	removed := false
	for _, r := range rows {
		if key(r) == id {
			removed = true
			continue
		}
		out = append(out, r)
	}
	return out, removed
}

func (f *fakeStore) GetJobDescription(ctx context.Context, id uuid.UUID) (*db.JobDescriptionRow, error) {
	u, err := f.user(ctx)
	if err != nil {
		return nil, err
	}
	j, ok := f.jobs[id]
	if !ok || j.UserID != u {
		return nil, db.ErrNotFound
	}
	return clone(j), nil
}

func (f *fakeStore) GetJobAnalysis(ctx context.Context, jobDescriptionID uuid.UUID) (*db.JobAnalysisRow, error) {
	if _, err := f.GetJobDescription(ctx, jobDescriptionID); err != nil {
		return nil, err
	}
	a, ok := f.analyses[jobDescriptionID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return clone(a), nil
}

func (f *fakeStore) addJob(owner uuid.UUID, title, content string) *db.JobDescriptionRow {
	company := "Acme"
	j := &db.JobDescriptionRow{
		ID:        uuid.New(),
		UserID:    owner,
		Title:     title,
		Company:   &company,
		Content:   content,
		CreatedAt: f.tick(),
	}
	j.UpdatedAt = j.CreatedAt
	f.jobs[j.ID] = j
	return j
}
