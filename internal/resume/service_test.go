package resume

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/saadk408/victry/internal/db"
	"github.com/saadk408/victry/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func sampleResume() *types.Resume {
	level := types.SkillExpert
	return &types.Resume{
		Title: "Backend Engineer",
		PersonalInfo: types.PersonalInfo{
			FullName: "Ada Lovelace",
			Email:    "ada@example.com",
			Phone:    "+44 20 7946 0958",
			Location: "London",
		},
		ProfessionalSummary: types.ProfessionalSummary{Content: "Engineer who ships."},
		WorkExperiences: []types.WorkExperience{{
			Company:    "Analytical Engines",
			Position:   "Engineer",
			StartDate:  "2020-01-01",
			Current:    true,
			Highlights: []string{"Built the mill"},
		}},
		Skills: []types.Skill{{Name: "Go", Level: &level}},
		CustomSections: []types.CustomSection{{
			Title:   "Talks",
			Entries: []types.CustomEntry{{Title: "Notes on the engine"}},
		}},
		Metadata: map[string]any{"sourceFile": "cv.pdf"},
	}
}

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return New(store, nil, nil), store
}

func TestCreate_AssemblesFullTree(t *testing.T) {
	svc, store := newTestService(t)
	owner := uuid.New()

	got, err := svc.Create(context.Background(), owner, sampleResume())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, owner, got.UserID)
	assert.Equal(t, "modern", got.TemplateID)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, "Ada Lovelace", got.PersonalInfo.FullName)
	require.NotNil(t, got.PersonalInfo.ID)
	require.Len(t, got.WorkExperiences, 1)
	assert.Equal(t, []string{"Built the mill"}, got.WorkExperiences[0].Highlights)
	require.Len(t, got.CustomSections, 1)
	require.Len(t, got.CustomSections[0].Entries, 1)
	assert.Equal(t, "Notes on the engine", got.CustomSections[0].Entries[0].Title)
	assert.Equal(t, "cv.pdf", got.Metadata["sourceFile"])

	// stored in snake_case
	assert.Equal(t, "cv.pdf", store.resumes[got.ID].Metadata["source_file"])
	assert.Empty(t, got.Education)
	assert.NotNil(t, got.Education)
}

func TestCreate_ValidationFailsBeforeWriting(t *testing.T) {
	svc, store := newTestService(t)

	r := sampleResume()
	r.WorkExperiences[0].Current = true
	r.WorkExperiences[0].EndDate = strPtr("2021-01-01")

	_, err := svc.Create(context.Background(), uuid.New(), r)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "workExperiences[0].endDate", verr.Field)
	assert.Empty(t, store.resumes)
}

func TestCreate_IsAtomic(t *testing.T) {
	svc, store := newTestService(t)
	store.failSections[db.SectionSkills] = &db.ConstraintError{Kind: db.ErrConstraint, Constraint: "skills_level_check"}

	_, err := svc.Create(context.Background(), uuid.New(), sampleResume())
	require.Error(t, err)
	assert.True(t, db.IsConstraint(err))
	assert.Empty(t, store.resumes, "parent row must be rolled back with the failed section")
}

func TestCreate_IgnoresClientLineage(t *testing.T) {
	svc, _ := newTestService(t)
	r := sampleResume()
	other := uuid.New()
	r.OriginalResumeID = &other
	r.JobDescriptionID = &other

	got, err := svc.Create(context.Background(), uuid.New(), r)
	require.NoError(t, err)
	assert.Nil(t, got.OriginalResumeID)
	assert.Nil(t, got.JobDescriptionID)
}

func TestGet_DefaultsForMissingSections(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, &types.Resume{Title: "Empty"})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), owner, created.ID)
	require.NoError(t, err)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, map[string]any{"fullName": "", "email": "", "phone": "", "location": ""}, doc["personalInfo"])
	assert.Equal(t, map[string]any{"content": ""}, doc["professionalSummary"])
	for _, key := range []string{"workExperiences", "education", "skills", "projects", "certifications", "socialLinks", "customSections"} {
		assert.Equal(t, []any{}, doc[key], key)
	}
}

func TestGet_OtherUsersResumeIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	owner, stranger := uuid.New(), uuid.New()

	created, err := svc.Create(context.Background(), owner, sampleResume())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), stranger, created.ID)
	assert.True(t, IsNotFound(err))

	err = svc.Delete(context.Background(), stranger, created.ID)
	assert.True(t, IsNotFound(err))
}

func TestList_NewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	ctx := context.Background()

	first, err := svc.Create(ctx, owner, &types.Resume{Title: "First"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, &types.Resume{Title: "Second"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, uuid.New(), &types.Resume{Title: "Someone else"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, owner, first.ID, &types.ResumePatch{})
	require.NoError(t, err)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "First", list[0].Title)
	assert.Equal(t, "Second", list[1].Title)
}

func TestUpdate_ScalarFields(t *testing.T) {
	svc, store := newTestService(t)
	owner := uuid.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, sampleResume())
	require.NoError(t, err)

	var patch types.ResumePatch
	require.NoError(t, json.Unmarshal([]byte(`{
		"title": "Staff Engineer",
		"targetJobTitle": null,
		"atsScore": 82,
		"version": 3,
		"formatOptions": {"fontSize": 11}
	}`), &patch))

	got, err := svc.Update(ctx, owner, created.ID, &patch)
	require.NoError(t, err)

	assert.Equal(t, "Staff Engineer", got.Title)
	assert.Nil(t, got.TargetJobTitle)
	require.NotNil(t, got.ATSScore)
	assert.Equal(t, 82, *got.ATSScore)
	assert.Equal(t, 3, got.Version)
	assert.True(t, got.UpdatedAt.After(created.UpdatedAt))
	assert.Contains(t, store.resumes[created.ID].FormatOptions, "font_size")
	assert.Contains(t, got.FormatOptions, "fontSize")
	// sections untouched
	assert.Len(t, got.WorkExperiences, 1)
}

func TestUpdate_RejectsForbiddenFields(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"owner", `{"userId": "` + uuid.NewString() + `"}`, "userId"},
		{"id", `{"id": "` + uuid.NewString() + `"}`, "id"},
		{"unknown", `{"colour": "red"}`, "colour"},
		{"snake case key", `{"target_job_title": "x"}`, "target_job_title"},
		{"lineage", `{"originalResumeId": null}`, "originalResumeId"},
		{"wrong type", `{"isBaseResume": "yes"}`, "isBaseResume"},
		{"score out of range", `{"atsScore": 101}`, "atsScore"},
		{"fractional version", `{"version": 1.5}`, "version"},
		{"empty title", `{"title": "  "}`, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			owner := uuid.New()
			created, err := svc.Create(context.Background(), owner, sampleResume())
			require.NoError(t, err)
			store.updates = nil

			var patch types.ResumePatch
			require.NoError(t, json.Unmarshal([]byte(tt.body), &patch))

			_, err = svc.Update(context.Background(), owner, created.ID, &patch)
			var verr *types.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, store.updates)
		})
	}
}

func TestUpdate_UpsertsSuppliedSections(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, sampleResume())
	require.NoError(t, err)
	existing := created.WorkExperiences[0]
	existing.Position = "Principal Engineer"

	patch := &types.ResumePatch{Sections: types.SectionSet{
		WorkExperiences: []types.WorkExperience{
			existing,
			{Company: "Babbage & Co", Position: "Intern", StartDate: "2018-01-01", EndDate: strPtr("2018-06-30")},
		},
	}}

	got, err := svc.Update(ctx, owner, created.ID, patch)
	require.NoError(t, err)
	require.Len(t, got.WorkExperiences, 2)
	assert.Equal(t, "Principal Engineer", got.WorkExperiences[0].Position)
	assert.Equal(t, *existing.ID, *got.WorkExperiences[0].ID)
	assert.Equal(t, "Babbage & Co", got.WorkExperiences[1].Company)
	// not supplied, not touched
	assert.Len(t, got.Skills, 1)
}

func TestUpdate_UnknownRowIDIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, sampleResume())
	require.NoError(t, err)

	foreign := uuid.New()
	patch := &types.ResumePatch{Sections: types.SectionSet{
		Skills: []types.Skill{{ID: &foreign, Name: "Rust"}},
	}}
	_, err = svc.Update(ctx, owner, created.ID, patch)
	assert.True(t, IsNotFound(err))
}

func TestUpsertSection(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, &types.Resume{Title: "Empty"})
	require.NoError(t, err)

	got, err := svc.UpsertSection(ctx, owner, created.ID, types.SectionPersonalInfo,
		[]byte(`{"fullName": "Grace Hopper", "email": "grace@example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", got.PersonalInfo.FullName)
	firstID := *got.PersonalInfo.ID

	got, err = svc.UpsertSection(ctx, owner, created.ID, types.SectionPersonalInfo,
		[]byte(`{"fullName": "Rear Admiral Hopper"}`))
	require.NoError(t, err)
	assert.Equal(t, firstID, *got.PersonalInfo.ID, "one-to-one section is upserted, not duplicated")

	got, err = svc.UpsertSection(ctx, owner, created.ID, types.SectionSocialLinks,
		[]byte(`[{"platform": "GitHub", "url": "https://github.com/grace"}]`))
	require.NoError(t, err)
	require.Len(t, got.SocialLinks, 1)
}

func TestUpsertSection_RejectsInvalidContent(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, &types.Resume{Title: "Empty"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		section types.Section
		payload string
	}{
		{"bad email", types.SectionPersonalInfo, `{"email": "not-an-email"}`},
		{"array for singular", types.SectionProfessionalSummary, `[{"content": "x"}]`},
		{"object for collection", types.SectionSkills, `{"name": "Go"}`},
		{"bad skill level", types.SectionSkills, `[{"name": "Go", "level": "guru"}]`},
		{"bad url", types.SectionSocialLinks, `[{"platform": "x", "url": "not a url"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpsertSection(ctx, owner, created.ID, tt.section, []byte(tt.payload))
			var verr *types.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestDeleteSectionItem(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, sampleResume())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSectionItem(ctx, owner, created.ID, types.SectionSkills, *created.Skills[0].ID))
	entryID := *created.CustomSections[0].Entries[0].ID
	require.NoError(t, svc.DeleteSectionItem(ctx, owner, created.ID, types.SectionCustomSections, entryID))

	got, err := svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Skills)
	require.Len(t, got.CustomSections, 1)
	assert.Empty(t, got.CustomSections[0].Entries)

	err = svc.DeleteSectionItem(ctx, owner, created.ID, types.SectionSkills, uuid.New())
	assert.True(t, IsNotFound(err))

	err = svc.DeleteSectionItem(ctx, owner, created.ID, types.SectionPersonalInfo, uuid.New())
	var verr *types.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func fullResume() *types.Resume {
	r := sampleResume()
	gpa := 3.9
	r.Education = []types.Education{{
		Institution:  "University of London",
		Degree:       "BSc",
		FieldOfStudy: strPtr("Mathematics"),
		StartDate:    "2015-09-01",
		EndDate:      strPtr("2019-06-30"),
		GPA:          &gpa,
		Highlights:   []string{"First class honours"},
	}}
	r.Projects = []types.Project{{
		Name:         "Difference Engine",
		Description:  "Polynomial tables.",
		URL:          strPtr("https://example.com/engine"),
		Technologies: []string{"brass", "Go"},
		Highlights:   []string{"Printed tables"},
	}}
	r.Certifications = []types.Certification{{
		Name:         "CKA",
		Issuer:       "CNCF",
		IssueDate:    strPtr("2022-03-01"),
		CredentialID: strPtr("CKA-1842"),
	}}
	r.SocialLinks = []types.SocialLink{{
		Platform: "github",
		URL:      "https://github.com/ada",
		Username: strPtr("ada"),
	}}
	return r
}

// withoutIdentity returns v as generic JSON minus the keys that change when
// a resume is copied.
func withoutIdentity(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out any
	require.NoError(t, json.Unmarshal(data, &out))
	return dropIdentity(out)
}

func dropIdentity(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for _, k := range []string{"id", "resumeId", "customSectionId", "createdAt", "updatedAt"} {
			delete(t, k)
		}
		for k, val := range t {
			t[k] = dropIdentity(val)
		}
	case []any:
		for i, val := range t {
			t[i] = dropIdentity(val)
		}
	}
	return v
}

func TestDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	ctx := context.Background()

	src, err := svc.Create(ctx, owner, fullResume())
	require.NoError(t, err)

	dup, err := svc.Duplicate(ctx, owner, src.ID, nil)
	require.NoError(t, err)

	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, "Backend Engineer (Copy)", dup.Title)
	require.NotNil(t, dup.OriginalResumeID)
	assert.Equal(t, src.ID, *dup.OriginalResumeID)
	assert.False(t, dup.IsBaseResume)
	assert.Equal(t, 1, dup.Version)
	assert.Equal(t, src.Metadata, dup.Metadata)

	sections := []struct {
		name     string
		src, dup any
	}{
		{"personalInfo", src.PersonalInfo, dup.PersonalInfo},
		{"professionalSummary", src.ProfessionalSummary, dup.ProfessionalSummary},
		{"workExperiences", src.WorkExperiences, dup.WorkExperiences},
		{"education", src.Education, dup.Education},
		{"skills", src.Skills, dup.Skills},
		{"projects", src.Projects, dup.Projects},
		{"certifications", src.Certifications, dup.Certifications},
		{"socialLinks", src.SocialLinks, dup.SocialLinks},
		{"customSections", src.CustomSections, dup.CustomSections},
	}
	for _, s := range sections {
		t.Run(s.name, func(t *testing.T) {
			assert.NotEmpty(t, withoutIdentity(t, s.src))
			assert.Equal(t, withoutIdentity(t, s.src), withoutIdentity(t, s.dup))
		})
	}

	require.NotNil(t, dup.PersonalInfo.ID)
	assert.NotEqual(t, *src.PersonalInfo.ID, *dup.PersonalInfo.ID)
	require.NotNil(t, dup.ProfessionalSummary.ID)
	assert.NotEqual(t, *src.ProfessionalSummary.ID, *dup.ProfessionalSummary.ID)

	ids := []struct {
		name     string
		src, dup *uuid.UUID
	}{
		{"workExperiences", src.WorkExperiences[0].ID, dup.WorkExperiences[0].ID},
		{"education", src.Education[0].ID, dup.Education[0].ID},
		{"skills", src.Skills[0].ID, dup.Skills[0].ID},
		{"projects", src.Projects[0].ID, dup.Projects[0].ID},
		{"certifications", src.Certifications[0].ID, dup.Certifications[0].ID},
		{"socialLinks", src.SocialLinks[0].ID, dup.SocialLinks[0].ID},
		{"customSections", src.CustomSections[0].ID, dup.CustomSections[0].ID},
		{"customEntries", src.CustomSections[0].Entries[0].ID, dup.CustomSections[0].Entries[0].ID},
	}
	for _, id := range ids {
		require.NotNil(t, id.src, id.name)
		require.NotNil(t, id.dup, id.name)
		assert.NotEqual(t, *id.src, *id.dup, id.name)
	}
	require.NotNil(t, dup.Education[0].ResumeID)
	assert.Equal(t, dup.ID, *dup.Education[0].ResumeID)

	named, err := svc.Duplicate(ctx, owner, src.ID, strPtr("  For startups "))
	require.NoError(t, err)
	assert.Equal(t, "For startups", named.Title)
}

func TestDuplicate_LongTitleStaysWithinLimit(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	ctx := context.Background()

	r := sampleResume()
	r.Title = strings.Repeat("t", types.MaxTitleLength)
	src, err := svc.Create(ctx, owner, r)
	require.NoError(t, err)

	dup, err := svc.Duplicate(ctx, owner, src.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("t", types.MaxTitleLength-7)+" (Copy)", dup.Title)

	again, err := svc.Duplicate(ctx, owner, dup.ID, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(again.Title)), types.MaxTitleLength)
	assert.True(t, strings.HasSuffix(again.Title, " (Copy)"))
}

func TestDuplicate_OtherOwnerIsNotFound(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	src, err := svc.Create(ctx, uuid.New(), sampleResume())
	require.NoError(t, err)

	_, err = svc.Duplicate(ctx, uuid.New(), src.ID, nil)
	assert.True(t, IsNotFound(err))
	assert.Len(t, store.resumes, 1)
}

func TestDuplicate_IsAtomic(t *testing.T) {
	svc, store := newTestService(t)
	owner := uuid.New()
	ctx := context.Background()

	src, err := svc.Create(ctx, owner, sampleResume())
	require.NoError(t, err)

	store.failSections[db.SectionCustomSections] = errors.New("connection reset")
	_, err = svc.Duplicate(ctx, owner, src.ID, nil)
	require.Error(t, err)
	assert.Len(t, store.resumes, 1)
}

func TestDelete_ClearsLineage(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	ctx := context.Background()

	src, err := svc.Create(ctx, owner, sampleResume())
	require.NoError(t, err)
	dup, err := svc.Duplicate(ctx, owner, src.ID, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner, src.ID))

	_, err = svc.Get(ctx, owner, src.ID)
	assert.True(t, IsNotFound(err))

	got, err := svc.Get(ctx, owner, dup.ID)
	require.NoError(t, err)
	assert.Nil(t, got.OriginalResumeID)
}
