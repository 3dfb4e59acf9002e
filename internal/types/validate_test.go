package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestValidate_WorkExperienceDates(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       *string
		current   bool
		wantField string
	}{
		{name: "current without end", start: "2021-01-01", current: true},
		{name: "finished with end", start: "2019-05-01", end: strPtr("2021-01-31")},
		{name: "same day", start: "2020-01-01", end: strPtr("2020-01-01")},
		{name: "current with end", start: "2021-01-01", end: strPtr("2022-01-01"), current: true, wantField: "workExperiences[0].endDate"},
		{name: "not current without end", start: "2021-01-01", wantField: "workExperiences[0].endDate"},
		{name: "end before start", start: "2022-01-01", end: strPtr("2021-12-31"), wantField: "workExperiences[0].endDate"},
		{name: "bad start format", start: "01/02/2020", current: true, wantField: "workExperiences[0].startDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Resume{
				Title: "Resume",
				WorkExperiences: []WorkExperience{{
					Company:   "Acme",
					Position:  "Engineer",
					StartDate: tt.start,
					EndDate:   tt.end,
					Current:   tt.current,
				}},
			}

			err := Validate(r)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestValidate_EducationDates(t *testing.T) {
	r := &Resume{
		Title: "Resume",
		Education: []Education{{
			Institution: "MIT",
			Degree:      "BSc",
			StartDate:   "2015-09-01",
		}},
	}

	err := Validate(r)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "education[0].endDate", verr.Field)
	assert.Equal(t, "is required unless current is true", verr.Message)
}

func TestValidate_SkillLevel(t *testing.T) {
	level := SkillLevel("guru")
	r := &Resume{Title: "Resume", Skills: []Skill{{Name: "Go", Level: &level}}}

	err := Validate(r)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "skills[0].level", verr.Field)

	expert := SkillExpert
	r.Skills[0].Level = &expert
	assert.NoError(t, Validate(r))

	r.Skills[0].Level = nil
	assert.NoError(t, Validate(r))
}

func TestValidate_ContactFields(t *testing.T) {
	tests := []struct {
		name    string
		info    PersonalInfo
		wantErr bool
	}{
		{name: "empty", info: PersonalInfo{}},
		{name: "valid", info: PersonalInfo{FullName: "Ada", Email: "ada@example.com", Phone: "+1 (555) 010-2030"}},
		{name: "bad email", info: PersonalInfo{Email: "not-an-email"}, wantErr: true},
		{name: "bad phone", info: PersonalInfo{Phone: "call me"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Resume{Title: "Resume", PersonalInfo: tt.info}
			err := Validate(r)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_SocialLinkURL(t *testing.T) {
	r := &Resume{Title: "Resume", SocialLinks: []SocialLink{{Platform: "github", URL: "github dot com"}}}
	assert.Error(t, Validate(r))

	r.SocialLinks[0].URL = "https://github.com/ada"
	assert.NoError(t, Validate(r))
}

func TestValidate_TitleRequired(t *testing.T) {
	err := Validate(&Resume{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)
	assert.Equal(t, "title: is required", verr.Error())
}
