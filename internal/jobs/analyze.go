package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/saadk408/victry/internal/casing"
	"github.com/saadk408/victry/internal/db"
	"github.com/saadk408/victry/internal/llm"
	"github.com/saadk408/victry/internal/prompts"
	"github.com/saadk408/victry/internal/schemas"
	"github.com/saadk408/victry/internal/types"
)

const (
	analysisToolName    = "record_job_analysis"
	analysisTemperature = 0.2
	analysisMaxTokens   = 4096
)

// Analyze runs the AI analysis of a job description and stores it,
// replacing any previous analysis.
func (s *Service) Analyze(ctx context.Context, caller, id uuid.UUID) (*types.JobAnalysis, error) {
	if s.llm == nil {
		return nil, fmt.Errorf("job analysis is not configured")
	}

	var job *db.JobDescriptionRow
	err := s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		var err error
		job, err = s.store.GetJobDescription(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	req, err := buildAnalysisRequest(job)
	if err != nil {
		return nil, err
	}
	resp, err := s.llm.Generate(ctx, req, llm.TierStandard)
	if err != nil {
		return nil, err
	}
	analysis, err := parseAnalysis(resp, s.llm.Provider())
	if err != nil {
		return nil, err
	}

	row := &db.JobAnalysisRow{}
	if err := casing.Default.Encode(analysis, row); err != nil {
		return nil, fmt.Errorf("failed to encode job analysis: %w", err)
	}
	row.ID = uuid.Nil
	row.JobDescriptionID = id

	err = s.store.AsUser(ctx, caller, func(ctx context.Context) error {
		return s.store.UpsertJobAnalysis(ctx, row)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("job description analysed",
		"job_description_id", id,
		"keywords", len(analysis.Keywords),
		"requirements", len(analysis.Requirements),
	)
	return decodeAnalysis(row)
}

func buildAnalysisRequest(job *db.JobDescriptionRow) (*llm.Request, error) {
	schema, err := schemas.Load(schemas.JobAnalysis)
	if err != nil {
		return nil, err
	}
	system, err := prompts.Get(prompts.Analysis, "system")
	if err != nil {
		return nil, err
	}
	company := ""
	if job.Company != nil {
		company = *job.Company
	}
	user, err := prompts.Render(prompts.Analysis, "user", map[string]string{
		"JobTitle":   job.Title,
		"Company":    company,
		"JobContent": job.Content,
	})
	if err != nil {
		return nil, err
	}

	return &llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: user}},
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
		Tool: &llm.Tool{
			Name:        analysisToolName,
			Description: "Record the structured analysis of the job description.",
			Schema:      schema,
		},
	}, nil
}

func parseAnalysis(resp *llm.Response, provider llm.Provider) (*types.JobAnalysis, error) {
	raw, err := resp.JSON()
	if err != nil {
		return nil, llm.MalformedOutput(provider, "analysis response has no JSON payload")
	}
	if err := schemas.Validate(schemas.JobAnalysis, raw); err != nil {
		return nil, &llm.Error{Kind: llm.KindMalformedOutput, Provider: provider, Message: "analysis response does not match schema", Cause: err}
	}

	var a types.JobAnalysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, &llm.Error{Kind: llm.KindMalformedOutput, Provider: provider, Message: "analysis response cannot be decoded", Cause: err}
	}
	return &a, nil
}
