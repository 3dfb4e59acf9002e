package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/saadk408/victry/internal/llm"
)

// InstrumentLLM wraps c so that every call is timed and its token usage
// counted.
func (m *Metrics) InstrumentLLM(c llm.Client) llm.Client {
	return &instrumentedClient{Client: c, m: m}
}

type instrumentedClient struct {
	llm.Client
	m *Metrics
}

func (c *instrumentedClient) Generate(ctx context.Context, req *llm.Request, tier llm.ModelTier) (*llm.Response, error) {
	start := time.Now()
	resp, err := c.Client.Generate(ctx, req, tier)

	provider := string(c.Provider())
	c.m.llmDuration.WithLabelValues(provider, string(tier), outcome(err)).Observe(time.Since(start).Seconds())
	if resp != nil {
		c.m.llmTokens.WithLabelValues(provider, "input").Add(float64(resp.InputTokens))
		c.m.llmTokens.WithLabelValues(provider, "output").Add(float64(resp.OutputTokens))
	}
	return resp, err
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var e *llm.Error
	if errors.As(err, &e) {
		return string(e.Kind)
	}
	return "error"
}
