package llm

import "context"

// DisabledClient stands in when no model is configured. It answers every
// call with an empty result and no error; callers treat the empty reply
// as "service unavailable".
type DisabledClient struct {
	Reason string
}

func (d *DisabledClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	return &GenerateResponseResult{}, nil
}

func (d *DisabledClient) GetModel() string {
	return ""
}

func (d *DisabledClient) GetEndpoint() string {
	return ""
}

// IsDisabled reports whether c is a DisabledClient, looking through
// InstrumentedClient.
func IsDisabled(c LLMClient) bool {
	if ic, ok := c.(*InstrumentedClient); ok {
		c = ic.inner
	}
	_, ok := c.(*DisabledClient)
	return ok
}
