package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func enabled() *Redactor {
	cfg := DefaultConfig()
	cfg.Enabled = true
	return New(cfg)
}

func TestRedactDynatraceToken(t *testing.T) {
	input := "token dt0c01.ABCDEFGHIJKLMNOPQRSTUVWX.ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789abcdefghijklmnopqrstuvwxyz0123 rejected"
	result := enabled().Redact(input)

	assert.NotContains(t, result, "dt0c01.")
	assert.Equal(t, "token [REDACTED] rejected", result)
}

func TestRedactAuthorizationHeader(t *testing.T) {
	r := enabled()

	assert.Equal(t, "Authorization: Api-Token [REDACTED]", r.Redact("Authorization: Api-Token abc.def-123"))
	assert.Equal(t, "Bearer [REDACTED]", r.Redact("Bearer eyJhbGciOi.payload.sig"))
}

func TestRedactStructuredSecret(t *testing.T) {
	result := enabled().Redact("DYNATRACE_API_TOKEN=supersecretvalue other=keep")

	assert.Equal(t, "DYNATRACE_API_TOKEN=[REDACTED] other=keep", result)
}

func TestRedactDisabledPassthrough(t *testing.T) {
	r := New(DefaultConfig())
	input := "Api-Token abc123"
	assert.Equal(t, input, r.Redact(input))
}

func TestRedactNilRedactor(t *testing.T) {
	var r *Redactor
	assert.Equal(t, "unchanged", r.Redact("unchanged"))
}

func TestRedactLiteral(t *testing.T) {
	r := New(DefaultConfig()).Literal("odd-shaped-secret", "ab")

	assert.Equal(t, "got [REDACTED] back", r.Redact("got odd-shaped-secret back"))
	assert.Equal(t, "ab stays", r.Redact("ab stays"), "short literals are ignored")
}

func TestRedactLiteralRunsBeforePatterns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	r := New(cfg).Literal("dt0c01.ABCD1234.EFGH5678ijkl-tail")

	assert.Equal(t, "using [REDACTED] now", r.Redact("using dt0c01.ABCD1234.EFGH5678ijkl-tail now"))
	assert.Equal(t, "literal", r.rules[0].name)
}

func TestRedactIPModes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.RedactIPs = "private_only"
	r := New(cfg)
	assert.Equal(t, "[REDACTED] and 8.8.8.8", r.Redact("10.0.0.5 and 8.8.8.8"))

	cfg.RedactIPs = "all"
	r = New(cfg)
	assert.Equal(t, "[REDACTED] and [REDACTED]", r.Redact("10.0.0.5 and 8.8.8.8"))
}

func TestRedactCustomPatterns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.CustomPatterns = []string{`tenant-[a-z0-9]+`, `[invalid`}
	cfg.Placeholder = "***"
	r := New(cfg)

	assert.Equal(t, "host *** ok", r.Redact("host tenant-abc123 ok"))
}
