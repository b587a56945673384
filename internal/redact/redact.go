// Package redact scrubs API tokens and similar secrets from text before it is
// logged or written to disk.
package redact

import "sort"

// RedactionConfig controls what the Redactor redacts.
type RedactionConfig struct {
	Enabled        bool     `yaml:"enabled"`
	RedactIPs      string   `yaml:"redact_ips"` // "private_only" | "all" | "none"
	CustomPatterns []string `yaml:"custom_patterns"`
	Placeholder    string   `yaml:"placeholder"`
}

// DefaultConfig returns a disabled RedactionConfig; callers opt in with Enabled.
func DefaultConfig() RedactionConfig {
	return RedactionConfig{
		Enabled:     false,
		RedactIPs:   "none",
		Placeholder: "[REDACTED]",
	}
}

// Redactor applies an ordered set of rules to strings.
type Redactor struct {
	rules       []rule
	placeholder string
}

// New compiles a Redactor. A disabled config yields a passthrough Redactor.
func New(cfg RedactionConfig) *Redactor {
	placeholder := cfg.Placeholder
	if placeholder == "" {
		placeholder = "[REDACTED]"
	}
	if !cfg.Enabled {
		return &Redactor{placeholder: placeholder}
	}

	var rules []rule
	rules = append(rules, builtinRules(placeholder)...)
	rules = append(rules, ipRules(cfg.RedactIPs, placeholder)...)
	rules = append(rules, customRules(cfg.CustomPatterns, placeholder)...)

	sortRules(rules)
	return &Redactor{rules: rules, placeholder: placeholder}
}

func sortRules(rules []rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].priority < rules[j].priority
	})
}

// Literal returns a Redactor that additionally hides the given values verbatim,
// e.g. the configured API token, whatever shape they have.
func (r *Redactor) Literal(values ...string) *Redactor {
	out := &Redactor{placeholder: r.placeholder, rules: append([]rule(nil), r.rules...)}
	for _, v := range values {
		if len(v) < 4 {
			continue
		}
		out.rules = append(out.rules, literalRule(v, r.placeholder))
	}
	sortRules(out.rules)
	return out
}

// Redact applies all rules in priority order. A nil Redactor returns input unchanged.
func (r *Redactor) Redact(input string) string {
	if r == nil || len(r.rules) == 0 {
		return input
	}
	result := input
	for _, rule := range r.rules {
		result = rule.pattern.ReplaceAllStringFunc(result, rule.replace)
	}
	return result
}
