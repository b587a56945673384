package redact

import "regexp"

type rule struct {
	name     string
	priority int
	pattern  *regexp.Regexp
	replace  func(match string) string
}

var (
	// Dynatrace access tokens: dt0c01.<24 chars>.<64 chars>, also platform (dt0s..) tokens.
	dynatraceTokenRe = regexp.MustCompile(`dt0[a-z]\d{2}\.[A-Za-z0-9]{4,}\.[A-Za-z0-9]{8,}`)

	// Authorization header values using the Api-Token or Bearer schemes.
	authSchemeRe = regexp.MustCompile(`(?i)\b(Api-Token|Bearer)\s+[A-Za-z0-9\-._~+/]+=*`)

	// key=value or key: value where the key names a credential.
	structuredSecretRe = regexp.MustCompile(
		`(?i)([\w]*(?:password|secret|token|api[_-]?key))\s*([=:])\s*([^\s"']+)`,
	)

	privateIPRe = regexp.MustCompile(
		`\b(?:10\.\d{1,3}\.\d{1,3}\.\d{1,3}|172\.(?:1[6-9]|2\d|3[01])\.\d{1,3}\.\d{1,3}|192\.168\.\d{1,3}\.\d{1,3})\b`,
	)
	allIPRe = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
)

func fixed(placeholder string) func(string) string {
	return func(string) string { return placeholder }
}

func builtinRules(placeholder string) []rule {
	return []rule{
		{
			name:     "dynatrace_token",
			priority: 10,
			pattern:  dynatraceTokenRe,
			replace:  fixed(placeholder),
		},
		{
			name:     "auth_scheme",
			priority: 20,
			pattern:  authSchemeRe,
			replace: func(match string) string {
				// Keep the scheme so the log still says which header was involved.
				loc := authSchemeRe.FindStringSubmatchIndex(match)
				if loc == nil {
					return placeholder
				}
				return match[loc[2]:loc[3]] + " " + placeholder
			},
		},
		{
			name:     "structured_secret",
			priority: 30,
			pattern:  structuredSecretRe,
			replace: func(match string) string {
				loc := structuredSecretRe.FindStringSubmatchIndex(match)
				if loc == nil {
					return placeholder
				}
				if match[loc[6]:loc[7]] == placeholder {
					return match
				}
				return match[:loc[6]] + placeholder
			},
		},
	}
}

// ipRules returns IP redaction rules for mode "private_only" or "all"; any other
// mode disables IP redaction.
func ipRules(mode, placeholder string) []rule {
	switch mode {
	case "private_only":
		return []rule{{name: "private_ip", priority: 80, pattern: privateIPRe, replace: fixed(placeholder)}}
	case "all":
		return []rule{{name: "all_ip", priority: 80, pattern: allIPRe, replace: fixed(placeholder)}}
	default:
		return nil
	}
}

// customRules compiles user patterns; invalid ones are skipped.
func customRules(patterns []string, placeholder string) []rule {
	var rules []rule
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		rules = append(rules, rule{
			name:     "custom_" + p,
			priority: 90 + i,
			pattern:  re,
			replace:  fixed(placeholder),
		})
	}
	return rules
}

func literalRule(value, placeholder string) rule {
	return rule{
		name:     "literal",
		priority: 0,
		pattern:  regexp.MustCompile(regexp.QuoteMeta(value)),
		replace:  fixed(placeholder),
	}
}
