package filter

// Policy decides filter vs. passthrough for a model id.
//
// Membership is exact and case-sensitive: "llama3.2:1b" and "llama3.2-1b" are
// distinct entries and every spelling variant a caller wants matched must be
// registered. Do not normalize separators or case here.
type Policy struct {
	allowed map[string]struct{}
}

// NewPolicy builds a policy from the configured allow-list.
func NewPolicy(models []string) *Policy {
	p := &Policy{allowed: make(map[string]struct{}, len(models))}
	for _, m := range models {
		p.allowed[m] = struct{}{}
	}
	return p
}

// ShouldFilter reports whether model is on the allow-list. Unknown models
// pass through.
func (p *Policy) ShouldFilter(model string) bool {
	_, ok := p.allowed[model]
	return ok
}

// Models returns the registered model ids (for startup logging).
func (p *Policy) Models() []string {
	out := make([]string, 0, len(p.allowed))
	for m := range p.allowed {
		out = append(out, m)
	}
	return out
}
