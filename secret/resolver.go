package secret

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const refPrefix = "secretref:"

var inlineRefPattern = regexp.MustCompile(`secretref:([^:\s]+):(\S+)`)

// Resolver expands and resolves configured values.
type Resolver struct {
	providers  map[string]Provider
	allowEmpty bool
}

// NewResolver creates a strict resolver: a reference resolving to an
// empty string is an error.
func NewResolver(providers ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// AllowEmpty disables the empty-value check.
func (r *Resolver) AllowEmpty() *Resolver {
	r.allowEmpty = true
	return r
}

// Resolve expands ${VAR} references in value and then resolves any
// secret references. A value without either is returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}
	if !strings.Contains(expanded, refPrefix) {
		return expanded, nil
	}

	if provider, ref, ok := ParseRef(expanded); ok {
		return r.lookup(ctx, provider, ref)
	}

	matches := inlineRefPattern.FindAllStringSubmatchIndex(expanded, -1)
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, redact(expanded))
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		v, err := r.lookup(ctx, expanded[m[2]:m[3]], expanded[m[4]:m[5]])
		if err != nil {
			return "", err
		}
		b.WriteString(expanded[last:m[0]])
		b.WriteString(v)
		last = m[1]
	}
	b.WriteString(expanded[last:])
	return b.String(), nil
}

// ResolveAll resolves each named field in place. Empty fields are skipped.
func (r *Resolver) ResolveAll(ctx context.Context, fields map[string]*string) error {
	for name, field := range fields {
		if field == nil || *field == "" {
			continue
		}
		v, err := r.Resolve(ctx, *field)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", name, err)
		}
		*field = v
	}
	return nil
}

// ParseRef splits a full secretref:<provider>:<ref> value.
func ParseRef(value string) (provider, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, refPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" || strings.ContainsAny(rest, " \t\n") {
		return "", "", false
	}
	return provider, ref, true
}

func (r *Resolver) lookup(ctx context.Context, provider, ref string) (string, error) {
	p, ok := r.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	v, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if v == "" && !r.allowEmpty {
		return "", fmt.Errorf("%w: %s:%s", ErrEmpty, provider, ref)
	}
	return v, nil
}

// redact keeps error messages free of anything that might be a secret.
func redact(s string) string {
	if len(s) <= 12 {
		return strings.Repeat("*", len(s))
	}
	return s[:10] + "..."
}
