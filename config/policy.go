package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/cache"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/templates"
)

// PolicyFile is the YAML policy document.
//
//	cache:
//	  short_ttl: 24h
//	  extended_ttl: 720h
//	  completed_kinds: [completed, assessment_complete]
//	  skip_kinds: [chat]
//	catalog:
//	  phases:
//	    - {id: 3, title: Prompt Basics, level: beginner, focus: prompting, content_type: practical}
type PolicyFile struct {
	Cache   CachePolicy            `yaml:"cache"`
	Catalog *templates.CatalogSpec `yaml:"catalog"`
}

// CachePolicy overrides fields of cache.Policy. Unset fields keep their
// defaults; an explicit empty list clears the default list.
type CachePolicy struct {
	ShortTTL       *time.Duration `yaml:"short_ttl"`
	ExtendedTTL    *time.Duration `yaml:"extended_ttl"`
	MaxTTL         *time.Duration `yaml:"max_ttl"`
	CompletedKinds *[]string      `yaml:"completed_kinds"`
	SkipKinds      *[]string      `yaml:"skip_kinds"`
}

// Apply overlays c on base.
func (c CachePolicy) Apply(base cache.Policy) cache.Policy {
	if c.ShortTTL != nil {
		base.ShortTTL = *c.ShortTTL
	}
	if c.ExtendedTTL != nil {
		base.ExtendedTTL = *c.ExtendedTTL
	}
	if c.MaxTTL != nil {
		base.MaxTTL = *c.MaxTTL
	}
	if c.CompletedKinds != nil {
		base.CompletedKinds = append([]string(nil), (*c.CompletedKinds)...)
	}
	if c.SkipKinds != nil {
		base.SkipKinds = append([]string(nil), (*c.SkipKinds)...)
	}
	return base
}

// ReadPolicyFile reads and parses the policy file at path.
func ReadPolicyFile(path string) (*PolicyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPolicyFile, err)
	}
	return ParsePolicy(bytes.NewReader(data))
}

// ParsePolicy decodes a policy document. Unknown keys are rejected, and
// the catalog section is checked by applying it to a scratch catalog.
func ParsePolicy(r io.Reader) (*PolicyFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var pf PolicyFile
	if err := dec.Decode(&pf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrPolicyFile, err)
	}
	for _, d := range []*time.Duration{pf.Cache.ShortTTL, pf.Cache.ExtendedTTL, pf.Cache.MaxTTL} {
		if d != nil && *d < 0 {
			return nil, fmt.Errorf("%w: negative ttl %s", ErrPolicyFile, *d)
		}
	}
	if pf.Catalog != nil {
		if err := templates.NewCatalog().Apply(*pf.Catalog); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPolicyFile, err)
		}
	}
	return &pf, nil
}
