// Package grains exposes the device facts used to select a compiler platform.
package grains

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/netgrid-labs/netacl/pkg/util"
)

// Facts are the device facts needed to pick a compiler platform.
// All three fields are required; generation aborts when any is missing.
type Facts struct {
	Vendor string `json:"vendor"`
	OS     string `json:"os"`
	Model  string `json:"model"`
}

// Validate returns an error naming every missing fact.
func (f Facts) Validate() error {
	var missing []string
	if f.Vendor == "" {
		missing = append(missing, "vendor")
	}
	if f.OS == "" {
		missing = append(missing, "os")
	}
	if f.Model == "" {
		missing = append(missing, "model")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", util.ErrMissingFact, strings.Join(missing, ", "))
	}
	return nil
}

// Provider supplies device facts for the device an operation targets.
type Provider interface {
	Facts(ctx context.Context) (Facts, error)
}

// Static is a Provider returning fixed facts.
type Static struct {
	F Facts
}

// Facts returns the fixed facts after validating them.
func (s Static) Facts(ctx context.Context) (Facts, error) {
	if err := s.F.Validate(); err != nil {
		return Facts{}, err
	}
	return s.F, nil
}

// FileProvider reads facts from a JSON file, e.g. a cached grains dump.
type FileProvider struct {
	Path string
}

// Facts reads and validates the facts file.
func (p FileProvider) Facts(ctx context.Context) (Facts, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return Facts{}, fmt.Errorf("reading facts %s: %w", p.Path, err)
	}

	var f Facts
	if err := json.Unmarshal(data, &f); err != nil {
		return Facts{}, fmt.Errorf("parsing facts %s: %w", p.Path, err)
	}
	if err := f.Validate(); err != nil {
		return Facts{}, fmt.Errorf("facts %s: %w", p.Path, err)
	}
	return f, nil
}
