package grains

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/netgrid-labs/netacl/pkg/util"
)

func TestFactsValidate(t *testing.T) {
	tests := []struct {
		name    string
		facts   Facts
		missing string
	}{
		{"complete", Facts{Vendor: "juniper", OS: "junos", Model: "mx480"}, ""},
		{"no vendor", Facts{OS: "junos", Model: "mx480"}, "vendor"},
		{"no os", Facts{Vendor: "juniper", Model: "mx480"}, "os"},
		{"no model", Facts{Vendor: "juniper", OS: "junos"}, "model"},
		{"all missing", Facts{}, "vendor, os, model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.facts.Validate()
			if tt.missing == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !errors.Is(err, util.ErrMissingFact) {
				t.Errorf("error should unwrap to ErrMissingFact, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.missing) {
				t.Errorf("error %q should name %q", err.Error(), tt.missing)
			}
		})
	}
}

func TestStaticProvider(t *testing.T) {
	p := Static{F: Facts{Vendor: "cisco", OS: "iosxr", Model: "ncs5500"}}
	facts, err := p.Facts(context.Background())
	if err != nil {
		t.Fatalf("Facts() error: %v", err)
	}
	if facts.Vendor != "cisco" {
		t.Errorf("Vendor = %q, want cisco", facts.Vendor)
	}

	if _, err := (Static{F: Facts{Vendor: "cisco"}}).Facts(context.Background()); err == nil {
		t.Error("incomplete static facts should fail validation")
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facts.json")
	if err := os.WriteFile(path, []byte(`{"vendor":"Arista","os":"eos","model":"7050"}`), 0644); err != nil {
		t.Fatal(err)
	}

	facts, err := FileProvider{Path: path}.Facts(context.Background())
	if err != nil {
		t.Fatalf("Facts() error: %v", err)
	}
	if facts.Vendor != "Arista" || facts.OS != "eos" || facts.Model != "7050" {
		t.Errorf("unexpected facts: %+v", facts)
	}

	if _, err := (FileProvider{Path: filepath.Join(dir, "missing.json")}).Facts(context.Background()); err == nil {
		t.Error("missing file should return an error")
	}

	bad := filepath.Join(dir, "partial.json")
	os.WriteFile(bad, []byte(`{"vendor":"Arista"}`), 0644)
	if _, err := (FileProvider{Path: bad}).Facts(context.Background()); !errors.Is(err, util.ErrMissingFact) {
		t.Errorf("partial facts should unwrap to ErrMissingFact, got %v", err)
	}
}
