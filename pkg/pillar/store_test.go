package pillar

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/netgrid-labs/netacl/pkg/netacl"
)

func writePillarTree(t *testing.T, files map[string]string) *Store {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return NewStore(root)
}

func TestStorePolicy(t *testing.T) {
	store := writePillarTree(t, map[string]string{
		"base/acl.sls": `
acl:
  - edge-in:
      options: [inet]
      terms:
        - allow-ssh:
            destination_port: 22
            protocol: tcp
            action: accept
`,
	})

	filters, err := store.Policy(context.Background(), netacl.PillarOptions{})
	if err != nil {
		t.Fatalf("Policy() error: %v", err)
	}
	if len(filters) != 1 || filters[0].Name != "edge-in" {
		t.Fatalf("filters = %+v", filters)
	}
	if len(filters[0].Terms) != 1 || filters[0].Terms[0].Name != "allow-ssh" {
		t.Errorf("terms = %+v", filters[0].Terms)
	}
}

func TestStoreLaterFileWins(t *testing.T) {
	store := writePillarTree(t, map[string]string{
		"base/10-acl.sls": `
acl:
  - edge-in:
      terms:
        - old: {action: reject}
`,
		"base/20-acl.sls": `
acl:
  - edge-in:
      terms:
        - new: {action: accept}
`,
	})

	filters, err := store.Policy(context.Background(), netacl.PillarOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(filters) != 1 || filters[0].Terms[0].Name != "new" {
		t.Errorf("later file should replace the key, got %+v", filters)
	}
}

func TestStoreEnvironmentResolution(t *testing.T) {
	store := writePillarTree(t, map[string]string{
		"base/acl.sls": "acl:\n  - from-base: {terms: []}\n",
		"prod/acl.sls": "acl:\n  - from-prod: {terms: []}\n",
	})

	tests := []struct {
		name string
		opts netacl.PillarOptions
		want string
	}{
		{"default is base", netacl.PillarOptions{}, "from-base"},
		{"pillarenv selects", netacl.PillarOptions{Pillarenv: "prod"}, "from-prod"},
		{"saltenv fallback", netacl.PillarOptions{Saltenv: "prod"}, "from-prod"},
		{"pillarenv wins over saltenv", netacl.PillarOptions{Pillarenv: "base", Saltenv: "prod"}, "from-base"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filters, err := store.Policy(context.Background(), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(filters) != 1 || filters[0].Name != tt.want {
				t.Errorf("filters = %+v, want one filter %q", filters, tt.want)
			}
		})
	}
}

func TestStoreCustomPillarKey(t *testing.T) {
	store := writePillarTree(t, map[string]string{
		"base/acl.sls": "firewall:\n  - fw-in: {terms: []}\nacl:\n  - default-key: {terms: []}\n",
	})

	filters, err := store.Policy(context.Background(), netacl.PillarOptions{Key: "firewall"})
	if err != nil {
		t.Fatal(err)
	}
	if len(filters) != 1 || filters[0].Name != "fw-in" {
		t.Errorf("custom key filters = %+v", filters)
	}
}

func TestStoreMissingIsZero(t *testing.T) {
	store := writePillarTree(t, map[string]string{
		"base/acl.sls": "acl:\n  - edge-in:\n      terms:\n        - t1: {action: accept}\n",
	})
	ctx := context.Background()

	filters, err := store.Policy(ctx, netacl.PillarOptions{Pillarenv: "nosuchenv"})
	if err != nil || filters != nil {
		t.Errorf("missing env = %v, %v; want nil, nil", filters, err)
	}

	flt, err := store.Filter(ctx, "nosuch", netacl.PillarOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !flt.IsZero() {
		t.Errorf("missing filter should be zero, got %+v", flt)
	}

	fields, err := store.Term(ctx, "edge-in", "nosuch", netacl.PillarOptions{})
	if err != nil || fields != nil {
		t.Errorf("missing term = %v, %v; want nil, nil", fields, err)
	}

	fields, err = store.Term(ctx, "edge-in", "t1", netacl.PillarOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if fields["action"].Strings()[0] != "accept" {
		t.Errorf("existing term = %v", fields)
	}
}

func TestStoreSkipsUnrelatedFiles(t *testing.T) {
	store := writePillarTree(t, map[string]string{
		"base/acl.sls":  "acl:\n  - edge-in: {terms: []}\n",
		"base/top.conf": "not yaml at all {{{",
	})
	filters, err := store.Policy(context.Background(), netacl.PillarOptions{})
	if err != nil {
		t.Fatalf("non-pillar files should be ignored: %v", err)
	}
	if len(filters) != 1 {
		t.Errorf("filters = %+v", filters)
	}
}

func TestStoreEnvironments(t *testing.T) {
	store := writePillarTree(t, map[string]string{
		"base/acl.sls": "acl: []\n",
		"prod/acl.sls": "acl: []\n",
	})
	envs, err := store.Environments()
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 2 {
		t.Errorf("environments = %v", envs)
	}
}
