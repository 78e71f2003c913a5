// Package pillar provides the sources of ACL intent: a filesystem store of
// YAML pillar files laid out per environment, and a Redis-backed pillar
// cache keyed by minion id. Both return the policy in compiler order.
package pillar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/netgrid-labs/netacl/pkg/netacl"
	"github.com/netgrid-labs/netacl/pkg/util"
)

// DefaultEnvironment is used when neither pillarenv nor saltenv is set.
const DefaultEnvironment = "base"

// DefaultRoot is the conventional pillar tree location.
const DefaultRoot = "/srv/pillar"

// Store reads pillar data from a directory tree: one subdirectory per
// environment, each holding *.sls and *.yaml files. Files are read in
// lexical order and merged at the top level; a later file replaces an
// earlier file's value for the same key.
type Store struct {
	Root string
}

// NewStore returns a Store rooted at dir, or at DefaultRoot when empty.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultRoot
	}
	return &Store{Root: dir}
}

// Policy returns the filters under the pillar key for the resolved
// environment. A missing environment directory or key yields an empty
// policy rather than an error.
func (s *Store) Policy(ctx context.Context, opts netacl.PillarOptions) ([]netacl.Filter, error) {
	doc, err := s.load(opts)
	if err != nil {
		return nil, err
	}
	return filtersFromTree(doc[pillarKey(opts)])
}

// Filter returns the named filter; a zero Filter when the pillar does not
// have it.
func (s *Store) Filter(ctx context.Context, name string, opts netacl.PillarOptions) (netacl.Filter, error) {
	return lookupFilter(s.Policy(ctx, opts))(name)
}

// Term returns the fields of one term; nil when the pillar does not have it.
func (s *Store) Term(ctx context.Context, filterName, termName string, opts netacl.PillarOptions) (netacl.TermFields, error) {
	return lookupTerm(s.Policy(ctx, opts))(filterName, termName)
}

func (s *Store) load(opts netacl.PillarOptions) (map[string]any, error) {
	dir := filepath.Join(s.Root, environment(opts))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			util.Debugf("pillar: no directory %s", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("read pillar directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".sls" || ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	doc := make(map[string]any)
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read pillar file %s: %w", path, err)
		}
		var top map[string]any
		if err := yaml.Unmarshal(data, &top); err != nil {
			return nil, fmt.Errorf("parse pillar file %s: %w", path, err)
		}
		for k, v := range top {
			doc[k] = v
		}
	}
	return doc, nil
}

func environment(opts netacl.PillarOptions) string {
	if env := opts.Environment(); env != "" {
		return env
	}
	return DefaultEnvironment
}

func pillarKey(opts netacl.PillarOptions) string {
	if opts.Key != "" {
		return opts.Key
	}
	return netacl.DefaultPillarKey
}

// lookupFilter and lookupTerm share the missing-is-zero behavior between
// the file and Redis sources.
func lookupFilter(filters []netacl.Filter, err error) func(string) (netacl.Filter, error) {
	return func(name string) (netacl.Filter, error) {
		if err != nil {
			return netacl.Filter{}, err
		}
		for _, f := range filters {
			if f.Name == name {
				return f, nil
			}
		}
		return netacl.Filter{Name: name}, nil
	}
}

func lookupTerm(filters []netacl.Filter, err error) func(string, string) (netacl.TermFields, error) {
	return func(filterName, termName string) (netacl.TermFields, error) {
		if err != nil {
			return nil, err
		}
		for _, f := range filters {
			if f.Name != filterName {
				continue
			}
			if t, ok := f.Term(termName); ok {
				return t.Fields, nil
			}
		}
		return nil, nil
	}
}

// Environments lists the environment subdirectories under the pillar root.
func (s *Store) Environments() ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("read pillar root %s: %w", s.Root, err)
	}
	var envs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			envs = append(envs, e.Name())
		}
	}
	return envs, nil
}
