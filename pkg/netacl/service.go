package netacl

import (
	"context"
	"fmt"

	"github.com/netgrid-labs/netacl/pkg/grains"
	"github.com/netgrid-labs/netacl/pkg/util"
)

// Service composes pillar-sourced ACL intent with caller overrides,
// compiles it for the device's platform, and loads the result through the
// device layer. It holds no state of its own: every call is independent
// and the collaborators own all I/O.
type Service struct {
	grains   grains.Provider
	compiler Compiler
	pillar   PillarSource
	applier  Applier
	services *ServiceRegistry // lazily loaded from DefaultServicesPath
}

// New builds a Service. Every collaborator is required; a nil one is
// reported once, here, rather than on each call.
func New(g grains.Provider, c Compiler, p PillarSource, a Applier) (*Service, error) {
	switch {
	case g == nil:
		return nil, fmt.Errorf("grains provider: %w", util.ErrUnavailable)
	case c == nil:
		return nil, fmt.Errorf("compiler: %w", util.ErrUnavailable)
	case p == nil:
		return nil, fmt.Errorf("pillar source: %w", util.ErrUnavailable)
	case a == nil:
		return nil, fmt.Errorf("applier: %w", util.ErrUnavailable)
	}
	return &Service{grains: g, compiler: c, pillar: p, applier: a}, nil
}

// SetServiceRegistry overrides the services(5) registry used to resolve
// source_service/destination_service names.
func (s *Service) SetServiceRegistry(r *ServiceRegistry) {
	s.services = r
}

// LoadTermConfig generates and loads the configuration of a single policy
// term. Caller fields win over pillar fields; the merged term is compiled
// for the resolved platform and handed to the device layer.
func (s *Service) LoadTermConfig(ctx context.Context, filterName, termName string, fields TermFields, opts TermLoadOptions) (*ApplyResult, error) {
	platform, err := s.resolvePlatform(ctx)
	if err != nil {
		return nil, err
	}

	fields = fields.Clone()
	if fields == nil {
		fields = TermFields{}
	}
	if opts.SourceService != "" || opts.DestinationService != "" {
		registry, err := s.serviceRegistry()
		if err != nil {
			return nil, err
		}
		if opts.SourceService != "" {
			if err := resolveService(fields, registry, opts.SourceService, "source_port"); err != nil {
				return nil, err
			}
		}
		if opts.DestinationService != "" {
			if err := resolveService(fields, registry, opts.DestinationService, "destination_port"); err != nil {
				return nil, err
			}
		}
	}
	fields.WarnUnknownKeywords()

	if opts.MergePillar {
		pillarFields, err := s.pillar.Term(ctx, filterName, termName, opts.Pillar.withDefaults())
		if err != nil {
			return nil, err
		}
		fields = MergeTermFields(fields, pillarFields, true)
	}

	policy := Policy{Filters: []Filter{{
		Name:    filterName,
		Options: opts.FilterOptions,
		Terms:   []Term{{Name: termName, Fields: fields}},
	}}}

	return s.compileAndLoad(ctx, "load-term-config", platform, policy, opts.Revision, opts.Apply)
}

// LoadFilterConfig generates and loads the configuration of a policy
// filter. Term order in the loaded config follows the merge exactly:
// pillar terms keep their position and caller-only terms go first unless
// Prepend is cleared.
func (s *Service) LoadFilterConfig(ctx context.Context, filterName string, opts FilterLoadOptions) (*ApplyResult, error) {
	platform, err := s.resolvePlatform(ctx)
	if err != nil {
		return nil, err
	}

	filter := Filter{Name: filterName, Options: opts.Options, Terms: opts.Terms}
	if opts.MergePillar {
		pillarFilter, err := s.pillar.Filter(ctx, filterName, opts.Pillar.withDefaults())
		if err != nil {
			return nil, err
		}
		filter = MergeFilter(filter, pillarFilter, opts.Prepend, opts.OnlyLowerMerge)
	}

	policy := Policy{Filters: []Filter{filter}}
	return s.compileAndLoad(ctx, "load-filter-config", platform, policy, opts.Revision, opts.Apply)
}

// LoadPolicyConfig generates and loads the whole policy. Filter order
// follows the merge; an empty merged policy is compiled and loaded as-is
// rather than rejected, so an explicitly empty policy clears intent.
func (s *Service) LoadPolicyConfig(ctx context.Context, opts PolicyLoadOptions) (*ApplyResult, error) {
	platform, err := s.resolvePlatform(ctx)
	if err != nil {
		return nil, err
	}

	filters := opts.Filters
	if opts.MergePillar {
		pillarFilters, err := s.pillar.Policy(ctx, opts.Pillar.withDefaults())
		if err != nil {
			return nil, err
		}
		filters = MergeFilters(filters, pillarFilters, opts.Prepend, opts.OnlyLowerMerge)
	}

	policy := Policy{Filters: filters}
	return s.compileAndLoad(ctx, "load-policy-config", platform, policy, opts.Revision, opts.Apply)
}

// GetFilterPillar returns the merged pillar data for the named filter.
// Pure read: neither the compiler nor the device layer is touched.
func (s *Service) GetFilterPillar(ctx context.Context, filterName string, opts PillarOptions) (Filter, error) {
	return s.pillar.Filter(ctx, filterName, opts.withDefaults())
}

// GetTermPillar returns the pillar fields of one term under the named
// filter. Pure read, like GetFilterPillar.
func (s *Service) GetTermPillar(ctx context.Context, filterName, termName string, opts PillarOptions) (TermFields, error) {
	return s.pillar.Term(ctx, filterName, termName, opts.withDefaults())
}

func (s *Service) resolvePlatform(ctx context.Context) (string, error) {
	facts, err := s.grains.Facts(ctx)
	if err != nil {
		return "", err
	}
	return ResolvePlatform(facts), nil
}

func (s *Service) compileAndLoad(ctx context.Context, operation, platform string, policy Policy, rev Revision, apply ApplyOptions) (*ApplyResult, error) {
	log := util.WithOperation(operation).WithField("platform", platform)

	text, err := s.compiler.Compile(ctx, CompileRequest{
		Platform: platform,
		Policy:   policy,
		Revision: rev,
	})
	if err != nil {
		return nil, err
	}
	log.Debugf("compiled %d filter(s) into %d bytes", len(policy.Filters), len(text))

	result, err := s.applier.LoadConfig(ctx, LoadRequest{
		Text:   text,
		Test:   apply.Test,
		Commit: apply.Commit,
		Debug:  apply.Debug,
	})
	if err != nil {
		return nil, err
	}
	if apply.Test {
		log.Infof("dry run: changes computed and discarded")
	}
	return result, nil
}

func (s *Service) serviceRegistry() (*ServiceRegistry, error) {
	if s.services != nil {
		return s.services, nil
	}
	registry, err := LoadServiceRegistry(DefaultServicesPath)
	if err != nil {
		return nil, err
	}
	s.services = registry
	return registry, nil
}
