// Package netacl generates and loads ACL (firewall) configuration on
// network devices. Policy compilation is delegated to an external compiler
// and configuration loading to the host's device layer; this package
// resolves the compiler platform from device facts, merges pillar-sourced
// ACL intent with caller overrides, and dispatches the generated text.
package netacl

// DefaultPillarKey is the root pillar key holding the ACL policy.
const DefaultPillarKey = "acl"

// DefaultDateFormat is the layout for the revision date comment.
const DefaultDateFormat = "2006/01/02"

// Term is one named match-plus-action entry in a filter.
type Term struct {
	Name   string
	Fields TermFields
}

// Filter is a named, ordered list of terms plus platform-specific header
// options. Term order is the evaluation order on the device.
type Filter struct {
	Name    string
	Options []string
	Terms   []Term
}

// IsZero reports whether the filter carries no data beyond its name.
func (f Filter) IsZero() bool {
	return len(f.Options) == 0 && len(f.Terms) == 0
}

// Term returns the named term and whether it exists.
func (f Filter) Term(name string) (Term, bool) {
	for _, t := range f.Terms {
		if t.Name == name {
			return t, true
		}
	}
	return Term{}, false
}

// Policy is an ordered list of filters; filter order is preserved in the
// generated configuration.
type Policy struct {
	Filters []Filter
}

// Filter returns the named filter and whether it exists.
func (p Policy) Filter(name string) (Filter, bool) {
	for _, f := range p.Filters {
		if f.Name == name {
			return f, true
		}
	}
	return Filter{}, false
}

// Revision is cosmetic metadata embedded as a comment in generated config.
type Revision struct {
	ID         string
	No         int // 0 means unset
	ShowDate   bool
	DateFormat string
}

// DefaultRevision shows the generation date in the default layout.
func DefaultRevision() Revision {
	return Revision{ShowDate: true, DateFormat: DefaultDateFormat}
}

// PillarOptions select which pillar data participates in generation.
type PillarOptions struct {
	// Key is the root pillar key. Defaults to DefaultPillarKey.
	Key string
	// Pillarenv selects the pillar environment.
	Pillarenv string
	// Saltenv is honored as the environment only when Pillarenv is unset,
	// mirroring the minion's pillarenv_from_saltenv behavior.
	Saltenv string
}

func (o PillarOptions) withDefaults() PillarOptions {
	if o.Key == "" {
		o.Key = DefaultPillarKey
	}
	return o
}

// Environment resolves the effective pillar environment ("" means default).
func (o PillarOptions) Environment() string {
	if o.Pillarenv != "" {
		return o.Pillarenv
	}
	return o.Saltenv
}

// ApplyOptions are pass-through flags for the device apply call.
type ApplyOptions struct {
	// Test computes and returns the diff, then discards the changes.
	Test bool
	// Commit commits the loaded changes on the device.
	Commit bool
	// Debug includes the raw loaded configuration in the result.
	Debug bool
}

// ApplyResult is the device layer's load_config result, returned verbatim.
type ApplyResult struct {
	Result            bool   `json:"result"`
	Comment           string `json:"comment,omitempty"`
	AlreadyConfigured bool   `json:"already_configured"`
	Diff              string `json:"diff,omitempty"`
	// LoadedConfig is present only when Debug was requested.
	LoadedConfig string `json:"loaded_config,omitempty"`
}

// TermLoadOptions are the inputs for LoadTermConfig beyond the term itself.
type TermLoadOptions struct {
	FilterOptions []string
	Pillar        PillarOptions
	MergePillar   bool
	Revision      Revision
	Apply         ApplyOptions

	// SourceService and DestinationService name a service from the host's
	// services(5) registry; they expand to port and protocol fields.
	SourceService      string
	DestinationService string
}

// DefaultTermLoadOptions mirrors the documented call defaults:
// pillar merge on, revision date shown, commit on.
func DefaultTermLoadOptions() TermLoadOptions {
	return TermLoadOptions{
		MergePillar: true,
		Revision:    DefaultRevision(),
		Apply:       ApplyOptions{Commit: true},
	}
}

// FilterLoadOptions are the inputs for LoadFilterConfig.
type FilterLoadOptions struct {
	Options []string
	Terms   []Term
	// Prepend lists new (caller-only) terms before the pillar's terms;
	// terms present in the pillar keep their pillar position.
	Prepend        bool
	Pillar         PillarOptions
	MergePillar    bool
	OnlyLowerMerge bool
	Revision       Revision
	Apply          ApplyOptions
}

// DefaultFilterLoadOptions mirrors the documented call defaults.
func DefaultFilterLoadOptions() FilterLoadOptions {
	return FilterLoadOptions{
		Prepend:     true,
		MergePillar: true,
		Revision:    DefaultRevision(),
		Apply:       ApplyOptions{Commit: true},
	}
}

// PolicyLoadOptions are the inputs for LoadPolicyConfig.
type PolicyLoadOptions struct {
	Filters        []Filter
	Prepend        bool
	Pillar         PillarOptions
	MergePillar    bool
	OnlyLowerMerge bool
	Revision       Revision
	Apply          ApplyOptions
}

// DefaultPolicyLoadOptions mirrors the documented call defaults.
func DefaultPolicyLoadOptions() PolicyLoadOptions {
	return PolicyLoadOptions{
		Prepend:     true,
		MergePillar: true,
		Revision:    DefaultRevision(),
		Apply:       ApplyOptions{Commit: true},
	}
}
