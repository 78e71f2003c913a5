package netacl

import "context"

// CompileRequest carries a fully merged policy to the external compiler.
// Pillar merging has already happened; the compiler only generates text.
type CompileRequest struct {
	Platform string
	Policy   Policy
	Revision Revision
}

// Compiler generates device-native configuration text from a merged policy.
// Implementations wrap an external policy compiler; compilation errors
// (unknown platform, malformed field values) propagate to the caller as-is.
type Compiler interface {
	Compile(ctx context.Context, req CompileRequest) (string, error)
}

// PillarSource provides read access to the merged ACL pillar data.
// Lookups that find nothing return zero values, not errors.
type PillarSource interface {
	// Policy returns the full ordered filter list under the pillar key.
	Policy(ctx context.Context, opts PillarOptions) ([]Filter, error)
	// Filter returns the named filter's pillar data.
	Filter(ctx context.Context, name string, opts PillarOptions) (Filter, error)
	// Term returns one term's pillar fields within the named filter.
	Term(ctx context.Context, filterName, termName string, opts PillarOptions) (TermFields, error)
}
