package salt

import (
	"context"

	"github.com/netgrid-labs/netacl/pkg/netacl"
)

// NetApplier loads generated configuration on the device through the
// minion's net.load_config. Test, commit and debug pass through untouched;
// the device layer owns candidate handling and rollback.
type NetApplier struct {
	Caller *Caller
}

var _ netacl.Applier = (*NetApplier)(nil)

// LoadConfig runs net.load_config and returns its result verbatim.
func (a *NetApplier) LoadConfig(ctx context.Context, req netacl.LoadRequest) (*netacl.ApplyResult, error) {
	var res netacl.ApplyResult
	if err := a.Caller.Call(ctx, &res, "net.load_config", loadConfigArgs(req)...); err != nil {
		return nil, err
	}
	return &res, nil
}

func loadConfigArgs(req netacl.LoadRequest) []string {
	return []string{
		"text=" + req.Text,
		"test=" + pyBool(req.Test),
		"commit=" + pyBool(req.Commit),
		"debug=" + pyBool(req.Debug),
	}
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
