package salt

import (
	"context"

	"github.com/netgrid-labs/netacl/pkg/grains"
)

// GrainsProvider reads device facts from the minion's grains.
type GrainsProvider struct {
	Caller *Caller
}

var _ grains.Provider = (*GrainsProvider)(nil)

// Facts fetches the vendor, os and model grains and validates them.
func (p *GrainsProvider) Facts(ctx context.Context) (grains.Facts, error) {
	var facts grains.Facts
	if err := p.Caller.Call(ctx, &facts, "grains.item", "vendor", "os", "model"); err != nil {
		return grains.Facts{}, err
	}
	if err := facts.Validate(); err != nil {
		return grains.Facts{}, err
	}
	return facts, nil
}
