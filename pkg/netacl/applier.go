package netacl

import "context"

// LoadRequest carries generated configuration text to the device layer.
type LoadRequest struct {
	Text string
	// Test computes and returns the diff, then discards the changes.
	Test bool
	// Commit commits the loaded changes.
	Commit bool
	// Debug asks the device layer to echo the raw loaded config back.
	Debug bool
}

// Applier loads configuration text on the target device. Connection,
// diffing, commit and rollback are entirely the implementation's concern;
// its result and errors are returned to callers unmodified.
type Applier interface {
	LoadConfig(ctx context.Context, req LoadRequest) (*ApplyResult, error)
}
