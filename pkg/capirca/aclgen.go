package capirca

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/netgrid-labs/netacl/pkg/netacl"
	"github.com/netgrid-labs/netacl/pkg/util"
)

// DefaultBinary is the capirca compiler command.
const DefaultBinary = "aclgen"

// Aclgen compiles policies by shelling out to capirca's aclgen. Each call
// renders the policy into a scratch directory, runs the compiler against
// it, and returns the generated configuration text.
type Aclgen struct {
	// Binary is the compiler command. Defaults to DefaultBinary.
	Binary string
	// Definitions is the network/service definitions directory passed as
	// --definitions_directory when set.
	Definitions string
}

var _ netacl.Compiler = (*Aclgen)(nil)

// Compile renders req into a .pol file and runs aclgen on it.
func (a *Aclgen) Compile(ctx context.Context, req netacl.CompileRequest) (string, error) {
	binary := a.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	dir, err := os.MkdirTemp("", "netacl-pol-")
	if err != nil {
		return "", fmt.Errorf("compiler scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	outDir := filepath.Join(dir, "generated")
	if err := os.Mkdir(outDir, 0755); err != nil {
		return "", fmt.Errorf("compiler output dir: %w", err)
	}

	polPath := filepath.Join(dir, "policy.pol")
	pol := RenderPolicy(req.Platform, req.Policy, req.Revision)
	if err := os.WriteFile(polPath, []byte(pol), 0644); err != nil {
		return "", fmt.Errorf("write policy file: %w", err)
	}

	args := []string{
		"--base_directory", dir,
		"--output_directory", outDir,
		"--policy_file", polPath,
	}
	if a.Definitions != "" {
		args = append(args, "--definitions_directory", a.Definitions)
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	util.WithPlatform(req.Platform).Debugf("running %s %s", binary, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("%s: %w", binary, err)
		}
		return "", fmt.Errorf("%s: %w: %s", binary, err, msg)
	}

	text, err := collectGenerated(outDir)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("%s produced no output for platform %s", binary, req.Platform)
	}
	return text, nil
}

// collectGenerated concatenates the compiler's output files in name order.
// aclgen names them after the policy file with a platform extension.
func collectGenerated(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read compiler output: %w", err)
	}
	var sb strings.Builder
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) == ".pol" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return "", fmt.Errorf("read compiler output %s: %w", e.Name(), err)
		}
		sb.Write(data)
	}
	return sb.String(), nil
}
