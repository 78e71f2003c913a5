// Package salt integrates with a Salt minion through the salt-call
// command: device facts come from the grains system and generated
// configuration is loaded through the NAPALM proxy's net.load_config.
package salt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/netgrid-labs/netacl/pkg/util"
)

// DefaultBinary is the minion-side Salt command.
const DefaultBinary = "salt-call"

// Caller runs Salt execution functions via salt-call with JSON output.
type Caller struct {
	// Binary is the command to run. Defaults to DefaultBinary.
	Binary string
	// Local runs masterless (--local), using only minion-side data.
	Local bool

	// run is stubbed in tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Call invokes fun with the given key=value arguments and decodes the
// result into out.
func (c *Caller) Call(ctx context.Context, out any, fun string, args ...string) error {
	binary := c.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	cmdArgs := c.buildArgs(fun, args)

	runner := c.run
	if runner == nil {
		runner = runCommand
	}
	util.WithField("function", fun).Debugf("running %s %s", binary, strings.Join(cmdArgs, " "))
	stdout, err := runner(ctx, binary, cmdArgs...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", binary, fun, err)
	}
	return decodeEnvelope(stdout, fun, out)
}

func (c *Caller) buildArgs(fun string, args []string) []string {
	cmdArgs := []string{"--out=json", "--retcode-passthrough"}
	if c.Local {
		cmdArgs = append(cmdArgs, "--local")
	}
	cmdArgs = append(cmdArgs, fun)
	return append(cmdArgs, args...)
}

// decodeEnvelope unwraps salt-call's {"local": <result>} envelope.
func decodeEnvelope(data []byte, fun string, out any) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("%s: decode output: %w", fun, err)
	}
	raw, ok := envelope["local"]
	if !ok {
		return fmt.Errorf("%s: output has no local result", fun)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", fun, err)
	}
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", err, msg)
	}
	return stdout.Bytes(), nil
}
