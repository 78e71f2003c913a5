// Netacl - ACL generation and loading for network devices
//
// A CLI tool that turns pillar-sourced ACL policy into device
// configuration:
//   - Resolves the compiler platform from device facts (grains)
//   - Merges pillar policy with command-line overrides
//   - Compiles through capirca's aclgen
//   - Loads the result via the Salt minion's net.load_config
//   - Dry-run by default (preview the diff, require -x to commit)
//
// Examples:
//
//	netacl platform                                  # Resolved compiler platform
//	netacl pillar filter edge-in                     # Show pillar data for a filter
//	netacl load-term edge-in allow-ssh action=accept protocol=tcp destination_port=22
//	netacl load-filter edge-in --terms extra.yaml -x
//	netacl load-policy --pillarenv prod -x
package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/netgrid-labs/netacl/pkg/capirca"
	"github.com/netgrid-labs/netacl/pkg/grains"
	"github.com/netgrid-labs/netacl/pkg/netacl"
	"github.com/netgrid-labs/netacl/pkg/pillar"
	"github.com/netgrid-labs/netacl/pkg/salt"
	"github.com/netgrid-labs/netacl/pkg/util"
	"github.com/netgrid-labs/netacl/pkg/version"
)

var (
	// Grains source
	grainsFile string

	// Pillar source
	pillarDir     string
	pillarRedis   bool
	redisAddr     string
	redisDB       int
	redisPassword string
	redisAskPass  bool
	minionID      string
	sshHost       string
	sshUser       string
	sshPassword   string

	// Pillar selection
	pillarKey string
	pillarenv string
	saltenv   string

	// Compiler
	aclgenBinary   string
	definitionsDir string
	servicesPath   string

	// Device layer
	saltBinary string
	saltLocal  bool

	// Apply flags
	executeMode bool
	debugOutput bool

	// Revision flags
	revisionID         string
	revisionNo         int
	noRevisionDate     bool
	revisionDateFormat string

	verbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "netacl",
	Short:             "ACL generation and loading for network devices",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Netacl compiles ACL policy for the device's platform and loads it
through the Salt minion's device layer.

Pillar data is the source of truth; command-line input overrides it.
Load commands preview the diff by default — use -x to commit.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&grainsFile, "grains-file", "", "Read device facts from a JSON file instead of grains")

	pf.StringVar(&pillarDir, "pillar-dir", pillar.DefaultRoot, "Pillar directory tree")
	pf.BoolVar(&pillarRedis, "pillar-redis", false, "Read pillar data from a Redis pillar cache")
	pf.StringVar(&redisAddr, "redis-addr", "", "Pillar cache address (host:port)")
	pf.IntVar(&redisDB, "redis-db", 0, "Pillar cache Redis database")
	pf.StringVar(&redisPassword, "redis-password", "", "Pillar cache password")
	pf.BoolVar(&redisAskPass, "redis-askpass", false, "Prompt for the pillar cache password")
	pf.StringVar(&minionID, "minion", "", "Minion id for pillar cache lookups")
	pf.StringVar(&sshHost, "ssh-host", "", "Reach the pillar cache through an SSH tunnel via this host")
	pf.StringVar(&sshUser, "ssh-user", "", "SSH tunnel user")
	pf.StringVar(&sshPassword, "ssh-password", "", "SSH tunnel password")

	pf.StringVar(&pillarKey, "pillar-key", netacl.DefaultPillarKey, "Root pillar key holding the policy")
	pf.StringVar(&pillarenv, "pillarenv", "", "Pillar environment")
	pf.StringVar(&saltenv, "saltenv", "", "Salt environment (used when --pillarenv is unset)")

	pf.StringVar(&aclgenBinary, "aclgen", capirca.DefaultBinary, "Policy compiler command")
	pf.StringVar(&definitionsDir, "definitions", "", "Compiler network/service definitions directory")
	pf.StringVar(&servicesPath, "services", "", "services(5) file for --source-service/--destination-service lookups")

	pf.StringVar(&saltBinary, "salt-call", salt.DefaultBinary, "Salt command for grains and net.load_config")
	pf.BoolVar(&saltLocal, "local", false, "Run salt-call masterless (--local)")

	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	for _, cmd := range []*cobra.Command{loadTermCmd, loadFilterCmd, loadPolicyCmd} {
		addApplyFlags(cmd)
		addRevisionFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(pillarCmd)
	rootCmd.AddCommand(platformCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("netacl dev build (use 'make build' for version info)")
		} else {
			fmt.Printf("netacl %s (%s)\n", version.Version, version.GitCommit)
		}
	},
}

func addApplyFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&executeMode, "execute", "x", false, "Commit changes (default is dry-run)")
	cmd.Flags().BoolVar(&debugOutput, "debug", false, "Show the raw configuration loaded on the device")
}

func addRevisionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&revisionID, "revision-id", "", "Revision id comment in the generated config")
	cmd.Flags().IntVar(&revisionNo, "revision-no", 0, "Revision number comment in the generated config")
	cmd.Flags().BoolVar(&noRevisionDate, "no-revision-date", false, "Omit the date comment from the generated config")
	cmd.Flags().StringVar(&revisionDateFormat, "revision-date-format", netacl.DefaultDateFormat, "Go layout for the date comment")
}

// withService wires the collaborators from the flags and runs fn.
func withService(fn func(ctx context.Context, svc *netacl.Service) error) error {
	ctx := context.Background()

	source, closeSource, err := pillarSource()
	if err != nil {
		return err
	}
	defer closeSource()

	svc, err := netacl.New(
		grainsProvider(),
		&capirca.Aclgen{Binary: aclgenBinary, Definitions: definitionsDir},
		source,
		&salt.NetApplier{Caller: saltCaller()},
	)
	if err != nil {
		return err
	}
	if servicesPath != "" {
		registry, err := netacl.LoadServiceRegistry(servicesPath)
		if err != nil {
			return err
		}
		svc.SetServiceRegistry(registry)
	}
	return fn(ctx, svc)
}

func saltCaller() *salt.Caller {
	return &salt.Caller{Binary: saltBinary, Local: saltLocal}
}

func grainsProvider() grains.Provider {
	if grainsFile != "" {
		return &grains.FileProvider{Path: grainsFile}
	}
	return &salt.GrainsProvider{Caller: saltCaller()}
}

func pillarSource() (netacl.PillarSource, func(), error) {
	if !pillarRedis {
		return pillar.NewStore(pillarDir), func() {}, nil
	}

	var v util.ValidationBuilder
	v.Add(minionID != "", "--pillar-redis requires --minion")
	v.Add(sshHost == "" || sshUser != "", "--ssh-host requires --ssh-user")
	if err := v.Build(); err != nil {
		return nil, nil, err
	}

	password := redisPassword
	if redisAskPass {
		var err error
		password, err = promptPassword("Pillar cache password: ")
		if err != nil {
			return nil, nil, err
		}
	}
	src, err := pillar.NewRedisSource(pillar.RedisConfig{
		Addr:        redisAddr,
		Password:    password,
		DB:          redisDB,
		Minion:      minionID,
		SSHHost:     sshHost,
		SSHUser:     sshUser,
		SSHPassword: sshPassword,
	})
	if err != nil {
		return nil, nil, err
	}
	return src, func() { src.Close() }, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pass), nil
}

func pillarOptions() netacl.PillarOptions {
	return netacl.PillarOptions{Key: pillarKey, Pillarenv: pillarenv, Saltenv: saltenv}
}

func applyOptions() netacl.ApplyOptions {
	return netacl.ApplyOptions{
		Test:   !executeMode,
		Commit: executeMode,
		Debug:  debugOutput,
	}
}

func revision() netacl.Revision {
	return netacl.Revision{
		ID:         revisionID,
		No:         revisionNo,
		ShowDate:   !noRevisionDate,
		DateFormat: revisionDateFormat,
	}
}

// printResult reports a load result the way the device layer saw it.
func printResult(res *netacl.ApplyResult) error {
	if res.AlreadyConfigured {
		fmt.Println("Already configured; no changes.")
	} else if res.Diff != "" {
		fmt.Println("Changes to be applied:")
		fmt.Println(res.Diff)
	}
	if res.LoadedConfig != "" {
		fmt.Println("Loaded configuration:")
		fmt.Println(res.LoadedConfig)
	}
	if !res.Result {
		if res.Comment != "" {
			return fmt.Errorf("device refused the configuration: %s", res.Comment)
		}
		return fmt.Errorf("device refused the configuration")
	}
	if res.Comment != "" {
		fmt.Println(res.Comment)
	}
	if !executeMode {
		fmt.Println("\nDRY-RUN: No changes committed. Use -x to execute.")
	}
	return nil
}
