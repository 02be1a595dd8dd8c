package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/code-understood/internal/application/controller"
	"github.com/bryanwahyu/code-understood/internal/config"
	"github.com/bryanwahyu/code-understood/internal/domain/analysis"
	"github.com/bryanwahyu/code-understood/internal/infra/backend"
	"github.com/bryanwahyu/code-understood/internal/infra/ui/console"
	"github.com/bryanwahyu/code-understood/internal/infra/ui/tui"
	"github.com/bryanwahyu/code-understood/internal/logging"
)

type options struct {
	configPath string
	backendURL string
	policy     string
	timeout    time.Duration
	verbose    bool
	code       string

	log  *zap.Logger
	mode analysis.Policy
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "client",
		Short:         "Explain source code with the concept extractor backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if o.log != nil {
				_ = o.log.Sync()
			}
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "config file (default $CONFIG_PATH or config.yaml)")
	pf.StringVar(&o.backendURL, "backend", "", "analyze endpoint URL")
	pf.StringVar(&o.policy, "policy", "", "missing field policy: tolerant or strict")
	pf.DurationVar(&o.timeout, "timeout", 0, "request timeout (0 waits indefinitely)")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newAnalyzeCmd(o), newTUICmd(o))
	return root
}

// setup resolves settings: flags win over the config file, which wins over defaults.
func (o *options) setup(cmd *cobra.Command) error {
	path := o.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if o.backendURL == "" {
		o.backendURL = cfg.Client.BackendURL
	}
	if o.policy == "" {
		o.policy = cfg.Client.Policy
	}
	if !cmd.Flags().Changed("timeout") {
		o.timeout = cfg.Client.Timeout
	}

	if o.mode, err = analysis.ParsePolicy(o.policy); err != nil {
		return err
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	o.log, err = logging.New(level, "console")
	return err
}

func (o *options) controller(regions controller.Regions) *controller.Controller {
	client := backend.New(o.backendURL,
		backend.WithTimeout(o.timeout),
		backend.WithLogger(o.log.Named("backend")),
	)
	return controller.New(client, regions,
		controller.WithPolicy(o.mode),
		controller.WithLogger(o.log.Named("controller")),
	)
}

func newAnalyzeCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Analyze one source file, stdin or --code and print the cards",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readSource(cmd, o.code, args)
			if err != nil {
				return err
			}
			screen := console.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), code)
			return o.controller(screen.Regions()).Analyze(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&o.code, "code", "", "source code to analyze")
	return cmd
}

func readSource(cmd *cobra.Command, code string, args []string) (string, error) {
	if code != "" {
		if len(args) > 0 {
			return "", errors.New("use either --code or a file argument")
		}
		return code, nil
	}
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return string(data), nil
}

func newTUICmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), func(r controller.Regions) tui.Analyzer {
				return o.controller(r)
			})
		},
	}
}
