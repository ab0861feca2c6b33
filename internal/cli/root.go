// Package cli provides the wayfarer command line: the assistant pipeline
// stages run one at a time against text given on the command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wayfarer/internal/config"
	"wayfarer/internal/infra"
)

// Version is set at build time.
var Version = "0.1.0"

// env is loaded once per invocation by the root command.
type env struct {
	cfg     config.Config
	log     *zap.Logger
	verbose bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:   "wayfarer",
		Short: "Conversational travel assistant tooling",
		Long: `wayfarer exercises the travel assistant pipeline from the shell:
intent classification, parameter extraction, location resolution and full
replies. Configuration is read from the same WAYFARER_* environment as the
API server.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return e.load(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.log != nil {
				_ = e.log.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "log pipeline decisions to stderr")

	root.AddCommand(newClassifyCmd(e))
	root.AddCommand(newExtractCmd(e))
	root.AddCommand(newResolveCmd(e))
	root.AddCommand(newAskCmd(e))
	return root
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

func (e *env) load(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.ParamPrefix != "" {
		params, err := infra.NewParamStore(ctx)
		if err != nil {
			return err
		}
		if err := config.ResolveSecrets(ctx, &cfg, params); err != nil {
			return err
		}
	}
	e.cfg = cfg
	e.log = zap.NewNop()
	if e.verbose {
		cfg.Log.Development = true
		cfg.Log.Level = "debug"
		if e.log, err = config.NewLogger(cfg); err != nil {
			return err
		}
	}
	return nil
}

// joinArgs treats all positional arguments as one message.
func joinArgs(args []string) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", errors.New("a message is required")
	}
	return text, nil
}

func printf(cmd *cobra.Command, format string, a ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, a...)
}
