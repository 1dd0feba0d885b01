// Package cli implements the claimsctl operator commands.
package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/claims-service/internal/config"
	"github.com/spec-kit/claims-service/internal/observability"
)

// Options lets callers replace process-level dependencies.
type Options struct {
	Out        io.Writer
	LoadConfig func() (*config.Config, error)
	Logger     *zap.Logger
}

type app struct {
	opts       Options
	jsonOutput bool
}

// NewRootCmd builds the claimsctl command tree.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.Load
	}
	rt := &app{opts: opts}

	root := &cobra.Command{
		Use:   "claimsctl",
		Short: "Operate the claims service",
		Long: `claimsctl runs maintenance tasks against the claims service stores.

Examples:
  claimsctl migrate                  # Apply SQL migrations
  claimsctl seed --clients           # Create the default areas and demo clients
  claimsctl statuses --json          # Print the status policy
  claimsctl transitions EN_PROCESO   # Show where a claim can move next
  claimsctl token --user ana         # Issue an actor token`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Out)
	root.PersistentFlags().BoolVar(&rt.jsonOutput, "json", false, "Output in JSON format")

	root.AddCommand(rt.migrateCommand())
	root.AddCommand(rt.seedCommand())
	root.AddCommand(rt.statusesCommand())
	root.AddCommand(rt.transitionsCommand())
	root.AddCommand(rt.tokenCommand())
	return root
}

func (rt *app) config() (*config.Config, *zap.Logger, error) {
	cfg, err := rt.opts.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if rt.opts.Logger != nil {
		return cfg, rt.opts.Logger, nil
	}
	// stdout carries command output.
	logCfg := cfg.Logger
	logCfg.Output = "stderr"
	logger, err := observability.NewLogger(logCfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func (rt *app) printJSON(v any) error {
	enc := json.NewEncoder(rt.opts.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
