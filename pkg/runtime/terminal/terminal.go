package terminal

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/signal-works/pulse/pkg/runtime/terminal/commands"
	"github.com/signal-works/pulse/pkg/runtime/terminal/export"
	"github.com/signal-works/pulse/pkg/services/ingest"
)

// CLI represents the command-line interface
type CLI struct {
	registry ingest.Registry
	logger   *zerolog.Logger
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Registry ingest.Registry
	Output   io.Writer
	Logger   *zerolog.Logger
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	if opts.Registry == nil {
		opts.Registry = ingest.DefaultRegistry()
	}

	cli := &CLI{
		registry: opts.Registry,
		logger:   opts.Logger,
	}

	cli.rootCmd = cli.newRootCmd(opts.Output)
	return cli
}

func (cli *CLI) Execute() error {
	ctx := cli.logger.WithContext(context.Background())
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd(output io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pulse",
		Short: "Business data validation tool",
	}

	cmd.AddCommand(commands.NewValidateCmd(cli.registry, export.NewReporter(output)))
	cmd.AddCommand(commands.NewTriageCmd(cli.registry, NewReporter(output)))
	cmd.AddCommand(commands.NewRulesCmd())

	return cmd
}
