package commands

import (
	"github.com/spf13/cobra"

	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/services/ingest"
	"github.com/signal-works/pulse/pkg/services/validator"
)

// Reporter renders a finished validation report.
type Reporter interface {
	Handle(report *domain.ValidationReport) error
}

type TriageCmd struct {
	inputPath   string
	rulesRoot   string
	signalsRoot string
	configPath  string
	registry    ingest.Registry
	reporter    Reporter
}

func NewTriageCmd(registry ingest.Registry, reporter Reporter) *cobra.Command {
	tc := &TriageCmd{registry: registry, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Quick scan: per-domain scores and the coarse triage index",
		RunE:  tc.run,
	}

	cmd.Flags().StringVar(&tc.inputPath, "input", "", "Input file or directory of <domain>.csv/.json files")
	cmd.Flags().StringVar(&tc.rulesRoot, "rules", "rules", "Directory holding per-domain rule packs")
	cmd.Flags().StringVar(&tc.signalsRoot, "signals", "signals", "Directory holding curated reality signals")
	cmd.Flags().StringVar(&tc.configPath, "config", "", "Path to a pulse config file")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (tc *TriageCmd) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := validator.Config{RulesRoot: tc.rulesRoot, SignalsRoot: tc.signalsRoot}
	if tc.configPath != "" {
		settings, err := validator.LoadSettings(tc.configPath)
		if err != nil {
			return err
		}
		cfg = settings.RunnerConfig()
		if cmd.Flags().Changed("rules") {
			cfg.RulesRoot = tc.rulesRoot
		}
		if cmd.Flags().Changed("signals") {
			cfg.SignalsRoot = tc.signalsRoot
		}
	}

	provider, available, err := resolveProvider(tc.registry, tc.inputPath)
	if err != nil {
		return err
	}

	// Cross-domain findings never feed the triage index, so the scan skips
	// that pass entirely.
	runner := validator.NewRunner(cfg)
	report := runner.Run(ctx, provider, validator.RunRequest{
		Domains:   available,
		SkipCross: true,
	})

	return tc.reporter.Handle(&report)
}
