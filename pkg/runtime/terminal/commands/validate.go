package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/signal-works/pulse/pkg/adapters"
	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/runtime/terminal/export"
	"github.com/signal-works/pulse/pkg/services/ingest"
	"github.com/signal-works/pulse/pkg/services/validator"
)

type ValidateCmd struct {
	inputPath   string
	rulesRoot   string
	signalsRoot string
	configPath  string
	domains     []string
	all         bool
	outputPath  string
	noCross     bool
	noReality   bool
	weights     map[string]string
	registry    ingest.Registry
	reporter    *export.Reporter
}

func NewValidateCmd(registry ingest.Registry, reporter *export.Reporter) *cobra.Command {
	vc := &ValidateCmd{registry: registry, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Evaluate rule packs against business datasets",
		RunE:  vc.run,
	}

	// Define flags
	cmd.Flags().StringVar(&vc.inputPath, "input", "", "Input file or directory of <domain>.csv/.json files")
	cmd.Flags().StringVar(&vc.rulesRoot, "rules", "rules", "Directory holding per-domain rule packs")
	cmd.Flags().StringVar(&vc.signalsRoot, "signals", "signals", "Directory holding curated reality signals")
	cmd.Flags().StringVar(&vc.configPath, "config", "", "Path to a pulse config file")
	cmd.Flags().StringSliceVar(&vc.domains, "domain", nil, "Domains to evaluate (repeatable; aliases like fin, ops, hr work)")
	cmd.Flags().BoolVar(&vc.all, "all", false, "Evaluate every domain even when the input covers fewer")
	cmd.Flags().StringVar(&vc.outputPath, "output", "", "Write the full report as JSON to this path")
	cmd.Flags().BoolVar(&vc.noCross, "no-cross", false, "Skip cross-domain consistency checks")
	cmd.Flags().BoolVar(&vc.noReality, "no-reality", false, "Skip the reality signal overlay")
	cmd.Flags().StringToStringVar(&vc.weights, "weights", nil, "Per-domain index weights, e.g. finance=0.3,ops=0.2")

	// Mark required flags
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (vc *ValidateCmd) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := validator.Config{RulesRoot: vc.rulesRoot, SignalsRoot: vc.signalsRoot}
	if vc.configPath != "" {
		settings, err := validator.LoadSettings(vc.configPath)
		if err != nil {
			return err
		}
		cfg = settings.RunnerConfig()
		if cmd.Flags().Changed("rules") {
			cfg.RulesRoot = vc.rulesRoot
		}
		if cmd.Flags().Changed("signals") {
			cfg.SignalsRoot = vc.signalsRoot
		}
	}

	provider, available, err := resolveProvider(vc.registry, vc.inputPath)
	if err != nil {
		return err
	}

	targets, err := resolveDomains(vc.domains, vc.all, available)
	if err != nil {
		return err
	}

	weights, err := parseWeights(vc.weights)
	if err != nil {
		return err
	}

	runner := validator.NewRunner(cfg)
	report := runner.Run(ctx, provider, validator.RunRequest{
		Domains:     targets,
		Weights:     weights,
		SkipCross:   vc.noCross,
		SkipReality: vc.noReality,
	})

	if vc.outputPath != "" {
		if err := writeReport(vc.outputPath, &report); err != nil {
			return err
		}
	}

	return vc.reporter.Handle(&report)
}

// resolveProvider maps the input path onto a dataset provider. A directory
// routes files per domain; a single file answers for every domain. The second
// return lists the domains a directory actually covers.
func resolveProvider(registry ingest.Registry, path string) (validator.DatasetProvider, []domain.Domain, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read input %q: %w", path, err)
	}
	if info.IsDir() {
		dir, err := ingest.NewDir(registry, path)
		if err != nil {
			return nil, nil, err
		}
		return dir, dir.Available(), nil
	}
	return ingest.NewFile(registry, path), nil, nil
}

// resolveDomains picks the run targets: explicit --domain flags win, --all
// (or a single-file input) means every domain, and a directory input narrows
// to the domains it holds files for.
func resolveDomains(names []string, all bool, available []domain.Domain) ([]domain.Domain, error) {
	if len(names) > 0 {
		out := make([]domain.Domain, 0, len(names))
		for _, name := range names {
			d, err := domain.ParseDomain(name)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	}
	if all {
		return nil, nil
	}
	return available, nil
}

func parseWeights(raw map[string]string) (map[domain.Domain]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[domain.Domain]float64, len(raw))
	for key, value := range raw {
		d, err := domain.ParseDomain(key)
		if err != nil {
			return nil, fmt.Errorf("weights: %w", err)
		}
		w, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("weights: invalid value %q for %q", value, key)
		}
		out[d] = w
	}
	return out, nil
}

func writeReport(path string, report *domain.ValidationReport) error {
	payload, err := json.MarshalIndent(adapters.MapValidationReportDomainToApi(*report), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
