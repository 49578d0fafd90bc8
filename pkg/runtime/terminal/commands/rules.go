package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/services/rules"
)

type RulesCmd struct {
	rulesRoot string
}

func NewRulesCmd() *cobra.Command {
	rc := &RulesCmd{}
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the loaded rule packs per domain",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.rulesRoot, "rules", "rules", "Directory holding per-domain rule packs")

	return cmd
}

func (rc *RulesCmd) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	packs, err := rules.LoadAll(ctx, rc.rulesRoot)
	if err != nil {
		return fmt.Errorf("failed to load rules from %q: %w", rc.rulesRoot, err)
	}

	total := 0
	for _, d := range domain.Domains() {
		pack := packs[d]
		if len(pack) == 0 {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d rules)\n", d, len(pack))
		for _, rule := range pack {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-24s [%s] %s\n", rule.ID, rule.Severity, rule.Title)
		}
		total += len(pack)
	}

	if total == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No rules found under %q\n", rc.rulesRoot)
	}

	return nil
}
