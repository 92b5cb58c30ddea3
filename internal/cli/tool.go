package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"brainbox/internal/runner"
	"brainbox/internal/tools/builtin"
)

// NewToolCmd creates the tool command group.
func NewToolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Inspect the assistant's tools",
	}
	cmd.AddCommand(newToolListCmd())
	return cmd
}

type toolRow struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Tiers       []string       `json:"tiers,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

func newToolListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available tools and the attempt tiers that offer them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := mustCLIContext(cmd)
			if err != nil {
				return err
			}
			db, err := cliCtx.GetStorage()
			if err != nil {
				return err
			}
			reg, err := builtin.NewRegistryWithBuiltins(db)
			if err != nil {
				return err
			}
			tiers := cliCtx.Config.Orchestrator.Tiers
			selector, err := runner.NewTierSelector(reg, tiers.Essential, tiers.Minimal)
			if err != nil {
				return err
			}

			inTier := make(map[string][]string)
			for i := 0; i < runner.MaxAttempts; i++ {
				tier := selector.Tier(i)
				for _, name := range tier.Names() {
					inTier[name] = append(inTier[name], tier.Label)
				}
			}

			var rows []toolRow
			for _, t := range reg.List() {
				rows = append(rows, toolRow{
					Name:        t.Name(),
					Description: t.Description(),
					Tiers:       inTier[t.Name()],
					Parameters:  t.Parameters(),
				})
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				data, _ := json.MarshalIndent(rows, "", "  ")
				fmt.Fprintln(out, string(data))
				return nil
			}
			for _, r := range rows {
				label := "-"
				if len(r.Tiers) > 0 {
					label = strings.Join(r.Tiers, ",")
				}
				fmt.Fprintf(out, "%-22s %-18s %s\n", r.Name, label, r.Description)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
