package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mydehq/mediasort/internal/overrides"
)

var overridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "Print the effective search override table",
	Long: "Prints the bundled override entries merged with the search_overrides\n" +
		"section of the configuration file. User entries win on conflict.",
	Args: cobra.NoArgs,
	RunE: runOverrides,
}

func init() {
	RootCmd.AddCommand(overridesCmd)
}

func runOverrides(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	table, err := overrides.Load(cfg.SearchOverrides)
	if err != nil {
		return err
	}

	fmt.Printf("%s %d entries\n", StyleHeader.Render("Search overrides:"), table.Len())
	for _, entry := range table.Entries() {
		fmt.Printf(" %s %s %s\n",
			StylePath.Render(entry[0]),
			StyleDim.Render("->"),
			StyleAction.Render(entry[1]),
		)
	}
	return nil
}
