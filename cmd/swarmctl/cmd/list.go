package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openfleet/swarmctl/pkg/utils"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available scenarios",
	Long:  `List all available scenarios with their descriptions`,
	RunE:  listScenarios,
}

func listScenarios(cmd *cobra.Command, args []string) error {
	infos, err := utils.DiscoverScenarios()
	if err != nil {
		return fmt.Errorf("failed to discover scenarios: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No scenarios found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tVERSION\tCATEGORY\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "----\t-------\t--------\t-----------")

	for _, info := range infos {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			info.Metadata.Name,
			info.Metadata.Version,
			info.Metadata.Category,
			info.Metadata.Description,
		)
	}

	return w.Flush()
}
