package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List trained models",
		Run:   runModels,
	}
	RootCmd.AddCommand(cmd)
}

func runModels(cmd *cobra.Command, args []string) {
	rc, err := setup()
	if err != nil {
		exitErr("setup", err)
	}
	defer rc.close()

	models, err := rc.store.Models(cmd.Context())
	if err != nil {
		exitErr("list models", err)
	}
	for _, m := range models {
		fmt.Printf("%s\torder=%d\n", m.Name, m.Order)
	}
}
