package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <model>",
		Short: "Delete a trained model",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}
	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	rc, err := setup()
	if err != nil {
		exitErr("setup", err)
	}
	defer rc.close()

	if err := rc.store.Remove(cmd.Context(), args[0]); err != nil {
		exitErr("remove model", err)
	}
	fmt.Printf("removed model %q\n", args[0])
}
