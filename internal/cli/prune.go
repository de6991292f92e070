package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pruneMinFreq int

func init() {
	cmd := &cobra.Command{
		Use:   "prune <model>",
		Short: "Remove rare transitions from a model",
		Long:  "Deletes transitions whose observed frequency is at or below the threshold, shrinking models trained on noisy corpora.",
		Args:  cobra.ExactArgs(1),
		Run:   runPrune,
	}
	cmd.Flags().IntVar(&pruneMinFreq, "min-freq", 1, "Remove transitions with frequency at or below this value")
	RootCmd.AddCommand(cmd)
}

func runPrune(cmd *cobra.Command, args []string) {
	rc, err := setup()
	if err != nil {
		exitErr("setup", err)
	}
	defer rc.close()

	if err := rc.store.Prune(cmd.Context(), args[0], pruneMinFreq); err != nil {
		exitErr("prune model", err)
	}
	fmt.Printf("pruned model %q\n", args[0])
}
