package cli

import (
	"fmt"

	"github.com/saethlin/markov/pkg/markov"
	"github.com/spf13/cobra"
)

var (
	genCount     int
	genSeed      string
	genMaxLength int
)

func init() {
	cmd := &cobra.Command{
		Use:   "generate <model>",
		Short: "Generate text from a trained model",
		Args:  cobra.ExactArgs(1),
		Run:   runGenerate,
	}
	cmd.Flags().IntVarP(&genCount, "count", "n", 1, "Number of sequences to generate")
	cmd.Flags().StringVarP(&genSeed, "seed", "s", "", "Seed phrase to continue from")
	cmd.Flags().IntVarP(&genMaxLength, "max-length", "m", -1, "Maximum tokens per sequence, 0 for unbounded (default from config)")
	RootCmd.AddCommand(cmd)
}

func runGenerate(cmd *cobra.Command, args []string) {
	rc, err := setup()
	if err != nil {
		exitErr("setup", err)
	}
	defer rc.close()

	loaded, err := rc.store.Load(cmd.Context(), args[0])
	if err != nil {
		exitErr("load model", err)
	}
	chain := markov.Text(loaded, nil)

	maxLength := genMaxLength
	if maxLength < 0 {
		maxLength = rc.cfg.MaxLength
	}

	for i := 0; i < genCount; i++ {
		var out string
		if genSeed != "" {
			out, err = chain.GenerateStringFrom(genSeed, markov.WithMaxLength(maxLength))
			if err != nil {
				exitErr("generate", err)
			}
		} else {
			out = chain.GenerateString(markov.WithMaxLength(maxLength))
		}
		fmt.Println(out)
	}
}
