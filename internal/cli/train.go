package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/saethlin/markov/pkg/markov"
	"github.com/spf13/cobra"
)

var trainOrder int

func init() {
	cmd := &cobra.Command{
		Use:   "train <model> [file...]",
		Short: "Train a model on text corpora",
		Long:  "Feeds one or more text files (or stdin when no files are given) into a model, creating it if necessary. Training is cumulative: an existing model keeps everything it already learned.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runTrain,
	}
	cmd.Flags().IntVarP(&trainOrder, "order", "o", 0, "Chain order for a newly created model (default from config)")
	RootCmd.AddCommand(cmd)
}

func runTrain(cmd *cobra.Command, args []string) {
	rc, err := setup()
	if err != nil {
		exitErr("setup", err)
	}
	defer rc.close()

	name := args[0]
	ctx := cmd.Context()

	var chain *markov.TextChain
	loaded, err := rc.store.Load(ctx, name)
	switch {
	case err == nil:
		if trainOrder != 0 && trainOrder != loaded.Order() {
			exitErr("train", fmt.Errorf("model %q has order %d, cannot retrain with order %d", name, loaded.Order(), trainOrder))
		}
		chain = markov.Text(loaded, nil)
	case errors.Is(err, markov.ErrUnknownModel):
		order := trainOrder
		if order == 0 {
			order = rc.cfg.DefaultOrder
		}
		chain, err = markov.NewText(order, nil)
		if err != nil {
			exitErr("create model", err)
		}
	default:
		exitErr("load model", err)
	}

	if len(args) == 1 {
		if err := chain.Train(os.Stdin); err != nil {
			exitErr("train from stdin", err)
		}
	}
	for _, path := range args[1:] {
		if err := chain.TrainFile(path); err != nil {
			exitErr("train", err)
		}
	}

	if err := rc.store.Save(ctx, name, chain.Chain); err != nil {
		exitErr("save model", err)
	}

	stats := chain.Stats()
	fmt.Printf("model %q: order %d, %d contexts, %d transitions, %d tokens\n",
		name, stats.Order, stats.Contexts, stats.Transitions, stats.Vocabulary)
}
