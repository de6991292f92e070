package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/saethlin/markov/pkg/markov"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import <model> <file>",
		Short: "Import a JSON model snapshot",
		Long:  "Reads a snapshot produced by export and saves it under the given model name, replacing any existing model of that name. Pass \"-\" as the file to read from stdin.",
		Args:  cobra.ExactArgs(2),
		Run:   runImport,
	}
	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	rc, err := setup()
	if err != nil {
		exitErr("setup", err)
	}
	defer rc.close()

	var r io.Reader = os.Stdin
	if args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			exitErr("open snapshot", err)
		}
		defer func(f *os.File) {
			_ = f.Close()
		}(f)
		r = f
	}

	chain, err := markov.ReadChain[string](r)
	if err != nil {
		exitErr("read snapshot", err)
	}
	if err := rc.store.Save(cmd.Context(), args[0], chain); err != nil {
		exitErr("save model", err)
	}
	fmt.Printf("imported model %q: order %d, %d contexts\n", args[0], chain.Order(), chain.Len())
}
