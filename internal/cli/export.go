package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export <model> <file>",
		Short: "Export a model as JSON",
		Long:  "Writes a model's full snapshot as JSON. Pass \"-\" as the file to write to stdout. Files are written atomically.",
		Args:  cobra.ExactArgs(2),
		Run:   runExport,
	}
	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	rc, err := setup()
	if err != nil {
		exitErr("setup", err)
	}
	defer rc.close()

	chain, err := rc.store.Load(cmd.Context(), args[0])
	if err != nil {
		exitErr("load model", err)
	}

	if args[1] == "-" {
		if err := chain.Export(os.Stdout); err != nil {
			exitErr("export", err)
		}
		return
	}

	var buf bytes.Buffer
	if err := chain.Export(&buf); err != nil {
		exitErr("export", err)
	}
	if err := atomic.WriteFile(args[1], &buf); err != nil {
		exitErr("write export file", err)
	}
	fmt.Printf("exported model %q to %s\n", args[0], args[1])
}
