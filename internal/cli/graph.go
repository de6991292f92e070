package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

var graphOut string

func init() {
	cmd := &cobra.Command{
		Use:   "graph <model>",
		Short: "Export a model as a GraphViz digraph",
		Long:  "Renders a model's transition table as DOT: one node per context, edges labeled with the drawn token and its normalized probability.",
		Args:  cobra.ExactArgs(1),
		Run:   runGraph,
	}
	cmd.Flags().StringVarP(&graphOut, "out", "o", "-", "Output file, \"-\" for stdout")
	RootCmd.AddCommand(cmd)
}

func runGraph(cmd *cobra.Command, args []string) {
	rc, err := setup()
	if err != nil {
		exitErr("setup", err)
	}
	defer rc.close()

	chain, err := rc.store.Load(cmd.Context(), args[0])
	if err != nil {
		exitErr("load model", err)
	}

	if graphOut == "-" {
		if err := chain.WriteDOT(os.Stdout, args[0]); err != nil {
			exitErr("write graph", err)
		}
		return
	}

	var buf bytes.Buffer
	if err := chain.WriteDOT(&buf, args[0]); err != nil {
		exitErr("render graph", err)
	}
	if err := atomic.WriteFile(graphOut, &buf); err != nil {
		exitErr("write graph file", err)
	}
	fmt.Printf("wrote graph for model %q to %s\n", args[0], graphOut)
}
