package cmd

import (
	"fmt"
	"os"

	"github.com/o3lang/o3c/internal/diag"
	o3errors "github.com/o3lang/o3c/internal/errors"
	"github.com/o3lang/o3c/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	diagnoseMaxMessageSendArgs int
	diagnoseColor              bool
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [file]",
	Short: "Print only the diagnostics for an o3 source file",
	Long: `Run the pipeline and print only its diagnostics, each as a
caret-annotated source block, for scripting use. Exit code is non-zero iff any diagnostic has severity
error or fatal.

If no file is provided, reads from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiagnose,
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)

	diagnoseCmd.Flags().IntVar(&diagnoseMaxMessageSendArgs, "max-message-send-args", 4, "maximum message-send argument count")
	diagnoseCmd.Flags().BoolVar(&diagnoseColor, "color", false, "colorize diagnostic output")
}

func runDiagnose(_ *cobra.Command, args []string) error {
	filename, source, err := readInput(args)
	if err != nil {
		return err
	}

	opts := pipeline.DefaultOptions()
	opts.MaxMessageSendArgs = diagnoseMaxMessageSendArgs
	res := pipeline.Compile(source, filename, opts)

	formatter := o3errors.NewFormatter(filename, source)
	fmt.Println(formatter.FormatAll(res.Diagnostics, diagnoseColor))

	for _, d := range res.Diagnostics {
		if d.Severity == diag.Error || d.Severity == diag.Fatal {
			os.Exit(1)
		}
	}
	return nil
}
