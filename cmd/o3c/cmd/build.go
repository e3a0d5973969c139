package cmd

import (
	"fmt"
	"io"
	"os"

	o3errors "github.com/o3lang/o3c/internal/errors"
	"github.com/o3lang/o3c/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	buildMaxMessageSendArgs int
	buildRuntimeSymbol      string
	buildRuntimeArgSlots    int
	buildColor              bool
)

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Compile o3 source to IR and a manifest",
	Long: `Compile an o3 source file through the full pipeline and print the
emitted IR and manifest JSON to stdout. Diagnostics are printed to
stderr with a source-line caret view.

If no file is provided, reads from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().IntVar(&buildMaxMessageSendArgs, "max-message-send-args", 4, "maximum message-send argument count")
	buildCmd.Flags().StringVar(&buildRuntimeSymbol, "runtime-dispatch-symbol", "", "runtime message-dispatch symbol (default: objc3_msgsend_i32)")
	buildCmd.Flags().IntVar(&buildRuntimeArgSlots, "runtime-dispatch-arg-slots", 0, "runtime message-dispatch argument slots (default: 4)")
	buildCmd.Flags().BoolVar(&buildColor, "color", false, "colorize diagnostic output")
}

func runBuild(_ *cobra.Command, args []string) error {
	filename, source, err := readInput(args)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		MaxMessageSendArgs:      buildMaxMessageSendArgs,
		RuntimeDispatchSymbol:   buildRuntimeSymbol,
		RuntimeDispatchArgSlots: buildRuntimeArgSlots,
	}
	res := pipeline.Compile(source, filename, opts)

	if len(res.Diagnostics) > 0 {
		formatter := o3errors.NewFormatter(filename, source)
		fmt.Fprintln(os.Stderr, formatter.FormatAll(res.Diagnostics, buildColor))
		return fmt.Errorf("build failed with %d diagnostic(s)", len(res.Diagnostics))
	}

	fmt.Println(res.IR)
	fmt.Println(res.Manifest)
	return nil
}

func readInput(args []string) (filename, source string, err error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return "<stdin>", string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("reading file %s: %w", args[0], err)
	}
	return args[0], string(data), nil
}
