// Package cmd is the o3c demonstration CLI: a thin cobra binding over
// pipeline.Compile. It is not the excluded capability-routing/flag-parser
// collaborator — it only drives the in-scope core and prints the output
// bundle.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "o3c",
	Short: "o3 frontend core: lex, parse, analyze, and emit IR",
	Long: `o3c is the native frontend for the o3 Objective-C-3 dialect.

It lexes and parses o3 source, runs the semantic passes (symbol surface,
body validation, definite-return, pure-contract), and emits LLVM-style
textual IR plus a JSON manifest. File I/O, artifact writing, and
clang/LLVM capability routing are out of scope for this binary; it only
demonstrates the in-scope pipeline.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))
}
