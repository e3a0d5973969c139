package main

import (
	"fmt"
	"os"

	"github.com/o3lang/o3c/cmd/o3c/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
