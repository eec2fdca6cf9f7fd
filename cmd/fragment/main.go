package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zurustar/fragment/pkg/app"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the interpreter and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	application := app.New(app.WithOutput(stdout, stderr))
	if err := application.Run(args); err != nil {
		// 診断は表示済み
		if !errors.Is(err, app.ErrEvaluation) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
