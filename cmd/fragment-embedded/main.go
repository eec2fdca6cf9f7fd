// Standalone build of the fragment project under ./project.
// Replace the contents of ./project and build with:
//
//	go build -o <output> ./cmd/fragment-embedded
package main

import (
	"embed"
	"errors"
	"fmt"
	"os"

	"github.com/zurustar/fragment/pkg/app"
)

//go:embed project
var projectFS embed.FS

func main() {
	application := app.New(app.WithEmbeddedProject(projectFS, "project"))
	if err := application.Run(os.Args[1:]); err != nil {
		if !errors.Is(err, app.ErrEvaluation) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
