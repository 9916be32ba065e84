// The main package for the linkvet executable.
package main

import (
	"github.com/linkvet/linkvet/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
