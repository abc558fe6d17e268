// The main package for the bunprodict executable.
package main

import (
	"github.com/JakeFAU/bunpro-yomitan/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
