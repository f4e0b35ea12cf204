// Command faustbuild compiles the Faust DSP sources of a project into C++
// headers.
package main

import (
	"os"

	"git.home.luguber.info/inful/faustbuild/cmd/faustbuild/commands"
)

func main() {
	commands.Execute(os.Args[1:], os.Stdout, os.Stderr, os.Exit)
	os.Exit(0)
}
