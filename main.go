package main

import (
	"github.com/jjtimmons/felix/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
