// weftctl is the operator CLI for the weft splicing proxy.
package main

import (
	"math/rand"
	"os"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/weft-sh/weft/internal/weftctl/cmd"
)

func main() {
	rand.New(rand.NewSource(time.Now().UnixNano()))

	command := cmd.NewDefaultWeftCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
