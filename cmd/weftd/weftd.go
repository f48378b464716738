// weftd is the streaming splice proxy daemon.
package main

import (
	"math/rand"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/weft-sh/weft/internal/weftd"
)

func main() {
	rand.New(rand.NewSource(time.Now().UTC().UnixNano()))

	weftd.NewApp("weftd").Run()
}
