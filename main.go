package main

import (
	"os"

	"github.com/Tebogokaulela455/psa/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
