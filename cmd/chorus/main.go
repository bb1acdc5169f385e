package main

import (
	"os"

	"github.com/funvibe/chorus/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
