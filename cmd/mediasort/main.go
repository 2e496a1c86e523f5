package main

import (
	"github.com/mydehq/mediasort/internal/cli"
)

func main() {
	cli.Execute()
}
