package main

import (
	"github.com/custodia-labs/timeport-cli/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
