package main

import (
	"github.com/andrescamacho/microgreens-go/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
