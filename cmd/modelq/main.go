package main

import (
	"github.com/modelq-io/modelq/cmd"
)

func main() {
	cmd.Execute()
}
