package main

import (
	"os"

	"github.com/zjrosen/gitglance/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
