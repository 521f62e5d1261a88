package main

import (
	"fmt"
	"os"

	"github.com/ncatbot/core/cmd/ncatbot/commands"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
