// Package main provides the workflow admin CLI for validating and importing
// definition documents.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:                  "workflow",
		Usage:                 "Manage workflow definitions",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewDefinitionsCommand(),
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
