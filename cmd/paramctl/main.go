package main

// Manage application parameters (provider keys, AI_MODEL):
//   go run ./cmd/paramctl list
//   go run ./cmd/paramctl set AI_MODEL gemini

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "paramctl",
		Usage: "Inspect and update application parameters",
		Commands: []*cli.Command{
			listCommand,
			getCommand,
			setCommand,
			seedCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("paramctl: %v", err)
	}
}
