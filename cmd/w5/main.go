package main

import (
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"log"
	"os"
)

var Version = "dev"

func init() {
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name:    "w5",
		Usage:   "offline tooling for v5r1 wallets",
		Version: Version,
		Commands: []*cli.Command{
			commandAddress(),
			commandBuild(),
			commandInspect(),
			commandStatus(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
