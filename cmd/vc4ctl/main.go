//go:build linux

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rpihpc/vc4"
)

var (
	mailboxPath string
	memPath     string
	logLevel    string
)

// versionString reports the vc4 library version baked into this binary;
// in-tree builds have no resolved module version and show "devel".
func versionString() string {
	v, sum := vc4.Version()
	if v == "" {
		return "devel"
	}
	if sum != "" {
		return v + " " + sum
	}
	return v
}

func main() {
	app := &cli.Command{
		Name:    "vc4ctl",
		Usage:   "VideoCore IV GPU memory and QPU control",
		Version: versionString(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "mailbox",
				Usage:       "property channel device",
				Value:       vc4.DefaultMailboxPath,
				Destination: &mailboxPath,
			},
			&cli.StringFlag{
				Name:        "mem",
				Usage:       "physical memory device",
				Value:       vc4.DefaultMemPath,
				Destination: &memPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "debug, info, warn or error",
				Value:       "info",
				Destination: &logLevel,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			infoCmd(),
			benchCmd(),
			serveCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
