// Package main provides moviectl, a command-line front-end for the movie
// catalog API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hafizmfadli/movie-catalog/internal/client"
	"github.com/hafizmfadli/movie-catalog/internal/jsonlog"
	"github.com/urfave/cli/v3"
)

var version = "dev"

const defaultAPI = "http://localhost:5000/api"

func main() {
	err := newApp().Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "moviectl",
		Version: version,
		Usage:   "Browse and manage the movie catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "base URL of the catalog API",
				Value:   defaultAPI,
				Sources: cli.EnvVars("MOVIECTL_API"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "timeout for each request",
				Value: client.DefaultTimeout,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log failed requests as JSON to stderr",
			},
		},
		Commands: []*cli.Command{
			listCommand(),
			showCommand(),
			searchCommand(),
			statsCommand(),
			addCommand(),
			editCommand(),
			deleteCommand(),
			healthCommand(),
		},
	}
}

// gateway builds an API client from the global flags.
func gateway(cmd *cli.Command) *client.Client {
	var logOut io.Writer = io.Discard
	level := jsonlog.LevelOff
	if cmd.Bool("verbose") {
		logOut = cmd.Root().ErrWriter
		if logOut == nil {
			logOut = os.Stderr
		}
		level = jsonlog.LevelError
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = client.DefaultTimeout
	}

	return client.New(cmd.String("api"), jsonlog.NewLogger(logOut, level), client.WithTimeout(timeout))
}

// stdout is where command output goes.
func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
