// Package main provides the tinycnn command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
)

// Injected at build time with -ldflags "-X main.version=...".
var version = "v0.1.0-dev"

func main() {
	args, err := ParseArguments(os.Args, version)
	if err != nil {
		if err == ErrMissingCommand {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if args.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if args.Version != nil {
		fmt.Printf("tinycnn %s\n", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := Train(ctx, args.Train, logrus.StandardLogger(), os.Stdout); err != nil {
		logrus.WithError(err).Error("Training failed")
		stop()
		os.Exit(3)
	}
}
