package main

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Argument errors.
var (
	ErrMissingCommand = errors.New("missing command")
	ErrDataSource     = errors.New("exactly one of --images, --folder or --synthetic is required")
)

// TrainArguments are the flags of the train command.
type TrainArguments struct {
	ConfigPath string

	Images     string
	Labels     string
	TestImages string
	TestLabels string

	Folder    string
	Size      int
	Channels  int
	ValSplit  float64
	Synthetic int

	// Digits restricts an IDX set to two labels, e.g. "0,1".
	Digits []int
	Limit  int

	// Overrides for the config file. Zero values leave the config untouched.
	Epochs       int
	LearningRate float64
	Seed         *int64
}

// Arguments is the parsed command line. Exactly one command is set.
type Arguments struct {
	Verbose bool

	Version *struct{}
	Train   *TrainArguments
}

// ParseArguments parses argv. Help and usage errors are already printed by
// the cli package.
func ParseArguments(argv []string, appVersion string) (*Arguments, error) {
	var args Arguments
	app := cli.NewApp()
	app.Name = "tinycnn"
	app.Usage = "Train a small convolutional network on image classification data"
	app.Version = appVersion
	app.HideVersion = true

	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "verbose,v", Usage: "Debug logging"},
	}

	app.Commands = []cli.Command{
		{
			Name:  "version",
			Usage: "Show version",
			Action: func(c *cli.Context) error {
				args.Version = &struct{}{}
				return nil
			},
		},
		{
			Name:  "train",
			Usage: "Train and evaluate a network",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "config,c", Usage: "YAML config file"},
				cli.StringFlag{Name: "images", Usage: "IDX training images (optionally .gz)"},
				cli.StringFlag{Name: "labels", Usage: "IDX training labels (optionally .gz)"},
				cli.StringFlag{Name: "test-images", Usage: "IDX test images"},
				cli.StringFlag{Name: "test-labels", Usage: "IDX test labels"},
				cli.StringFlag{Name: "folder", Usage: "Directory with one subdirectory per class"},
				cli.IntFlag{Name: "size", Value: 28, Usage: "Image width and height for --folder and --synthetic"},
				cli.IntFlag{Name: "channels", Value: 1, Usage: "Channels for --folder (1 or 3)"},
				cli.Float64Flag{Name: "val", Value: 0.2, Usage: "Held-out fraction for --folder"},
				cli.IntFlag{Name: "synthetic", Usage: "Generate N bar images instead of loading data"},
				cli.StringFlag{Name: "digits", Usage: "Keep only two labels, e.g. 0,1"},
				cli.IntFlag{Name: "limit", Usage: "Use at most N training and N test examples"},
				cli.IntFlag{Name: "epochs", Usage: "Override epochs"},
				cli.Float64Flag{Name: "lr", Usage: "Override learning rate"},
				cli.Int64Flag{Name: "seed", Usage: "Override seed"},
			},
			Action: func(c *cli.Context) error {
				ta, err := parseTrain(c)
				if err != nil {
					return err
				}
				args.Train = ta
				return nil
			},
		},
	}
	app.Before = func(c *cli.Context) error {
		args.Verbose = c.GlobalBool("verbose")
		return nil
	}

	if err := app.Run(argv); err != nil {
		return nil, err
	}
	if args.Version == nil && args.Train == nil {
		return &args, ErrMissingCommand
	}
	return &args, nil
}

func parseTrain(c *cli.Context) (*TrainArguments, error) {
	ta := &TrainArguments{
		ConfigPath:   c.String("config"),
		Images:       c.String("images"),
		Labels:       c.String("labels"),
		TestImages:   c.String("test-images"),
		TestLabels:   c.String("test-labels"),
		Folder:       c.String("folder"),
		Size:         c.Int("size"),
		Channels:     c.Int("channels"),
		ValSplit:     c.Float64("val"),
		Synthetic:    c.Int("synthetic"),
		Limit:        c.Int("limit"),
		Epochs:       c.Int("epochs"),
		LearningRate: c.Float64("lr"),
	}
	if c.IsSet("seed") {
		seed := c.Int64("seed")
		ta.Seed = &seed
	}

	sources := 0
	for _, set := range []bool{ta.Images != "", ta.Folder != "", ta.Synthetic > 0} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, ErrDataSource
	}
	if ta.Images != "" && ta.Labels == "" {
		return nil, errors.New("--images requires --labels")
	}
	if (ta.TestImages == "") != (ta.TestLabels == "") {
		return nil, errors.New("--test-images and --test-labels must be given together")
	}

	if d := c.String("digits"); d != "" {
		digits, err := parseDigits(d)
		if err != nil {
			return nil, err
		}
		ta.Digits = digits
	}
	return ta, nil
}

func parseDigits(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, errors.Errorf("--digits wants two labels like 0,1, got %q", s)
	}
	digits := make([]int, 2)
	for i, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.Wrapf(err, "--digits %q", s)
		}
		digits[i] = d
	}
	return digits, nil
}
