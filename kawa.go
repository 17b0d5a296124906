package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"deedles.dev/kawabg/internal/bg"
	"deedles.dev/kawabg/internal/config"
	"deedles.dev/kawabg/internal/wire"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ErrUsage is returned when kawabg is started without its three
// arguments, which usually means that a person rather than the
// compositor ran it.
var ErrUsage = errors.New("Do not run this program manually. See man 5 sway and look for output options.")

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kawabg <output_index> <image_path_or_color> <mode>",
		Short: "Paint the background of a Wayland output",
		Long: `kawabg is started by a compositor to paint the background of one output with an
image or a solid color. mode is one of solid_color, stretch, fill, fit, center
or tile.`,

		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				return ErrUsage
			}
			return nil
		},

		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			logrus.SetLevel(cfg.Level())

			return run(cfg, args[0], args[1], args[2])
		},
	}
	config.AddFlags(cmd.Flags())

	return cmd
}

func run(cfg *config.Config, index, arg, mode string) error {
	i, err := strconv.Atoi(index)
	if err != nil {
		return fmt.Errorf("invalid output index %q: %w", index, err)
	}

	conn, err := wire.Dial(cfg.Socket)
	if err != nil {
		return fmt.Errorf("connect to compositor: %w", err)
	}

	app, err := NewApp(conn, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err := app.Close()
		if err != nil {
			logrus.WithError(err).Debug("teardown")
		}
	}()

	out, err := app.Output(i)
	if err != nil {
		return err
	}
	logrus.Infof("Using output %d of %d", i, len(app.outputs))

	_, err = app.AddBackground(out)
	if err != nil {
		return fmt.Errorf("failed to create surfaces: %w", err)
	}

	src, m, err := bg.Load(arg, mode)
	if err != nil {
		return err
	}
	err = app.Render(src, m)
	if err != nil {
		return err
	}

	stop := app.HandleSignals()
	defer stop()

	app.Run()
	return nil
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(os.Stderr)

	err := newRootCmd().Execute()
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
