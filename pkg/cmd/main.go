package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"rand2m/handler"
	"rand2m/model"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := model.DefaultClientConfig()
	var verbose bool

	cmd := &cobra.Command{
		Use:   "rand2m",
		Short: "Bot that sends random commands to the arena server",
		Long: `rand2m connects to the arena, introduces itself with NAME and then
sends one random command (FORWARD, BACKWARD, STRAFE_RIGHT, STRAFE_LEFT,
FIRE or POINT_AT x y) every interval until the connection fails or the
process is interrupted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			err := run(cmd.Context(), cfg)
			if err != nil {
				logrus.WithError(err).Error("bot stopped")
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Host, "host", cfg.Host, "arena host")
	flags.IntVar(&cfg.Port, "port", cfg.Port, "arena TCP port")
	flags.StringVar(&cfg.Name, "name", cfg.Name, "name sent in the NAME line")
	flags.DurationVar(&cfg.Interval, "interval", cfg.Interval, "pause before each command")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed, 0 uses the clock")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log every command sent")
	return cmd
}

func run(parent context.Context, cfg model.ClientConfig) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	client, err := handler.DialCommandClient(ctx, cfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		if interrupted(ctx, err) {
			return nil
		}
		return err
	}
	defer client.Close()

	logrus.WithFields(logrus.Fields{"address": cfg.Address(), "seed": seed}).Info("connected")

	err = client.Run(ctx)
	if interrupted(ctx, err) {
		return nil
	}
	return err
}

// interrupted reports whether err only reflects a signal or cancelled parent.
func interrupted(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || ctx.Err() != nil
}
