package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

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
	cfg := model.DefaultArenaConfig()
	var verbose bool

	cmd := &cobra.Command{
		Use:   "arena",
		Short: "Receive and log bot command lines",
		Example: `  arena --port 1337
  arena --where 'command == "POINT_AT" && x > 800'`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			err := serve(cfg)
			if err != nil {
				logrus.WithError(err).Error("arena stopped")
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Host, "host", cfg.Host, "address to listen on, empty for all")
	flags.IntVar(&cfg.Port, "port", cfg.Port, "TCP port to listen on")
	flags.BoolVar(&cfg.Multicore, "multicore", cfg.Multicore, "one event loop per CPU")
	flags.StringVar(&cfg.Filter, "where", cfg.Filter, "only log commands matching this expression (vars: command, player, x, y)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func serve(cfg model.ArenaConfig) error {
	events := make(chan model.Event, 256)
	srv, err := handler.NewArenaServer(cfg, events)
	if err != nil {
		return err
	}

	go func() {
		for ev := range events {
			entry := logrus.WithFields(logrus.Fields{"session": ev.Session, "player": ev.Player})
			if ev.Instruction.IsName() {
				entry.Infof("NAME %s", ev.Instruction.Name)
				continue
			}
			entry.Info(strings.TrimSuffix(ev.Instruction.Message.Line(), "\n"))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logrus.Info("interrupted, stopping")
		srv.Stop()
	}()

	err = srv.Serve()
	close(events)
	return err
}
