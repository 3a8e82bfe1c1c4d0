// Command rayserver is the dedicated game server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rayman-net/slideshift/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("RAYSERVER")
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "rayserver",
		Short:   "Dedicated game server",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(v)
		},
	}

	flags := cmd.Flags()
	flags.Int("port", 7777, "TCP port to listen on")
	flags.Int("max-players", 4, "maximum concurrent sessions")
	flags.Int("tick-rate", 60, "simulation ticks per second")
	flags.Int("sync-rate", 20, "authoritative state broadcasts per second")

	_ = v.BindPFlag("port", flags.Lookup("port"))
	_ = v.BindPFlag("max_players", flags.Lookup("max-players"))
	_ = v.BindPFlag("tick_rate", flags.Lookup("tick-rate"))
	_ = v.BindPFlag("sync_rate", flags.Lookup("sync-rate"))

	return cmd
}

func runServer(v *viper.Viper) error {
	cfg := server.DefaultConfig()
	cfg.Port = v.GetInt("port")
	cfg.MaxPlayers = v.GetInt("max_players")
	cfg.TickRate = v.GetInt("tick_rate")
	cfg.SyncRate = v.GetInt("sync_rate")

	s := server.New(cfg)
	if err := s.Listen(); err != nil {
		return fmt.Errorf("rayserver: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		s.Stop()
	}()

	fmt.Printf("rayserver listening on :%d (tick=%d sync=%d)\n", cfg.Port, cfg.TickRate, cfg.SyncRate)
	return s.StartBlocking()
}
