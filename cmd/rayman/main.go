// Command rayman is the game client.
// Embeds server for local/singleplayer mode.
package main

import (
	"fmt"
	"os"

	"github.com/rayman-net/slideshift/internal/client"
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
	v.SetEnvPrefix("RAYMAN")
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "rayman",
		Short:   "Terminal side-scroller client",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(v)
		},
	}

	flags := cmd.Flags()
	flags.String("connect", "", "remote server address (host:port); empty runs an embedded server for local play")
	flags.String("name", "player", "player display name")
	flags.Int("tick-rate", 60, "client simulation ticks per second")
	flags.String("render", "auto", "renderer: auto, ascii, halfblock, or braille")

	_ = v.BindPFlag("connect", flags.Lookup("connect"))
	_ = v.BindPFlag("name", flags.Lookup("name"))
	_ = v.BindPFlag("tick_rate", flags.Lookup("tick-rate"))
	_ = v.BindPFlag("render", flags.Lookup("render"))

	return cmd
}

func runClient(v *viper.Viper) error {
	cfg := client.Config{
		ServerAddr: v.GetString("connect"),
		PlayerName: v.GetString("name"),
		RenderMode: parseRenderMode(v.GetString("render")),
		TickRate:   v.GetInt("tick_rate"),
	}

	c := client.New(cfg)
	if err := c.Connect(); err != nil {
		return fmt.Errorf("rayman: connect: %w", err)
	}
	defer c.Disconnect()

	return c.Run()
}

func parseRenderMode(s string) client.RenderMode {
	switch s {
	case "ascii":
		return client.RenderASCII
	case "halfblock":
		return client.RenderHalfBlock
	case "braille":
		return client.RenderBraille
	default:
		return client.RenderAuto
	}
}
