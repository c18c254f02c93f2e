package main

import (
	"fmt"
	"os"

	"github.com/Wyydra/rendezvous/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagURL       string
	flagDirectory string
	flagToken     string
	flagDebug     bool
)

var rootCmd = &cobra.Command{
	Use:   "peer",
	Short: "Signaling client for room based WebRTC calls",
	Long: `peer connects to a rendezvous signaling server, joins a room and
negotiates a WebRTC session with the other participant.`,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "Path to the config file")
	pf.StringVar(&flagURL, "url", "", "Signaling server WebSocket URL")
	pf.StringVar(&flagDirectory, "directory", "", "Room directory base URL")
	pf.StringVar(&flagToken, "token", "", "Bearer token for the room directory")
	pf.BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(joinCmd, roomsCmd)
}

// loadConfig reads the config file and env, then applies flags that were set.
func loadConfig(cmd *cobra.Command) (config.PeerConfig, zerolog.Logger, error) {
	conf, err := config.LoadPeer(flagConfig)
	if err != nil {
		return conf, zerolog.Nop(), fmt.Errorf("config: %w", err)
	}
	applyFlags(cmd, &conf)

	l, err := conf.Log.Logger(os.Stderr)
	if err != nil {
		return conf, zerolog.Nop(), fmt.Errorf("log: %w", err)
	}
	log.Logger = l
	return conf, l, nil
}

func applyFlags(cmd *cobra.Command, conf *config.PeerConfig) {
	flags := cmd.Flags()
	if flags.Changed("url") {
		conf.Signaling.URL = flagURL
	}
	if flags.Changed("directory") {
		conf.Directory.URL = flagDirectory
	}
	if flags.Changed("token") {
		conf.Directory.Token = flagToken
	}
	if flags.Changed("debug") && flagDebug {
		conf.Log.Level = "debug"
	}
	if flags.Changed("ice") {
		conf.ICE.Servers = flagICE
	}
	if flags.Changed("no-audio") {
		conf.Media.NoAudio = flagNoAudio
	}
	if flags.Changed("no-video") {
		conf.Media.NoVideo = flagNoVideo
	}
}

func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
