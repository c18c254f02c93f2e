// Package config loads server and peer settings from a config file and
// the environment.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/kkyr/fig"
)

const (
	ServerEnvPrefix = "SIGNAL"
	PeerEnvPrefix   = "PEER"
)

const fileName = "config.yaml"

// Load fills conf from a config file and env variables with the given
// prefix (SIGNAL_SERVER_ADDR sets server.addr). An explicit path must
// exist; without one the search dirs are tried and a missing file falls
// back to env and defaults.
func Load(conf any, path, envPrefix string) error {
	if path != "" {
		return fig.Load(conf, fig.File(filepath.Base(path)), fig.Dirs(filepath.Dir(path)), fig.UseEnv(envPrefix))
	}
	dirs := []string{".", "configs"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home+"/.rendezvous")
	}
	err := fig.Load(conf, fig.File(fileName), fig.Dirs(dirs...), fig.UseEnv(envPrefix))
	if errors.Is(err, fig.ErrFileNotFound) {
		return LoadEnv(conf, envPrefix)
	}
	return err
}

func LoadEnv(conf any, envPrefix string) error {
	return fig.Load(conf, fig.IgnoreFile(), fig.UseEnv(envPrefix))
}
