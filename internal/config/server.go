package config

import (
	"time"

	"github.com/spf13/pflag"
)

type ServerConfig struct {
	Server  Server  `fig:"server"`
	Relay   Relay   `fig:"relay"`
	Log     Log     `fig:"log"`
	Metrics Metrics `fig:"metrics"`
}

type Server struct {
	Addr string `fig:"addr" default:":8080"`
	// Origins allowed to open /ws. Empty allows any origin.
	AllowedOrigins  []string      `fig:"allowed_origins"`
	ReadBufferSize  int           `fig:"read_buffer_size" default:"1024"`
	WriteBufferSize int           `fig:"write_buffer_size" default:"1024"`
	MaxMessageSize  int64         `fig:"max_message_size" default:"65536"`
	WriteWait       time.Duration `fig:"write_wait" default:"10s"`
	PongWait        time.Duration `fig:"pong_wait" default:"60s"`
	SendQueue       int           `fig:"send_queue" default:"64"`
	// Inbound messages per second per connection, with Burst headroom.
	RateLimit       float64       `fig:"rate_limit" default:"50"`
	RateBurst       int           `fig:"rate_burst" default:"100"`
	ShutdownTimeout time.Duration `fig:"shutdown_timeout" default:"5s"`
	Profiling       bool          `fig:"profiling"`
}

type Relay struct {
	RequireMembership bool `fig:"require_membership"`
}

type Metrics struct {
	Disabled bool `fig:"disabled"`
}

// ServerFlags are command line overrides, applied after the file and env.
type ServerFlags struct {
	Path              string
	Addr              string
	Debug             bool
	RequireMembership bool

	fs *pflag.FlagSet
}

func (f *ServerFlags) WithFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&f.Path, "config", "c", "", "Path to the config file")
	fs.StringVar(&f.Addr, "addr", "", "Listen address, e.g. :8080")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.RequireMembership, "require-membership", false, "Drop signals from sessions outside the room")
	f.fs = fs
}

func (f *ServerFlags) apply(c *ServerConfig) {
	if f.fs == nil {
		return
	}
	if f.fs.Changed("addr") {
		c.Server.Addr = f.Addr
	}
	if f.fs.Changed("debug") && f.Debug {
		c.Log.Level = "debug"
	}
	if f.fs.Changed("require-membership") {
		c.Relay.RequireMembership = f.RequireMembership
	}
}

func LoadServer(flags *ServerFlags) (ServerConfig, error) {
	var conf ServerConfig
	if flags == nil {
		flags = &ServerFlags{}
	}
	if err := Load(&conf, flags.Path, ServerEnvPrefix); err != nil {
		return conf, err
	}
	flags.apply(&conf)
	return conf, nil
}
