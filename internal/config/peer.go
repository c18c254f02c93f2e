package config

type PeerConfig struct {
	Signaling Signaling `fig:"signaling"`
	ICE       ICE       `fig:"ice"`
	Media     Media     `fig:"media"`
	Directory Directory `fig:"directory"`
	Log       Log       `fig:"log"`
}

type Signaling struct {
	URL    string `fig:"url" default:"ws://localhost:8080/ws"`
	Origin string `fig:"origin"`
}

type ICE struct {
	Servers []string `fig:"servers" default:"[stun:stun.l.google.com:19302]"`
	PortMin uint16   `fig:"port_min"`
	PortMax uint16   `fig:"port_max"`
}

type Media struct {
	NoAudio bool `fig:"no_audio"`
	NoVideo bool `fig:"no_video"`
}

// Directory is the optional room CRUD service. Empty URL disables it.
type Directory struct {
	URL   string `fig:"url"`
	Token string `fig:"token"`
}

func LoadPeer(path string) (PeerConfig, error) {
	var conf PeerConfig
	err := Load(&conf, path, PeerEnvPrefix)
	return conf, err
}
