package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	WebRTC   WebRTCConfig   `yaml:"webrtc"`
	Presence PresenceConfig `yaml:"presence"`
	Rooms    RoomsConfig    `yaml:"rooms"`
}

type HTTPConfig struct {
	Address      string   `yaml:"address" env-default:""`
	AllowOrigins []string `yaml:"allow_origins"`
}

type DatabaseConfig struct {
	// DSN selects the postgres presence store; empty keeps presence
	// in-memory (signaling state is always in-memory).
	DSN string `yaml:"dsn" env:"DATABASE_DSN"`
}

type WebRTCConfig struct {
	STUNServers []string `yaml:"stun_servers" env-default:""`
}

type PresenceConfig struct {
	SweepInterval     time.Duration `yaml:"sweep_interval"`
	OfflineThreshold  time.Duration `yaml:"offline_threshold"`
	TypingSweepEvery  time.Duration `yaml:"typing_sweep_every"`
	TypingThreshold   time.Duration `yaml:"typing_threshold"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

type RoomsConfig struct {
	EmptyTTL      time.Duration `yaml:"empty_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.HTTP.AllowOrigins) == 0 {
		c.HTTP.AllowOrigins = []string{"http://localhost:3000"}
	}
	if len(c.WebRTC.STUNServers) == 0 {
		c.WebRTC.STUNServers = []string{"stun:stun.l.google.com:19302"}
	}
	if c.Presence.SweepInterval <= 0 {
		c.Presence.SweepInterval = 5 * time.Minute
	}
	if c.Presence.OfflineThreshold <= 0 {
		c.Presence.OfflineThreshold = 10 * time.Minute
	}
	if c.Presence.TypingSweepEvery <= 0 {
		c.Presence.TypingSweepEvery = time.Minute
	}
	if c.Presence.TypingThreshold <= 0 {
		c.Presence.TypingThreshold = 2 * time.Minute
	}
	if c.Presence.HeartbeatInterval <= 0 {
		c.Presence.HeartbeatInterval = 30 * time.Second
	}
	if c.Rooms.EmptyTTL <= 0 {
		c.Rooms.EmptyTTL = 10 * time.Minute
	}
	if c.Rooms.SweepInterval <= 0 {
		c.Rooms.SweepInterval = 5 * time.Minute
	}
}
