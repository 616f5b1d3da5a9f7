package test

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// IT_READ_TIMEOUT bounds how long a scenario waits for one frame
	ReadTimeout time.Duration `envconfig:"IT_READ_TIMEOUT" default:"3s"`
	// IT_LOG_LEVEL tunes the wired components' verbosity during a run
	LogLevel string `envconfig:"IT_LOG_LEVEL" default:"ERROR"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
