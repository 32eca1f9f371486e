package config

import (
	"fmt"

	"github.com/defeedco/doomscroll/pkg/api"
	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/defeedco/doomscroll/pkg/gallery/providers"
	"github.com/defeedco/doomscroll/pkg/lib"
	"github.com/defeedco/doomscroll/pkg/lib/log"
	"github.com/joeshaw/envdecode"
)

type Config struct {
	Log       log.Config       `env:""`
	API       api.Config       `env:""`
	Gallery   gallery.Config   `env:""`
	Providers providers.Config `env:""`
}

func Load() (*Config, error) {
	var cfg Config

	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := lib.ValidateStruct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
