package api

import "time"

type Config struct {
	Host       string `env:"SERVER_HOST,default=localhost"`
	Port       uint16 `env:"SERVER_PORT,default=8080" validate:"min=1"`
	CORSOrigin string `env:"CORS_ORIGIN,default=*"`
	// MaxCount caps the count query parameter of image requests.
	MaxCount        int           `env:"SERVER_MAX_COUNT,default=50" validate:"min=1"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
}

func NewDefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            8080,
		CORSOrigin:      "*",
		MaxCount:        50,
		ShutdownTimeout: 10 * time.Second,
	}
}
