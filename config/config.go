package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	HTTP       HTTP
	MarketData MarketData
	Resolver   Resolver
	Catalog    Catalog
}

type HTTP struct {
	Addr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	CORSOrigin   string        `env:"HTTP_CORS_ORIGIN" envDefault:"*"`
}

type MarketData struct {
	// Source selects the backend: yahoo, exec or financego.
	Source  string        `env:"MARKET_DATA_SOURCE" envDefault:"yahoo"`
	Timeout time.Duration `env:"MARKET_DATA_TIMEOUT" envDefault:"15s"`
	Yahoo   Yahoo
	Exec    Exec
}

type Yahoo struct {
	HomeURL    string        `env:"YAHOO_HOME_URL" envDefault:"https://finance.yahoo.com"`
	QueryURL   string        `env:"YAHOO_QUERY_URL" envDefault:"https://query1.finance.yahoo.com"`
	UserAgent  string        `env:"YAHOO_USER_AGENT" envDefault:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	SessionTTL time.Duration `env:"YAHOO_SESSION_TTL" envDefault:"30m"`
	Debug      bool          `env:"YAHOO_DEBUG" envDefault:"false"`
}

type Exec struct {
	Command string   `env:"EXEC_COMMAND" envDefault:"python3"`
	Args    []string `env:"EXEC_ARGS" envSeparator:","`
}

type Resolver struct {
	Delay       time.Duration `env:"RESOLVER_DELAY" envDefault:"500ms"`
	Concurrency int           `env:"RESOLVER_CONCURRENCY" envDefault:"1"`
}

type Catalog struct {
	File      string `env:"CATALOG_FILE" envDefault:"data/listings.csv"`
	IndexPath string `env:"CATALOG_INDEX_PATH"`
}

// Load parses the environment, reading .env first when present.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("parse config error: %s", err)
	}
	return cfg
}
