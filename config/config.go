package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "CATALOG_CONFIG_FILE"

type remote struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
}

type storage struct {
	Backend  string `mapstructure:"backend"`
	FilePath string `mapstructure:"file_path"`
	SQLDB    string `mapstructure:"sql_db"`
}

type sync struct {
	PageSize     int           `mapstructure:"page_size"`
	MaxPages     int           `mapstructure:"max_pages"`
	FetchRetries int           `mapstructure:"fetch_retries"`
	Interval     time.Duration `mapstructure:"interval"`
}

type query struct {
	FuzzyMaxDistance int               `mapstructure:"fuzzy_max_distance"`
	FuzzyLimit       int               `mapstructure:"fuzzy_limit"`
	UpsellLimit      int               `mapstructure:"upsell_limit"`
	SkuImages        map[string]string `mapstructure:"sku_images"`
}

type topics struct {
	ProductEvents string `mapstructure:"product_events"`
}

type brokerTLS struct {
	CAPath   string `mapstructure:"ca_path"`
	CertPath string `mapstructure:"cert_path"`
	KeyPath  string `mapstructure:"key_path"`
}

func (t brokerTLS) Enabled() bool {
	return t.CAPath != ""
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	TLS                brokerTLS `mapstructure:"tls"`
	Topics             topics    `mapstructure:"topics"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	Remote         remote     `mapstructure:"remote"`
	Storage        storage    `mapstructure:"storage"`
	Sync           sync       `mapstructure:"sync"`
	Query          query      `mapstructure:"query"`
	Broker         broker     `mapstructure:"broker"`
}

// FeedEnabled reports whether the change feed should be wired.
func (c Config) FeedEnabled() bool {
	return len(c.Broker.SeedBrokers) != 0
}

func Load() Config {
	viper.SetConfigFile(getConfigFilepath())

	err := viper.ReadInConfig()
	if err != nil {
		die(err)
	}

	var cfg Config
	err = viper.UnmarshalExact(&cfg)
	if err != nil {
		die(err)
	}

	return cfg
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q

	Remote:
	BaseURL=%q
	Timeout=%q
	RateLimit=%v

	Storage:
	Backend=%q
	FilePath=%q

	Sync:
	PageSize=%d
	MaxPages=%d
	FetchRetries=%d
	Interval=%q

	Query:
	FuzzyMaxDistance=%d
	FuzzyLimit=%d
	UpsellLimit=%d
	SkuImages=%d entries

	Broker:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%v
	Topics:
		ProductEvents=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.Remote.BaseURL,
		c.Remote.Timeout,
		c.Remote.RateLimit,
		c.Storage.Backend,
		c.Storage.FilePath,
		c.Sync.PageSize,
		c.Sync.MaxPages,
		c.Sync.FetchRetries,
		c.Sync.Interval,
		c.Query.FuzzyMaxDistance,
		c.Query.FuzzyLimit,
		c.Query.UpsellLimit,
		len(c.Query.SkuImages),
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.Topics.ProductEvents,
	)
}
