// Package config provides configuration management for the GloDiPay payment service.
// Configuration can be loaded from YAML files and overridden by environment variables.
package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"sync"
)

// Config holds all configuration for the GloDiPay payment service.
// Values can be set via YAML configuration file or environment variables.
// Environment variables take precedence over YAML values.
//
// Key material is supplied as PEM text at process start and is never
// reloaded at runtime; it must not be hard-coded in source.
type Config struct {
	IsDebug        bool  `yaml:"is_debug" env:"DEBUG" env-default:"false"`
	DisablePayment bool  `yaml:"disable_payment" env:"DISABLE_PAYMENT" env-default:"false"`
	LogRecords     int64 `yaml:"log_records" env:"LOG_RECORDS" env-default:"0"`
	Listen         struct {
		Type     string `yaml:"type" env:"LISTEN_TYPE" env-default:"port"`
		BindIP   string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port     string `yaml:"port" env:"PORT" env-default:"5200"`
		TLS      bool   `yaml:"tls_enabled" env:"TLS_ENABLED" env-default:"false"`
		CertFile string `yaml:"cert_file" env:"TLS_CERT_FILE" env-default:""`
		KeyFile  string `yaml:"key_file" env:"TLS_KEY_FILE" env-default:""`
	} `yaml:"listen"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:"admin"`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:"pass"`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:""`
	} `yaml:"mongo"`
	Merchant struct {
		Id         string `yaml:"id" env:"MERCHANT_ID" env-default:""`
		PrivateKey string `yaml:"private_key" env:"MERCHANT_PRIVATE_KEY" env-default:""`
		PublicKey  string `yaml:"public_key" env:"MERCHANT_PUBLIC_KEY" env-default:""`
		GatewayUrl string `yaml:"gateway_url" env:"GATEWAY_URL" env-default:"https://checkout.glodipay.com"`
	} `yaml:"merchant"`
	Reconcile struct {
		Enabled  bool   `yaml:"enabled" env:"RECONCILE_ENABLED" env-default:"false"`
		Schedule string `yaml:"schedule" env:"RECONCILE_SCHEDULE" env-default:"@every 5m"`
		// MinAgeMinutes is how old an open order must be before the
		// reconciler re-checks it against the gateway.
		MinAgeMinutes int `yaml:"min_age_minutes" env:"RECONCILE_MIN_AGE" env-default:"15"`
	} `yaml:"reconcile"`
}

var instance *Config
var once sync.Once

// GetConfig loads configuration from the specified YAML file path.
// Configuration values can be overridden by environment variables.
// This function uses a singleton pattern and only loads the config once.
//
// Environment variables take precedence over YAML values. See Config struct
// for the list of supported environment variables.
//
// Example:
//
//	cfg, err := config.GetConfig("config.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetConfig(path string) (*Config, error) {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("load config: %w; %s", err, desc)
			instance = nil
		}
	})
	return instance, err
}
