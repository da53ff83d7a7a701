// Package configs contains the system configurations.
package configs

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clinic-portal/internal/schedule"

	"github.com/spf13/viper"
)

type smtpData struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type configData struct {
	ServerPort            int32         `mapstructure:"port"`
	DatabaseDSN           string        `mapstructure:"database_dsn"`
	DatabaseDriver        string        `mapstructure:"database_driver"`
	PrivateKeyFile        string        `mapstructure:"private_key_file"`
	MaxAppointmentsPerDay int           `mapstructure:"max_appointments_per_day"`
	Timezone              string        `mapstructure:"timezone"`
	LogLevel              string        `mapstructure:"log_level"`
	RedisAddr             string        `mapstructure:"redis_addr"`
	ReminderTTL           time.Duration `mapstructure:"reminder_ttl"`
	SMTP                  smtpData      `mapstructure:"smtp"`
}

// SMTP holds the outbound mail server settings.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Config holds the system configuration.
type Config interface {
	ServerPort() int32
	DatabaseDSN() string
	DatabaseDriver() string
	PrivateKeyFile() string
	PrivateKey() rsa.PrivateKey
	MaxAppointmentsPerDay() int
	Location() *time.Location
	LogLevel() string
	RedisAddr() string
	ReminderTTL() time.Duration
	SMTP() SMTP
}

type defaultConfig struct {
	data       *configData
	privateKey *rsa.PrivateKey
	location   *time.Location
}

func (c *defaultConfig) ServerPort() int32 {
	return c.data.ServerPort
}

func (c *defaultConfig) DatabaseDSN() string {
	return c.data.DatabaseDSN
}

func (c *defaultConfig) DatabaseDriver() string {
	return c.data.DatabaseDriver
}

func (c *defaultConfig) PrivateKeyFile() string {
	return c.data.PrivateKeyFile
}

func (c *defaultConfig) PrivateKey() rsa.PrivateKey {
	return *c.privateKey
}

func (c *defaultConfig) MaxAppointmentsPerDay() int {
	return c.data.MaxAppointmentsPerDay
}

func (c *defaultConfig) Location() *time.Location {
	return c.location
}

func (c *defaultConfig) LogLevel() string {
	return c.data.LogLevel
}

func (c *defaultConfig) RedisAddr() string {
	return c.data.RedisAddr
}

func (c *defaultConfig) ReminderTTL() time.Duration {
	return c.data.ReminderTTL
}

func (c *defaultConfig) SMTP() SMTP {
	return SMTP(c.data.SMTP)
}

// loadPrivateKey loads the PEM encoded key. Relative paths are resolved against the
// directory of the configuration file when they don't exist from the working directory.
func (c *defaultConfig) loadPrivateKey(configPath string) error {
	path := c.PrivateKeyFile()
	if _, err := os.Stat(path); os.IsNotExist(err) && !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(configPath), path)
	}
	pemFile, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read the private key: %w", err)
	}
	privatePem, _ := pem.Decode(pemFile)
	if privatePem == nil {
		return errors.New("the given private key is not PEM encoded")
	}
	pk, err := x509.ParsePKCS1PrivateKey(privatePem.Bytes)
	if err != nil {
		return fmt.Errorf("the given private key is not valid: %w", err)
	}
	c.privateKey = pk
	return nil
}

func (c *defaultConfig) validate() error {
	if c.data.ServerPort <= 0 || c.data.ServerPort > 65535 {
		return fmt.Errorf("invalid port %d", c.data.ServerPort)
	}
	if c.data.MaxAppointmentsPerDay <= 0 {
		return fmt.Errorf("max_appointments_per_day must be positive, got %d", c.data.MaxAppointmentsPerDay)
	}
	location, err := time.LoadLocation(c.data.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.data.Timezone, err)
	}
	c.location = location
	return nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("CLINIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("database_driver", "postgres")
	v.SetDefault("max_appointments_per_day", schedule.DefaultMaxAppointmentsPerDay)
	v.SetDefault("timezone", "UTC")
	v.SetDefault("log_level", "info")
	v.SetDefault("reminder_ttl", 36*time.Hour)
	v.SetDefault("smtp.port", 587)
	for _, key := range []string{"database_dsn", "private_key_file", "redis_addr", "smtp.host", "smtp.username", "smtp.password", "smtp.from"} {
		_ = v.BindEnv(key)
	}
	return v
}

// Load loads the given configuration file. Every key may be overridden by an environment
// variable prefixed with CLINIC_, e.g. CLINIC_DATABASE_DSN or CLINIC_SMTP_HOST.
func Load(configPath string) (Config, error) {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("an error occurred while loading config file: %w", err)
	}
	data := &configData{}
	if err := v.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("an error occurred while parsing config file: %w", err)
	}
	configuration := &defaultConfig{data: data}
	if err := configuration.validate(); err != nil {
		return nil, err
	}
	if configuration.PrivateKeyFile() != "" {
		if err := configuration.loadPrivateKey(configPath); err != nil {
			return nil, err
		}
	}
	return configuration, nil
}

// MustLoad loads the given configuration file and if any error occurs, will panic.
func MustLoad(configPath string) Config {
	config, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return config
}
