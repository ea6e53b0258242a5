package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Hardware  HardwareConfig  `mapstructure:"hardware"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type EngineConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

type TelemetryConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	// LockTimeout bounds how long one broadcast cycle may wait for the
	// registry before skipping.
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

type SnapshotConfig struct {
	Path string `mapstructure:"path"`
}

type HardwareConfig struct {
	// Backend selects the hardware access layer. Only "sim" ships in this
	// repository; real backends register under their board name.
	Backend string `mapstructure:"backend"`
}

type MQTTConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Broker         string        `mapstructure:"broker"`
	ClientID       string        `mapstructure:"client_id"`
	TopicPrefix    string        `mapstructure:"topic_prefix"`
	QoS            int           `mapstructure:"qos"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.shutdown_timeout", "30s")

	viper.SetDefault("engine.tick_interval", "1s")

	viper.SetDefault("telemetry.interval", "2s")
	viper.SetDefault("telemetry.lock_timeout", "250ms")

	viper.SetDefault("snapshot.path", "data/config.json")

	viper.SetDefault("hardware.backend", "sim")

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.client_id", "opendevicecore")
	viper.SetDefault("mqtt.topic_prefix", "opendevicecore")
	viper.SetDefault("mqtt.qos", 0)
	viper.SetDefault("mqtt.connect_timeout", "5s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
	viper.SetDefault("logging.max_size_mb", 10)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age_days", 28)
	viper.SetDefault("logging.compress", true)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("ODC")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
