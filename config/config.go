// Ininicializing common application configuration
package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Flux      FluxConfig      `mapstructure:"flux"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Icons     IconsConfig     `mapstructure:"icons"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
}

type ServerConfig struct {
	AppVersion   string `json:"appVersion"`
	Host         string `json:"host" validate:"required"`
	Port         string `json:"port" validate:"required"`
	Timeout      time.Duration
	Idle_timeout time.Duration
	Env          string `json:"environment"`
	Mode         string `mapstructure:"mode"`
}

type FluxConfig struct {
	APIKey                  string        `mapstructure:"api_key"`
	Region                  string        `mapstructure:"region"`
	SafetyTolerance         int           `mapstructure:"safety_tolerance"`
	PollTimeout             time.Duration `mapstructure:"poll_timeout"`
	MaxSubmitAttempts       int           `mapstructure:"max_submit_attempts"`
	MaxConcurrent           int           `mapstructure:"max_concurrent"`
	MaxConcurrentKontextMax int           `mapstructure:"max_concurrent_kontext_max"`
}

type GeneratorConfig struct {
	OutputDir     string        `mapstructure:"output_dir"`
	CourtesyDelay time.Duration `mapstructure:"courtesy_delay"`
}

type IconsConfig struct {
	AssetsDir string `mapstructure:"assets_dir"`
	BaseURL   string `mapstructure:"base_url"`
	Size      int    `mapstructure:"size"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	err := viperInstance.ReadInConfig()

	if err != nil {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		log.Fatalf("unable to decode config into struct, %v", err)
		return nil, err
	}
	return &c, nil
}

// Default returns the configuration used when no config file is present,
// which is the common case for the CLI tool.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			Timeout:      15 * time.Second,
			Idle_timeout: 60 * time.Second,
		},
		Flux: FluxConfig{
			APIKey:                  GetEnv("BFL_API_KEY", ""),
			Region:                  GetEnv("BFL_REGION", "global"),
			SafetyTolerance:         2,
			PollTimeout:             300 * time.Second,
			MaxSubmitAttempts:       10,
			MaxConcurrent:           24,
			MaxConcurrentKontextMax: 6,
		},
		Generator: GeneratorConfig{
			OutputDir:     "generated_assets",
			CourtesyDelay: 3 * time.Second,
		},
		Icons: IconsConfig{
			AssetsDir: "assets/heroicons",
			BaseURL:   "https://raw.githubusercontent.com/tailwindlabs/heroicons/master/src/24/solid",
			Size:      32,
		},
		Kafka: KafkaConfig{
			Brokers: GetEnv("KAFKA_BROKERS", "localhost:9094"),
			Topic:   GetEnv("KAFKA_TOPIC", "asset-events"),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
