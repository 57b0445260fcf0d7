package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Dotenv string `mapstructure:"dotenv"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Providers struct {
		NominatimURL      string        `mapstructure:"nominatimURL"`
		OverpassURL       string        `mapstructure:"overpassURL"`
		OSRMURL           string        `mapstructure:"osrmURL"`
		OpenMeteoURL      string        `mapstructure:"openMeteoURL"`
		UserAgent         string        `mapstructure:"userAgent"`
		Timeout           time.Duration `mapstructure:"timeout"`
		Language          string        `mapstructure:"language"`
		HotelRadiusMeters int           `mapstructure:"hotelRadiusMeters"`
	} `mapstructure:"providers"`
	Conversation struct {
		ScratchTTL      time.Duration `mapstructure:"scratchTTL"`
		GeocodeCacheTTL time.Duration `mapstructure:"geocodeCacheTTL"`
	} `mapstructure:"conversation"`
	JWT JWTConfig `mapstructure:"jwt"`
}

type JWTConfig struct {
	SecretKey string        `mapstructure:"secretKey"`
	TokenTTL  time.Duration `mapstructure:"tokenTTL"`
	Issuer    string        `mapstructure:"issuer"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	return config, nil
}
