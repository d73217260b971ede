package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "BIZADMIN"
	configFileName = "bizadmin"
)

type Config interface {
	EnvConfig
	APIConfig
	StorageConfig
	FakeAPIConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type APIConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetUploadTimeout() time.Duration
	GetRateLimit() float64
	GetRateBurst() int
	GetDefaultPageSize() int
}

type StorageConfig interface {
	GetTokenFile() string
	GetRouteTableFile() string
}

type FakeAPIConfig interface {
	GetPort() string
	GetJWTSecret() string
	GetAccessTokenTTL() time.Duration
	GetRotateRefreshTokens() bool
	GetAdminEmail() string
	GetAdminPassword() string
}

type settings struct {
	AppName  string `mapstructure:"appname"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"loglevel"`
	API      struct {
		BaseURL       string        `mapstructure:"baseurl"`
		Timeout       time.Duration `mapstructure:"timeout"`
		UploadTimeout time.Duration `mapstructure:"uploadtimeout"`
		RateLimit     float64       `mapstructure:"ratelimit"`
		RateBurst     int           `mapstructure:"rateburst"`
		PageSize      int           `mapstructure:"pagesize"`
	} `mapstructure:"api"`
	Storage struct {
		TokenFile  string `mapstructure:"tokenfile"`
		RouteTable string `mapstructure:"routetable"`
	} `mapstructure:"storage"`
	FakeAPI struct {
		Port          int           `mapstructure:"port"`
		JWTSecret     string        `mapstructure:"jwtsecret"`
		AccessTTL     time.Duration `mapstructure:"accessttl"`
		RotateRefresh bool          `mapstructure:"rotaterefresh"`
		AdminEmail    string        `mapstructure:"adminemail"`
		AdminPassword string        `mapstructure:"adminpassword"`
	} `mapstructure:"fakeapi"`
}

type mainConfig struct {
	s settings
}

var _ Config = mainConfig{}

// New returns the configuration built from defaults and BIZADMIN_* environment variables only.
func New() Config {
	cfg, err := load(viper.New(), "")
	if err != nil {
		// Defaults and env vars alone cannot fail to decode into settings.
		panic(err)
	}
	return cfg
}

// Load reads an optional config file (yaml/json/toml), then applies BIZADMIN_* environment overrides.
// An empty file searches for bizadmin.* in the working directory and the user config directory.
func Load(file string) (Config, error) {
	return load(viper.New(), file)
}

func load(v *viper.Viper, file string) (Config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	} else {
		v.SetConfigName(configFileName)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "bizadmin"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	var s settings
	if err := v.Unmarshal(&s, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return mainConfig{s: s}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("appname", "BizAdmin")
	v.SetDefault("env", "DEV")
	v.SetDefault("loglevel", "info")

	v.SetDefault("api.baseurl", "http://localhost:3001")
	v.SetDefault("api.timeout", "5s")
	v.SetDefault("api.uploadtimeout", "60s")
	v.SetDefault("api.ratelimit", 0)
	v.SetDefault("api.rateburst", 10)
	v.SetDefault("api.pagesize", 10)

	v.SetDefault("storage.tokenfile", defaultTokenFile())
	v.SetDefault("storage.routetable", "")

	v.SetDefault("fakeapi.port", 3001)
	v.SetDefault("fakeapi.jwtsecret", "dev-secret-change-me")
	v.SetDefault("fakeapi.accessttl", "15m")
	v.SetDefault("fakeapi.rotaterefresh", false)
	v.SetDefault("fakeapi.adminemail", "admin@example.com")
	v.SetDefault("fakeapi.adminpassword", "Admin123")
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".bizadmin-tokens.json"
	}
	return filepath.Join(dir, "bizadmin", "tokens.json")
}
