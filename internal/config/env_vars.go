package config

import "strings"

func (c mainConfig) GetAppName() string {
	return c.s.AppName
}

func (c mainConfig) GetEnv() string {
	if c.s.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(c.s.Env)
}

func (c mainConfig) GetLogLevel() string {
	return c.s.LogLevel
}
