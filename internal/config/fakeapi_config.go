package config

import (
	"fmt"
	"time"
)

func (c mainConfig) GetPort() string {
	return fmt.Sprintf(":%d", c.s.FakeAPI.Port)
}

func (c mainConfig) GetJWTSecret() string {
	return c.s.FakeAPI.JWTSecret
}

func (c mainConfig) GetAccessTokenTTL() time.Duration {
	if c.s.FakeAPI.AccessTTL <= 0 {
		return 15 * time.Minute
	}
	return c.s.FakeAPI.AccessTTL
}

func (c mainConfig) GetRotateRefreshTokens() bool {
	return c.s.FakeAPI.RotateRefresh
}

func (c mainConfig) GetAdminEmail() string {
	return c.s.FakeAPI.AdminEmail
}

func (c mainConfig) GetAdminPassword() string {
	return c.s.FakeAPI.AdminPassword
}
