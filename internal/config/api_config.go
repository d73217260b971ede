package config

import (
	"strings"
	"time"
)

// GetBaseURL returns the backend root (e.g., "http://localhost:3001") without a trailing slash
func (c mainConfig) GetBaseURL() string {
	return strings.TrimRight(c.s.API.BaseURL, "/")
}

func (c mainConfig) GetRequestTimeout() time.Duration {
	if c.s.API.Timeout <= 0 {
		return 5 * time.Second
	}
	return c.s.API.Timeout
}

// GetUploadTimeout applies to multipart uploads and outbound email requests
func (c mainConfig) GetUploadTimeout() time.Duration {
	if c.s.API.UploadTimeout <= 0 {
		return 60 * time.Second
	}
	return c.s.API.UploadTimeout
}

// GetRateLimit is requests per second; 0 disables client-side limiting
func (c mainConfig) GetRateLimit() float64 {
	return c.s.API.RateLimit
}

func (c mainConfig) GetRateBurst() int {
	if c.s.API.RateBurst <= 0 {
		return 1
	}
	return c.s.API.RateBurst
}

func (c mainConfig) GetDefaultPageSize() int {
	if c.s.API.PageSize <= 0 {
		return 10
	}
	return c.s.API.PageSize
}
