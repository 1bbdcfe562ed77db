// Package bitable implements the pivot table and notification ports on top
// of the Lark (Feishu) open platform.
package bitable

import (
	"errors"
)

// Config holds configuration for the Lark open platform
type Config struct {
	// AppID is the self-built app id
	AppID string
	// AppSecret is the self-built app secret
	AppSecret string
	// APIBaseURL is the open-apis base URL
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// NotifyOpenID receives run notifications; empty disables notifications
	NotifyOpenID string
}

const (
	// LarkSuiteAPIURL is the international open platform endpoint
	LarkSuiteAPIURL = "https://open.larksuite.com/open-apis"
	// FeishuAPIURL is the mainland China open platform endpoint
	FeishuAPIURL = "https://open.feishu.cn/open-apis"
)

// Errors for Lark configuration
var (
	ErrConfigMissingAppID     = errors.New("bitable: app id is required")
	ErrConfigMissingAppSecret = errors.New("bitable: app secret is required")
)

// NewConfig creates a new Lark configuration with defaults
func NewConfig(appID, appSecret string) *Config {
	return &Config{
		AppID:          appID,
		AppSecret:      appSecret,
		APIBaseURL:     LarkSuiteAPIURL,
		TimeoutSeconds: 10,
	}
}

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	if c.AppID == "" {
		return ErrConfigMissingAppID
	}
	if c.AppSecret == "" {
		return ErrConfigMissingAppSecret
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = LarkSuiteAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	return nil
}
