package ecommerce

import (
	"encoding/base64"
	"errors"
	"time"
	_ "time/tzdata"
)

// RakutenConfig holds configuration for the Rakuten RMS order API
type RakutenConfig struct {
	// ServiceSecret is the RMS WEB SERVICE service secret
	ServiceSecret string
	// LicenseKey is the RMS WEB SERVICE license key
	LicenseKey string
	// APIBaseURL is the base URL of the RMS API
	APIBaseURL string
	// TimeZone is the marketplace timezone used for day boundaries
	TimeZone string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// RequestsPerSecond paces outbound calls (RMS allows about one per second)
	RequestsPerSecond float64
	// DetailVersion is the getOrder response version
	DetailVersion int
}

const (
	// RakutenProductionAPIURL is the production RMS endpoint
	RakutenProductionAPIURL = "https://api.rms.rakuten.co.jp/es/2.0"
	// RakutenDefaultTimeZone is the timezone of Rakuten Ichiba order dates
	RakutenDefaultTimeZone = "Asia/Tokyo"
	// RakutenDefaultDetailVersion is the getOrder version that carries PackageModelList
	RakutenDefaultDetailVersion = 7
)

// Errors for Rakuten configuration
var (
	ErrRakutenConfigMissingServiceSecret = errors.New("rakuten: service secret is required")
	ErrRakutenConfigMissingLicenseKey    = errors.New("rakuten: license key is required")
	ErrRakutenConfigInvalidTimeZone      = errors.New("rakuten: invalid time zone")
)

// NewRakutenConfig creates a new Rakuten configuration with defaults
func NewRakutenConfig(serviceSecret, licenseKey string) *RakutenConfig {
	return &RakutenConfig{
		ServiceSecret:     serviceSecret,
		LicenseKey:        licenseKey,
		APIBaseURL:        RakutenProductionAPIURL,
		TimeZone:          RakutenDefaultTimeZone,
		TimeoutSeconds:    30,
		RequestsPerSecond: 1,
		DetailVersion:     RakutenDefaultDetailVersion,
	}
}

// Validate validates the Rakuten configuration and fills defaults
func (c *RakutenConfig) Validate() error {
	if c.ServiceSecret == "" {
		return ErrRakutenConfigMissingServiceSecret
	}
	if c.LicenseKey == "" {
		return ErrRakutenConfigMissingLicenseKey
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = RakutenProductionAPIURL
	}
	if c.TimeZone == "" {
		c.TimeZone = RakutenDefaultTimeZone
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return ErrRakutenConfigInvalidTimeZone
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 1
	}
	if c.DetailVersion <= 0 {
		c.DetailVersion = RakutenDefaultDetailVersion
	}
	return nil
}

// Location returns the marketplace timezone. Call after Validate.
func (c *RakutenConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AuthorizationHeader returns the ESA authorization header value
func (c *RakutenConfig) AuthorizationHeader() string {
	token := base64.StdEncoding.EncodeToString([]byte(c.ServiceSecret + ":" + c.LicenseKey))
	return "ESA " + token
}
