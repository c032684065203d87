// Package settings holds the gateway configuration managed through the admin
// surface: gateway URL, product identity, shared secret and the flat handling
// fee. Values are loaded as an immutable snapshot per request.
package settings

import (
	"context"
	"errors"
)

// SystemName identifies this plugin in the settings store and the registry.
const SystemName = "Payments.ChronoPay"

// DefaultGatewayURL is seeded on install.
const DefaultGatewayURL = "https://secure.chronopay.com/index_shop.cgi"

// ErrNotConfigured is returned when no settings have been installed.
var ErrNotConfigured = errors.New("settings: not configured")

// Settings is the admin-editable gateway configuration.
type Settings struct {
	GatewayURL    string  `json:"gatewayUrl" validate:"required,url"`
	ProductID     string  `json:"productId"`
	ProductName   string  `json:"productName"`
	SharedSecret  string  `json:"sharedSecret"`
	AdditionalFee float64 `json:"additionalFee" validate:"gte=0"`
}

// Defaults returns the settings seeded at install time.
func Defaults() Settings {
	return Settings{GatewayURL: DefaultGatewayURL}
}

// Store persists the plugin settings.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
	Delete(ctx context.Context) error
}
