// Package config holds the typed configuration parsed from the environment
// by ardanlabs/conf in cmd/server.
package config

import "time"

type Config struct {
	Web       Web
	DB        DB
	Cors      Cors
	Session   Session
	Coupons   Coupons
	Admin     Admin
	RateLimit RateLimit
	Paypal    Paypal
	Stripe    Stripe
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8080"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:craftmarket"`
	DisableTLS bool   `conf:"default:true"`
}

type Cors struct {
	Origin string `conf:"default:"`
}

type Session struct {
	Lifetime time.Duration `conf:"default:24h"`
}

type Coupons struct {
	// File optionally points to a JSON coupon table. Empty means the
	// built-in table.
	File string `conf:"default:"`
}

type Admin struct {
	// APIKey guards catalog mutation endpoints.
	APIKey string `conf:"default:localadmin,mask"`
}

type RateLimit struct {
	RPS          float64       `conf:"default:1"`
	Burst        int           `conf:"default:5"`
	ClientExpiry time.Duration `conf:"default:10m"`
}

type Paypal struct {
	ClientID string `conf:"default:sb"`
	Secret   string `conf:"default:sb,mask"`
	URL      string `conf:"default:https://api.sandbox.paypal.com"`
}

type Stripe struct {
	APISecret     string `conf:"default:sk_test_unset,mask"`
	WebhookSecret string `conf:"default:whsec_unset,mask"`
	SuccessURL    string `conf:"default:http://localhost:3000/checkout/success"`
	CancelURL     string `conf:"default:http://localhost:3000/checkout/canceled"`
}
