package bootstrap

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestValidateConfig(t *testing.T) {
	valid := func() AppConfig {
		return AppConfig{
			MongoURI:             "mongodb://localhost:27017",
			MongoDatabase:        "donation_db",
			JWTSecret:            strings.Repeat("x", minJWTSecretLen),
			TokenTTL:             8 * time.Hour,
			DefaultAdmin:         true,
			DefaultAdminPassword: "admin",
			LoginRateLimit:       10,
			AuditLogAuth:         "all",
			AuditLogAdmin:        "db",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", func(c *AppConfig) {}, false},
		{"empty database", func(c *AppConfig) { c.MongoDatabase = " " }, true},
		{"missing secret", func(c *AppConfig) { c.JWTSecret = "" }, true},
		{"short secret", func(c *AppConfig) { c.JWTSecret = "short" }, true},
		{"zero ttl", func(c *AppConfig) { c.TokenTTL = 0 }, true},
		{"admin without password", func(c *AppConfig) { c.DefaultAdminPassword = "" }, true},
		{"no admin, no password", func(c *AppConfig) { c.DefaultAdmin = false; c.DefaultAdminPassword = "" }, false},
		{"zero rate limit", func(c *AppConfig) { c.LoginRateLimit = 0 }, true},
		{"bad audit destination", func(c *AppConfig) { c.AuditLogAdmin = "syslog" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := ValidateConfig(nil, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"*", []string{"*"}},
		{"https://a.org, https://b.org ,", []string{"https://a.org", "https://b.org"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
