package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BLOB_BACKEND", "file")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://po.example.com ,")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")

	cfg := Load()
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q", cfg.DBDriver)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://po.example.com" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Errorf("RateLimitPerMinute = %d", cfg.RateLimitPerMinute)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{DBDriver: "sqlite", BlobBackend: "file", BlobDir: "/tmp/x"}

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"ok", func(c *Config) {}, false},
		{"bad driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"s3 without bucket", func(c *Config) { c.BlobBackend = "s3" }, true},
		{"s3 with bucket", func(c *Config) { c.BlobBackend = "s3"; c.S3Bucket = "exports" }, false},
		{"unknown blob backend", func(c *Config) { c.BlobBackend = "gcs" }, true},
		{"auth without credentials", func(c *Config) { c.JWTSecret = "s" }, true},
		{"auth with credentials", func(c *Config) { c.JWTSecret = "s"; c.APIKey = "k"; c.APISecret = "p" }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			tc.mutate(&c)
			err := c.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
