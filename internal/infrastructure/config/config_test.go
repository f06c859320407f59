package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
service:
  name: "portalcore-test"
database:
  path: "/tmp/portal.db"
  wal_mode: true
  busy_timeout: 5
api:
  host: "0.0.0.0"
  port: 8090
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "portal-test"
  qos: 1
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Name != "portalcore-test" {
		t.Errorf("Service.Name = %q, want %q", cfg.Service.Name, "portalcore-test")
	}

	if cfg.Database.Path != "/tmp/portal.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/portal.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
service:
  name: ""
database:
  path: "/tmp/portal.db"
api:
  port: 8090
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty service.name, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	// validJWTSecret meets the 32-character minimum requirement.
	validJWTSecret := "test-secret-key-at-least-32-chars!"

	valid := func() *Config {
		return &Config{
			Service:  ServiceConfig{Name: "portalcore"},
			Database: DatabaseConfig{Path: "/data/portalcore.db"},
			API:      APIConfig{Port: 8090},
			MQTT:     MQTTConfig{QoS: 1},
			Security: SecurityConfig{
				JWT:      JWTConfig{Secret: validJWTSecret},
				Password: PasswordConfig{MinLength: 8},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing service name",
			mutate:  func(c *Config) { c.Service.Name = "" },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing JWT secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "" },
			wantErr: true,
		},
		{
			name:    "JWT secret too short",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "short" },
			wantErr: true,
		},
		{
			name:    "zero password minimum length",
			mutate:  func(c *Config) { c.Security.Password.MinLength = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Security: SecurityConfig{
			JWT: JWTConfig{AccessTokenTTL: 15},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}

	if got := cfg.GetAccessTokenTTL().Minutes(); got != 15 {
		t.Errorf("GetAccessTokenTTL() = %v, want 15", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("PORTALCORE_DATABASE_PATH", "/custom/path.db")
	t.Setenv("PORTALCORE_API_HOST", "192.168.1.1")
	t.Setenv("PORTALCORE_API_PORT", "9999")
	t.Setenv("PORTALCORE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("PORTALCORE_MQTT_USERNAME", "testuser")
	t.Setenv("PORTALCORE_MQTT_PASSWORD", "testpass")
	t.Setenv("PORTALCORE_JWT_SECRET", "jwt-secret")
	t.Setenv("PORTALCORE_BOOTSTRAP_USERNAME", "first-admin")
	t.Setenv("PORTALCORE_BOOTSTRAP_PASSWORD", "first-password")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.API.Port != 9999 {
		t.Errorf("API.Port = %d, want 9999", cfg.API.Port)
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.Security.JWT.Secret != "jwt-secret" {
		t.Errorf("Security.JWT.Secret = %q, want %q", cfg.Security.JWT.Secret, "jwt-secret")
	}

	if cfg.Bootstrap.Username != "first-admin" {
		t.Errorf("Bootstrap.Username = %q, want %q", cfg.Bootstrap.Username, "first-admin")
	}

	if cfg.Bootstrap.Password != "first-password" {
		t.Errorf("Bootstrap.Password = %q, want %q", cfg.Bootstrap.Password, "first-password")
	}
}

func TestApplyEnvOverrides_InvalidPort(t *testing.T) {
	cfg := defaultConfig()
	want := cfg.API.Port

	t.Setenv("PORTALCORE_API_PORT", "not-a-number")
	applyEnvOverrides(cfg)

	if cfg.API.Port != want {
		t.Errorf("API.Port = %d, want unchanged %d", cfg.API.Port, want)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Service.Name == "" {
		t.Error("defaultConfig should have non-empty Service.Name")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.API.Port != 8090 {
		t.Errorf("defaultConfig API.Port = %d, want 8090", cfg.API.Port)
	}
}
