// Package config carga configuración YAML con expansión de variables de entorno.
package config

import (
	"errors"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
}

type AppConfig struct {
	Name      string `yaml:"name"`
	Port      int    `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Swagger   bool   `yaml:"swagger"`
}

// DatabaseConfig es opcional: sin DSN el server corre con repos in-memory (modo dev).
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// AuthConfig: en modo token, ClinicianID identifica al clínico dueño del token
// (consultorio unipersonal). En modo disabled el clínico llega por header de debug.
type AuthConfig struct {
	Mode        string `yaml:"mode"`
	Token       string `yaml:"token"`
	ClinicianID string `yaml:"clinician_id"`
}

func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:      "therapy-practice-manager",
			Port:      8080,
			LogLevel:  "info",
			LogFormat: "console",
		},
		Auth: AuthConfig{Mode: AuthModeDisabled},
	}
}

func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

func (c *AppConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.LogLevel, validation.In("", "debug", "info", "warn", "warning", "error")),
		validation.Field(&c.LogFormat, validation.In("", "console", "json")),
	)
}

func (c *AuthConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.In("", AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && (c.Token == "" || c.ClinicianID == "") {
		return errors.New("auth.token and auth.clinician_id are required when auth.mode is token")
	}
	return nil
}

func (c *AppConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load lee un archivo YAML, expande ${VARS} de entorno y valida el resultado.
func Load(filename string, target *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if err := target.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// LoadOrDefault: si el archivo no existe, devuelve defaults (dev/handoff).
func LoadOrDefault(filename string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err := Load(filename, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
