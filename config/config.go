// Package config loads the logger configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config mirrors the YAML configuration file. Zero values are filled
// from Default before the file is applied, so a partial file works.
type Config struct {
	GPS      GPS      `yaml:"gps"`
	Files    Files    `yaml:"files"`
	Database Database `yaml:"database"`
	Logging  Logging  `yaml:"logging"`
}

// GPS is the serial transport section.
type GPS struct {
	Port    string `yaml:"port"`
	Baud    int    `yaml:"baud"`
	Timeout int    `yaml:"timeout"` // read timeout, seconds
	// Reconnects bounds reconnect attempts after a mid-session read
	// error. Zero means fail fast.
	Reconnects int `yaml:"reconnects"`
}

// Files names the sink outputs.
type Files struct {
	CSV string `yaml:"csv"`
	DB  string `yaml:"db"`
}

// Database holds relational store settings.
type Database struct {
	Table string `yaml:"table"`
}

// Logging holds log output settings.
type Logging struct {
	File string `yaml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		GPS:      GPS{Port: "/dev/ttyUSB0", Baud: 9600, Timeout: 5},
		Files:    Files{CSV: "gps_data.csv", DB: "gps_data.db"},
		Database: Database{Table: "gps"},
		Logging:  Logging{File: "gps.log"},
	}
}

// Load reads path on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %v: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %v: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %v: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.GPS.Port == "" {
		return fmt.Errorf("gps.port is required")
	}
	if c.GPS.Baud <= 0 {
		return fmt.Errorf("gps.baud must be positive, got %v", c.GPS.Baud)
	}
	if c.GPS.Timeout <= 0 {
		return fmt.Errorf("gps.timeout must be positive, got %v", c.GPS.Timeout)
	}
	if c.GPS.Reconnects < 0 {
		return fmt.Errorf("gps.reconnects must not be negative, got %v", c.GPS.Reconnects)
	}
	if c.Files.CSV == "" {
		return fmt.Errorf("files.csv is required")
	}
	if c.Files.DB == "" {
		return fmt.Errorf("files.db is required")
	}
	if c.Database.Table == "" {
		return fmt.Errorf("database.table is required")
	}
	return nil
}

// ReadTimeout returns gps.timeout as a duration.
func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.GPS.Timeout) * time.Second
}
