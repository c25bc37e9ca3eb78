package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v2"
)

type (
	config struct {
		Vault     vaultConfig      `yaml:"vault"`
		Store     storeConfig      `yaml:"store"`
		Audit     auditConfig      `yaml:"audit"`
		RateLimit *rateLimitConfig `yaml:"ratelimit"`
	}

	vaultConfig struct {
		Owner string     `yaml:"owner"`
		Keys  keysConfig `yaml:"keys"`
	}

	keysConfig struct {
		Source  string `yaml:"source"`
		Project string `yaml:"project"`
		Verify  string `yaml:"verify"`
	}

	storeConfig struct {
		Backend  string `yaml:"backend"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
	}

	auditConfig struct {
		Log     bool   `yaml:"log"`
		Channel string `yaml:"channel"`
	}

	rateLimitConfig struct {
		Limit    uint64   `yaml:"limit"`
		Duration duration `yaml:"duration"`
	}

	duration time.Duration
)

var (
	errOwnerMissing     = errors.New("vault owner is required")
	errVerifyKeyMissing = errors.New("token verification key is required")
)

func (d *duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("failed to parse duration: %w", err)
	}

	*d = duration(v)

	return nil
}

func parseConfig(configDataSource io.Reader) (*config, error) {
	var c config
	if err := yaml.NewDecoder(configDataSource).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config data: %w", err)
	}

	if c.Vault.Owner == "" {
		return nil, errOwnerMissing
	}

	if c.Vault.Keys.Verify == "" {
		return nil, errVerifyKeyMissing
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}

	return &c, nil
}

func (c *config) needsRedis() bool {
	return c.Store.Backend == "redis" || c.Audit.Channel != "" || c.RateLimit != nil
}
