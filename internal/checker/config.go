// Package checker implements the concurrent URL verification engine: the
// permit pool bounding outbound fetches, the per-URL retry/rewrite state
// machine, and the orchestrator that drains completions and records verdicts.
package checker

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures every configuration knob that influences a check run.
// All values originate from Viper so the checker can be configured via files,
// env vars, or CLI flags.
type Config struct {
	Input              string
	ResultsPath        string
	Concurrency        int64
	MaxAttempts        int
	RequestTimeout     time.Duration
	UserAgent          string
	InsecureSkipVerify bool
	RateLimitPerHost   float64
	MetricsAddr        string
}

// LoadConfig constructs a Config by reading from Viper.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Input:              v.GetString("linkvet.input"),
		ResultsPath:        v.GetString("linkvet.results"),
		Concurrency:        v.GetInt64("linkvet.concurrency"),
		MaxAttempts:        v.GetInt("linkvet.max_attempts"),
		RequestTimeout:     v.GetDuration("linkvet.request_timeout"),
		UserAgent:          v.GetString("linkvet.user_agent"),
		InsecureSkipVerify: v.GetBool("linkvet.insecure_skip_verify"),
		RateLimitPerHost:   v.GetFloat64("linkvet.rate_limit_per_host"),
		MetricsAddr:        v.GetString("linkvet.metrics_addr"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("linkvet.input must be set")
	}
	if c.ResultsPath == "" {
		return fmt.Errorf("linkvet.results must be set")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("linkvet.concurrency must be > 0")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("linkvet.max_attempts must be > 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("linkvet.request_timeout must be > 0")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("linkvet.user_agent must be set")
	}
	if c.RateLimitPerHost < 0 {
		return fmt.Errorf("linkvet.rate_limit_per_host must be >= 0")
	}
	return nil
}
