package checker

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.Set("linkvet.input", "README.md")
	v.Set("linkvet.results", "results.yaml")
	v.Set("linkvet.concurrency", 20)
	v.Set("linkvet.max_attempts", 5)
	v.Set("linkvet.request_timeout", "20s")
	v.Set("linkvet.user_agent", "curl/7.54.0")
	v.Set("linkvet.insecure_skip_verify", true)
	v.Set("linkvet.rate_limit_per_host", 0.0)
	v.Set("linkvet.metrics_addr", "")
	return v
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(newTestViper())
	require.NoError(t, err)
	require.Equal(t, "README.md", cfg.Input)
	require.Equal(t, "results.yaml", cfg.ResultsPath)
	require.Equal(t, int64(20), cfg.Concurrency)
	require.Equal(t, 5, cfg.MaxAttempts)
	require.Equal(t, 20*time.Second, cfg.RequestTimeout)
	require.Equal(t, "curl/7.54.0", cfg.UserAgent)
	require.True(t, cfg.InsecureSkipVerify)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value any
	}{
		{"empty input", "linkvet.input", ""},
		{"empty results path", "linkvet.results", ""},
		{"zero concurrency", "linkvet.concurrency", 0},
		{"zero attempts", "linkvet.max_attempts", 0},
		{"zero timeout", "linkvet.request_timeout", "0s"},
		{"empty user agent", "linkvet.user_agent", ""},
		{"negative rate limit", "linkvet.rate_limit_per_host", -1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := newTestViper()
			v.Set(tc.key, tc.value)
			_, err := LoadConfig(v)
			require.Error(t, err)
		})
	}
}
