package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDevelopmentLogger(t *testing.T) {
	logger, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewProductionLogger(t *testing.T) {
	logger, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestInitLoggerReplacesGlobal(t *testing.T) {
	InitLogger()
	require.NotNil(t, L)
	// The global must be usable without panicking.
	L.Debug("init ok")
}
