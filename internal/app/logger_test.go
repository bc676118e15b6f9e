package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigureLogging(t *testing.T) {
	require.NoError(t, ConfigureLogging("debug"))

	// Blank and unknown levels fall back to info rather than failing startup.
	require.NoError(t, ConfigureLogging(""))
	require.NoError(t, ConfigureLogging("shouting"))
}
