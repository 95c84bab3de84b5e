package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["fetch"])
	assert.True(t, names["process"])
	assert.True(t, names["run"])
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3 (commit: abc, built: today)")
	assert.Equal(t, "1.2.3 (commit: abc, built: today)", rootCmd.Version)
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "verbose", "log-level", "output"} {
		require.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "flag %s", name)
	}
}
