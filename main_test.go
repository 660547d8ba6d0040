package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labelscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestSettingsDefaults(t *testing.T) {
	v := viper.New()
	cmd := newRootCmd(v)
	require.NoError(t, cmd.Flags().Set("config", writeConfig(t, "")))

	s, err := loadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, "labels.yaml", s.LabelsPath)
	assert.Equal(t, "annotations.json", s.StorePath)
	assert.Empty(t, s.Mapping.Timestamp)
	assert.Empty(t, s.Mapping.Value)
	assert.Equal(t, log.InfoLevel, s.LogLevel)
}

func TestSettingsPrecedence(t *testing.T) {
	cfg := writeConfig(t, `
labels: team-labels.yaml
store: team.json
timestamp-column: when
value-column: reading
log-level: debug
`)
	t.Setenv("LABELSCOPE_VALUE_COLUMN", "kwh")

	v := viper.New()
	cmd := newRootCmd(v)
	require.NoError(t, cmd.Flags().Set("config", cfg))
	require.NoError(t, cmd.Flags().Set("store", "mine.json"))

	s, err := loadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, "team-labels.yaml", s.LabelsPath)
	assert.Equal(t, "mine.json", s.StorePath, "flags beat the config file")
	assert.Equal(t, "when", s.Mapping.Timestamp)
	assert.Equal(t, "kwh", s.Mapping.Value, "environment beats the config file")
	assert.Equal(t, log.DebugLevel, s.LogLevel)
}

func TestSettingsErrors(t *testing.T) {
	v := viper.New()
	cmd := newRootCmd(v)
	require.NoError(t, cmd.Flags().Set("config", writeConfig(t, "log-level: loud\n")))
	_, err := loadSettings(v)
	assert.Error(t, err)

	v = viper.New()
	cmd = newRootCmd(v)
	require.NoError(t, cmd.Flags().Set("config", writeConfig(t, "labels: [unterminated\n")))
	_, err = loadSettings(v)
	assert.Error(t, err)

	v = viper.New()
	cmd = newRootCmd(v)
	require.NoError(t, cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")))
	_, err = loadSettings(v)
	assert.Error(t, err, "an explicitly named config file must exist")
}
