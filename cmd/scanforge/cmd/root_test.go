package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return strings.TrimSpace(buf.String()), err
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "scanforge", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommandHelp(t *testing.T) {
	t.Chdir(t.TempDir())

	output, err := executeCommand(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, output, "Available Commands:")
	assert.Contains(t, output, "Usage:")
	assert.Contains(t, output, "scanned document")
}

func TestRootCommandVersion(t *testing.T) {
	t.Chdir(t.TempDir())

	output, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, output, "scanforge")
}

func TestRootCommandSubcommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, sub := range rootCmd.Commands() {
		names = append(names, sub.Name())
	}

	for _, want := range []string{"image", "pdf", "batch", "serve", "enhance"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommandInvalidFlag(t *testing.T) {
	output, err := executeCommand(t, "--no-such-flag")
	require.Error(t, err)
	assert.Contains(t, output, "unknown flag")
}

func TestGetConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := GetConfig()
	require.NotNil(t, cfg)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestGetConfigReflectsFlagBindings(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, imageCmd.Flags().Set("format", "json"))
	require.NoError(t, viper.BindPFlag("output.format", imageCmd.Flags().Lookup("format")))
	t.Cleanup(func() {
		require.NoError(t, imageCmd.Flags().Set("format", "text"))
	})

	cfg := GetConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "json", cfg.Output.Format)
}
