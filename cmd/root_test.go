package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"clean", "inspect", "report"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "retail-eda", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestCleanCommand_Flags(t *testing.T) {
	for _, name := range []string{"output", "output-dir", "format", "concurrency"} {
		assert.NotNil(t, cleanCmd.Flags().Lookup(name), "clean should have --%s flag", name)
	}
	flag := cleanCmd.Flags().Lookup("concurrency")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
	assert.Equal(t, "o", cleanCmd.Flags().Lookup("output").Shorthand)
}

func TestInspectCommand_Flags(t *testing.T) {
	flag := inspectCmd.Flags().Lookup("format")
	require.NotNil(t, flag, "inspect command should have --format flag")
	assert.Equal(t, "text", flag.DefValue)
}

func TestReportCommand_Flags(t *testing.T) {
	flag := reportCmd.Flags().Lookup("format")
	require.NotNil(t, flag, "report command should have --format flag")
	assert.Equal(t, "", flag.DefValue)
}

func TestCommands_RequireSource(t *testing.T) {
	for _, name := range []string{"clean", "inspect", "report"} {
		_, err := runCLI(t, name)
		assert.Error(t, err, name)
	}
}
