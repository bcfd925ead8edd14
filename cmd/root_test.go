package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"initdb", "ingest", "stage", "match", "status"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "unify", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestIngestCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range ingestCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"registry", "crawl", "cdx"}
	for _, name := range expected {
		assert.True(t, names[name], "expected ingest subcommand %q not found", name)
	}
}

func TestIngestCommands_RequireOneArg(t *testing.T) {
	for _, c := range []struct {
		name string
		args []string
	}{
		{"registry", nil},
		{"crawl", []string{"a.csv", "b.csv"}},
		{"cdx", nil},
	} {
		cmd, _, err := ingestCmd.Find([]string{c.name})
		require.NoError(t, err)
		assert.Error(t, cmd.Args(cmd, c.args), c.name)
	}
}

func TestMatchCommand_Flags(t *testing.T) {
	flag := matchCmd.Flags().Lookup("full-volume")
	require.NotNil(t, flag, "match command should have --full-volume flag")
	assert.Equal(t, "false", flag.DefValue)

	for _, name := range []string{
		"high-threshold", "low-threshold", "max-reviews",
		"registry-modulus", "crawl-modulus",
	} {
		f := matchCmd.Flags().Lookup(name)
		require.NotNil(t, f, "match command should have --%s flag", name)
		assert.Equal(t, "0", f.DefValue, name)
	}
}
