package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCLI_ImportShowSearchClear(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()
	base := []string{"--backend", "file", "--dir", dir, "--key", "cli-test"}

	docPath := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(docPath, []byte(`{"nodes":[
		{"id":"a","title":"Alpha plan","x":0,"y":0,"children":["b"]},
		{"id":"b","title":"Beta","x":10,"y":10,"parentId":"a"}
	]}`), 0o644))

	out := run(t, append([]string{"import", docPath}, base...)...)
	assert.Contains(t, out, "imported 2 nodes into cli-test")

	out = run(t, append([]string{"show"}, base...)...)
	assert.Contains(t, out, "Alpha plan  #a")
	assert.Contains(t, out, "└─ ○ Beta  #b")

	out = run(t, append([]string{"search", "alpha"}, base...)...)
	assert.Contains(t, out, "Alpha plan")

	exportDir := t.TempDir()
	out = run(t, append([]string{"export", "-o", exportDir}, base...)...)
	assert.Contains(t, out, "exported to "+exportDir)
	entries, err := os.ReadDir(exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	out = run(t, append([]string{"clear"}, base...)...)
	assert.Contains(t, out, "cleared cli-test")

	out = run(t, append([]string{"show"}, base...)...)
	assert.Contains(t, out, "My Mindmap Todo")
}
