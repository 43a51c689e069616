package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/espalier/internal/testutils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
  "catalog": {
    "uuid": "74c8ba1e-5cd4-4ad1-bbfd-d888e2f6c724",
    "metadata": {"title": "Sample Catalog", "version": "1.0", "oscal-version": "1.1.2"},
    "groups": [
      {
        "id": "ac",
        "title": "Access Control",
        "controls": [
          {
            "id": "ac-1",
            "title": "Policy and Procedures",
            "params": [{"id": "ac-1_prm_1", "label": "organization-defined personnel"}],
            "parts": [{"id": "ac-1_smt", "name": "statement", "prose": "Disseminate to {{ insert: param, ac-1_prm_1 }}."}]
          },
          {"id": "ac-2", "title": "Account Management"}
        ]
      }
    ]
  }
}`

const lowProfile = `---
title: Low Baseline
imports:
  - href: catalogs/sample.json
    include-controls:
      - with-ids: [ac-1]
---
`

const loopProfile = `---
title: Loop
imports:
  - href: profile:loop
---
`

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var reset func(*cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	dir := testutils.TempDirWith(t, map[string]string{
		"low.md":               lowProfile,
		"catalogs/sample.json": sampleCatalog,
	})

	out, err := execute(t, "resolve", "low", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Low Baseline"`)
	assert.Contains(t, out, `"id": "ac-1"`)
	assert.NotContains(t, out, `"ac-2"`)

	target := filepath.Join(t.TempDir(), "low-resolved.yaml")
	out, err = execute(t, "resolve", "low", "--dir", dir, "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "required params: ac-1_prm_1")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "catalog:")

	_, err = execute(t, "resolve", "missing", "--dir", dir)
	assert.ErrorContains(t, err, "profile not found")
}

func TestResolveCommand_FileCache(t *testing.T) {
	dir := testutils.TempDirWith(t, map[string]string{
		"low.md":               lowProfile,
		"catalogs/sample.json": sampleCatalog,
	})
	cacheDir := filepath.Join(t.TempDir(), "cache")
	cfgPath := filepath.Join(t.TempDir(), "espalier.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("dir: "+dir+"\ncache:\n  dir: "+cacheDir+"\n"), 0o644))

	for i := 0; i < 2; i++ {
		_, err := execute(t, "resolve", "low", "--config", cfgPath)
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestValidateCommand(t *testing.T) {
	dir := testutils.TempDirWith(t, map[string]string{
		"low.md":               lowProfile,
		"loop.md":              loopProfile,
		"catalogs/sample.json": sampleCatalog,
	})

	out, err := execute(t, "validate", "low", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✅ low")

	out, err = execute(t, "validate", "--dir", dir)
	assert.ErrorContains(t, err, "validation failed for 1 of 2 profiles")
	assert.Contains(t, out, "❌ loop")
	assert.Contains(t, out, "loop -> loop")
}

func TestGraphAndInspectCommands(t *testing.T) {
	dir := testutils.TempDirWith(t, map[string]string{
		"low.md":               lowProfile,
		"catalogs/sample.json": sampleCatalog,
	})

	out, err := execute(t, "graph", "low", "--dir", dir, "--params")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "param_ac_1_prm_1")

	out, err = execute(t, "inspect", "low", "--dir", dir, "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "# Low Baseline")
	assert.Contains(t, out, "`ac-1_prm_1` (unset)")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "espalier version ")
}
