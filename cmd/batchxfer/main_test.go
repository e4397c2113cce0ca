// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	color.NoColor = true
	pterm.DisableOutput()
	t.Cleanup(func() {
		color.NoColor = false
		pterm.EnableOutput()
	})

	out := &bytes.Buffer{}
	cmd := NewCommand()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestNewCommand(t *testing.T) {
	cmd := NewCommand()
	require.NotNil(t, cmd, "command should not be nil")
	assert.Equal(t, "batchxfer", cmd.Use, "command name should match")
	assert.NotEmpty(t, cmd.Short, "should have short description")

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"copy", "plan", "version"})
}

func TestCopyCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     func(src, dst string) []string
		existing map[string]string
		want     map[string]string
		gone     []string
	}{
		{
			name: "copy_everything",
			args: func(src, dst string) []string { return []string{"copy", "--from", src, "--to", dst} },
			want: map[string]string{"a.txt": "hello", "dir/b.txt": "world", "dir/c.log": "log"},
		},
		{
			name:     "rename_on_conflict",
			args:     func(src, dst string) []string { return []string{"copy", "--from", src, "--to", dst, "a.txt"} },
			existing: map[string]string{"a.txt": "old"},
			want:     map[string]string{"a.txt": "old", "a.txt_1": "hello"},
			gone:     []string{"dir"},
		},
		{
			name: "exclude_and_move",
			args: func(src, dst string) []string {
				return []string{"copy", "--from", src, "--to", dst, "--mode", "move", "-x", "*.log", "dir"}
			},
			want: map[string]string{"dir/b.txt": "world"},
			gone: []string{"dir/c.log", "a.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dst := t.TempDir(), t.TempDir()
			writeTree(t, src, map[string]string{"a.txt": "hello", "dir/b.txt": "world", "dir/c.log": "log"})
			writeTree(t, dst, tt.existing)

			out, err := runCommand(t, tt.args(src, dst)...)
			require.NoError(t, err, "output: %s", out)

			for name, content := range tt.want {
				data, err := os.ReadFile(filepath.Join(dst, name))
				require.NoError(t, err, "reading %s", name)
				assert.Equal(t, content, string(data), "content of %s", name)
			}
			for _, name := range tt.gone {
				assert.NoFileExists(t, filepath.Join(dst, name))
			}
		})
	}
}

func TestCopyCommandMoveRemovesSources(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{"dir/b.txt": "world", "keep.txt": "k"})

	_, err := runCommand(t, "copy", "-f", src, "-t", dst, "-m", "move", "dir")
	require.NoError(t, err)

	assert.NoDirExists(t, filepath.Join(src, "dir"))
	assert.FileExists(t, filepath.Join(src, "keep.txt"))
	assert.FileExists(t, filepath.Join(dst, "dir", "b.txt"))
}

func TestPlanCommand(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "hello", "dir/b.txt": "world"})

	out, err := runCommand(t, "plan", "--from", src, "--to", dst)
	require.NoError(t, err)

	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "dir/")
	assert.Contains(t, out, "  b.txt")
	assert.Contains(t, out, "3 units, 2 files, 10 B")

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries, "plan must not write")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	src, dst := filepath.Join(dir, "src"), filepath.Join(dir, "dst")
	writeTree(t, src, map[string]string{"one.txt": "1", "two.txt": "22"})
	require.NoError(t, os.MkdirAll(dst, 0o755))

	cfgPath := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
source:
  root: `+src+`
destination:
  root: `+dst+`
entries:
  - two.txt
concurrency: 1
`), 0o644))

	_, err := runCommand(t, "copy", "-c", cfgPath)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dst, "two.txt"))
	assert.NoFileExists(t, filepath.Join(dst, "one.txt"))
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("invalid: yaml: :"), 0o644))

	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{name: "missing_source", args: []string{"copy", "--to", dir}, errContains: "source.root is required"},
		{name: "bad_mode", args: []string{"copy", "--from", dir, "--to", dir, "--mode", "sync"}, errContains: "mode must be copy or move"},
		{name: "unknown_backend", args: []string{"copy", "--from", dir, "--to", dir, "--to-backend", "s3"}, errContains: "backend s3 not found"},
		{name: "invalid_config", args: []string{"copy", "-c", bad}, errContains: "parsing config"},
		{name: "missing_entry", args: []string{"copy", "--from", dir, "--to", dir, "nope"}, errContains: "looking up entry nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version", "--json")
	require.NoError(t, err)

	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info), "output: %s", out)
	assert.NotEmpty(t, info.Version)
	assert.Contains(t, info.Backends, "os")
	assert.Contains(t, info.Backends, "mem")

	out, err = runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "🚀 batchxfer")
}
