package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
)

func TestBackingFileFormats(t *testing.T) {
	tests := []struct {
		scalarFile string
		listFile   string
	}{
		{"kv_store.json", "list_store.json"},
		{"kv_store.yaml", "list_store.yml"},
		{"kv_store.json.zst", "list_store.json.br"},
		{"kv_store.yaml.gz", "list_store.yaml.zst"},
		{"kv_store.db", "list_store"},
	}
	for _, test := range tests {
		dir := t.TempDir()
		open := func() *Store {
			return Open(&Store{Dir: dir, ScalarFileName: test.scalarFile, ListFileName: test.listFile})
		}
		s := open()
		assert.NoError(t, s.Set("user", "alice"))
		assert.NoError(t, s.Set("user", "bob"))
		assert.NoError(t, s.Set("quote", "it's \"quoted\": yes\nand multi-line"))
		assert.NoError(t, s.Append("tasks", "buy-milk"))
		assert.NoError(t, s.Append("tasks", "walk-dog"))
		assert.NoError(t, s.Append("odd name?", "ünïcode ✓"))

		s2 := open()
		assert.Equal(t, 0, len(s2.Anomalies()), test.scalarFile)
		assert.Equal(t, s.Snapshot(), s2.Snapshot(), test.scalarFile)
		assert.Equal(t, []string{"buy-milk", "walk-dog"}, s2.Snapshot().Lists["tasks"])
	}
}

func TestJSONFileIsReadable(t *testing.T) {
	dir := t.TempDir()
	s := Open(&Store{Dir: dir})
	assert.NoError(t, s.Set("user", "bob"))
	assert.NoError(t, s.Append("tasks", "buy-milk"))

	d, err := os.ReadFile(filepath.Join(dir, "kv_store.json"))
	assert.NoError(t, err)
	assert.Equal(t, "{\n  \"user\": \"bob\"\n}\n", string(d))

	d, err = os.ReadFile(filepath.Join(dir, "list_store.json"))
	assert.NoError(t, err)
	assert.Equal(t, "{\n  \"tasks\": [\"buy-milk\"]\n}\n", string(d))
}

func TestYAMLFileIsMapping(t *testing.T) {
	dir := t.TempDir()
	s := Open(&Store{Dir: dir, ScalarFileName: "kv.yaml"})
	assert.NoError(t, s.Set("user", "bob"))
	d, err := os.ReadFile(filepath.Join(dir, "kv.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, "user: bob\n", string(d))
}

func TestCorruptCompressedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kv_store.json.zst")
	assert.NoError(t, os.WriteFile(path, []byte("plain text, not zstd"), 0644))
	s := Open(&Store{Dir: dir, ScalarFileName: "kv_store.json.zst"})
	assert.Equal(t, 1, len(s.Anomalies()))
	assert.True(t, strings.Contains(s.Anomalies()[0].Error(), "kv_store.json.zst"))
}

func TestIsYAML(t *testing.T) {
	assert.True(t, isYAML("a.yaml"))
	assert.True(t, isYAML("a.YML"))
	assert.True(t, isYAML("a.yaml.br"))
	assert.False(t, isYAML("a.json"))
	assert.False(t, isYAML("a.json.zst"))
	assert.False(t, isYAML("yaml"))
}
