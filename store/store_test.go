package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/alecthomas/assert"
)

func openTestStore(t *testing.T, dir string) *Store {
	return Open(&Store{Dir: dir})
}

func TestOpenMissingFiles(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	snap := s.Snapshot()
	assert.Equal(t, 0, len(snap.Scalars))
	assert.Equal(t, 0, len(snap.Lists))
	assert.Equal(t, 0, len(s.Anomalies()))
	assert.Equal(t, filepath.Join(dir, DefaultScalarFileName), s.ScalarPath())
	assert.Equal(t, filepath.Join(dir, DefaultListFileName), s.ListPath())

	// opening doesn't create files
	_, err := os.Stat(s.ScalarPath())
	assert.True(t, os.IsNotExist(err))
}

func TestOpenDefaultsToCurrentDir(t *testing.T) {
	s := Open(&Store{})
	assert.Equal(t, ".", s.Dir)
	assert.Equal(t, DefaultScalarFileName, s.ScalarPath())
	assert.Equal(t, DefaultListFileName, s.ListPath())
}

func TestSetLastWriteWins(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	assert.NoError(t, s.Set("user", "alice"))
	assert.NoError(t, s.Set("user", "bob"))
	assert.NoError(t, s.Set("color", "blue"))
	assert.NoError(t, s.Set("color", "red"))
	assert.NoError(t, s.Set("empty", "x"))

	exp := map[string]string{"user": "bob", "color": "red", "empty": "x"}
	assert.Equal(t, exp, s.Snapshot().Scalars)

	s2 := openTestStore(t, dir)
	assert.Equal(t, exp, s2.Snapshot().Scalars)
	assert.Equal(t, 0, len(s2.Snapshot().Lists))
	// the list file is only written by Append
	_, err := os.Stat(s.ListPath())
	assert.True(t, os.IsNotExist(err))
}

func TestAppendOrder(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	var exp []string
	for i := 0; i < 20; i++ {
		v := fmt.Sprintf("v%d", i)
		assert.NoError(t, s.Append("tasks", v))
		exp = append(exp, v)
	}
	s2 := openTestStore(t, dir)
	assert.Equal(t, exp, s2.Snapshot().Lists["tasks"])

	// and keeps appending after re-open
	assert.NoError(t, s2.Append("tasks", "last"))
	s3 := openTestStore(t, dir)
	got := s3.Snapshot().Lists["tasks"]
	assert.Equal(t, 21, len(got))
	assert.Equal(t, "last", got[20])
}

func TestAppendIsolation(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	assert.NoError(t, s.Set("user", "alice"))
	assert.NoError(t, s.Append("B", "b1"))
	assert.NoError(t, s.Append("B", "b2"))
	scalarBefore, err := os.ReadFile(s.ScalarPath())
	assert.NoError(t, err)

	assert.NoError(t, s.Append("A", "a1"))
	assert.NoError(t, s.Append("A", "a2"))

	snap := openTestStore(t, dir).Snapshot()
	assert.Equal(t, []string{"b1", "b2"}, snap.Lists["B"])
	assert.Equal(t, []string{"a1", "a2"}, snap.Lists["A"])
	assert.Equal(t, map[string]string{"user": "alice"}, snap.Scalars)

	scalarAfter, err := os.ReadFile(s.ScalarPath())
	assert.NoError(t, err)
	assert.Equal(t, scalarBefore, scalarAfter)
}

func TestCorruptFileOnlyAffectsItsMap(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	assert.NoError(t, s.Set("user", "bob"))
	assert.NoError(t, s.Append("tasks", "buy-milk"))

	tests := []string{
		"{not json",
		`["a", "b"]`,
		`{"tasks": "not a list"}`,
		`{"tasks": [1, 2]}`,
		"   ",
	}
	for _, corrupt := range tests {
		assert.NoError(t, os.WriteFile(s.ListPath(), []byte(corrupt), 0644))

		var reported []*LoadAnomaly
		s2 := Open(&Store{
			Dir: dir,
			OnLoadAnomaly: func(a *LoadAnomaly) {
				reported = append(reported, a)
			},
		})
		snap := s2.Snapshot()
		assert.Equal(t, 0, len(snap.Lists), corrupt)
		assert.Equal(t, map[string]string{"user": "bob"}, snap.Scalars, corrupt)

		anomalies := s2.Anomalies()
		assert.Equal(t, 1, len(anomalies), corrupt)
		assert.Equal(t, s2.ListPath(), anomalies[0].Path)
		assert.Error(t, anomalies[0].Err)
		assert.Equal(t, anomalies, reported)

		// writing replaces the corrupt file
		assert.NoError(t, s2.Append("tasks", "walk-dog"))
		snap = openTestStore(t, dir).Snapshot()
		assert.Equal(t, []string{"walk-dog"}, snap.Lists["tasks"])
	}
}

func TestEmptyAndNullFilesAreEmptyMaps(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, DefaultScalarFileName), nil, 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, DefaultListFileName), []byte("null"), 0644))
	s := openTestStore(t, dir)
	assert.Equal(t, 0, len(s.Anomalies()))
	assert.NoError(t, s.Set("k", "v"))
	assert.NoError(t, s.Append("l", "v"))
}

func TestUnreadableFileIsAnomaly(t *testing.T) {
	dir := t.TempDir()
	// a directory where the file should be can't be read
	assert.NoError(t, os.Mkdir(filepath.Join(dir, DefaultScalarFileName), 0755))
	s := openTestStore(t, dir)
	assert.Equal(t, 1, len(s.Anomalies()))
	assert.Equal(t, 0, len(s.Snapshot().Scalars))

	// and can't be written either
	err := s.Set("user", "bob")
	assert.Error(t, err)
	assert.True(t, IsWriteFailure(err))
	// the change is kept in memory
	assert.Equal(t, "bob", s.Snapshot().Scalars["user"])
}

func TestWriteFailure(t *testing.T) {
	dir := t.TempDir()
	// Dir is a file so neither MkdirAll nor create can succeed
	blocker := filepath.Join(dir, "blocker")
	assert.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	s := Open(&Store{Dir: blocker})

	err := s.Append("tasks", "buy-milk")
	assert.Error(t, err)
	var wf *WriteFailure
	assert.True(t, errors.As(err, &wf))
	assert.Equal(t, s.ListPath(), wf.Path)
	assert.Error(t, wf.Unwrap())
	assert.True(t, len(wf.Error()) > 0)
	assert.Equal(t, []string{"buy-milk"}, s.Snapshot().Lists["tasks"])

	assert.False(t, IsWriteFailure(nil))
	assert.False(t, IsWriteFailure(errors.New("other")))
	assert.True(t, IsWriteFailure(fmt.Errorf("wrapped: %w", err)))
}

func TestReadOnlyDir(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permissions are not enforced")
	}
	dir := t.TempDir()
	assert.NoError(t, os.Chmod(dir, 0555))
	defer os.Chmod(dir, 0755)

	s := openTestStore(t, dir)
	err := s.Set("user", "bob")
	assert.True(t, IsWriteFailure(err))
}

func TestCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "kv")
	s := openTestStore(t, dir)
	assert.NoError(t, s.Set("user", "bob"))
	assert.Equal(t, "bob", openTestStore(t, dir).Snapshot().Scalars["user"])
}

func TestSnapshotIsCopy(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	assert.NoError(t, s.Set("user", "bob"))
	assert.NoError(t, s.Append("tasks", "buy-milk"))

	snap := s.Snapshot()
	snap.Scalars["user"] = "mallory"
	snap.Lists["tasks"][0] = "changed"
	snap.Lists["new"] = []string{"x"}

	snap2 := s.Snapshot()
	assert.Equal(t, "bob", snap2.Scalars["user"])
	assert.Equal(t, []string{"buy-milk"}, snap2.Lists["tasks"])
	assert.Equal(t, 1, len(snap2.Lists))
}

func TestSnapshotSortedNames(t *testing.T) {
	snap := Snapshot{
		Scalars: map[string]string{"b": "1", "a": "2", "c": "3"},
		Lists:   map[string][]string{"z": nil, "m": {"x"}},
	}
	assert.Equal(t, []string{"a", "b", "c"}, snap.Keys())
	assert.Equal(t, []string{"m", "z"}, snap.ListNames())
}

func TestNotOpened(t *testing.T) {
	s := &Store{}
	assert.Error(t, s.Set("k", "v"))
	assert.Error(t, s.Append("k", "v"))
	assert.False(t, IsWriteFailure(s.Set("k", "v")))
}

func TestInvalidUTF8IsRejected(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	assert.NoError(t, s.Set("user", "bob"))
	assert.NoError(t, s.Append("tasks", "buy-milk"))

	tests := []struct {
		name  string
		value string
	}{
		{"bad\xff", "v"},
		{"user", "v\xfe"},
		{"\xc3", "\xc3"},
	}
	for _, test := range tests {
		err := s.Set(test.name, test.value)
		assert.True(t, errors.Is(err, ErrInvalidUTF8), "%q %q", test.name, test.value)
		assert.False(t, IsWriteFailure(err))
		err = s.Append(test.name, test.value)
		assert.True(t, errors.Is(err, ErrInvalidUTF8), "%q %q", test.name, test.value)
	}

	exp := Snapshot{
		Scalars: map[string]string{"user": "bob"},
		Lists:   map[string][]string{"tasks": {"buy-milk"}},
	}
	assert.Equal(t, exp, s.Snapshot())
	assert.Equal(t, exp, openTestStore(t, dir).Snapshot())

	// valid multi-byte input is fine
	assert.NoError(t, s.Set("名前", "zażółć"))
	assert.Equal(t, "zażółć", openTestStore(t, dir).Snapshot().Scalars["名前"])
}

func TestSaveKeepsFileMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultScalarFileName)
	assert.NoError(t, os.WriteFile(path, []byte(`{"user":"alice"}`), 0600))
	assert.NoError(t, os.Chmod(path, 0600))

	s := openTestStore(t, dir)
	assert.NoError(t, s.Set("user", "bob"))
	st, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), st.Mode().Perm())
	assert.Equal(t, "bob", openTestStore(t, dir).Snapshot().Scalars["user"])
}

func TestConcurrentWritesStayInSync(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				key := fmt.Sprintf("g%d", g)
				assert.NoError(t, s.Set(key, fmt.Sprintf("%d", i)))
				assert.NoError(t, s.Append(key, fmt.Sprintf("%d", i)))
			}
		}(g)
	}
	wg.Wait()

	mem := s.Snapshot()
	disk := openTestStore(t, dir).Snapshot()
	assert.Equal(t, mem, disk)
	for g := 0; g < 8; g++ {
		key := fmt.Sprintf("g%d", g)
		assert.Equal(t, "24", disk.Scalars[key])
		lst := disk.Lists[key]
		assert.Equal(t, 25, len(lst))
		for i, v := range lst {
			assert.Equal(t, fmt.Sprintf("%d", i), v)
		}
	}
}
