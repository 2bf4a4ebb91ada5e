package util_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chathubio/chathub/util"
)

type testConfig struct {
	SomeMap   map[string]string
	SomeArray []string
	SomeField int
}

func TestWriteReadJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "testconfig.json")

	written := &testConfig{
		SomeMap:   map[string]string{"key1": "value1", "key2": "value2"},
		SomeArray: []string{"value1", "value2"},
		SomeField: 99,
	}

	err := util.WriteJson(path, written)
	require.NoError(t, err)

	read := &testConfig{}
	err = util.ReadJson(path, read)
	require.NoError(t, err)
	require.Equal(t, written, read)
}

func TestWriteJsonOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "testconfig.json")

	require.NoError(t, util.WriteJson(path, &testConfig{SomeField: 1}))
	require.NoError(t, util.WriteJson(path, &testConfig{SomeField: 2}))

	read := &testConfig{}
	require.NoError(t, util.ReadJson(path, read))
	require.Equal(t, 2, read.SomeField)

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRemoveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "somefile.json")

	// removing a missing file is not an error
	require.NoError(t, util.RemoveFile(path))

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))
	require.NoError(t, util.RemoveFile(path))

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, util.EnsureDir(dir))
	require.NoError(t, util.EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
