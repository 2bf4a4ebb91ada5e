package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "config", "chathub.json"))
}

func TestLoadMissingFile(t *testing.T) {
	s := testStore(t)

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Domains)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)

	doc := &Document{
		Domains: []Domain{
			{ID: "a", URL: "https://chat.example.com", Alias: "Example", Icon: "default-icon"},
			{ID: "b", URL: "https://other.example.com", Alias: "Other", Icon: "default-icon", IgnoreCerts: true, LoggedIn: true},
		},
	}
	require.NoError(t, doc.SetSetting("lastActiveTab", 1))
	require.NoError(t, s.Save(doc))

	read, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, doc.Domains, read.Domains)

	var tab int
	require.NoError(t, read.GetSetting("lastActiveTab", &tab))
	assert.Equal(t, 1, tab)
}

func TestSettingsSurviveDomainMutations(t *testing.T) {
	s := testStore(t)

	doc := &Document{}
	require.NoError(t, doc.SetSetting("proxyEnabled", true))
	require.NoError(t, s.Save(doc))

	read, err := s.Load()
	require.NoError(t, err)
	read.Domains = append(read.Domains, Domain{ID: "a", URL: "https://chat.example.com"})
	require.NoError(t, s.Save(read))

	read, err = s.Load()
	require.NoError(t, err)
	var proxyEnabled bool
	require.NoError(t, read.GetSetting("proxyEnabled", &proxyEnabled))
	assert.True(t, proxyEnabled)
	assert.Len(t, read.Domains, 1)
}

func TestGetSettingMissingKey(t *testing.T) {
	doc := &Document{}

	var v int
	err := doc.GetSetting("nope", &v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSetSettingReservedKey(t *testing.T) {
	doc := &Document{}
	require.Error(t, doc.SetSetting("domains", 1))
}

func TestLoadCorruptFileRecovers(t *testing.T) {
	s := testStore(t)

	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0750))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0600))

	doc, err := s.Load()
	require.ErrorIs(t, err, ErrCorrupt)
	require.NotNil(t, doc)
	assert.Empty(t, doc.Domains)

	// the corrupt file is discarded, the next load starts clean
	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr))

	doc, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Domains)
}
