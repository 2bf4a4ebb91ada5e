package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/chathubio/chathub/util"
)

const domainsKey = "domains"

// ErrCorrupt signals that the store file could not be parsed. The file is
// discarded and an empty document is returned alongside this error, so the
// caller can notify the user once and keep going.
var ErrCorrupt = errors.New("store file is corrupt")

// Domain is one registered chat organization. URL is the identity key and is
// matched by exact string comparison.
type Domain struct {
	ID          string `json:"id,omitempty"`
	URL         string `json:"url"`
	Alias       string `json:"alias"`
	Icon        string `json:"icon"`
	IgnoreCerts bool   `json:"ignoreCerts"`
	LoggedIn    bool   `json:"loggedIn"`
}

// Document is the full on-disk state: the ordered domain collection plus any
// scalar configuration values stored beside it at the top level of the file.
type Document struct {
	Domains  []Domain
	settings map[string]json.RawMessage
}

func (d *Document) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw[domainsKey]; ok {
		if err := json.Unmarshal(v, &d.Domains); err != nil {
			return err
		}
		delete(raw, domainsKey)
	}

	d.settings = raw
	return nil
}

func (d *Document) MarshalJSON() ([]byte, error) {
	raw := map[string]json.RawMessage{}
	for k, v := range d.settings {
		raw[k] = v
	}

	collection := d.Domains
	if collection == nil {
		collection = []Domain{}
	}
	domains, err := json.Marshal(collection)
	if err != nil {
		return nil, err
	}
	raw[domainsKey] = domains

	return json.Marshal(raw)
}

// GetSetting decodes the scalar value stored under key into out. Returns
// os.ErrNotExist if the key is absent.
func (d *Document) GetSetting(key string, out interface{}) error {
	v, ok := d.settings[key]
	if !ok {
		return fmt.Errorf("setting %s: %w", key, os.ErrNotExist)
	}
	return json.Unmarshal(v, out)
}

// SetSetting stores a scalar value under key, outside the domain collection.
func (d *Document) SetSetting(key string, value interface{}) error {
	if key == domainsKey {
		return fmt.Errorf("setting key %q is reserved", key)
	}

	v, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if d.settings == nil {
		d.settings = map[string]json.RawMessage{}
	}
	d.settings[key] = v
	return nil
}

// Store persists a Document as a single JSON file. It holds no state in
// memory: the file is re-read around every operation and is the single
// source of truth.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads and parses the store file. A missing file yields an empty
// document. A file that fails to parse is deleted and an empty document is
// returned together with ErrCorrupt.
func (s *Store) Load() (*Document, error) {
	doc := &Document{}

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}

	if err := util.ReadJson(s.path, doc); err != nil {
		log.Errorf("discarding unparseable store file %s: %v", s.path, err)
		if rmErr := util.RemoveFile(s.path); rmErr != nil {
			log.Errorf("failed to remove corrupt store file: %v", rmErr)
		}
		return &Document{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return doc, nil
}

// Save writes the document back to disk atomically.
func (s *Store) Save(doc *Document) error {
	if err := util.WriteJson(s.path, doc); err != nil {
		return fmt.Errorf("save store %s: %w", s.path, err)
	}
	return nil
}
