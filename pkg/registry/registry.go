// Package registry persists the application catalog in apps-registry.json.
package registry

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/dikkadev/launchhub/pkg/apperr"
	"github.com/dikkadev/launchhub/pkg/logging"
)

var log = logging.GetLogger("registry")

// Manifest describes one catalog application
type Manifest struct {
	ID              string `json:"id" validate:"required"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	Icon            string `json:"icon"`
	BackgroundColor string `json:"backgroundColor"`
	// Last known installed version, dotted numeric
	Version string `json:"version"`
	// Path of the launchable binary, relative to the root directory
	ExecutablePath string `json:"executablePath"`
	RepoOwner      string `json:"repoOwner"`
	RepoName       string `json:"repoName"`
	// Cached result of the last presence check; the filesystem is authoritative
	Installed bool `json:"installed"`
	// Keys not modelled above, kept verbatim so that load, patch and save
	// never drop them
	Extra map[string]json.RawMessage `json:"-"`
}

// manifestFields is Manifest without its JSON methods
type manifestFields Manifest

// knownKeys holds the lowercased JSON names of the modelled fields;
// encoding/json matches them case-insensitively
var knownKeys = func() map[string]bool {
	keys := map[string]bool{}
	t := reflect.TypeOf(manifestFields{})
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if name != "" && name != "-" {
			keys[strings.ToLower(name)] = true
		}
	}
	return keys
}()

// UnmarshalJSON decodes the modelled fields and collects the rest into Extra
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var known manifestFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var extra map[string]json.RawMessage
	var err error
	gjson.ParseBytes(data).ForEach(func(key, value gjson.Result) bool {
		if knownKeys[strings.ToLower(key.String())] {
			return true
		}
		var buf bytes.Buffer
		if err = json.Compact(&buf, []byte(value.Raw)); err != nil {
			return false
		}
		if extra == nil {
			extra = map[string]json.RawMessage{}
		}
		extra[key.String()] = buf.Bytes()
		return true
	})
	if err != nil {
		return err
	}

	*m = Manifest(known)
	m.Extra = extra
	return nil
}

// MarshalJSON writes the modelled fields together with Extra
func (m Manifest) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(manifestFields(m))
	if err != nil || len(m.Extra) == 0 {
		return known, err
	}

	obj := map[string]json.RawMessage{}
	if err := json.Unmarshal(known, &obj); err != nil {
		return nil, err
	}
	for k, v := range m.Extra {
		if !knownKeys[strings.ToLower(k)] {
			obj[k] = v
		}
	}
	return json.Marshal(obj)
}

// Fields is a partial manifest keyed by JSON field name
type Fields map[string]interface{}

type document struct {
	Apps []Manifest `json:"apps" validate:"unique=ID,dive"`
}

// Store is the file-backed registry.
//
// Writes are serialized within the process, so concurrent patches to the
// same or different manifests never lose updates. Reads take no lock: Load
// and Get return a snapshot of the last completed save, which the atomic
// rename in save keeps whole. Other processes writing the same file are not
// coordinated with.
type Store struct {
	path     string
	mu       sync.Mutex
	validate *validator.Validate
}

// New creates a store backed by the file at path
func New(path string) *Store {
	return &Store{
		path:     path,
		validate: validator.New(),
	}
}

// Path returns the backing file location
func (s *Store) Path() string {
	return s.path
}

// Load reads all manifests in file order
func (s *Store) Load() ([]Manifest, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New(apperr.NotFound, "registry file %s not found", s.path)
		}
		return nil, apperr.Wrap(apperr.Filesystem, err, "failed to read registry")
	}

	if !gjson.ValidBytes(data) {
		return nil, apperr.New(apperr.Format, "registry file %s is not valid JSON", s.path)
	}
	if !gjson.GetBytes(data, "apps").IsArray() {
		return nil, apperr.New(apperr.Format, "registry file %s: \"apps\" must be an array", s.path)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperr.Wrap(apperr.Format, err, "registry file %s", s.path)
	}
	if err := s.validate.Struct(doc); err != nil {
		return nil, apperr.Wrap(apperr.Format, err, "registry file %s", s.path)
	}

	log.WithField("count", len(doc.Apps)).Debug("Loaded apps registry")
	return doc.Apps, nil
}

// Get returns the manifest with the given id
func (s *Store) Get(id string) (*Manifest, error) {
	apps, err := s.Load()
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if apps[i].ID == id {
			return &apps[i], nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "app %s not found in registry", id)
}

// Save replaces the registry content
func (s *Store) Save(apps []Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(apps)
}

// Patch merges fields over the manifest with the given id and saves.
// The merge is shallow and fields win over stored values. Keys that Manifest
// does not model are stored in Extra.
func (s *Store) Patch(id string, fields Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	apps, err := s.Load()
	if err != nil {
		return err
	}

	idx := -1
	for i := range apps {
		if apps[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperr.New(apperr.NotFound, "app %s not found in registry", id)
	}

	merged, err := merge(apps[idx], fields)
	if err != nil {
		return apperr.Wrap(apperr.Format, err, "failed to patch app %s", id)
	}
	apps[idx] = merged

	if err := s.validate.Struct(document{Apps: apps}); err != nil {
		return apperr.Wrap(apperr.Format, err, "patch of app %s produced an invalid registry", id)
	}

	return s.save(apps)
}

func merge(m Manifest, fields Fields) (Manifest, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return m, err
	}
	obj := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return m, err
	}
	for k, v := range fields {
		value, err := json.Marshal(v)
		if err != nil {
			return m, err
		}
		obj[k] = value
	}
	raw, err = json.Marshal(obj)
	if err != nil {
		return m, err
	}
	var out Manifest
	if err := json.Unmarshal(raw, &out); err != nil {
		return m, err
	}
	return out, nil
}

// save writes through a temporary file and a rename so readers never see a
// partially written registry
func (s *Store) save(apps []Manifest) error {
	if apps == nil {
		apps = []Manifest{}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperr.Wrap(apperr.Filesystem, err, "failed to create registry directory")
	}

	data, err := json.MarshalIndent(document{Apps: apps}, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.Format, err, "failed to marshal registry")
	}

	tmp, err := os.CreateTemp(dir, ".apps-registry-*.json")
	if err != nil {
		return apperr.Wrap(apperr.Filesystem, err, "failed to create temporary registry file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apperr.Wrap(apperr.Filesystem, err, "failed to write registry")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apperr.Wrap(apperr.Filesystem, err, "failed to sync registry")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return apperr.Wrap(apperr.Filesystem, err, "failed to close registry")
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return apperr.Wrap(apperr.Filesystem, err, "failed to set registry permissions")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return apperr.Wrap(apperr.Filesystem, err, "failed to replace registry")
	}

	log.WithField("count", len(apps)).Debug("Saved apps registry")
	return nil
}
