package stine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store is the on-disk entity cache: one JSON file per entity
// collection and language. Keys are language-independent (module
// numbers, submodule ids), the values are not, which is why the files
// are partitioned by language.
type Store struct {
	dir string
}

// NewStore creates the cache directory if needed. An empty dir
// selects <user cache dir>/stine-client.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "stine-client")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(collection string, lang Language) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", collection, lang))
}

func readJSONFile[T any](path string) (T, error) {
	var out T
	data, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("reading cache file %s: %w", path, err)
	}
	return out, nil
}

func writeJSONFile[T any](path string, value T) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing cache file %s: %w", path, err)
	}
	return nil
}

func (s *Store) LoadModules(lang Language) (map[string]Module, error) {
	return readJSONFile[map[string]Module](s.path("modules", lang))
}

func (s *Store) SaveModules(lang Language, modules map[string]Module) error {
	return writeJSONFile(s.path("modules", lang), modules)
}

func (s *Store) LoadSubModules(lang Language) (map[string]SubModule, error) {
	return readJSONFile[map[string]SubModule](s.path("submodules", lang))
}

func (s *Store) SaveSubModules(lang Language, submodules map[string]SubModule) error {
	return writeJSONFile(s.path("submodules", lang), submodules)
}

func (s *Store) LoadCategories(lang Language) ([]ModuleCategory, error) {
	return readJSONFile[[]ModuleCategory](s.path("module_categories", lang))
}

func (s *Store) SaveCategories(lang Language, categories []ModuleCategory) error {
	return writeJSONFile(s.path("module_categories", lang), categories)
}
