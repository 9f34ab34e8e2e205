// Package prefs persists the monitor's user preferences as key-value pairs
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/james-see/mpemonitor/pkg/monitor"
)

// Preference keys
const (
	KeyBendSelect       = "bend_select"
	KeyBendCustom       = "bend_custom"
	KeyPressureSource   = "pressure_source"
	KeyThirdDimensionCC = "third_dimension_cc"
)

// BendCustom is the bend_select value that reads the range from bend_custom
const BendCustom = "custom"

// Store is a JSON file of string preferences
type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// DefaultPath returns ~/.config/mpemonitor/prefs.json
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mpemonitor", "prefs.json"), nil
}

// Open reads the store at path. A missing file gives an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("failed to parse preferences %s: %w", path, err)
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	return s, nil
}

// NewMemory returns a store that is never written to disk
func NewMemory() *Store {
	return &Store{values: make(map[string]string)}
}

// Path returns the backing file, empty for a memory store
func (s *Store) Path() string {
	return s.path
}

// Get returns the value stored under key
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Keys returns the stored keys in sorted order
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes the store to disk
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}

	s.mu.Lock()
	data, err := json.MarshalIndent(s.values, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create preferences dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}

// Values is the user-facing form of the preferences
type Values struct {
	BendSelect       string `json:"bend_select"`
	BendCustom       string `json:"bend_custom"`
	PressureSource   string `json:"pressure_source"`
	ThirdDimensionCC int    `json:"third_dimension_cc"`
}

// Values returns the stored preferences, filling unset keys from defaults
func (s *Store) Values() Values {
	def := monitor.DefaultConfig()
	v := Values{
		BendSelect:       strconv.Itoa(def.BendRange),
		PressureSource:   string(def.PressureSource),
		ThirdDimensionCC: int(def.ThirdDimensionCC),
	}
	if sel, ok := s.Get(KeyBendSelect); ok {
		v.BendSelect = sel
	}
	if custom, ok := s.Get(KeyBendCustom); ok {
		v.BendCustom = custom
	}
	if ps, ok := s.Get(KeyPressureSource); ok {
		v.PressureSource = ps
	}
	if cc, ok := s.Get(KeyThirdDimensionCC); ok {
		if n, err := strconv.Atoi(cc); err == nil {
			v.ThirdDimensionCC = n
		} else {
			v.ThirdDimensionCC = -1
		}
	}
	return v
}

// Resolve turns the stored preferences into a Config. Invalid values fall
// back to their default and are reported in the returned error; the Config
// is usable either way.
func (s *Store) Resolve() (monitor.Config, error) {
	return s.Values().Resolve()
}

// Resolve turns v into a Config. See Store.Resolve.
func (v Values) Resolve() (monitor.Config, error) {
	cfg := monitor.DefaultConfig()
	var errs []error

	if r, err := v.bendRange(); err != nil {
		errs = append(errs, err)
	} else {
		cfg.BendRange = r
	}

	if ps, err := monitor.ParsePressureSource(v.PressureSource); err != nil {
		errs = append(errs, err)
	} else {
		cfg.PressureSource = ps
	}

	if v.ThirdDimensionCC < 0 || v.ThirdDimensionCC > 127 {
		errs = append(errs, fmt.Errorf("%w: third dimension CC %d outside 0-127", monitor.ErrInvalidConfig, v.ThirdDimensionCC))
	} else {
		cfg.ThirdDimensionCC = uint8(v.ThirdDimensionCC)
	}

	return cfg, errors.Join(errs...)
}

func (v Values) bendRange() (int, error) {
	src := v.BendSelect
	if v.BendSelect == BendCustom {
		src = v.BendCustom
	} else if !isPreset(v.BendSelect) {
		return 0, fmt.Errorf("%w: unknown bend selection %q", monitor.ErrInvalidConfig, v.BendSelect)
	}

	n, err := strconv.Atoi(src)
	if err != nil {
		return 0, fmt.Errorf("%w: bend range %q is not a number", monitor.ErrInvalidConfig, src)
	}
	if n < 1 || n > monitor.MaxBendRange {
		return 0, fmt.Errorf("%w: bend range %d outside 1-%d", monitor.ErrInvalidConfig, n, monitor.MaxBendRange)
	}
	return n, nil
}

func isPreset(sel string) bool {
	for _, p := range monitor.BendPresets {
		if strconv.Itoa(p) == sel {
			return true
		}
	}
	return false
}

// Record stores v, validating it first. Nothing is stored if v is invalid.
func (s *Store) Record(v Values) (monitor.Config, error) {
	cfg, err := v.Resolve()
	if err != nil {
		return cfg, err
	}
	s.Set(KeyBendSelect, v.BendSelect)
	if v.BendSelect == BendCustom || v.BendCustom != "" {
		s.Set(KeyBendCustom, v.BendCustom)
	}
	s.Set(KeyPressureSource, v.PressureSource)
	s.Set(KeyThirdDimensionCC, strconv.Itoa(v.ThirdDimensionCC))
	return cfg, nil
}

// ValuesFor returns the Values that select cfg
func ValuesFor(cfg monitor.Config) Values {
	v := Values{
		BendSelect:       strconv.Itoa(cfg.BendRange),
		PressureSource:   string(cfg.PressureSource),
		ThirdDimensionCC: int(cfg.ThirdDimensionCC),
	}
	if !isPreset(v.BendSelect) {
		v.BendCustom = v.BendSelect
		v.BendSelect = BendCustom
	}
	return v
}
