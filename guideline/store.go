// Package guideline loads and caches the risk-classification rule corpus
// used to ground the classifier.
package guideline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/clausecheck/risk"
)

// Rule is a named risk pattern from the guideline corpus.
type Rule struct {
	// ID uniquely identifies the rule within the corpus.
	ID string `yaml:"id"`

	// Category is the risk severity this pattern maps to.
	Category risk.Severity `yaml:"category"`

	// Trigger describes the contract language that activates the rule.
	Trigger string `yaml:"trigger"`

	// Example is sample contract language matching the trigger.
	Example string `yaml:"example,omitempty"`

	// Remedy is the suggested counter-language.
	Remedy string `yaml:"remedy,omitempty"`
}

// LoadError indicates the corpus is missing or malformed. It is recoverable:
// the classifier degrades to a baseline prompt instead of aborting.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load guidelines from %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("load guidelines: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// corpusGlob matches rule files anywhere under the corpus directory.
const corpusGlob = "**/*.{yaml,yml}"

// ruleFile is the on-disk shape of one corpus file.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// Store is the process-wide guideline cache. Rules are loaded once and are
// read-only afterward; Reload is the single writer and swaps the snapshot
// atomically, so concurrent readers see either the old or the new corpus,
// never a partial one.
type Store struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	rules   []Rule
	loaded  bool
	loadErr error

	// writeMu serializes the initial Load and all Reload callers
	// (single-writer discipline).
	writeMu sync.Mutex
}

// NewStore creates a Store reading rule files under dir.
// A nil logger uses slog.Default().
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// Load reads the corpus on the first call and caches it for the process
// lifetime. Later calls return the cached snapshot. Returns *LoadError when
// the corpus is missing or malformed.
func (s *Store) Load() ([]Rule, error) {
	s.mu.RLock()
	if s.loaded {
		rules, err := s.rules, s.loadErr
		s.mu.RUnlock()
		return rules, err
	}
	s.mu.RUnlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// Another caller may have completed the load while we waited.
	s.mu.RLock()
	if s.loaded {
		rules, err := s.rules, s.loadErr
		s.mu.RUnlock()
		return rules, err
	}
	s.mu.RUnlock()

	rules, err := s.read()

	s.mu.Lock()
	s.loaded = true
	s.loadErr = err
	if err == nil {
		s.rules = rules
	}
	s.mu.Unlock()

	return rules, err
}

// Rules returns the current snapshot without triggering a load.
func (s *Store) Rules() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

// Reload re-reads the corpus and swaps the cached snapshot. It is the only
// writer; concurrent readers keep serving the old snapshot until the swap
// completes. Concurrent Reload calls are serialized. A failed Reload leaves
// the previous snapshot in place.
func (s *Store) Reload() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rules, err := s.read()
	if err != nil {
		return err
	}

	// A successful Reload also clears a failed initial Load.
	s.mu.Lock()
	s.rules = rules
	s.loaded = true
	s.loadErr = nil
	s.mu.Unlock()

	s.logger.Info("Reloaded guideline corpus", "dir", s.dir, "rules", len(rules))
	return nil
}

// read parses every rule file under the corpus directory.
func (s *Store) read() ([]Rule, error) {
	if s.dir == "" {
		return nil, &LoadError{Err: fmt.Errorf("no corpus directory configured")}
	}
	if info, err := os.Stat(s.dir); err != nil {
		return nil, &LoadError{Path: s.dir, Err: err}
	} else if !info.IsDir() {
		return nil, &LoadError{Path: s.dir, Err: fmt.Errorf("not a directory")}
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(s.dir, corpusGlob))
	if err != nil {
		return nil, &LoadError{Path: s.dir, Err: err}
	}
	if len(matches) == 0 {
		return nil, &LoadError{Path: s.dir, Err: fmt.Errorf("no rule files found")}
	}

	// Glob order is filesystem-dependent; sort for a stable corpus.
	sort.Strings(matches)

	var rules []Rule
	seen := make(map[string]string) // rule ID → file
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}

		var file ruleFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}

		for _, rule := range file.Rules {
			if rule.ID == "" {
				return nil, &LoadError{Path: path, Err: fmt.Errorf("rule missing id")}
			}
			if prev, dup := seen[rule.ID]; dup {
				return nil, &LoadError{Path: path, Err: fmt.Errorf("duplicate rule id %q (also in %s)", rule.ID, prev)}
			}
			if _, ok := risk.ParseSeverity(string(rule.Category)); !ok {
				return nil, &LoadError{Path: path, Err: fmt.Errorf("rule %q: unknown category %q", rule.ID, rule.Category)}
			}
			if rule.Trigger == "" {
				return nil, &LoadError{Path: path, Err: fmt.Errorf("rule %q: missing trigger", rule.ID)}
			}
			seen[rule.ID] = path
			rules = append(rules, rule)
		}
	}

	return rules, nil
}
