// Package catalog provides the read-only food catalog searched by the
// logging flows.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/starford/nutrilog/internal/apperr"
	"github.com/starford/nutrilog/internal/models"
)

//go:embed foods.yaml
var defaultFoods []byte

// Catalog is the lookup contract used by the logging flows. Both methods
// return an empty list instead of failing.
type Catalog interface {
	Search(query string) []models.FoodDefinition
	Popular(n int) []models.FoodDefinition
}

type record struct {
	models.FoodDefinition `yaml:",inline"`
	Popularity            int `yaml:"popularity"`
}

type document struct {
	Foods []record `yaml:"foods"`
}

// Static is an in-memory catalog loaded from YAML. It can be swapped
// atomically with Replace.
type Static struct {
	mu      sync.RWMutex
	foods   []record
	byID    map[string]int
	popular []int
}

var _ Catalog = (*Static)(nil)

// Default returns the built-in catalog.
func Default() *Static {
	s, err := Parse(defaultFoods)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded foods: %v", err))
	}
	return s
}

// Load reads a catalog file. An empty path yields the built-in catalog.
func Load(path string) (*Static, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Static, error) {
	records, err := decode(data)
	if err != nil {
		return nil, err
	}
	s := &Static{}
	s.set(records)
	return s, nil
}

func decode(data []byte) ([]record, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Foods))
	for i := range doc.Foods {
		f := &doc.Foods[i].FoodDefinition
		if f.Provenance == "" {
			f.Provenance = models.ProvenanceCatalog
		}
		if f.ID == "" {
			return nil, fmt.Errorf("catalog: food %d (%s): id is required", i, f.Name)
		}
		if _, dup := seen[f.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate food id %q", f.ID)
		}
		seen[f.ID] = struct{}{}
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: food %q: %w", f.ID, err)
		}
	}
	return doc.Foods, nil
}

func (s *Static) set(records []record) {
	byID := make(map[string]int, len(records))
	popular := make([]int, len(records))
	for i, r := range records {
		byID[r.ID] = i
		popular[i] = i
	}
	sort.SliceStable(popular, func(a, b int) bool {
		return records[popular[a]].Popularity > records[popular[b]].Popularity
	})

	s.mu.Lock()
	s.foods = records
	s.byID = byID
	s.popular = popular
	s.mu.Unlock()
}

// Reload replaces the catalog contents with the decoded document. On error
// the current contents are kept.
func (s *Static) Reload(data []byte) (int, error) {
	records, err := decode(data)
	if err != nil {
		return 0, err
	}
	s.set(records)
	return len(records), nil
}

// Len reports the number of foods.
func (s *Static) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.foods)
}

// Get returns the food with id.
func (s *Static) Get(id string) (models.FoodDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return models.FoodDefinition{}, fmt.Errorf("%w: food %s", apperr.ErrNotFound, id)
	}
	return s.foods[i].Clone(), nil
}

// Search matches every whitespace-separated term of query against food
// names and categories, case-insensitively. Name-prefix matches come first,
// then by popularity.
func (s *Static) Search(query string) []models.FoodDefinition {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []models.FoodDefinition{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		idx    int
		prefix bool
	}
	var hits []hit
	for _, i := range s.popular {
		f := s.foods[i]
		name := strings.ToLower(f.Name)
		hay := name + " " + strings.ToLower(f.Category)
		ok := true
		for _, t := range terms {
			if !strings.Contains(hay, t) {
				ok = false
				break
			}
		}
		if ok {
			hits = append(hits, hit{idx: i, prefix: strings.HasPrefix(name, terms[0])})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].prefix && !hits[b].prefix
	})

	out := make([]models.FoodDefinition, 0, len(hits))
	for _, h := range hits {
		out = append(out, s.foods[h.idx].Clone())
	}
	return out
}

// Popular returns up to n foods by descending popularity. n <= 0 returns
// all of them.
func (s *Static) Popular(n int) []models.FoodDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.popular) {
		n = len(s.popular)
	}
	out := make([]models.FoodDefinition, 0, n)
	for _, i := range s.popular[:n] {
		out = append(out, s.foods[i].Clone())
	}
	return out
}
