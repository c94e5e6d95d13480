// Package catalog holds the ordered, immutable list of diagnostic questions.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harrison/labourcheck/internal/models"
)

// Catalog is an ordered, immutable question list covering every section.
type Catalog struct {
	questions []models.Question
	byID      map[int]int
}

// New validates questions and builds a Catalog.
// Any validation failure wraps models.ErrMisconfiguredCatalog.
func New(questions []models.Question) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", models.ErrMisconfiguredCatalog)
	}

	c := &Catalog{
		questions: make([]models.Question, len(questions)),
		byID:      make(map[int]int, len(questions)),
	}
	covered := make(map[models.SectionKey]bool)

	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMisconfiguredCatalog, err)
		}
		if q.ID != i+1 {
			return nil, fmt.Errorf("%w: question at position %d has id %d, ids must run 1..N in order",
				models.ErrMisconfiguredCatalog, i+1, q.ID)
		}
		covered[q.Section] = true
		c.questions[i] = cloneQuestion(q)
		c.byID[q.ID] = i
	}

	var missing []models.SectionKey
	for _, key := range models.AllSections {
		if !covered[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: sections not covered: %v", models.ErrMisconfiguredCatalog, missing)
	}

	return c, nil
}

// MustNew is New for static tables; it panics on a misconfigured catalog.
func MustNew(questions []models.Question) *Catalog {
	c, err := New(questions)
	if err != nil {
		panic(err)
	}
	return c
}

// fileFormat is the YAML layout of a catalog file.
type fileFormat struct {
	Questions []models.Question `yaml:"questions"`
}

// Load reads a YAML catalog file and validates it.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document and validates it.
func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", models.ErrMisconfiguredCatalog, err)
	}
	return New(f.Questions)
}

// Len returns the number of questions.
func (c *Catalog) Len() int {
	return len(c.questions)
}

// Questions returns a copy of the questions in order.
func (c *Catalog) Questions() []models.Question {
	out := make([]models.Question, len(c.questions))
	for i, q := range c.questions {
		out[i] = cloneQuestion(q)
	}
	return out
}

// At returns the question at a 1-based position.
func (c *Catalog) At(position int) (models.Question, bool) {
	if position < 1 || position > len(c.questions) {
		return models.Question{}, false
	}
	return cloneQuestion(c.questions[position-1]), true
}

// ByID looks a question up by id.
func (c *Catalog) ByID(id int) (models.Question, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return models.Question{}, false
	}
	return cloneQuestion(c.questions[idx]), true
}

// Sections returns the distinct sections in catalog order.
func (c *Catalog) Sections() []models.SectionKey {
	seen := make(map[models.SectionKey]bool)
	var out []models.SectionKey
	for _, q := range c.questions {
		if !seen[q.Section] {
			seen[q.Section] = true
			out = append(out, q.Section)
		}
	}
	return out
}

// MarshalYAML writes the catalog in the same layout Load reads.
func (c *Catalog) MarshalYAML() (interface{}, error) {
	return fileFormat{Questions: c.questions}, nil
}

func cloneQuestion(q models.Question) models.Question {
	opts := make([]models.Option, len(q.Options))
	for i, o := range q.Options {
		opts[i] = o
		if o.Score != nil {
			opts[i].Score = models.Score(*o.Score)
		}
	}
	q.Options = opts
	return q
}
