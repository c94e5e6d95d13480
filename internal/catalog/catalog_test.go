package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/harrison/labourcheck/internal/models"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.NotNil(t, c)
	assert.Equal(t, 7, c.Len())
	assert.ElementsMatch(t, models.AllSections, c.Sections())

	for i, q := range c.Questions() {
		assert.Equal(t, i+1, q.ID)
		byPos, ok := c.At(i + 1)
		require.True(t, ok)
		byID, ok := c.ByID(q.ID)
		require.True(t, ok)
		assert.Equal(t, byPos, byID)
	}
}

func TestCatalogLookupBounds(t *testing.T) {
	c := Default()

	_, ok := c.At(0)
	assert.False(t, ok)
	_, ok = c.At(c.Len() + 1)
	assert.False(t, ok)
	_, ok = c.ByID(99)
	assert.False(t, ok)
}

func TestCatalogIsImmutable(t *testing.T) {
	c := Default()

	q, _ := c.At(1)
	q.Prompt = "changed"
	*q.Options[0].Score = 1
	q.Options[0].Label = "changed"

	again, _ := c.At(1)
	assert.NotEqual(t, "changed", again.Prompt)
	assert.NotEqual(t, "changed", again.Options[0].Label)
	assert.Equal(t, 3, *again.Options[0].Score)

	qs := c.Questions()
	qs[0].Section = models.SectionCulture
	first, _ := c.At(1)
	assert.Equal(t, models.SectionTradingCapacity, first.Section)
}

func sevenQuestions() []models.Question {
	qs := make([]models.Question, 0, len(models.AllSections))
	for i, key := range models.AllSections {
		qs = append(qs, models.Question{
			ID:      i + 1,
			Prompt:  "Question about " + key.Title(),
			Section: key,
			Options: []models.Option{{Label: "Yes", Value: "yes", Score: models.Score(7)}},
		})
	}
	return qs
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		build   func() []models.Question
		wantErr string
	}{
		{
			name:  "all sections covered",
			build: sevenQuestions,
		},
		{
			name: "two questions for one section",
			build: func() []models.Question {
				qs := sevenQuestions()
				extra := qs[1]
				extra.ID = 8
				return append(qs, extra)
			},
		},
		{
			name:    "empty",
			build:   func() []models.Question { return nil },
			wantErr: "no questions",
		},
		{
			name:    "missing section",
			build:   func() []models.Question { return sevenQuestions()[:6] },
			wantErr: "sections not covered: [culture]",
		},
		{
			name: "ids out of order",
			build: func() []models.Question {
				qs := sevenQuestions()
				qs[0].ID, qs[1].ID = 2, 1
				return qs
			},
			wantErr: "ids must run 1..N",
		},
		{
			name: "invalid option score",
			build: func() []models.Question {
				qs := sevenQuestions()
				qs[3].Options[0].Score = models.Score(12)
				return qs
			},
			wantErr: "outside [1,9]",
		},
		{
			name: "unknown section",
			build: func() []models.Question {
				qs := sevenQuestions()
				qs[6].Section = "morale"
				return qs
			},
			wantErr: "unknown section",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.build())
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, c)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrMisconfiguredCatalog))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	assert.Panics(t, func() { MustNew(nil) })
}

func TestLoad(t *testing.T) {
	t.Run("round trips the default catalog", func(t *testing.T) {
		data, err := yaml.Marshal(Default())
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, data, 0644))

		loaded, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, Default().Questions(), loaded.Questions())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read catalog file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("questions: [:::"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrMisconfiguredCatalog))
	})

	t.Run("incomplete coverage", func(t *testing.T) {
		doc := `
questions:
  - id: 1
    prompt: Only one
    section: culture
    options:
      - label: Good
        value: Good
        score: 8
`
		_, err := Parse([]byte(doc))
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrMisconfiguredCatalog))
		assert.Contains(t, err.Error(), "tradingCapacity")
	})
}
