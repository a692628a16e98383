package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ariadne/pkg/cli/config"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/usecase"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestDefaultRetrievalSettings(t *testing.T) {
	s := config.DefaultRetrievalSettings()
	gt.NoError(t, s.Validate())
	gt.Value(t, s.K).Equal(4)
	gt.Value(t, s.Collection).Equal(usecase.DefaultDocumentCollection)
	gt.Value(t, s.Columns).Equal(model.LocationColumns)
	gt.Value(t, s.LocationStrategy).Equal(config.StrategyTableScan)
}

func TestLoadRetrievalSettingsTOML(t *testing.T) {
	path := writeFile(t, "retrieval.toml", `
collection = "kb"
k = 3
fetch_k = 10
lambda = 0.25
columns = ["name", "city", "description"]
location_strategy = "keyword"

[timeouts]
generation = "90s"
`)

	s, err := config.LoadRetrievalSettings(path)
	gt.NoError(t, err).Required()
	gt.Value(t, s.Collection).Equal("kb")
	gt.Value(t, s.K).Equal(3)
	gt.Value(t, s.FetchK).Equal(10)
	gt.Value(t, s.Lambda).Equal(0.25)
	gt.Value(t, s.Columns).Equal([]string{"name", "city", "description"})
	gt.Value(t, s.LocationStrategy).Equal(config.StrategyKeyword)

	timeouts, err := s.UseCaseTimeouts()
	gt.NoError(t, err).Required()
	gt.Value(t, timeouts.Generation).Equal(90 * time.Second)
	gt.Value(t, timeouts.Retrieval).Equal(usecase.DefaultRetrievalTimeout)
}

func TestLoadRetrievalSettingsYAML(t *testing.T) {
	path := writeFile(t, "retrieval.yaml", `
k: 2
ingest:
  concurrency: 8
  rate_per_second: 1.5
`)

	s, err := config.LoadRetrievalSettings(path)
	gt.NoError(t, err).Required()
	gt.Value(t, s.K).Equal(2)
	gt.Value(t, s.Ingest.Concurrency).Equal(8)
	gt.Value(t, s.Ingest.RatePerSecond).Equal(1.5)
	gt.Value(t, s.Columns).Equal(model.LocationColumns)
}

func TestLoadRetrievalSettingsEmptyFile(t *testing.T) {
	for _, name := range []string{"empty.toml", "empty.yaml"} {
		t.Run(name, func(t *testing.T) {
			s, err := config.LoadRetrievalSettings(writeFile(t, name, ""))
			gt.NoError(t, err).Required()
			gt.Value(t, s.K).Equal(usecase.DefaultTopK)
			gt.Value(t, s.Columns).Equal(model.LocationColumns)
		})
	}
}

func TestLoadRetrievalSettingsErrors(t *testing.T) {
	cases := []struct {
		name string
		file string
		body string
		want error
	}{
		{"unknown column", "r.toml", `columns = ["name", "secret"]`, config.ErrInvalidConfig},
		{"k larger than fetch_k", "r.toml", "k = 30\nfetch_k = 5", config.ErrInvalidConfig},
		{"lambda out of range", "r.yml", "lambda: 1.5", config.ErrInvalidConfig},
		{"bad timeout", "r.toml", "[timeouts]\nstore = \"soon\"", config.ErrInvalidConfig},
		{"unknown strategy", "r.yaml", "location_strategy: fuzzy", config.ErrInvalidConfig},
		{"broken toml", "r.toml", "k = ", config.ErrInvalidConfig},
		{"unknown toml key", "r.toml", `table = "no_such_table"`, config.ErrInvalidConfig},
		{"unknown yaml key", "r.yaml", "table: clinics", config.ErrInvalidConfig},
		{"misspelled nested key", "r.toml", "[timeouts]\ngenerate = \"10s\"", config.ErrInvalidConfig},
		{"unsupported extension", "r.json", `{"k": 1}`, config.ErrUnsupportedFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.LoadRetrievalSettings(writeFile(t, tc.file, tc.body))
			gt.Bool(t, errors.Is(err, tc.want)).True()
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadRetrievalSettings(filepath.Join(t.TempDir(), "none.toml"))
		gt.Bool(t, errors.Is(err, config.ErrConfigNotFound)).True()
	})
}
