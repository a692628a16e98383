package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/service/retriever"
	"github.com/secmon-lab/ariadne/pkg/usecase"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	StrategyTableScan = "tablescan"
	StrategyKeyword   = "keyword"
)

// RetrievalSettings is the content of the retrieval configuration file.
// Durations are Go duration strings such as "30s". Location indexes always read the
// "location" table that ingestion writes; columns selects which of its columns are encoded.
type RetrievalSettings struct {
	Collection       string          `toml:"collection" yaml:"collection"`
	K                int             `toml:"k" yaml:"k"`
	FetchK           int             `toml:"fetch_k" yaml:"fetch_k"`
	Lambda           float64         `toml:"lambda" yaml:"lambda"`
	Columns          []string        `toml:"columns" yaml:"columns"`
	LocationStrategy string          `toml:"location_strategy" yaml:"location_strategy"`
	Timeouts         TimeoutSettings `toml:"timeouts" yaml:"timeouts"`
	Ingest           IngestSettings  `toml:"ingest" yaml:"ingest"`
}

type TimeoutSettings struct {
	Retrieval  string `toml:"retrieval" yaml:"retrieval"`
	Generation string `toml:"generation" yaml:"generation"`
	Store      string `toml:"store" yaml:"store"`
}

type IngestSettings struct {
	Concurrency   int     `toml:"concurrency" yaml:"concurrency"`
	RatePerSecond float64 `toml:"rate_per_second" yaml:"rate_per_second"`
}

// DefaultRetrievalSettings returns the settings used when no file is given
func DefaultRetrievalSettings() *RetrievalSettings {
	return &RetrievalSettings{
		Collection:       usecase.DefaultDocumentCollection,
		K:                usecase.DefaultTopK,
		FetchK:           retriever.DefaultFetchK,
		Lambda:           retriever.DefaultLambda,
		Columns:          append([]string(nil), model.LocationColumns...),
		LocationStrategy: StrategyTableScan,
		Timeouts: TimeoutSettings{
			Retrieval:  usecase.DefaultRetrievalTimeout.String(),
			Generation: usecase.DefaultGenerationTimeout.String(),
			Store:      usecase.DefaultStoreTimeout.String(),
		},
		Ingest: IngestSettings{
			Concurrency:   usecase.DefaultIngestConcurrency,
			RatePerSecond: usecase.DefaultIngestRatePerSec,
		},
	}
}

// Validate checks ranges and that every column is a known location column
func (s *RetrievalSettings) Validate() error {
	if s.Collection == "" {
		return goerr.Wrap(ErrInvalidConfig, "collection is required", goerr.V(FieldKey, "collection"))
	}
	if s.K <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "k must be positive", goerr.V(FieldKey, "k"), goerr.V("value", s.K))
	}
	if s.FetchK < s.K {
		return goerr.Wrap(ErrInvalidConfig, "fetch_k must not be less than k", goerr.V(FieldKey, "fetch_k"), goerr.V("value", s.FetchK))
	}
	if s.Lambda < 0 || s.Lambda > 1 {
		return goerr.Wrap(ErrInvalidConfig, "lambda must be between 0 and 1", goerr.V(FieldKey, "lambda"), goerr.V("value", s.Lambda))
	}
	if len(s.Columns) == 0 {
		return goerr.Wrap(ErrInvalidConfig, "columns must not be empty", goerr.V(FieldKey, "columns"))
	}
	for _, col := range s.Columns {
		if !model.IsColumn(col) {
			return goerr.Wrap(ErrInvalidConfig, "unknown column", goerr.V(FieldKey, "columns"), goerr.V("column", col))
		}
	}
	switch s.LocationStrategy {
	case StrategyTableScan, StrategyKeyword:
	default:
		return goerr.Wrap(ErrInvalidConfig, "unknown location_strategy", goerr.V(FieldKey, "location_strategy"), goerr.V("value", s.LocationStrategy))
	}
	if _, err := s.UseCaseTimeouts(); err != nil {
		return err
	}
	if s.Ingest.Concurrency <= 0 || s.Ingest.RatePerSecond <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "ingest limits must be positive", goerr.V(FieldKey, "ingest"))
	}
	return nil
}

// UseCaseTimeouts parses the timeout strings. Empty values keep the defaults.
func (s *RetrievalSettings) UseCaseTimeouts() (usecase.Timeouts, error) {
	t := usecase.Timeouts{
		Retrieval:  usecase.DefaultRetrievalTimeout,
		Generation: usecase.DefaultGenerationTimeout,
		Store:      usecase.DefaultStoreTimeout,
	}
	for _, f := range []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"timeouts.retrieval", s.Timeouts.Retrieval, &t.Retrieval},
		{"timeouts.generation", s.Timeouts.Generation, &t.Generation},
		{"timeouts.store", s.Timeouts.Store, &t.Store},
	} {
		if f.value == "" {
			continue
		}
		d, err := time.ParseDuration(f.value)
		if err != nil || d <= 0 {
			return usecase.Timeouts{}, goerr.Wrap(errors.Join(ErrInvalidConfig, err), "invalid timeout", goerr.V(FieldKey, f.name), goerr.V("value", f.value))
		}
		*f.dst = d
	}
	return t, nil
}

// LoadRetrievalSettings reads a TOML or YAML file chosen by extension.
// Keys missing from the file keep their default values; an empty column list selects all location columns.
func LoadRetrievalSettings(path string) (*RetrievalSettings, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "retrieval config not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	settings := DefaultRetrievalSettings()
	settings.Columns = nil
	// Unknown keys are rejected so that a misspelled or retired setting is not silently ignored
	switch filepath.Ext(path) {
	case ".toml":
		if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(settings); err != nil {
			return nil, goerr.Wrap(errors.Join(ErrInvalidConfig, err), "failed to parse TOML config", goerr.V(ConfigPathKey, path))
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(settings); err != nil && !errors.Is(err, io.EOF) {
			return nil, goerr.Wrap(errors.Join(ErrInvalidConfig, err), "failed to parse YAML config", goerr.V(ConfigPathKey, path))
		}
	default:
		return nil, goerr.Wrap(ErrUnsupportedFormat, "config must be .toml, .yaml or .yml", goerr.V(ConfigPathKey, path))
	}

	if len(settings.Columns) == 0 {
		settings.Columns = append([]string(nil), model.LocationColumns...)
	}

	if err := settings.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}
	return settings, nil
}

// Retrieval holds the flags that locate and tune retrieval
type Retrieval struct {
	path            string
	refreshInterval time.Duration
}

func (r *Retrieval) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "retrieval-config",
			Usage:       "Retrieval configuration file (.toml, .yaml or .yml). Defaults are used when empty",
			Sources:     cli.EnvVars("ARIADNE_RETRIEVAL_CONFIG"),
			Destination: &r.path,
		},
		&cli.DurationFlag{
			Name:        "index-refresh-interval",
			Usage:       "How often the location table revision is checked for cross-process ingestion",
			Value:       time.Minute,
			Sources:     cli.EnvVars("ARIADNE_INDEX_REFRESH_INTERVAL"),
			Destination: &r.refreshInterval,
		},
	}
}

func (r *Retrieval) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("config", r.path),
		slog.Duration("index_refresh_interval", r.refreshInterval),
	}
}

func (r *Retrieval) RefreshInterval() time.Duration {
	return r.refreshInterval
}

// Configure loads the settings file, or returns defaults when no path is set
func (r *Retrieval) Configure() (*RetrievalSettings, error) {
	if r.path == "" {
		return DefaultRetrievalSettings(), nil
	}
	return LoadRetrievalSettings(r.path)
}
