package config

import (
	"log/slog"

	"github.com/secmon-lab/ariadne/pkg/service/source"
	"github.com/urfave/cli/v3"
)

// Source configures where ingestion CSVs are read from
type Source struct {
	s3Region string
}

func (s *Source) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "s3-region",
			Usage:       "AWS region for s3:// sources. The SDK default chain is used when empty",
			Sources:     cli.EnvVars("ARIADNE_S3_REGION"),
			Destination: &s.s3Region,
		},
	}
}

func (s *Source) LogAttrs() []slog.Attr {
	return []slog.Attr{slog.String("s3_region", s.s3Region)}
}

// Configure returns an opener for local, gs:// and s3:// URIs. Close it when done.
func (s *Source) Configure() *source.Opener {
	var opts []source.Option
	if s.s3Region != "" {
		opts = append(opts, source.WithS3Region(s.s3Region))
	}
	return source.NewOpener(opts...)
}
