package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/cli/config"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/utils/logging"
	"github.com/secmon-lab/ariadne/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdIngest() *cli.Command {
	var rc runtimeConfig
	var sourceCfg config.Source
	var collection string

	flags := rc.Flags()
	flags = append(flags, sourceCfg.Flags()...)

	return &cli.Command{
		Name:    "ingest",
		Aliases: []string{"i"},
		Usage:   "Load CSV data from a local path, gs:// or s3://",
		Commands: []*cli.Command{
			{
				Name:      "locations",
				Usage:     "Embed and upsert location rows by name",
				ArgsUsage: "<uri>",
				Flags:     flags,
				Action: func(ctx context.Context, c *cli.Command) error {
					return runIngest(ctx, c, &rc, &sourceCfg, func(rt *runtime, r io.Reader) (*model.IngestReport, error) {
						return rt.uc.Ingest.IngestLocations(ctx, r)
					})
				},
			},
			{
				Name:      "documents",
				Usage:     "Embed documents and add them to a dense collection",
				ArgsUsage: "<uri>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:        "collection",
						Usage:       "Target collection. The configured collection is used when empty",
						Destination: &collection,
					},
				}, flags...),
				Action: func(ctx context.Context, c *cli.Command) error {
					return runIngest(ctx, c, &rc, &sourceCfg, func(rt *runtime, r io.Reader) (*model.IngestReport, error) {
						target := collection
						if target == "" {
							target = rt.settings.Collection
						}
						return rt.uc.Ingest.IngestDocuments(ctx, target, r)
					})
				},
			},
		},
	}
}

func runIngest(ctx context.Context, c *cli.Command, rc *runtimeConfig, sourceCfg *config.Source, ingest func(rt *runtime, r io.Reader) (*model.IngestReport, error)) error {
	uri := c.Args().First()
	if uri == "" {
		return goerr.New("source URI is required")
	}

	rt, err := rc.build(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	opener := sourceCfg.Configure()
	defer safe.Close(ctx, opener)

	r, err := opener.Open(ctx, uri)
	if err != nil {
		return goerr.Wrap(err, "failed to open source", goerr.V("uri", uri))
	}
	defer safe.Close(ctx, r)

	report, err := ingest(rt, r)
	if err != nil {
		return err
	}

	printReport(os.Stdout, report)
	logging.Default().Info("Ingestion finished", "uri", uri, "succeeded", report.Succeeded(), "failed", len(report.Failed()))
	if failed := report.Failed(); len(failed) > 0 {
		return goerr.New("some rows failed", goerr.V("failed", len(failed)))
	}
	return nil
}

func printReport(w io.Writer, report *model.IngestReport) {
	_, _ = color.New(color.FgGreen).Fprintf(w, "%d rows stored\n", report.Succeeded())
	failed := report.Failed()
	if len(failed) == 0 {
		return
	}

	red := color.New(color.FgRed)
	_, _ = red.Fprintf(w, "%d rows failed\n", len(failed))
	for _, f := range failed {
		_, _ = fmt.Fprintf(w, "  row %d", f.Row)
		if f.Key != "" {
			_, _ = fmt.Fprintf(w, " (%s)", f.Key)
		}
		_, _ = fmt.Fprintf(w, ": %s\n", f.Err)
	}
}
