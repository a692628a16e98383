package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/types"
	"github.com/secmon-lab/ariadne/pkg/usecase"
	"github.com/urfave/cli/v3"
)

const (
	askModeRoute  = "route"
	askModeSearch = "search"
)

func cmdAsk() *cli.Command {
	var sessionID string
	var mode string
	var rc runtimeConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session",
			Usage:       "Session ID to continue. A new session is started when empty",
			Sources:     cli.EnvVars("ARIADNE_SESSION"),
			Destination: &sessionID,
		},
		&cli.StringFlag{
			Name:        "mode",
			Usage:       "route classifies the query first, search always uses the knowledge base",
			Value:       askModeRoute,
			Destination: &mode,
		},
	}
	flags = append(flags, rc.Flags()...)

	return &cli.Command{
		Name:      "ask",
		Aliases:   []string{"a"},
		Usage:     "Ask a single question from the terminal",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return goerr.New("question is required")
			}

			rt, err := rc.build(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			input := usecase.RouteInput{SessionID: types.SessionID(sessionID), Query: query}

			var out *usecase.RouteOutput
			switch mode {
			case askModeRoute:
				out, err = rt.uc.Route.Route(ctx, input)
			case askModeSearch:
				out, err = rt.uc.Route.Search(ctx, input)
			default:
				return goerr.New("invalid mode", goerr.V("mode", mode))
			}
			if err != nil {
				return err
			}

			printAnswer(os.Stdout, out)
			return nil
		},
	}
}

func printAnswer(w io.Writer, out *usecase.RouteOutput) {
	label := color.New(color.FgHiBlack)
	_, _ = label.Fprintf(w, "session: %s  intent: %s\n\n", out.SessionID, out.Intent.Name())
	_, _ = fmt.Fprintln(w, out.Response)

	if len(out.Locations) == 0 {
		return
	}

	name := color.New(color.FgCyan, color.Bold)
	_, _ = fmt.Fprintln(w)
	for _, loc := range out.Locations {
		_, _ = name.Fprintln(w, loc.Name)
		printField(w, "address", loc.Address)
		printField(w, "phone", loc.Phone)
		printField(w, "website", loc.Website)
		printField(w, "rating", loc.Rating.Raw)
	}
}

func printField(w io.Writer, key, value string) {
	if value == "" {
		return
	}
	_, _ = color.New(color.FgHiBlack).Fprintf(w, "  %-8s ", key)
	_, _ = fmt.Fprintln(w, value)
}
