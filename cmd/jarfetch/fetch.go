package main

import (
	"context"
	"fmt"
	"httpjar/application/http/actor/client"
	"httpjar/application/http/cookie/browser"
	"httpjar/application/http/semantic"
	"httpjar/application/util/uri"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
)

func fetch(ctx *cli.Context) error {
	rawURI := strings.TrimSpace(ctx.Args().First())
	if rawURI == "" {
		if err := cli.ShowAppHelp(ctx); err != nil {
			return err
		}
		return errors.Wrap(errUsage, "missing url")
	}

	opts, err := optionsFromFlags(ctx)
	if err != nil {
		return err
	}

	logger := newLogger(ctx.App.ErrWriter, ctx.Bool("verbose"))
	fs := afero.NewOsFs()

	request, err := buildRequest(ctx, fs, rawURI)
	if err != nil {
		return err
	}

	c, err := client.NewFromOptions(opts, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := importCookies(sigCtx, ctx, c, fs, logger); err != nil {
		return err
	}

	res, err := c.Send(sigCtx, request)
	if err != nil {
		return err
	}

	for _, entry := range c.History() {
		logger.Info("Followed redirect",
			slog.String("uri", entry.URI.String()),
			slog.Uint64("status", uint64(entry.StatusCode)),
		)
	}

	return writeResponse(ctx.App.Writer, res, ctx.Bool("include") || ctx.Bool("head"))
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// buildRequest creates the request to send from the positional URL and
// the method and data flags. A URL without scheme is sent over http.
func buildRequest(ctx *cli.Context, fs afero.Fs, rawURI string) (*semantic.Request, error) {
	if !strings.Contains(rawURI, "://") {
		rawURI = "http://" + rawURI
	}

	target, err := uri.Parse(rawURI)
	if err != nil {
		return nil, errors.Wrapf(client.ErrInvalidRequest, "parsing url %q: %v", rawURI, err)
	}

	var body io.Reader
	if data := ctx.String("data"); data != "" {
		if path, ok := strings.CutPrefix(data, "@"); ok {
			b, err := afero.ReadFile(fs, path)
			if err != nil {
				return nil, errors.Wrapf(err, "reading data file %q", path)
			}
			body = strings.NewReader(string(b))
		} else {
			body = strings.NewReader(data)
		}
	}

	method := semantic.Method(strings.ToUpper(ctx.String("request")))
	switch {
	case ctx.Bool("head"):
		method = semantic.MethodHead
	case method != "":
	case body != nil:
		method = semantic.MethodPost
	default:
		method = semantic.MethodGet
	}

	return semantic.NewRequest(method, target, body), nil
}

// importCookies adds cookies exported by browsers to the jar of c.
func importCookies(ctx context.Context, cliCtx *cli.Context, c *client.Client, fs afero.Fs, logger *slog.Logger) error {
	now := time.Now().Unix()

	if path := cliCtx.String("import-netscape"); path != "" {
		records, err := browser.LoadNetscape(fs, path, now, logger)
		if err != nil {
			return err
		}
		n := browser.Import(c.Jar(), records, now)
		logger.Info("Imported cookies", slog.String("format", browser.FormatNetscape.String()), slog.Int("count", n))
	}

	if path := cliCtx.String("import-firefox"); path != "" {
		records, err := browser.LoadFirefox(ctx, fs, path)
		if err != nil {
			return err
		}
		n := browser.Import(c.Jar(), records, now)
		logger.Info("Imported cookies", slog.String("format", browser.FormatFirefox.String()), slog.Int("count", n))
	}

	return nil
}

// writeResponse prints the body of res to w, preceded by the status line
// and header fields when head is set.
func writeResponse(w io.Writer, res *semantic.Response, head bool) error {
	if head {
		fmt.Fprintf(w, "%s %s\r\n", res.Version, res.Status)
		for _, f := range res.Headers.ToRawFields() {
			fmt.Fprintf(w, "%s: %s\r\n", f.Name, f.Value)
		}
		fmt.Fprint(w, "\r\n")
	}

	if res.Body == nil {
		return nil
	}

	_, err := io.Copy(w, res.Body)
	return errors.Wrap(err, "writing body")
}

// exitCode maps err onto the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, errUsage), errors.Is(err, client.ErrInvalidRequest):
		return 2
	case errors.Is(err, client.ErrNetwork):
		return 3
	case errors.Is(err, client.ErrInvalidRedirect):
		return 4
	}
	return 1
}
