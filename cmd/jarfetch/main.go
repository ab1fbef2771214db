package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// errUsage marks command line mistakes. It exits with status 2.
var errUsage = errors.New("usage error")

const description = `jarfetch sends a single HTTP/1.1 request over a raw socket.
Cookies received along the way are kept in a jar, which is loaded from and
stored to --cookies-file so consecutive runs share a session.`

func newApp() *cli.App {
	return &cli.App{
		Name:         "jarfetch",
		HelpName:     "jarfetch",
		Usage:        "fetch a URL with a persistent cookie jar",
		Version:      "0.1.0",
		UsageText:    "jarfetch [options] <url>",
		Description:  description,
		Flags:        flags,
		Action:       fetch,
		OnUsageError: usageErrorCallback,
		Writer:       os.Stdout,
		ErrWriter:    os.Stderr,
	}
}

func usageErrorCallback(ctx *cli.Context, err error, _ bool) error {
	fmt.Fprintf(ctx.App.ErrWriter, "jarfetch: %v\n\n", err)
	cli.ShowAppHelp(ctx)
	return errors.Wrap(errUsage, err.Error())
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "jarfetch: %v\n", err)
		os.Exit(exitCode(err))
	}
}
