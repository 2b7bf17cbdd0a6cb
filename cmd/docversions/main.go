package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docversions/cmd/docversions/commands"
	ferrors "git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var cli commands.CLI
	parser, err := commands.NewParser(&cli, kong.Vars{"version": version.String()})
	if err != nil {
		panic(err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		var parseErr *kong.ParseError
		if errors.As(err, &parseErr) {
			_ = parseErr.Context.PrintUsage(true)
		}
		return ferrors.ExitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global := &commands.Global{Logger: slog.Default(), Context: ctx, Stdout: os.Stdout}
	if err := kctx.Run(global, &cli); err != nil {
		code := 0
		adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).WithExit(func(c int) { code = c })
		adapter.HandleError(err)
		return code
	}
	return 0
}
