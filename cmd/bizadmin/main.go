package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/jrsteele09/go-bizadmin-client/app"
	"github.com/jrsteele09/go-bizadmin-client/internal/config"
	"github.com/jrsteele09/go-bizadmin-client/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, apierror.Message(err))
		log.Debug().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.Load(os.Getenv("BIZADMIN_CONFIG"))
	if err != nil {
		return err
	}
	logger := logging.New(cfg.GetEnv(), cfg.GetLogLevel())

	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		displayAppname(out, cfg.GetAppName())
		printUsage(out)
		return nil
	}

	a, err := app.New(cfg, app.WithLogger(logger))
	if err != nil {
		return err
	}
	a.OnExpired(func() {
		fmt.Fprintln(out, "Your session has expired. Run `bizadmin login` to sign in again.")
	})
	return dispatch(ctx, a, args, out)
}

func displayAppname(out io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(out, myFigure.String())
}
