// Command feedback-export downloads feedback records from S3, optionally
// prints statistics about them, and writes CSV/JSON export files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"vtt-feedback/internal/app"
	"vtt-feedback/internal/config"
	"vtt-feedback/internal/platform"
	"vtt-feedback/internal/source"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run returns the process exit code. Usage text and fatal messages go to
// stderr.
func run(args []string, stderr io.Writer) int {
	loader := config.NewLoader()
	loader.Output = stderr

	cfg, err := loader.Load(args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, app.ExitMessage(err))
		return 1
	}

	logger, err := app.ProvideLogger(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := app.ProvideAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("Unable to load AWS SDK config", zap.Error(err))
		fmt.Fprintf(stderr, "❌ Unable to load AWS configuration: %v\n", err)
		return 1
	}

	runner := app.NewRunner(cfg, app.Deps{
		Resolver: source.NewResolver(
			app.ProvideCloudFormationClient(awsCfg),
			cfg.StackName,
			cfg.StackOutputKey,
			logger,
		),
		Objects: app.ProvideS3Client(awsCfg),
		Opener:  platform.NewDirOpener(),
		Out:     os.Stdout,
		Logger:  logger,
	})

	if _, err := runner.Run(ctx); err != nil {
		logger.Error("Export failed", zap.Error(err))
		fmt.Fprintln(stderr, app.ExitMessage(err))
		return 1
	}
	return 0
}
