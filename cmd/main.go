package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"journalsummarizer/internal/handler"
	"journalsummarizer/internal/lambda"
	"journalsummarizer/internal/ratelimiter"
	"journalsummarizer/internal/scheduler"
	"journalsummarizer/internal/server"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	root := &cobra.Command{
		Use:           "journal-summarizer",
		Short:         "Summarize diary entries with OpenAI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd(), lambdaCmd(), summarizeCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")

	return cmd
}

func lambdaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Run as an AWS Lambda function",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			a.log.InfoContext(cmd.Context(), "Lambda runtime is starting",
				"function", os.Getenv("AWS_LAMBDA_FUNCTION_NAME"))

			lambda.New(a.handler, a.log).Start()

			return nil
		},
	}
}

func summarizeCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a request body read from a file or stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			resp := a.handler.Handle(cmd.Context(), handler.Request{
				Method: http.MethodPost,
				Body:   body,
			})

			if resp.Status != http.StatusOK {
				return fmt.Errorf("summarize failed with status %d: %s", resp.Status, resp.Body)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(resp.Body))

			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "path to a JSON request body, - for stdin")

	return cmd
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	file = strings.TrimSpace(file)
	if file == "" || file == "-" {
		body, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return body, nil
	}

	body, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}

	return body, nil
}

func runServe(parent context.Context, addr string) error {
	start := time.Now()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	log := a.log

	if addr == "" {
		addr = a.cfg.Addr
	}

	if a.history != nil {
		sched := scheduler.New(ctx, a.history, a.cfg.HistoryRetention, log)
		if err = sched.Start(); err != nil {
			log.ErrorContext(ctx, "Failed to start scheduler",
				"error", err,
				"spec", scheduler.HourlyPruneSpec)

			return err
		}
		defer sched.Stop()
		log.InfoContext(ctx, "Scheduler is started",
			"spec", scheduler.HourlyPruneSpec,
			"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())
	}

	var history server.HistoryReader
	if a.history != nil {
		history = a.history
	}

	var opts []server.Option
	if rl := ratelimiter.New(a.cfg.RateLimitInterval); rl != nil {
		opts = append(opts, server.WithRateLimiter(rl))
		log.InfoContext(ctx, "Rate limiter is enabled",
			"interval", a.cfg.RateLimitInterval.String())
	}

	srv := server.New(addr, a.handler, history, a.metrics, log, opts...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case err = <-errCh:
		if err != nil {
			log.ErrorContext(ctx, "HTTP server stopped unexpectedly",
				"error", err,
				"addr", addr)

			return err
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.ErrorContext(shutdownCtx, "Failed to shut down HTTP server",
			"error", err)
	}

	log.InfoContext(shutdownCtx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	return nil
}
