package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kirillkom/docshelf/internal/bootstrap"
	"github.com/kirillkom/docshelf/internal/config"
	"github.com/kirillkom/docshelf/internal/core/domain"
	"github.com/kirillkom/docshelf/internal/core/usecase"
	"github.com/kirillkom/docshelf/internal/observability/logging"
)

const serviceName = "docshelf"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type command struct {
	usage string
	run   func(ctx context.Context, env *cliEnv, args []string) error
}

var commands = map[string]command{
	"list":    {"list", listCmd},
	"search":  {"search <query>", searchCmd},
	"upload":  {"upload [-title T] <path>", uploadCmd},
	"get":     {"get <id>", getCmd},
	"delete":  {"delete <id>", deleteCmd},
	"view":    {"view [-platform P] <id>", viewCmd},
	"export":  {"export -o file.xlsx [-query Q] [-history]", exportCmd},
	"history": {"history [-limit N]", historyCmd},
	"watch":   {"watch", watchCmd},
}

var commandOrder = []string{"list", "search", "upload", "get", "delete", "view", "export", "history", "watch"}

type cliEnv struct {
	app    *bootstrap.App
	stdout io.Writer
	stderr io.Writer
	// progress is set by the upload command before it starts.
	progress *progressRenderer
}

// errUsage makes run print the command usage and exit with 2.
var errUsage = errors.New("usage")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	global.SetOutput(stderr)
	metricsAddr := global.String("metrics-addr", "", "serve Prometheus metrics on this address while the command runs")
	global.Usage = func() { printUsage(stderr) }
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := global.Args()
	if len(rest) == 0 || isHelp(rest[0]) {
		printUsage(stdout)
		return 0
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", rest[0])
		printUsage(stderr)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	env := &cliEnv{stdout: stdout, stderr: stderr}
	logger := logging.NewJSONLogger(stderr, serviceName, cfg.LogLevel)
	app, err := bootstrap.New(ctx, cfg, serviceName, logger, bootstrap.UploadHooks{
		OnProgress: func(stats usecase.TransferStats) {
			if env.progress != nil {
				env.progress.Update(stats)
			}
		},
	})
	if err != nil {
		fmt.Fprintf(stderr, "bootstrap error: %v\n", err)
		return 1
	}
	defer app.Close()
	env.app = app

	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(cfg.MetricsAddr, app, stderr)
		defer shutdown()
	}

	if err := cmd.run(ctx, env, rest[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "usage: %s %s\n", serviceName, cmd.usage)
			return 2
		}
		fmt.Fprintf(stderr, "error: %s\n", domain.Message(err))
		return 1
	}
	return 0
}

func serveMetrics(addr string, app *bootstrap.App, stderr io.Writer) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("metrics_server_failed", "addr", addr, "error", err)
		}
	}()
	fmt.Fprintf(stderr, "metrics on http://%s/metrics\n", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	var b strings.Builder
	b.WriteString("usage: docshelf [-metrics-addr ADDR] <command> [args]\n\ncommands:\n")
	for _, name := range commandOrder {
		fmt.Fprintf(&b, "  %s\n", commands[name].usage)
	}
	b.WriteString("\nconfiguration comes from the environment (API_BASE_URL, ...) and the YAML file named by DOCSHELF_CONFIG.\n")
	fmt.Fprint(w, b.String())
}
