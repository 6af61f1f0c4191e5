package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"pagekit/internal/config"
	"pagekit/internal/logging"
	"pagekit/internal/metrics"
	"pagekit/internal/page"
	"pagekit/internal/scaffold"
	"pagekit/internal/server"
)

type appConfig struct {
	verbosity  int
	configPath string
	port       int
}

func main() {
	appCfg := appConfig{}
	flag.IntVar(&appCfg.verbosity, "v", 1, "Log verbosity: 0 warn, 1 info, 2 debug, 3 trace.")
	flag.StringVar(&appCfg.configPath, "f", scaffold.ConfigFile, "Build file to read.")
	flag.IntVar(&appCfg.port, "port", 1313, "Port for the local development server.")
	flag.Usage = printHelp
	flag.Parse()

	logging.SetupLogger(appCfg.verbosity)

	if err := run(appCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(appCfg appConfig) error {
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return nil
	}
	logger := logging.GetLogger("cli")

	switch args[0] {
	case "build":
		done := logging.LogOperationStart(logger, "build")
		defer done()
		res, err := buildOnce(appCfg.configPath, metrics.NoopRecorder{})
		if err != nil {
			return err
		}
		fmt.Println("Wrote", res.Path)
		return nil

	case "serve":
		return serve(appCfg)

	case "new":
		if len(args) < 3 {
			flag.Usage()
			return nil
		}
		switch args[1] {
		case "page":
			created, err := scaffold.CreateNewPage(args[2])
			if err != nil {
				return err
			}
			for _, f := range created {
				fmt.Println("Created", filepath.Join(args[2], f))
			}
			fmt.Println("Page scaffolded. You can now:")
			fmt.Println("  cd", args[2])
			fmt.Println("  pagekit serve")
			return nil
		case "section":
			ref, err := scaffold.CreateNewSection(appCfg.configPath, args[2])
			if err != nil {
				return err
			}
			fmt.Println("Created", ref)
			return nil
		}
		flag.Usage()

	default:
		flag.Usage()
	}
	return nil
}

// buildOnce reloads the build file so edits to it take effect on every
// rebuild.
func buildOnce(configPath string, rec metrics.Recorder) (page.Result, error) {
	req, opts, err := config.LoadFile(configPath)
	if err != nil {
		return page.Result{}, err
	}
	return page.Create(req, opts, page.WithRecorder(rec), page.WithLogger(logging.GetLogger("page")))
}

func serve(appCfg appConfig) error {
	req, o, err := config.LoadFile(appCfg.configPath)
	if err != nil {
		return err
	}
	opts, err := config.Resolve(o)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := server.Config{
		Port:       appCfg.port,
		Dest:       opts.Dest,
		WatchPaths: append(opts.WatchPaths(), appCfg.configPath),
		Ignore:     []string{filepath.Join(opts.Dest, req.FileName)},
		Registry:   reg,
		Logger:     logging.GetLogger("server"),
	}
	return server.Run(ctx, cfg, func() error {
		_, err := buildOnce(appCfg.configPath, rec)
		return err
	})
}

func printHelp() {
	fmt.Println("pagekit - assemble a single HTML page from templated Markdown sections")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pagekit [global-flags] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  build                Build the page described by the build file")
	fmt.Println("  serve                Run a local dev server with auto-rebuild")
	fmt.Println("  new page <dir>       Create a new page project")
	fmt.Println("  new section <title>  Add a section to the build file")
	fmt.Println()
	fmt.Println("Global Flags:")
	flag.PrintDefaults()
}
