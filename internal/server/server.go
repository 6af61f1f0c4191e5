// Package server runs the development server: it serves the destination
// directory, rebuilds on source changes and tells connected browsers to
// reload.
package server

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pagekit/internal/errors"
	"pagekit/internal/metrics"
)

// DefaultDebounce is how long the watcher waits for changes to settle
// before rebuilding.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc rebuilds the page.
type BuildFunc func() error

// Config configures Run.
type Config struct {
	Port       int
	Dest       string
	WatchPaths []string
	// Ignore lists files whose changes never trigger a rebuild, such as
	// the page being written.
	Ignore   []string
	Debounce time.Duration
	Registry *prometheus.Registry
	Logger   zerolog.Logger
}

// Run performs an initial build, then serves cfg.Dest until ctx is
// cancelled.
func Run(ctx context.Context, cfg Config, build BuildFunc) error {
	logger := cfg.Logger
	if err := build(); err != nil {
		return errors.Wrap(err, errors.GetCode(err), "initial build failed")
	}

	w, err := newWatcher(cfg, build, newHub(logger))
	if err != nil {
		return err
	}
	defer w.close()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           newMux(cfg, w.hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w.run(ctx)
		return nil
	})
	g.Go(func() error {
		logger.Info().Str("addr", "http://localhost"+srv.Addr).Msg("Serving page, press Ctrl+C to stop")
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, errors.CodeIO, "server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newMux(cfg Config, h *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(h, w, r)
	})
	if cfg.Registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(cfg.Registry))
	}
	mux.Handle("/", liveReloadWrapper(http.FileServer(http.Dir(cfg.Dest))))
	return mux
}

type watcher struct {
	fs       *fsnotify.Watcher
	hub      *Hub
	build    BuildFunc
	ignore   map[string]bool
	debounce time.Duration
	logger   zerolog.Logger
}

func newWatcher(cfg Config, build BuildFunc, h *Hub) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "could not create file watcher")
	}
	w := &watcher{
		fs:       fw,
		hub:      h,
		build:    build,
		ignore:   make(map[string]bool),
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	for _, p := range cfg.Ignore {
		w.ignore[filepath.Clean(p)] = true
	}
	if err := w.addPaths(cfg.WatchPaths); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// addPaths watches every directory under each directory path and the
// parent of each file path, so editors that save by swapping files are
// still seen.
func (w *watcher) addPaths(paths []string) error {
	watched := make(map[string]bool)
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if watched[dir] {
			return
		}
		if err := w.fs.Add(dir); err != nil {
			w.logger.Warn().Err(err).Str("dir", dir).Msg("Could not watch directory")
			return
		}
		w.logger.Debug().Str("dir", dir).Msg("Watching directory")
		watched[dir] = true
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if stderrors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return errors.Wrap(err, errors.CodeIO, "could not stat watch path").WithDetail("path", path)
		}
		if !info.IsDir() {
			add(filepath.Dir(path))
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				add(p)
			}
			return nil
		})
		if err != nil {
			return errors.Wrap(err, errors.CodeIO, "failed to watch directory").WithDetail("path", path)
		}
	}
	return nil
}

func (w *watcher) relevant(event fsnotify.Event) bool {
	if w.ignore[filepath.Clean(event.Name)] {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// run rebuilds once changes have been quiet for the debounce interval.
func (w *watcher) run(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	var pending string

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			pending = event.Name
			timer.Reset(w.debounce)
		case <-timer.C:
			w.logger.Info().Str("file", pending).Msg("Change detected, rebuilding")
			if err := w.build(); err != nil {
				w.logger.Error().Err(err).Msg("Rebuild failed")
				continue
			}
			w.logger.Info().Msg("Rebuilt, triggering reload")
			w.hub.broadcastMessage([]byte("reload"))
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}

func (w *watcher) close() {
	w.fs.Close()
}

func liveReloadWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		if !strings.HasSuffix(r.URL.Path, ".html") && !strings.HasSuffix(r.URL.Path, "/") {
			next.ServeHTTP(w, r)
			return
		}

		iw := newInterceptingWriter()
		next.ServeHTTP(iw, r)

		for key, values := range iw.header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}

		body := iw.body.Bytes()
		if iw.statusCode == http.StatusOK {
			body = bytes.Replace(body, []byte("</body>"), []byte(liveReloadScript+"</body>"), 1)
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		w.WriteHeader(iw.statusCode)
		_, _ = w.Write(body)
	})
}

type interceptingWriter struct {
	body       *bytes.Buffer
	statusCode int
	header     http.Header
}

func newInterceptingWriter() *interceptingWriter {
	return &interceptingWriter{
		body:       new(bytes.Buffer),
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (iw *interceptingWriter) Header() http.Header {
	return iw.header
}

func (iw *interceptingWriter) Write(b []byte) (int, error) {
	return iw.body.Write(b)
}

func (iw *interceptingWriter) WriteHeader(statusCode int) {
	iw.statusCode = statusCode
}

const liveReloadScript = `
<script>
  (function() {
    let socket = new WebSocket("ws://" + window.location.host + "/ws");
    socket.onmessage = function(event) {
      if (event.data === "reload") {
        window.location.reload();
      }
    };
    socket.onerror = function() {
      console.error("Live reload connection lost. Restart 'pagekit serve'.");
    };
  })();
</script>
`
