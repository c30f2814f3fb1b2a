// A minimal HTTP server that renders brace templates from ./templates with
// the file-backed render cache enabled and dev-mode watching for edits.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bracetpl/brace"
)

const (
	templateDir = "./templates"
	templateExt = ".html"
)

type server struct {
	engine *brace.Engine
	log    *slog.Logger
}

func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	page := strings.TrimPrefix(r.URL.Path, "/")
	if page == "" {
		page = "index"
	}
	if strings.Contains(page, "..") {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	data := map[string]any{
		"path": r.URL.Path,
		"now":  time.Now().Format(time.RFC1123),
		"user": map[string]any{"name": "guest", "admin": false},
	}

	out, err := s.engine.Render(filepath.Join(templateDir, page+templateExt), data)
	if err != nil {
		s.log.Error("render failed", "page", page, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(out))
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	engine, err := brace.New(
		brace.WithCache(brace.CacheConfig{
			Enabled: true,
			TTL:     time.Minute,
			Dir:     "./cache",
			DevMode: true,
		}),
		brace.WithLogger(log),
	)
	if err != nil {
		log.Error("engine init failed", "error", err)
		os.Exit(1)
	}

	watcher, err := engine.Watch(templateDir, templateExt)
	if err != nil {
		log.Error("watch failed", "error", err)
		os.Exit(1)
	}
	defer watcher.Stop()

	s := &server{engine: engine, log: log}
	http.HandleFunc("/", s.handlePage)

	srv := &http.Server{Addr: ":8080"}
	go func() {
		log.Info("serving", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")
	srv.Close()
}
