// Command formdemo runs a small HTTP server exercising this module's
// Decode against real client uploads, the same role the teacher's
// lib/mail/form/demo/main.go plays for its own form package: a thin
// net/http handler, not a library surface of its own.
package main

import (
	"flag"
	"fmt"
	"log"
	"mime"
	"net/http"
	"os"

	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"

	form "github.com/mah0x211/go-form-multipart"
)

func newLogger() *log.Logger {
	out := os.Stderr
	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		return log.New(colorable.NewColorable(out), "", log.LstdFlags)
	}
	return log.New(colorable.NewNonColorable(out), "", log.LstdFlags)
}

type server struct {
	cfg config
	log *log.Logger
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	mediatype, params, err := mime.ParseMediaType(ct)
	if err != nil || mediatype != "multipart/form-data" {
		http.Error(w, "expected multipart/form-data", http.StatusBadRequest)
		return
	}
	boundary := params["boundary"]

	f, err := form.Decode(r.Context(), r.Body, boundary,
		form.WithMaxHeaderBytes(s.cfg.MaxHeaderBytes),
		form.WithMaxSize(s.cfg.MaxSize),
		form.WithMaxFields(s.cfg.MaxFields),
		form.WithMaxFileCount(s.cfg.MaxFileCount),
		form.WithMaxTotalFileSize(s.cfg.MaxTotalFileSize),
		form.WithFileTemplate(s.cfg.TempDir+"/formdemo"),
	)
	if err != nil {
		s.log.Printf("decode failed: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer f.Close()

	fmt.Fprintf(w, "decoded %d distinct field names\n", len(f))
	for name, parts := range f {
		for _, p := range parts {
			if p.IsFile() {
				fmt.Fprintf(w, "  %s: file %q (%d bytes, %s)\n", name, p.FileName, p.Size, p.ContentType())
			} else {
				fmt.Fprintf(w, "  %s: %q\n", name, p.Data)
			}
		}
	}
}

func (s *server) handleEcho(w http.ResponseWriter, r *http.Request) {
	boundary := "formdemo-echo-boundary"
	w.Header().Set("Content-Type", "multipart/form-data; boundary="+boundary)
	fields := []form.Field{
		form.NewValue("message", "hello from formdemo"),
		form.NewBlob("greeting.txt", "greeting.txt", []byte("hi there")),
	}
	if _, err := form.Encode(r.Context(), w, fields, boundary); err != nil {
		s.log.Printf("encode failed: %v", err)
	}
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a formdemo.toml config file")
	flag.Parse()

	logger := newLogger()

	cfg, err := loadConfig(configPath)
	if err != nil {
		logger.Fatal(err)
	}

	s := &server{cfg: cfg, log: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/echo", s.handleEcho)

	logger.Printf("formdemo listening on %s", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, mux); err != nil && err != http.ErrServerClosed {
		logger.Fatal(err)
	}
}
