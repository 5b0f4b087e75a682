package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// config mirrors the handful of knobs the teacher's own demo server
// hardcodes in lib/mail/form/demo/main.go, pulled out into a TOML file
// so the binary doesn't need a recompile to change limits or listen
// address.
type config struct {
	Listen string `toml:"listen"`

	MaxHeaderBytes   int64  `toml:"max_header_bytes"`
	MaxSize          int64  `toml:"max_size"`
	MaxFields        int    `toml:"max_fields"`
	MaxFileCount     int    `toml:"max_file_count"`
	MaxTotalFileSize int64  `toml:"max_total_file_size"`
	TempDir          string `toml:"temp_dir"`
}

func defaultConfig() config {
	return config{
		Listen:           "127.0.0.1:8080",
		MaxHeaderBytes:   16 * 1024,
		MaxSize:          32 << 20,
		MaxFields:        64,
		MaxFileCount:     16,
		MaxTotalFileSize: 256 << 20,
		TempDir:          os.TempDir(),
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("formdemo: loading %q: %w", path, err)
	}
	return cfg, nil
}
