// Package config loads a server.Config from a declarative scfg file,
// one directive per setting ("listen"/"tls" stanzas in the style of
// soju and similar services).
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"git.sr.ht/~emersion/go-scfg"

	"github.com/corehttpd/webkit/server"
)

// Load parses the scfg document at path into a server.Config.
//
// Recognized directives:
//
//	listen <addr>
//	tls <cert-path> <key-path>
//	pool-capacity <n>
//	pin-workers
func Load(path string) (server.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return server.Config{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses an scfg document from r into a server.Config.
func Decode(r io.Reader) (server.Config, error) {
	block, err := scfg.Read(r)
	if err != nil {
		return server.Config{}, fmt.Errorf("parsing config: %w", err)
	}

	var cfg server.Config
	for _, dir := range block {
		switch dir.Name {
		case "listen":
			if err := dir.ParseParams(&cfg.ListenAddr); err != nil {
				return server.Config{}, fmt.Errorf("listen: %w", err)
			}
		case "tls":
			if err := dir.ParseParams(&cfg.TLSCertPath, &cfg.TLSKeyPath); err != nil {
				return server.Config{}, fmt.Errorf("tls: %w", err)
			}
		case "pool-capacity":
			var raw string
			if err := dir.ParseParams(&raw); err != nil {
				return server.Config{}, fmt.Errorf("pool-capacity: %w", err)
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				return server.Config{}, fmt.Errorf("pool-capacity: %w", err)
			}
			cfg.PoolCapacity = n
		case "pin-workers":
			cfg.PinWorkers = true
		default:
			return server.Config{}, fmt.Errorf("unknown directive %q", dir.Name)
		}
	}

	if cfg.ListenAddr == "" {
		return server.Config{}, fmt.Errorf("config: missing required \"listen\" directive")
	}
	return cfg, nil
}
