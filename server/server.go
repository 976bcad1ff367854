// Package server implements the accept loop: bind a
// TCP listener, optionally wrap each accepted connection in TLS, and
// submit it to a worker pool that drives the registered Service.
package server

import (
	"crypto/tls"
	"log"
	"net"
	"os"
	"sync"

	"github.com/corehttpd/webkit/conn"
	"github.com/corehttpd/webkit/workerpool"
)

// Config holds the listener address and optional TLS material. No
// CLI/environment surface is part of the core; callers construct
// Config directly or via the config package's scfg loader.
type Config struct {
	ListenAddr   string
	TLSCertPath  string // both set together enables TLS
	TLSKeyPath   string
	PoolCapacity int // 0 = unbounded
	PinWorkers   bool
}

// Server binds cfg.ListenAddr and hands every accepted connection to
// svc via a workerpool.Pool, bounded when cfg.PoolCapacity > 0.
type Server struct {
	cfg    Config
	svc    conn.Service
	pool   *workerpool.Pool
	logger *log.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New constructs a Server. It does not bind the listener yet; that
// happens in ListenAndServe.
func New(cfg Config, svc conn.Service) *Server {
	opts := []workerpool.Option{}
	if cfg.PoolCapacity > 0 {
		opts = append(opts, workerpool.WithCapacity(cfg.PoolCapacity))
	}
	if cfg.PinWorkers {
		opts = append(opts, workerpool.WithThreadPinning())
	}
	return &Server{
		cfg:    cfg,
		svc:    svc,
		pool:   workerpool.New(opts...),
		logger: log.New(os.Stderr, "", log.LstdFlags),
	}
}

// tlsConfig builds an intermediate-compatibility TLS profile
// (TLS1.2 minimum, a modern curve/cipher selection) from the
// configured PEM cert/key paths.
func tlsConfig(certPath, keyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
		},
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		},
	}, nil
}

// ListenAndServe binds cfg.ListenAddr and accepts connections until
// the listener errors (which is fatal) or Shutdown is called.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	var tc *tls.Config
	if s.cfg.TLSCertPath != "" && s.cfg.TLSKeyPath != "" {
		tc, err = tlsConfig(s.cfg.TLSCertPath, s.cfg.TLSKeyPath)
		if err != nil {
			return err
		}
	}

	for {
		rawConn, err := ln.Accept()
		if err != nil {
			return err
		}

		c := rawConn
		remote := rawConn.RemoteAddr().String()
		if tc != nil {
			tlsConn := tls.Server(rawConn, tc)
			if err := tlsConn.Handshake(); err != nil {
				s.logger.Printf("TLS handshake failed for %s: %v", remote, err)
				_ = rawConn.Close()
				continue
			}
			c = tlsConn
		}

		s.pool.Submit(func() {
			s.svc.HandleConnection(c, remote)
		})
	}
}

// Addr returns the listener's bound address. It is only valid after
// ListenAndServe has started accepting, and exists mainly so tests and
// management tooling can discover an ephemeral port.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting new connections and waits for in-flight
// worker jobs to finish. There is no graceful drain protocol beyond
// that.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mu.Unlock()
	s.pool.Shutdown()
}
