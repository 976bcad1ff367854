// Package conn drives the per-connection request loop: decode a
// request, dispatch it through a route trie or a WebSocket upgrade,
// and serialize the response, until the peer disconnects or an
// unrecoverable error occurs.
package conn

import (
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/corehttpd/webkit/errs"
)

// Service is what the worker pool hands an accepted connection to.
// Implementations own the connection for its entire lifetime.
type Service interface {
	HandleConnection(stream io.ReadWriteCloser, remote string)
}

// connID stamps each accepted connection with a short correlation ID
// for the "started serving"/"stopped serving" log lines.
func connID() string {
	return uuid.New().String()[:8]
}

func logStart(logger *log.Logger, remote, id string) {
	logger.Printf("started serving %s [%s]", remote, id)
}

func logStop(logger *log.Logger, remote, id string) {
	logger.Printf("stopped serving %s [%s]", remote, id)
}

// logLoopError logs everything except a clean ConnectionClosed,
// which exits silently.
func logLoopError(logger *log.Logger, remote, id string, err error) {
	if errs.Is(err, errs.ConnectionClosed) {
		return
	}
	logger.Printf("[%s] connection from %s: %v", id, remote, err)
}
