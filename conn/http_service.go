package conn

import (
	"bufio"
	"io"
	"log"
	"os"

	"github.com/corehttpd/webkit/httpproto"
	"github.com/corehttpd/webkit/router"
)

// HTTPService drives the per-connection request loop: decode one
// request, match it against a route Trie, fall back to a configured
// handler (or a built-in 404) when nothing matches, serialize the
// response, and repeat until the stream closes or errors.
type HTTPService struct {
	Trie     *router.Trie
	Fallback router.Handler // consulted when no route matches; may be nil
	Logger   *log.Logger
}

// NewHTTPService builds an HTTPService logging to stderr by default.
func NewHTTPService(trie *router.Trie, fallback router.Handler) *HTTPService {
	return &HTTPService{Trie: trie, Fallback: fallback, Logger: log.New(os.Stderr, "", log.LstdFlags)}
}

func notFound() *httpproto.Response {
	return httpproto.FromText(404, "text/plain", "404 Not Found")
}

// HandleConnection implements Service.
func (s *HTTPService) HandleConnection(stream io.ReadWriteCloser, remote string) {
	defer stream.Close()
	id := connID()
	logStart(s.Logger, remote, id)
	defer logStop(s.Logger, remote, id)

	// One buffered reader for the connection's lifetime, so bytes of
	// pipelined requests buffered past the current one are not lost
	// between loop iterations.
	br := bufio.NewReader(stream)
	for {
		req, err := httpproto.DecodeRequest(br)
		if err != nil {
			logLoopError(s.Logger, remote, id, err)
			return
		}

		handler, bindings, ok := s.Trie.Find(string(req.Method), req.URL)
		var resp *httpproto.Response
		switch {
		case ok:
			resp = handler.Handle(req, bindings)
		case s.Fallback != nil:
			resp = s.Fallback.Handle(req, nil)
		default:
			resp = notFound()
		}

		if err := resp.Encode(stream); err != nil {
			logLoopError(s.Logger, remote, id, err)
			return
		}
	}
}
