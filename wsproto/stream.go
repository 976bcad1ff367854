package wsproto

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"io"
	"strings"

	"github.com/corehttpd/webkit/header"
	"github.com/corehttpd/webkit/httpproto"
)

// webSocketGUID is the fixed RFC 6455 §1.3 handshake GUID.
const webSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// Stream is an established, upgraded WebSocket session: recv reads a
// complete logical message, send writes one, both over the same
// underlying connection the HTTP upgrade ran against. Reads go
// through the buffered reader the handshake used, so bytes the peer
// pipelined behind the upgrade request are not lost.
type Stream struct {
	r    io.Reader
	w    io.Writer
	Path string
}

// headerHasToken reports whether any comma-separated value of the
// given header name contains token, case-insensitively.
func headerHasToken(h *header.Header, name, token string) bool {
	token = strings.ToLower(token)
	for _, v := range h.GetAll(name) {
		for _, part := range strings.Split(v, ",") {
			if strings.ToLower(strings.TrimSpace(part)) == token {
				return true
			}
		}
	}
	return false
}

// Upgrade performs the upgrade handshake over rw: it
// reads requests until one carries Upgrade: websocket and Connection:
// Upgrade, then replies with a 101 response and returns a Stream
// ready for Recv/Send. Non-qualifying requests are read and
// discarded (any response the caller's router produced
// for them is expected to already have been written by the caller
// before re-entering Upgrade — in practice HTTPService and
// WebSocketService are mutually exclusive per connection, so callers
// typically invoke Upgrade as the very first thing on a freshly
// accepted connection).
func Upgrade(rw io.ReadWriter) (*Stream, error) {
	br := bufio.NewReader(rw)
	for {
		req, err := httpproto.DecodeRequest(br)
		if err != nil {
			return nil, err
		}
		if !headerHasToken(req.Header, "Upgrade", "websocket") ||
			!headerHasToken(req.Header, "Connection", "Upgrade") {
			continue
		}

		key, ok := req.Header.GetFirst("Sec-WebSocket-Key")
		if !ok {
			continue
		}

		sum := sha1.Sum([]byte(key + webSocketGUID))
		accept := base64.StdEncoding.EncodeToString(sum[:])

		resp := httpproto.NewResponse(101)
		resp.Header.Replace("Upgrade", "websocket")
		resp.Header.Replace("Connection", "Upgrade")
		resp.Header.Replace("Sec-WebSocket-Accept", accept)
		if err := resp.Encode(rw); err != nil {
			return nil, err
		}

		return &Stream{r: br, w: rw, Path: req.URL.Path()}, nil
	}
}

// Recv reads the next complete Message from the stream.
func (s *Stream) Recv() (Message, error) {
	return ReadMessage(s.r)
}

// Send writes msg as a single unfragmented frame.
func (s *Stream) Send(msg Message) error {
	return WriteMessage(s.w, msg)
}

// ComputeAccept exposes the Sec-WebSocket-Accept derivation for
// callers that need it outside the full Upgrade flow (tests, custom
// handshake layers).
func ComputeAccept(key string) string {
	sum := sha1.Sum([]byte(key + webSocketGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}
