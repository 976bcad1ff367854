package conn

import (
	"io"
	"log"
	"os"

	"github.com/corehttpd/webkit/wsproto"
)

// MessageHandler reacts to one received Message on an upgraded
// Stream, typically calling Stream.Send to reply.
type MessageHandler func(stream *wsproto.Stream, msg wsproto.Message) error

// WebSocketService drives the per-connection loop
// for WebSocket connections: perform the upgrade handshake, then loop
// reading messages and invoking the registered handler until the
// peer sends CLOSE or the connection errors.
type WebSocketService struct {
	OnMessage MessageHandler
	Logger    *log.Logger
}

// NewWebSocketService builds a WebSocketService logging to stderr by default.
func NewWebSocketService(onMessage MessageHandler) *WebSocketService {
	return &WebSocketService{OnMessage: onMessage, Logger: log.New(os.Stderr, "", log.LstdFlags)}
}

// HandleConnection implements Service.
func (s *WebSocketService) HandleConnection(stream io.ReadWriteCloser, remote string) {
	defer stream.Close()
	id := connID()
	logStart(s.Logger, remote, id)
	defer logStop(s.Logger, remote, id)

	ws, err := wsproto.Upgrade(stream)
	if err != nil {
		logLoopError(s.Logger, remote, id, err)
		return
	}

	for {
		msg, err := ws.Recv()
		if err != nil {
			logLoopError(s.Logger, remote, id, err)
			return
		}

		switch msg.Kind {
		case wsproto.KindClose:
			_ = ws.Send(wsproto.CloseMessage())
			return
		case wsproto.KindPing:
			if err := ws.Send(wsproto.PongMessage()); err != nil {
				logLoopError(s.Logger, remote, id, err)
				return
			}
			continue
		}

		if s.OnMessage == nil {
			continue
		}
		if err := s.OnMessage(ws, msg); err != nil {
			logLoopError(s.Logger, remote, id, err)
			return
		}
	}
}
