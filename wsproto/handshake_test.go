package wsproto

import (
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// The canonical RFC 6455 §1.3 example key/accept pair.
func TestComputeAcceptKnownVector(t *testing.T) {
	got := ComputeAccept("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Fatalf("ComputeAccept = %q, want %q", got, want)
	}
}

// TestUpgradeAgainstGorillaClient runs the handshake against an
// independent client implementation (gorilla/websocket), then
// exchanges one echoed text message over raw frames.
func TestUpgradeAgainstGorillaClient(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	done := make(chan struct{})
	var recvText string
	go func() {
		defer close(done)
		stream, err := Upgrade(serverConn)
		if err != nil {
			t.Errorf("Upgrade: %v", err)
			return
		}
		msg, err := stream.Recv()
		if err != nil {
			t.Errorf("Recv: %v", err)
			return
		}
		recvText = msg.Text
		if err := stream.Send(TextMessage(msg.Text)); err != nil {
			t.Errorf("Send: %v", err)
		}
	}()

	dialer := websocket.Dialer{
		NetDial: func(network, addr string) (net.Conn, error) {
			return clientConn, nil
		},
		HandshakeTimeout: 2 * time.Second,
	}
	wsConn, _, err := dialer.Dial("ws://pipe/echo", nil)
	if err != nil {
		t.Fatalf("client Dial: %v", err)
	}
	defer wsConn.Close()

	if err := wsConn.WriteMessage(websocket.TextMessage, []byte("hi")); err != nil {
		t.Fatalf("client WriteMessage: %v", err)
	}
	_, reply, err := wsConn.ReadMessage()
	if err != nil {
		t.Fatalf("client ReadMessage: %v", err)
	}
	<-done

	if recvText != "hi" {
		t.Fatalf("server received %q, want hi", recvText)
	}
	if string(reply) != "hi" {
		t.Fatalf("client received %q, want hi", reply)
	}
}
