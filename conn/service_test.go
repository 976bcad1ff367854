package conn

import (
	"bufio"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/corehttpd/webkit/httpproto"
	"github.com/corehttpd/webkit/router"
	"github.com/corehttpd/webkit/wsproto"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// readResponse consumes one HTTP/1.1 response from br: the status
// line, headers up to the blank line, and a Content-Length body.
func readResponse(t *testing.T, br *bufio.Reader) (status string, body string) {
	t.Helper()
	line, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	status = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

	contentLength := 0
	for {
		hl, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("read header line: %v", err)
		}
		hl = strings.TrimSuffix(strings.TrimSuffix(hl, "\n"), "\r")
		if hl == "" {
			break
		}
		if k, v, ok := strings.Cut(hl, ":"); ok && k == "Content-Length" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				t.Fatalf("bad Content-Length %q", v)
			}
			contentLength = n
		}
	}

	buf := make([]byte, contentLength)
	if _, err := io.ReadFull(br, buf); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return status, string(buf)
}

func TestHTTPServicePipelinedRequestsAnd404(t *testing.T) {
	trie := router.NewTrie()
	err := trie.Add("GET", "/hello", router.HandlerFunc(
		func(req *httpproto.Request, b router.Bindings) *httpproto.Response {
			return httpproto.FromText(200, "text/plain", "hi")
		}))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	svc := NewHTTPService(trie, nil)
	svc.Logger = quietLogger()

	serverConn, clientConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		svc.HandleConnection(serverConn, "pipe")
		close(done)
	}()

	go func() {
		clientConn.Write([]byte("GET /hello HTTP/1.1\r\n\r\nGET /nope HTTP/1.1\r\n\r\n"))
	}()

	br := bufio.NewReader(clientConn)
	status, body := readResponse(t, br)
	if status != "HTTP/1.1 200" || body != "hi" {
		t.Fatalf("first response = %q, body %q", status, body)
	}
	status, _ = readResponse(t, br)
	if status != "HTTP/1.1 404" {
		t.Fatalf("second response = %q, want 404", status)
	}

	clientConn.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("HandleConnection did not return after peer close")
	}
}

func TestHTTPServiceFallbackHandler(t *testing.T) {
	fallback := router.HandlerFunc(
		func(req *httpproto.Request, b router.Bindings) *httpproto.Response {
			return httpproto.FromText(200, "text/plain", "fallback")
		})

	svc := NewHTTPService(router.NewTrie(), fallback)
	svc.Logger = quietLogger()

	serverConn, clientConn := net.Pipe()
	go svc.HandleConnection(serverConn, "pipe")

	go func() {
		clientConn.Write([]byte("GET /anything HTTP/1.1\r\n\r\n"))
	}()

	br := bufio.NewReader(clientConn)
	status, body := readResponse(t, br)
	if status != "HTTP/1.1 200" || body != "fallback" {
		t.Fatalf("response = %q, body %q", status, body)
	}
	clientConn.Close()
}

// maskedFrame builds a masked client-to-server frame, the form every
// client is required to send per RFC 6455 §5.1.
func maskedFrame(opcode byte, fin bool, payload []byte) []byte {
	key := [4]byte{0x37, 0xfa, 0x21, 0x3d}
	var first byte = opcode
	if fin {
		first |= 0x80
	}
	out := []byte{first, 0x80 | byte(len(payload))}
	out = append(out, key[:]...)
	for i, b := range payload {
		out = append(out, b^key[i%4])
	}
	return out
}

func TestWebSocketServiceEchoThenClose(t *testing.T) {
	svc := NewWebSocketService(func(s *wsproto.Stream, m wsproto.Message) error {
		return s.Send(m)
	})
	svc.Logger = quietLogger()

	serverConn, clientConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		svc.HandleConnection(serverConn, "pipe")
		close(done)
	}()

	handshake := "GET /chat HTTP/1.1\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"\r\n"
	go func() {
		clientConn.Write([]byte(handshake))
	}()

	br := bufio.NewReader(clientConn)
	status, _ := readResponse(t, br)
	if status != "HTTP/1.1 101" {
		t.Fatalf("handshake status = %q, want 101", status)
	}

	go func() {
		clientConn.Write(maskedFrame(byte(wsproto.OpText), true, []byte("hi")))
	}()
	echo, err := wsproto.DecodeFrame(br)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if !echo.Fin || echo.Opcode != wsproto.OpText || string(echo.Payload) != "hi" {
		t.Fatalf("echo frame = %+v", echo)
	}

	go func() {
		clientConn.Write(maskedFrame(byte(wsproto.OpClose), true, nil))
	}()
	closeFrame, err := wsproto.DecodeFrame(br)
	if err != nil {
		t.Fatalf("DecodeFrame close: %v", err)
	}
	if closeFrame.Opcode != wsproto.OpClose {
		t.Fatalf("close reply opcode = %v", closeFrame.Opcode)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("HandleConnection did not return after CLOSE")
	}
	clientConn.Close()
}

func TestWebSocketServiceAnswersPing(t *testing.T) {
	svc := NewWebSocketService(nil)
	svc.Logger = quietLogger()

	serverConn, clientConn := net.Pipe()
	go svc.HandleConnection(serverConn, "pipe")
	defer clientConn.Close()

	handshake := "GET / HTTP/1.1\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"\r\n"
	go func() {
		clientConn.Write([]byte(handshake))
	}()

	br := bufio.NewReader(clientConn)
	status, _ := readResponse(t, br)
	if status != "HTTP/1.1 101" {
		t.Fatalf("handshake status = %q, want 101", status)
	}

	go func() {
		clientConn.Write(maskedFrame(byte(wsproto.OpPing), true, nil))
	}()
	pong, err := wsproto.DecodeFrame(br)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if pong.Opcode != wsproto.OpPong {
		t.Fatalf("reply opcode = %v, want PONG", pong.Opcode)
	}
}
