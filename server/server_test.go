package server

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/corehttpd/webkit/conn"
	"github.com/corehttpd/webkit/httpproto"
	"github.com/corehttpd/webkit/router"
)

func echoTrie(t *testing.T) *router.Trie {
	trie := router.NewTrie()
	err := trie.Add("GET", "/hello", router.HandlerFunc(
		func(req *httpproto.Request, bindings router.Bindings) *httpproto.Response {
			return httpproto.FromText(200, "text/plain", "hi")
		}))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return trie
}

func TestServerAcceptsAndServesHTTP(t *testing.T) {
	svc := conn.NewHTTPService(echoTrie(t), nil)
	srv := New(Config{ListenAddr: "127.0.0.1:0"}, svc)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	defer srv.Shutdown()

	var addr net.Addr
	for i := 0; i < 100; i++ {
		if addr = srv.Addr(); addr != nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if addr == nil {
		t.Fatal("server never bound a listener")
	}

	c, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if _, err := c.Write([]byte("GET /hello HTTP/1.1\r\nHost: x\r\n\r\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	br := bufio.NewReader(c)
	status, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if !strings.HasPrefix(status, "HTTP/1.1 200") {
		t.Fatalf("status line = %q, want 200", status)
	}
}

func TestShutdownStopsAccepting(t *testing.T) {
	svc := conn.NewHTTPService(echoTrie(t), nil)
	srv := New(Config{ListenAddr: "127.0.0.1:0"}, svc)

	go srv.ListenAndServe()

	var addr net.Addr
	for i := 0; i < 100; i++ {
		if addr = srv.Addr(); addr != nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if addr == nil {
		t.Fatal("server never bound a listener")
	}

	srv.Shutdown()

	if _, err := net.Dial("tcp", addr.String()); err == nil {
		t.Fatal("expected dial to fail after Shutdown")
	}
}
