// Package httpproto implements the HTTP/1.1 request/response codec:
// decoding a request from a byte stream and serializing a response
// back to one, plus the Request/Response/Cookie data model.
package httpproto

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/corehttpd/webkit/errs"
	"github.com/corehttpd/webkit/header"
	"github.com/corehttpd/webkit/urlkit"
)

// Method is one of the nine HTTP/1.1 methods the codec recognizes.
type Method string

const (
	GET     Method = "GET"
	HEAD    Method = "HEAD"
	POST    Method = "POST"
	PUT     Method = "PUT"
	DELETE  Method = "DELETE"
	CONNECT Method = "CONNECT"
	OPTIONS Method = "OPTIONS"
	TRACE   Method = "TRACE"
	PATCH   Method = "PATCH"
)

var knownMethods = map[string]Method{
	"GET": GET, "HEAD": HEAD, "POST": POST, "PUT": PUT, "DELETE": DELETE,
	"CONNECT": CONNECT, "OPTIONS": OPTIONS, "TRACE": TRACE, "PATCH": PATCH,
}

// Request is a single decoded HTTP/1.1 request.
type Request struct {
	Method Method
	URL    *urlkit.URL
	Header *header.Header
	Body   []byte
}

// DecodeRequest reads one HTTP/1.1 request from r: a request line, a
// sequence of header lines terminated by a blank line, and a body of
// exactly Content-Length bytes (0 if absent).
func DecodeRequest(r io.Reader) (*Request, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	line, err := readCRLFLine(br)
	if err != nil {
		return nil, err
	}

	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return nil, errs.New(errs.RequestParse, "malformed request line: "+line)
	}
	method, ok := knownMethods[strings.ToUpper(parts[0])]
	if !ok {
		return nil, errs.New(errs.RequestParse, "unknown method: "+parts[0])
	}
	url, err := urlkit.Parse(parts[1])
	if err != nil {
		return nil, err
	}
	// parts[2], the HTTP version token, is ignored.

	h := header.New()
	for {
		hl, err := readCRLFLine(br)
		if err != nil {
			return nil, err
		}
		if hl == "" {
			break
		}
		k, v, found := strings.Cut(hl, ":")
		if !found {
			return nil, errs.New(errs.InvalidHeader, "malformed header line: "+hl)
		}
		h.Add(k, strings.TrimSpace(v))
	}

	var body []byte
	if cl, ok := h.GetFirst("Content-Length"); ok {
		n, err := strconv.Atoi(cl)
		if err != nil || n < 0 {
			return nil, errs.New(errs.InvalidHeader, "invalid Content-Length: "+cl)
		}
		body = make([]byte, n)
		if n > 0 {
			if _, err := io.ReadFull(br, body); err != nil {
				return nil, ioErr(err)
			}
		}
	}

	return &Request{Method: method, URL: url, Header: h, Body: body}, nil
}

// readCRLFLine reads one line terminated by "\r\n", returning it
// without the terminator. An EOF before any byte of the line has been
// read is returned as ConnectionClosed; EOF mid-line is an IOError.
func readCRLFLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			if line == "" {
				return "", errs.New(errs.ConnectionClosed, "connection closed by peer")
			}
			return "", errs.Wrap(errs.IOError, "unexpected EOF reading line", err)
		}
		return "", ioErr(err)
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
}

func ioErr(err error) error {
	if err == io.EOF {
		return errs.New(errs.ConnectionClosed, "connection closed by peer")
	}
	return errs.Wrap(errs.IOError, "stream read failed", err)
}
