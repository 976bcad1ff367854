package httpproto

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/corehttpd/webkit/errs"
	"github.com/corehttpd/webkit/header"
)

// Response is a single HTTP/1.1 response awaiting serialization. The
// invariant held after every body mutation: Header's Content-Type and
// Content-Length entries reflect the current body.
type Response struct {
	StatusCode int
	Header     *header.Header
	Body       []byte
}

// NewResponse creates a response with the given status and an empty
// body, seeding Content-Length: 0.
func NewResponse(code int) *Response {
	r := &Response{StatusCode: code, Header: header.New()}
	r.setBody(nil, "")
	return r
}

// FromText builds a response whose body is the UTF-8 bytes of text.
func FromText(code int, mime, text string) *Response {
	r := &Response{StatusCode: code, Header: header.New()}
	r.setBody([]byte(text), mime)
	return r
}

// FromFile builds a response whose body is the full contents of path.
func FromFile(code int, mime, path string) (*Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, "read file "+path, err)
	}
	r := &Response{StatusCode: code, Header: header.New()}
	r.setBody(data, mime)
	return r, nil
}

// Redirect builds a 3xx response with the Location header set.
func Redirect(code int, location string) *Response {
	r := NewResponse(code)
	r.Header.Replace("Location", location)
	return r
}

// SetBody replaces the body, updating Content-Type (if mime != "")
// and Content-Length to match.
func (r *Response) SetBody(body []byte, mime string) {
	r.setBody(body, mime)
}

func (r *Response) setBody(body []byte, mime string) {
	r.Body = body
	if mime != "" {
		r.Header.Replace("Content-Type", mime)
	}
	r.Header.Replace("Content-Length", strconv.Itoa(len(body)))
}

// SetCookie appends a Set-Cookie header entry in wire form.
func (r *Response) SetCookie(c Cookie) {
	r.Header.Add("Set-Cookie", c.String())
}

// Encode writes the status line, headers in insertion order, a blank
// line, then the body bytes verbatim.
func (r *Response) Encode(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "HTTP/1.1 %d\r\n", r.StatusCode); err != nil {
		return errs.Wrap(errs.IOError, "write status line", err)
	}
	for _, f := range r.Header.All() {
		if _, err := fmt.Fprintf(w, "%s: %s\r\n", f.Key, f.Value); err != nil {
			return errs.Wrap(errs.IOError, "write header", err)
		}
	}
	if _, err := io.WriteString(w, "\r\n"); err != nil {
		return errs.Wrap(errs.IOError, "write header terminator", err)
	}
	if len(r.Body) > 0 {
		if _, err := w.Write(r.Body); err != nil {
			return errs.Wrap(errs.IOError, "write body", err)
		}
	}
	return nil
}

// Cookie carries the attributes serialized into a Set-Cookie entry.
type Cookie struct {
	Name       string
	Value      string
	Expiration time.Time
	HasExpiry  bool
	HTTPOnly   bool
	Secure     bool
}

// String serializes c as "name=value[; Expire=...][; HttpOnly][; Secure]".
func (c Cookie) String() string {
	s := c.Name + "=" + c.Value
	if c.HasExpiry {
		s += "; Expire=" + c.Expiration.UTC().Format(time.RFC1123)
	}
	if c.HTTPOnly {
		s += "; HttpOnly"
	}
	if c.Secure {
		s += "; Secure"
	}
	return s
}
