// Package urlkit parses and serializes the URLs carried in HTTP
// request targets, decomposing the resource path into segments the
// router can match against.
package urlkit

import (
	"sort"
	"strconv"
	"strings"

	"github.com/corehttpd/webkit/errs"
)

// URL is the decomposed form of an absolute- or origin-form request
// target. Segments are percent-decoded with empty elements dropped;
// the empty slice denotes "/".
type URL struct {
	Scheme   string
	Username string
	Password string
	Host     string
	Port     int
	Segments []string
	Query    map[string]string
}

const unreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_~."

// Parse decomposes s into scheme, authority, path segments, and query.
func Parse(s string) (*URL, error) {
	if s == "" {
		return nil, errs.New(errs.URLParse, "empty URL")
	}
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return nil, errs.New(errs.URLParse, "non-ASCII input")
		}
	}

	u := &URL{Query: make(map[string]string)}

	rest := s
	if scheme, r, ok := strings.Cut(rest, "://"); ok {
		u.Scheme = scheme
		rest = r
	}

	authority, pathQuery := rest, ""
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		authority, pathQuery = rest[:idx], rest[idx:]
	} else if u.Scheme != "" {
		// scheme present with no path: everything remaining is the authority.
		authority, pathQuery = rest, ""
	} else {
		// origin-form target with no scheme/authority at all.
		authority, pathQuery = "", rest
	}

	if authority != "" {
		userinfo, host := authority, ""
		if ui, h, ok := strings.Cut(authority, "@"); ok {
			userinfo, host = ui, h
		} else {
			userinfo, host = "", authority
		}
		if userinfo != "" {
			if user, pass, ok := strings.Cut(userinfo, ":"); ok {
				u.Username, u.Password = user, pass
			} else {
				u.Username = userinfo
			}
		}
		if h, p, ok := strings.Cut(host, ":"); ok {
			port, err := strconv.Atoi(p)
			if err != nil {
				return nil, errs.New(errs.URLParse, "invalid port")
			}
			u.Host, u.Port = h, port
		} else {
			u.Host = host
		}
	}

	path, query := pathQuery, ""
	if p, q, ok := strings.Cut(pathQuery, "?"); ok {
		path, query = p, q
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		decoded, err := decodeComponent(seg)
		if err != nil {
			return nil, err
		}
		u.Segments = append(u.Segments, decoded)
	}

	if query != "" {
		for _, pair := range strings.Split(query, "&") {
			if pair == "" {
				continue
			}
			k, v, _ := strings.Cut(pair, "=")
			dk, err := decodeComponent(k)
			if err != nil {
				return nil, err
			}
			dv, err := decodeComponent(v)
			if err != nil {
				return nil, err
			}
			u.Query[dk] = dv // later duplicates overwrite earlier ones
		}
	}

	return u, nil
}

// decodeComponent resolves %HH sequences; hex digits of either case
// are accepted.
func decodeComponent(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c > 0x7F {
			return "", errs.New(errs.URLParse, "non-ASCII input")
		}
		if c == '%' {
			if i+2 >= len(s) {
				return "", errs.New(errs.URLParse, "malformed percent escape")
			}
			hi, ok1 := hexVal(s[i+1])
			lo, ok2 := hexVal(s[i+2])
			if !ok1 || !ok2 {
				return "", errs.New(errs.URLParse, "malformed percent escape")
			}
			b.WriteByte(byte(hi<<4 | lo))
			i += 2
			continue
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

func hexVal(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}

// encodePercent percent-encodes every byte of s outside the strict
// unreserved set, using fixed-width %HH escapes.
func encodePercent(s string) (string, error) {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c > 0x7F {
			return "", errs.New(errs.URLParse, "non-ASCII output")
		}
		if strings.IndexByte(unreserved, c) >= 0 {
			b.WriteByte(c)
		} else {
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0xF])
		}
	}
	return b.String(), nil
}

// String serializes u back to wire form, percent-encoding the
// userinfo, path segments, and query keys and values. The scheme and
// host are written as stored, without encoding.
func (u *URL) String() (string, error) {
	var b strings.Builder
	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteString("://")
	}
	if u.Username != "" || u.Password != "" {
		enc, err := encodePercent(u.Username)
		if err != nil {
			return "", err
		}
		b.WriteString(enc)
		if u.Password != "" {
			encp, err := encodePercent(u.Password)
			if err != nil {
				return "", err
			}
			b.WriteByte(':')
			b.WriteString(encp)
		}
		b.WriteByte('@')
	}
	if u.Host != "" {
		b.WriteString(u.Host)
		if u.Port != 0 {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(u.Port))
		}
	}
	for _, seg := range u.Segments {
		enc, err := encodePercent(seg)
		if err != nil {
			return "", err
		}
		b.WriteByte('/')
		b.WriteString(enc)
	}
	if len(u.Segments) == 0 {
		b.WriteByte('/')
	}
	if len(u.Query) > 0 {
		keys := make([]string, 0, len(u.Query))
		for k := range u.Query {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('?')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}
			ek, err := encodePercent(k)
			if err != nil {
				return "", err
			}
			ev, err := encodePercent(u.Query[k])
			if err != nil {
				return "", err
			}
			b.WriteString(ek)
			b.WriteByte('=')
			b.WriteString(ev)
		}
	}
	return b.String(), nil
}

// Path renders just the path portion (no scheme/authority/query),
// the form used in request lines and redirects.
func (u *URL) Path() string {
	if len(u.Segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range u.Segments {
		b.WriteByte('/')
		enc, err := encodePercent(seg)
		if err != nil {
			b.WriteString(seg)
			continue
		}
		b.WriteString(enc)
	}
	return b.String()
}
