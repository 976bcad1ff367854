package router

import (
	"sort"

	"github.com/corehttpd/webkit/errs"
	"github.com/corehttpd/webkit/httpproto"
	"github.com/corehttpd/webkit/urlkit"
)

// Handler is the single capability a registered endpoint implements:
// produce a Response from a Request and the Bindings captured by the
// winning route. Specialized handlers (static file, redirect,
// WebSocket upgrade) implement the same interface.
type Handler interface {
	Handle(req *httpproto.Request, bindings Bindings) *httpproto.Response
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(req *httpproto.Request, bindings Bindings) *httpproto.Response

func (f HandlerFunc) Handle(req *httpproto.Request, bindings Bindings) *httpproto.Response {
	return f(req, bindings)
}

// Bindings maps a Dynamic segment name to the literal URL segment
// captured for it during a successful match.
type Bindings map[string]string

// node is one trie node. Every node except a root carries the
// Segment of the single edge that leads to it, since a fresh node is
// allocated per edge. children is an ordered list, preserving
// insertion order so Static-before-Dynamic dominance stays explicit in
// iteration.
type node struct {
	seg      Segment
	value    Handler
	children []*node
}

func newNode(seg Segment) *node { return &node{seg: seg} }

// segmentIdentity reports whether two Segments are the same for the
// purposes of insertion dedup: two Statics are identical only if
// their literal text matches; two Dynamics are always identical
// regardless of capture name.
func segmentIdentity(a, b Segment) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == Static {
		return a.Value == b.Value
	}
	return true
}

// Trie is a method-partitioned route trie: one root node.children
// list per registered HTTP method.
type Trie struct {
	roots map[string][]*node
}

// NewTrie returns an empty, ready-to-populate Trie.
func NewTrie() *Trie {
	return &Trie{roots: make(map[string][]*node)}
}

// Add registers handler at pattern for method. It fails with
// DuplicateEndpoint if a handler is already set at the terminal node
// the pattern resolves to.
func (t *Trie) Add(method, pattern string, handler Handler) error {
	p, err := ParsePattern(pattern)
	if err != nil {
		return err
	}
	if len(p.Segments) == 0 {
		return errs.New(errs.InvalidEndpoint, "pattern must have at least one segment")
	}

	children := t.roots[method]
	var cur *node
	for _, seg := range p.Segments {
		var next *node
		for _, c := range children {
			if segmentIdentity(c.seg, seg) {
				next = c
				// last-wins binding name on re-insertion.
				next.seg.Value = chooseName(c.seg, seg)
				break
			}
		}
		if next == nil {
			next = newNode(seg)
			children = append(children, next)
			if cur == nil {
				t.roots[method] = children
			} else {
				cur.children = children
			}
		}
		cur = next
		children = cur.children
	}
	if cur.value != nil {
		return errs.New(errs.DuplicateEndpoint, "handler already registered for "+pattern)
	}
	cur.value = handler
	return nil
}

// chooseName keeps the Static literal unchanged, or the newly
// registered Dynamic capture name (silent last-wins overwrite).
func chooseName(existing, incoming Segment) string {
	if existing.Kind == Static {
		return existing.Value
	}
	return incoming.Value
}

// candidate is a surviving frontier entry during matching: the trie
// node reached so far, the bindings accumulated along the way, and
// the priority vector (Static=true, Dynamic=false per step).
type candidate struct {
	n        *node
	bindings Bindings
	priority []bool
}

// Find matches (method, url) against the trie using the breadth-first
// frontier/priority-vector algorithm: survivors are
// expanded segment by segment, and the final segment is bound without
// expanding to children. Ties are broken by descending priority
// vector, Static dominating Dynamic at the earliest differing step.
func (t *Trie) Find(method string, url *urlkit.URL) (Handler, Bindings, bool) {
	roots, ok := t.roots[method]
	if !ok || len(url.Segments) == 0 {
		return nil, nil, false
	}

	frontier := make([]candidate, 0, len(roots))
	for _, n := range roots {
		frontier = append(frontier, candidate{n: n, bindings: Bindings{}})
	}

	for i, value := range url.Segments {
		last := i == len(url.Segments)-1
		var survivors []candidate
		for _, c := range frontier {
			nb, ok, isStatic := bind(c.n.seg, value, c.bindings)
			if !ok {
				continue
			}
			prio := append(append([]bool{}, c.priority...), isStatic)
			survivors = append(survivors, candidate{n: c.n, bindings: nb, priority: prio})
		}
		if len(survivors) == 0 {
			return nil, nil, false
		}
		if last {
			return selectWinner(survivors)
		}
		frontier = frontier[:0]
		for _, s := range survivors {
			for _, child := range s.n.children {
				frontier = append(frontier, candidate{n: child, bindings: s.bindings, priority: s.priority})
			}
		}
		if len(frontier) == 0 {
			return nil, nil, false
		}
	}
	return nil, nil, false
}

// bind matches value against seg: Static matches only on literal
// equality; Dynamic always matches and extends bindings. The third
// return reports whether the step was a Static match (priority bit).
func bind(seg Segment, value string, bindings Bindings) (Bindings, bool, bool) {
	if seg.Kind == Static {
		return bindings, seg.Value == value, true
	}
	nb := make(Bindings, len(bindings)+1)
	for k, v := range bindings {
		nb[k] = v
	}
	nb[seg.Value] = value
	return nb, true, false
}

// selectWinner sorts terminal survivors by descending priority vector
// and inspects only the first one: its handler and bindings are
// returned, or, if that node carries no handler, "no match" is
// reported rather than panicking (lower-ranked survivors are not
// tried).
func selectWinner(survivors []candidate) (Handler, Bindings, bool) {
	sort.SliceStable(survivors, func(a, b int) bool {
		return lessPriority(survivors[b].priority, survivors[a].priority)
	})
	winner := survivors[0]
	if winner.n.value == nil {
		return nil, nil, false
	}
	return winner.n.value, winner.bindings, true
}

// lessPriority reports whether a < b when comparing priority vectors
// as fixed-length bit sequences, most-significant bit first (Static
// "1" dominates Dynamic "0" at the earliest differing position).
func lessPriority(a, b []bool) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return !a[i] && b[i] // false < true, i.e. Dynamic < Static
		}
	}
	return len(a) < len(b)
}
