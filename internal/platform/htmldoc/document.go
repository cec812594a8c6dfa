package htmldoc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/mj1618/page-turner/internal/model"
	"github.com/mj1618/page-turner/internal/platform"
	"github.com/mj1618/page-turner/internal/platform/script"
	"golang.org/x/net/html"
)

// Event is one recorded activation call.
type Event struct {
	Kind string // "focus", "click" or the dispatched event type
	ID   int
}

// Document is a parsed HTML snapshot implementing platform.Document,
// platform.Activator and platform.Navigator.
type Document struct {
	mu       sync.Mutex
	root     *html.Node
	viewport model.Viewport
	opts     platform.Options
	ids      map[*html.Node]int
	nodes    map[int]*html.Node
	nextID   int
	events   []Event

	// Hook, if set, is called after each recorded activation event,
	// outside the document lock.
	Hook func(ev Event)
}

// Open loads the snapshot named by opts.URL (a path or file:// URL).
func Open(opts platform.Options) (*Document, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("html driver requires a snapshot path")
	}
	f, err := os.Open(strings.TrimPrefix(opts.URL, "file://"))
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Parse(f, opts)
}

// Parse builds a Document from HTML.
func Parse(r io.Reader, opts platform.Options) (*Document, error) {
	d := &Document{opts: opts}
	if err := d.load(r); err != nil {
		return nil, err
	}
	return d, nil
}

// ParseString is Parse for an in-memory string.
func ParseString(s string, opts platform.Options) (*Document, error) {
	return Parse(strings.NewReader(s), opts)
}

func (d *Document) load(r io.Reader) error {
	root, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.root = root
	d.ids = make(map[*html.Node]int)
	d.nodes = make(map[int]*html.Node)
	d.nextID = 0
	d.viewport = d.opts.ViewportOrDefault()
	if htmlEl := findTag(root, "html"); htmlEl != nil {
		if v, ok := attr(htmlEl, "data-viewport"); ok {
			vp, err := platform.ParseViewport(v)
			if err != nil {
				return err
			}
			d.viewport = vp
		}
	}
	return nil
}

// Provider wraps the document as a platform.Provider.
func (d *Document) Provider() *platform.Provider {
	return &platform.Provider{
		Document:  d,
		Activator: d,
		Navigator: d,
	}
}

// Viewport returns the snapshot's viewport.
func (d *Document) Viewport(ctx context.Context) (model.Viewport, error) {
	if err := ctx.Err(); err != nil {
		return model.Viewport{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport, nil
}

// Query matches q against the snapshot.
func (d *Document) Query(ctx context.Context, q platform.Query) ([]model.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, err := cascadia.ParseGroup(q.Selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", q.Selector, err)
	}
	var closest cascadia.SelectorGroup
	if q.Closest != "" {
		closest, err = cascadia.ParseGroup(q.Closest)
		if err != nil {
			return nil, fmt.Errorf("invalid closest selector %q: %w", q.Closest, err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var result []model.Element
	seen := make(map[*html.Node]bool)
	for _, n := range cascadia.QueryAll(d.root, sel) {
		target := n
		if closest != nil {
			target = closestMatch(n, closest)
			if target == nil {
				continue
			}
		}
		if seen[target] {
			continue
		}
		seen[target] = true
		result = append(result, d.measure(target))
	}
	return result, nil
}

// Inspect re-measures a previously returned element.
func (d *Document) Inspect(ctx context.Context, id int) (model.Element, error) {
	if err := ctx.Err(); err != nil {
		return model.Element{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.attached(id)
	if err != nil {
		return model.Element{}, err
	}
	return d.measure(n), nil
}

// Focus records a focus call.
func (d *Document) Focus(ctx context.Context, id int) error {
	return d.record(ctx, Event{Kind: "focus", ID: id})
}

// Click records a native click.
func (d *Document) Click(ctx context.Context, id int) error {
	return d.record(ctx, Event{Kind: "click", ID: id})
}

// Dispatch records a synthetic event.
func (d *Document) Dispatch(ctx context.Context, id int, event string) error {
	return d.record(ctx, Event{Kind: "dispatch:" + event, ID: id})
}

// Navigate replaces the snapshot with the one at url.
func (d *Document) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(strings.TrimPrefix(url, "file://"))
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return d.load(f)
}

// Events returns a copy of the recorded activation events.
func (d *Document) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// SetDisabled marks the element disabled, simulating a state change
// between discovery and activation.
func (d *Document) SetDisabled(id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.attached(id)
	if err != nil {
		return err
	}
	setAttr(n, "disabled", "")
	return nil
}

// Detach removes the element from the tree.
func (d *Document) Detach(id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.attached(id)
	if err != nil {
		return err
	}
	n.Parent.RemoveChild(n)
	return nil
}

// SetBounds moves the element.
func (d *Document) SetBounds(id int, b [4]int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.attached(id)
	if err != nil {
		return err
	}
	setAttr(n, "data-bounds", fmt.Sprintf("%d,%d,%d,%d", b[0], b[1], b[2], b[3]))
	return nil
}

func (d *Document) record(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	if _, err := d.attached(ev.ID); err != nil {
		d.mu.Unlock()
		return err
	}
	d.events = append(d.events, ev)
	hook := d.Hook
	d.mu.Unlock()
	if hook != nil {
		hook(ev)
	}
	return nil
}

// attached returns the node for id if it is still in the tree.
// The caller must hold d.mu.
func (d *Document) attached(id int) (*html.Node, error) {
	n, ok := d.nodes[id]
	if !ok {
		return nil, fmt.Errorf("element %d: %w", id, platform.ErrDetached)
	}
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return n, nil
		}
	}
	return nil, fmt.Errorf("element %d: %w", id, platform.ErrDetached)
}

// stamp returns the node's id, assigning one on first sight.
// The caller must hold d.mu.
func (d *Document) stamp(n *html.Node) int {
	if id, ok := d.ids[n]; ok {
		return id
	}
	d.nextID++
	d.ids[n] = d.nextID
	d.nodes[d.nextID] = n
	return d.nextID
}

// measure snapshots n. The caller must hold d.mu.
func (d *Document) measure(n *html.Node) model.Element {
	el := model.Element{
		ID:     d.stamp(n),
		Tag:    n.Data,
		Class:  attrOr(n, "class"),
		TestID: attrOr(n, "data-testid"),
		Text:   truncate(strings.Join(strings.Fields(textContent(n)), " "), script.MaxText),
		HTML:   truncate(innerHTML(n), script.MaxHTML),
		Hidden: isHidden(n),
	}
	el.Role = attrOr(n, "role")
	el.Title = attrOr(n, "aria-label")
	if el.Title == "" {
		el.Title = attrOr(n, "title")
	}
	if v, ok := attr(n, "data-bounds"); ok {
		if b, err := platform.ParseBBox(v); err == nil {
			el.Bounds = b.Array()
		}
	}
	_, disabled := attr(n, "disabled")
	if disabled || attrOr(n, "aria-disabled") == "true" {
		el.Enabled = model.BoolPtr(false)
	}
	el.Markers = descendantTestIDs(n, 8)
	return script.NormalizeOne(el)
}

func closestMatch(n *html.Node, sel cascadia.SelectorGroup) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && sel.Match(p) {
			return p
		}
	}
	return nil
}

func isHidden(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if _, ok := attr(p, "hidden"); ok {
			return true
		}
		style := strings.ReplaceAll(strings.ToLower(attrOr(p, "style")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return true
		}
	}
	return false
}

func descendantTestIDs(n *html.Node, limit int) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ch := c.FirstChild; ch != nil && len(out) < limit; ch = ch.NextSibling {
			if ch.Type == html.ElementNode {
				if v, ok := attr(ch, "data-testid"); ok {
					out = append(out, v)
				}
			}
			walk(ch)
		}
	}
	walk(n)
	return out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return b.String()
}

func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

func findTag(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrOr(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return v
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
