// Package script holds the JavaScript snippets the browser drivers inject
// into the page. Every snippet is a self-contained expression that returns
// a JSON-serializable value, so drivers can evaluate it and decode the
// result into Go types.
package script

import (
	"encoding/json"
	"fmt"

	"github.com/mj1618/page-turner/internal/model"
	"github.com/mj1618/page-turner/internal/platform"
)

// IDAttribute is stamped on every element returned by Query so later calls
// can find the same node again.
const IDAttribute = "data-page-turner-id"

// MaxHTML is the inner HTML prefix length carried in snapshots.
const MaxHTML = 200

// MaxText is the text content prefix length carried in snapshots.
const MaxText = 120

// prelude defines the stamp/measure/lookup helpers shared by all snippets.
var prelude = fmt.Sprintf(`
const ATTR = %q;
const stamp = (el) => {
  let id = el.getAttribute(ATTR);
  if (!id) {
    window.__pageTurnerSeq = (window.__pageTurnerSeq || 0) + 1;
    id = String(window.__pageTurnerSeq);
    el.setAttribute(ATTR, id);
  }
  return parseInt(id, 10);
};
const lookup = (id) => {
  const el = document.querySelector('[' + ATTR + '="' + id + '"]');
  return el && el.isConnected ? el : null;
};
const measure = (el) => {
  const r = el.getBoundingClientRect();
  const style = window.getComputedStyle(el);
  const hidden = (el.offsetParent === null && style.position !== 'fixed') ||
    style.display === 'none' || style.visibility === 'hidden';
  const disabled = el.disabled === true || el.getAttribute('aria-disabled') === 'true';
  const markers = Array.from(el.querySelectorAll('[data-testid]'))
    .map((n) => n.getAttribute('data-testid')).slice(0, 8);
  return {
    i: stamp(el),
    tag: el.tagName.toLowerCase(),
    r: el.getAttribute('role') || '',
    t: el.getAttribute('aria-label') || el.getAttribute('title') || '',
    x: (el.textContent || '').trim().slice(0, %d),
    cl: typeof el.className === 'string' ? el.className : (el.getAttribute('class') || ''),
    ti: el.getAttribute('data-testid') || '',
    m: markers,
    h: (el.innerHTML || '').slice(0, %d),
    b: [Math.round(r.left), Math.round(r.top), Math.round(r.width), Math.round(r.height)],
    e: !disabled,
    hd: hidden,
  };
};
`, IDAttribute, MaxText, MaxHTML)

func wrap(body string) string {
	return "(() => {" + prelude + body + "})()"
}

func literal(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Query returns a snippet evaluating to []model.Element for q.
func Query(q platform.Query) string {
	return wrap(fmt.Sprintf(`
const sel = %s;
const closest = %s;
const out = [];
const seen = new Set();
document.querySelectorAll(sel).forEach((n) => {
  const el = closest ? n.closest(closest) : n;
  if (!el) return;
  const m = measure(el);
  if (seen.has(m.i)) return;
  seen.add(m.i);
  out.push(m);
});
return out;
`, literal(q.Selector), literal(q.Closest)))
}

// InspectResult is the decoded value of an Inspect snippet.
type InspectResult struct {
	Found   bool          `json:"found"`
	Element model.Element `json:"el"`
}

// Inspect returns a snippet evaluating to InspectResult for the element id.
func Inspect(id int) string {
	return wrap(fmt.Sprintf(`
const el = lookup(%d);
if (!el) return {found: false, el: {i: 0, tag: '', r: '', b: [0, 0, 0, 0]}};
return {found: true, el: measure(el)};
`, id))
}

// Focus returns a snippet that focuses the element; evaluates to false if
// the element is detached.
func Focus(id int) string {
	return wrap(fmt.Sprintf(`
const el = lookup(%d);
if (!el) return false;
el.focus();
return true;
`, id))
}

// Click returns a snippet invoking the element's native click(); evaluates
// to false if the element is detached.
func Click(id int) string {
	return wrap(fmt.Sprintf(`
const el = lookup(%d);
if (!el) return false;
el.click();
return true;
`, id))
}

// Dispatch returns a snippet firing a bubbling, cancelable MouseEvent of
// the given type at the element; evaluates to false if detached.
func Dispatch(id int, event string) string {
	return wrap(fmt.Sprintf(`
const el = lookup(%d);
if (!el) return false;
el.dispatchEvent(new MouseEvent(%s, {view: window, bubbles: true, cancelable: true}));
return true;
`, id, literal(event)))
}

// Viewport is a snippet evaluating to model.Viewport.
const Viewport = `({width: window.innerWidth, height: window.innerHeight})`

// Normalize maps the raw tag/role pairs reported by the page to compact
// role codes.
func Normalize(elements []model.Element) []model.Element {
	for i := range elements {
		elements[i] = NormalizeOne(elements[i])
	}
	return elements
}

// NormalizeOne is Normalize for a single element.
func NormalizeOne(el model.Element) model.Element {
	el.Role = model.MapRole(el.Tag, el.Role)
	return el
}
