package service

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"autofill-workbench/internal/domain"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type controlKind int

const (
	kindInput controlKind = iota
	kindTextarea
	kindSelect
)

// control is one form control with its live state, which can diverge from
// the markup it was parsed from until the surface is normalized.
type control struct {
	node      *html.Node
	kind      controlKind
	inputType string
	group     string
	value     string
	checked   bool
	multiple  bool
	options   []*html.Node
	selected  []bool
}

// FormSurface is the mounted auto-fill document. It keeps the parsed tree
// plus the live state of every input, textarea and select, in document order.
type FormSurface struct {
	mu       sync.Mutex
	doc      *html.Node
	controls []*control
}

// MountSurface parses markup and initializes live state from it.
func MountSurface(markup string) (*FormSurface, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse auto-fill document: %w", err)
	}
	s := &FormSurface{doc: doc}
	s.collect(doc, nil)
	s.resolveRadioGroups()
	return s, nil
}

func (s *FormSurface) collect(n *html.Node, form *html.Node) {
	if n.Type == html.ElementNode && n.Namespace == "" {
		switch n.DataAtom {
		case atom.Template:
			// Template contents are inert; the page never sees them as controls.
			return
		case atom.Form:
			form = n
		case atom.Input:
			s.controls = append(s.controls, newInputControl(n, form))
		case atom.Textarea:
			s.controls = append(s.controls, &control{node: n, kind: kindTextarea, value: textContent(n)})
		case atom.Select:
			s.controls = append(s.controls, newSelectControl(n))
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.collect(c, form)
	}
}

func newInputControl(n *html.Node, form *html.Node) *control {
	c := &control{node: n, kind: kindInput, inputType: "text"}
	if t, ok := getAttr(n, "type"); ok && strings.TrimSpace(t) != "" {
		c.inputType = strings.ToLower(strings.TrimSpace(t))
	}
	value, hasValue := getAttr(n, "value")
	if c.isToggle() {
		if !hasValue {
			value = "on"
		}
		_, c.checked = getAttr(n, "checked")
	}
	c.value = value
	if c.inputType == "radio" {
		if name, _ := getAttr(n, "name"); name != "" {
			c.group = fmt.Sprintf("%p|%s", form, name)
		}
	}
	return c
}

func newSelectControl(n *html.Node) *control {
	c := &control{node: n, kind: kindSelect}
	_, c.multiple = getAttr(n, "multiple")
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		for ch := x.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.Type != html.ElementNode {
				continue
			}
			switch ch.DataAtom {
			case atom.Option:
				_, sel := getAttr(ch, "selected")
				c.options = append(c.options, ch)
				c.selected = append(c.selected, sel)
			case atom.Optgroup:
				walk(ch)
			}
		}
	}
	walk(n)

	if !c.multiple && len(c.options) > 0 {
		last := -1
		for i, sel := range c.selected {
			if sel {
				last = i
			}
		}
		if last < 0 {
			last = 0
		}
		for i := range c.selected {
			c.selected[i] = i == last
		}
	}
	return c
}

// resolveRadioGroups keeps at most one checked radio per group; the last
// checked one in document order wins.
func (s *FormSurface) resolveRadioGroups() {
	winner := map[string]*control{}
	for _, c := range s.controls {
		if c.group != "" && c.checked {
			winner[c.group] = c
		}
	}
	for _, c := range s.controls {
		if c.group != "" && c.checked && winner[c.group] != c {
			c.checked = false
		}
	}
}

func (c *control) isToggle() bool {
	return c.kind == kindInput && (c.inputType == "checkbox" || c.inputType == "radio")
}

// Len returns the number of controls.
func (s *FormSurface) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.controls)
}

// ApplyEdit applies one user edit to live state only.
func (s *FormSurface) ApplyEdit(edit domain.SurfaceEdit) error {
	if s == nil {
		return domain.ErrSurfaceUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if edit.Index < 0 || edit.Index >= len(s.controls) {
		return fmt.Errorf("%w: control %d out of range", domain.ErrInvalidEdit, edit.Index)
	}
	c := s.controls[edit.Index]

	switch {
	case c.isToggle():
		if edit.Value != nil {
			c.value = *edit.Value
		}
		if edit.Checked == nil {
			if edit.Value == nil {
				return fmt.Errorf("%w: checked state required", domain.ErrInvalidEdit)
			}
			return nil
		}
		c.checked = *edit.Checked
		if c.checked && c.group != "" {
			for _, other := range s.controls {
				if other != c && other.group == c.group {
					other.checked = false
				}
			}
		}
	case c.kind == kindSelect:
		if edit.Value == nil {
			return fmt.Errorf("%w: option value required", domain.ErrInvalidEdit)
		}
		idx := c.optionIndex(*edit.Value)
		if idx < 0 {
			return fmt.Errorf("%w: no option %q", domain.ErrInvalidEdit, *edit.Value)
		}
		if c.multiple {
			c.selected[idx] = edit.Checked == nil || *edit.Checked
			return nil
		}
		for i := range c.selected {
			c.selected[i] = i == idx
		}
	default:
		if edit.Value == nil {
			return fmt.Errorf("%w: value required", domain.ErrInvalidEdit)
		}
		c.value = *edit.Value
	}
	return nil
}

func (c *control) optionIndex(value string) int {
	for i, o := range c.options {
		if optionValue(o) == value {
			return i
		}
	}
	return -1
}

// Normalize mirrors live state into the markup and serializes the whole
// document. The result reloads with every current value intact.
func (s *FormSurface) Normalize() (string, error) {
	if s == nil {
		return "", domain.ErrSurfaceUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.render()
}

// RenderEditable serializes the current state with the edit sync script
// appended, for display. The script never reaches Normalize output.
func (s *FormSurface) RenderEditable(editEndpoint string) (string, error) {
	if s == nil || s.doc == nil {
		return "", domain.ErrSurfaceUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	body := findElement(s.doc, atom.Body)
	if body == nil {
		return s.render()
	}
	script := &html.Node{Type: html.ElementNode, DataAtom: atom.Script, Data: "script"}
	script.AppendChild(&html.Node{Type: html.TextNode, Data: editSyncScript(editEndpoint)})
	body.AppendChild(script)
	defer body.RemoveChild(script)
	return s.render()
}

func (s *FormSurface) render() (string, error) {
	if s.doc == nil {
		return "", domain.ErrSurfaceUnavailable
	}
	for _, c := range s.controls {
		c.reconcile()
	}

	var buf bytes.Buffer
	buf.WriteString("<!doctype html>\n")
	root := findElement(s.doc, atom.Html)
	if root == nil {
		return buf.String(), nil
	}
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("failed to serialize form: %w", err)
	}
	return buf.String(), nil
}

// reconcile writes live state into attributes and text.
func (c *control) reconcile() {
	switch c.kind {
	case kindInput:
		setAttr(c.node, "value", c.value)
		if c.isToggle() {
			setBoolAttr(c.node, "checked", c.checked)
		}
	case kindTextarea:
		for ch := c.node.FirstChild; ch != nil; {
			next := ch.NextSibling
			c.node.RemoveChild(ch)
			ch = next
		}
		c.node.AppendChild(&html.Node{Type: html.TextNode, Data: c.value})
	case kindSelect:
		for i, o := range c.options {
			setBoolAttr(o, "selected", c.selected[i])
		}
	}
}

func editSyncScript(endpoint string) string {
	return `(function(){var sel='input,textarea,select';var pending=Promise.resolve();var url=` + jsString(endpoint) + `;` +
		`function send(el){var all=document.querySelectorAll(sel);var i=Array.prototype.indexOf.call(all,el);if(i<0){return;}` +
		`var edits=[];var t=(el.getAttribute('type')||'').toLowerCase();` +
		`if(el.tagName==='INPUT'&&(t==='checkbox'||t==='radio')){edits.push({index:i,checked:el.checked});}` +
		`else if(el.tagName==='SELECT'&&el.multiple){for(var k=0;k<el.options.length;k++){edits.push({index:i,value:el.options[k].value,checked:el.options[k].selected});}}` +
		`else{edits.push({index:i,value:el.value});}` +
		`var body=JSON.stringify(edits);pending=pending.then(function(){` +
		`return fetch(url,{method:'POST',credentials:'same-origin',headers:{'Content-Type':'application/json'},body:body});})` +
		`.catch(function(err){console.error(err);});}` +
		`window.__autofillFlush=function(){return pending;};` +
		`document.addEventListener('input',function(e){send(e.target);},true);` +
		`document.addEventListener('change',function(e){send(e.target);},true);})();`
}

func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "<", `\u003c`, ">", `\u003e`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x.Type == html.TextNode {
			sb.WriteString(x.Data)
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func optionValue(o *html.Node) string {
	if v, ok := getAttr(o, "value"); ok {
		return v
	}
	return strings.Join(strings.Fields(textContent(o)), " ")
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func setBoolAttr(n *html.Node, key string, on bool) {
	if on {
		if _, ok := getAttr(n, key); !ok {
			n.Attr = append(n.Attr, html.Attribute{Key: key})
		}
		return
	}
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}
