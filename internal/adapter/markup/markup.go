// Package markup reads inline-edit controls and the anti-forgery token out of
// a rendered admin changelist page.
package markup

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Strob0t/fieldtoggle/internal/domain/toggle"
)

// DefaultCheckboxClass marks the inputs bound to the toggle controller.
const DefaultCheckboxClass = "inline-edit-checkbox"

const (
	attrRecordID = "data-player-id"
	attrField    = "data-field"
	tokenName    = "csrfmiddlewaretoken"
)

// ControlSpec is one inline-edit checkbox as rendered.
type ControlSpec struct {
	RecordID string
	Field    string
	Checked  bool
	Disabled bool
	Label    string
}

// Control builds the domain control for s.
func (s ControlSpec) Control() (*toggle.Control, error) {
	c, err := toggle.NewControl(s.RecordID, s.Field, s.Checked)
	if err != nil {
		return nil, err
	}
	return c.WithLabel(s.Label), nil
}

// SkippedInput is a checkbox carrying the class but missing its metadata.
type SkippedInput struct {
	RecordID string
	Field    string
	Err      error
}

func (s SkippedInput) String() string {
	return fmt.Sprintf("record=%q field=%q: %v", s.RecordID, s.Field, s.Err)
}

// Page is the parsed changelist.
type Page struct {
	Controls []ControlSpec
	Token    string
	Skipped  []SkippedInput
}

// Options configures Parse.
type Options struct {
	CheckboxClass string
}

// Parse reads an HTML document from r. Inputs without record or field
// metadata are reported in Page.Skipped rather than failing the parse.
func Parse(r io.Reader, opts Options) (*Page, error) {
	if opts.CheckboxClass == "" {
		opts.CheckboxClass = DefaultCheckboxClass
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("markup: parse: %w", err)
	}

	p := &Page{}
	for n := range doc.Descendants() {
		if n.Type != html.ElementNode {
			continue
		}
		if p.Token == "" && attr(n, "name") == tokenName {
			p.Token = attr(n, "value")
		}
		if n.DataAtom != atom.Input || !hasClass(n, opts.CheckboxClass) {
			continue
		}
		spec := ControlSpec{
			RecordID: strings.TrimSpace(attr(n, attrRecordID)),
			Field:    strings.TrimSpace(attr(n, attrField)),
			Checked:  hasAttr(n, "checked"),
			Disabled: hasAttr(n, "disabled"),
		}
		if _, err := toggle.NewControl(spec.RecordID, spec.Field, spec.Checked); err != nil {
			p.Skipped = append(p.Skipped, SkippedInput{RecordID: spec.RecordID, Field: spec.Field, Err: err})
			continue
		}
		spec.Label = rowLabel(n)
		if spec.Label == "" {
			spec.Label = spec.RecordID
		}
		p.Controls = append(p.Controls, spec)
	}
	return p, nil
}

// Filter returns the controls whose field is in fields. No fields means all.
func (p *Page) Filter(fields []string) []ControlSpec {
	if len(fields) == 0 {
		return p.Controls
	}
	var out []ControlSpec
	for _, c := range p.Controls {
		if slices.Contains(fields, c.Field) {
			out = append(out, c)
		}
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

// rowLabel returns the text of the first th in the table row containing n.
func rowLabel(n *html.Node) string {
	var row *html.Node
	for a := n.Parent; a != nil; a = a.Parent {
		if a.Type == html.ElementNode && a.DataAtom == atom.Tr {
			row = a
			break
		}
	}
	if row == nil {
		return ""
	}
	for d := range row.Descendants() {
		if d.Type == html.ElementNode && d.DataAtom == atom.Th {
			return text(d)
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	for d := range n.Descendants() {
		if d.Type == html.TextNode {
			b.WriteString(d.Data)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
