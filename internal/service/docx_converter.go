package service

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"autofill-workbench/internal/domain"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const docxDocumentPart = "word/document.xml"

// DocxResult is the outcome of a DOCX preview conversion. On failure HTML
// holds the fixed failure message and Fallback is set.
type DocxResult struct {
	HTML     string
	Fallback bool
	Err      error
}

// DocxPreview converts content for display and never fails outright.
func DocxPreview(content []byte) DocxResult {
	out, err := ConvertDocx(content)
	if err != nil {
		return DocxResult{HTML: domain.DocxPreviewFailed, Fallback: true, Err: err}
	}
	return DocxResult{HTML: out}
}

// ConvertDocx renders the main document part of a DOCX file as an HTML
// fragment. Paragraph styles map to headings, run formatting to inline
// emphasis, and tables keep their grid.
func ConvertDocx(content []byte) (string, error) {
	if len(content) == 0 {
		return "", errors.New("empty docx")
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	part, err := readZipFile(zr, docxDocumentPart)
	if err != nil {
		return "", fmt.Errorf("invalid docx (missing document part): %w", err)
	}

	root, err := convertDocumentXML(part)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("failed to render docx: %w", err)
		}
	}
	return buf.String(), nil
}

type docxRun struct {
	bold, italic, underline bool
	pieces                  []string // "\n" marks a line break
}

type docxParagraph struct {
	style string
	runs  []*docxRun
}

type docxConverter struct {
	containers []*html.Node
	para       *docxParagraph
	run        *docxRun
	inRunProps bool
	inText     bool
	cellDepth  int
}

func convertDocumentXML(part []byte) (*html.Node, error) {
	root := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	c := &docxConverter{containers: []*html.Node{root}}

	dec := xml.NewDecoder(bytes.NewReader(part))
	sawBody := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid docx xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "body" {
				sawBody = true
			}
			c.start(t)
		case xml.EndElement:
			c.end(t)
		case xml.CharData:
			if c.inText && c.run != nil {
				c.run.pieces = append(c.run.pieces, string(t))
			}
		}
	}
	if !sawBody {
		return nil, errors.New("invalid docx (missing body)")
	}
	return root, nil
}

func (c *docxConverter) top() *html.Node {
	return c.containers[len(c.containers)-1]
}

func (c *docxConverter) push(a atom.Atom) {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	c.top().AppendChild(n)
	c.containers = append(c.containers, n)
}

func (c *docxConverter) pop() {
	if len(c.containers) > 1 {
		c.containers = c.containers[:len(c.containers)-1]
	}
}

func (c *docxConverter) start(t xml.StartElement) {
	switch t.Name.Local {
	case "tbl":
		c.push(atom.Table)
	case "tr":
		c.push(atom.Tr)
	case "tc":
		c.push(atom.Td)
		c.cellDepth++
	case "p":
		c.para = &docxParagraph{}
	case "pStyle":
		if c.para != nil {
			c.para.style = xmlAttr(t, "val")
		}
	case "r":
		if c.para != nil {
			c.run = &docxRun{}
		}
	case "rPr":
		c.inRunProps = c.run != nil
	case "b":
		if c.inRunProps {
			c.run.bold = toggleOn(t)
		}
	case "i":
		if c.inRunProps {
			c.run.italic = toggleOn(t)
		}
	case "u":
		if c.inRunProps {
			val := xmlAttr(t, "val")
			c.run.underline = val != "none" && toggleOn(t)
		}
	case "t":
		c.inText = true
	case "br", "cr":
		if c.run != nil {
			c.run.pieces = append(c.run.pieces, "\n")
		}
	case "tab":
		if c.run != nil && !c.inRunProps {
			c.run.pieces = append(c.run.pieces, "\t")
		}
	}
}

func (c *docxConverter) end(t xml.EndElement) {
	switch t.Name.Local {
	case "tbl", "tr":
		c.pop()
	case "tc":
		c.pop()
		c.cellDepth--
	case "p":
		if c.para != nil {
			c.emitParagraph(c.para)
		}
		c.para = nil
	case "r":
		if c.para != nil && c.run != nil {
			c.para.runs = append(c.para.runs, c.run)
		}
		c.run = nil
	case "rPr":
		c.inRunProps = false
	case "t":
		c.inText = false
	}
}

func (c *docxConverter) emitParagraph(p *docxParagraph) {
	empty := true
	for _, r := range p.runs {
		if len(r.pieces) > 0 {
			empty = false
			break
		}
	}
	if empty && c.cellDepth == 0 {
		return
	}

	tag := paragraphAtom(p.style)
	n := &html.Node{Type: html.ElementNode, DataAtom: tag, Data: tag.String()}
	for _, r := range p.runs {
		appendRun(n, r)
	}
	c.top().AppendChild(n)
}

func appendRun(parent *html.Node, r *docxRun) {
	target := parent
	for _, wrap := range []struct {
		on bool
		a  atom.Atom
	}{{r.bold, atom.Strong}, {r.italic, atom.Em}, {r.underline, atom.U}} {
		if !wrap.on {
			continue
		}
		n := &html.Node{Type: html.ElementNode, DataAtom: wrap.a, Data: wrap.a.String()}
		target.AppendChild(n)
		target = n
	}
	for _, piece := range r.pieces {
		if piece == "\n" {
			target.AppendChild(&html.Node{Type: html.ElementNode, DataAtom: atom.Br, Data: "br"})
			continue
		}
		target.AppendChild(&html.Node{Type: html.TextNode, Data: piece})
	}
}

func paragraphAtom(style string) atom.Atom {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	switch s {
	case "title", "heading1":
		return atom.H1
	case "subtitle", "heading2":
		return atom.H2
	case "heading3":
		return atom.H3
	case "heading4":
		return atom.H4
	case "heading5":
		return atom.H5
	case "heading6":
		return atom.H6
	}
	return atom.P
}

func xmlAttr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// toggleOn reads an OOXML on/off property; absent val means on.
func toggleOn(t xml.StartElement) bool {
	switch strings.ToLower(xmlAttr(t, "val")) {
	case "0", "false", "off":
		return false
	}
	return true
}

// readZipFile returns the named entry, falling back to a case-insensitive match.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	var match *zip.File
	lower := strings.ToLower(name)
	for _, f := range zr.File {
		if f.Name == name {
			match = f
			break
		}
		if match == nil && strings.ToLower(f.Name) == lower {
			match = f
		}
	}
	if match == nil {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	rc, err := match.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
