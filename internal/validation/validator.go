// =============================================================================
// Sheet to XML Converter - Validation Engine
// =============================================================================
//
// This module validates generated XML documents against the parsed XSD.
//
// VALIDATION STRATEGY:
//   The document is decoded into a small element tree, then walked together
//   with the schema declarations:
//   1. Root: the document element must be declared globally
//   2. Structure: children must follow the sequence / choice / all model of
//      their complex type, within the declared occurrence bounds
//   3. Attributes: required attributes must be present, undeclared ones are
//      rejected
//   4. Values: simple content must be a valid lexical value of its built-in
//      type and satisfy every facet along the restriction chain
//
// ERROR HANDLING:
//   - Errors are collected, not thrown; a failed document does not stop the
//     run
//   - Messages follow libxml2 wording so they read like xmllint output
//   - Checking of an element's children stops at the first content model
//     violation, like libxml2 does
//
// =============================================================================

package validation

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/sheet2xml/internal/schema"
)

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Result is the outcome of validating one document.
type Result struct {
	// Valid is true when the document conforms to the schema.
	Valid bool

	// Errors holds one message per violation, in document order.
	Errors []string
}

// Summary renders the result for display or logging.
func (r Result) Summary() string {
	if r.Valid {
		return "valid"
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("invalid, %d error(s):", len(r.Errors)))
	for i, msg := range r.Errors {
		builder.WriteString(fmt.Sprintf("\n  %d. %s", i+1, msg))
	}
	return builder.String()
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks documents against one schema. It holds no per-document
// state and may be reused.
type Validator struct {
	schema *schema.Schema
}

// New creates a Validator for s.
func New(s *schema.Schema) *Validator {
	return &Validator{schema: s}
}

// Validate checks doc and returns the collected violations. A document that
// is not well-formed XML is reported as invalid with a single message.
func (v *Validator) Validate(doc []byte) Result {
	root, err := decodeTree(doc)
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("Document is not well-formed: %v", err)}}
	}

	run := &run{}
	decl := v.schema.Global(root.name)
	if decl == nil {
		run.errorf(root, "No matching global declaration available for the validation root.")
	} else {
		run.element(root, decl)
	}

	return Result{Valid: len(run.errors) == 0, Errors: run.errors}
}

// run accumulates the messages of a single Validate call.
type run struct {
	errors []string
}

func (r *run) errorf(n *node, format string, args ...any) {
	msg := fmt.Sprintf("Element '%s': ", n.name) + fmt.Sprintf(format, args...)
	if n.line > 0 {
		msg = fmt.Sprintf("line %d: %s", n.line, msg)
	}
	r.errors = append(r.errors, msg)
}

// element checks n against its declaration.
func (r *run) element(n *node, decl *schema.Element) {
	switch {
	case decl.Simple != nil:
		r.simpleContent(n, decl.Simple)
	case decl.Complex != nil:
		r.complexContent(n, decl.Complex)
	}
	// Untyped declarations accept any content.
}

func (r *run) simpleContent(n *node, st *schema.SimpleType) {
	if len(n.children) > 0 {
		r.errorf(n, "Element content is not allowed, because the content type is a simple type definition.")
		return
	}
	for _, a := range n.attrs {
		r.errorf(n, "The attribute '%s' is not allowed.", a.Name.Local)
	}
	if msg := CheckValue(n.text.String(), st); msg != "" {
		r.errorf(n, "%s", msg)
	}
}

func (r *run) complexContent(n *node, ct *schema.ComplexType) {
	r.attributes(n, ct)

	if !ct.Mixed && strings.TrimSpace(n.text.String()) != "" {
		r.errorf(n, "Character content other than whitespace is not allowed because the content type is 'element-only'.")
	}

	switch ct.Compositor {
	case schema.Sequence:
		r.sequence(n, ct)
	case schema.Choice:
		r.choice(n, ct)
	case schema.All:
		r.all(n, ct)
	default:
		if len(n.children) > 0 {
			r.errorf(n.children[0], "This element is not expected.")
		}
	}
}

func (r *run) attributes(n *node, ct *schema.ComplexType) {
	present := make(map[string]bool, len(n.attrs))
	for _, a := range n.attrs {
		present[a.Name.Local] = true
		if declared(ct, a.Name.Local) == nil {
			r.errorf(n, "The attribute '%s' is not allowed.", a.Name.Local)
		}
	}
	for _, decl := range ct.Attributes {
		if decl.Required && !present[decl.Name] {
			r.errorf(n, "The attribute '%s' is required but missing.", decl.Name)
		}
	}
}

func declared(ct *schema.ComplexType, name string) *schema.Attribute {
	for _, a := range ct.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// =============================================================================
// CONTENT MODELS
// =============================================================================

func (r *run) sequence(n *node, ct *schema.ComplexType) {
	children := n.children
	i := 0

groups:
	for reps := 0; ct.GroupMax == schema.Unbounded || reps < ct.GroupMax; reps++ {
		start := i
		for _, p := range ct.Particles {
			count := 0
			for i < len(children) && children[i].name == p.Name &&
				(p.MaxOccurs == schema.Unbounded || count < p.MaxOccurs) {
				r.element(children[i], p)
				i++
				count++
			}
			if count >= p.MinOccurs {
				continue
			}
			if i == start && reps >= ct.GroupMin {
				// An optional repetition of the group that did not start.
				break groups
			}
			if i < len(children) {
				r.errorf(children[i], "This element is not expected. Expected is ( %s ).", p.Name)
			} else {
				r.errorf(n, "Missing child element(s). Expected is ( %s ).", p.Name)
			}
			return
		}
		if i == start {
			break
		}
	}

	if i < len(children) {
		r.errorf(children[i], "This element is not expected.")
	}
}

func (r *run) choice(n *node, ct *schema.ComplexType) {
	children := n.children
	i := 0

	for reps := 0; ct.GroupMax == schema.Unbounded || reps < ct.GroupMax; reps++ {
		var p *schema.Element
		if i < len(children) {
			p = particle(ct, children[i].name)
		}
		if p == nil {
			if reps >= ct.GroupMin {
				break
			}
			if i < len(children) {
				r.errorf(children[i], "This element is not expected. Expected is one of ( %s ).", particleNames(ct))
			} else {
				r.errorf(n, "Missing child element(s). Expected is one of ( %s ).", particleNames(ct))
			}
			return
		}

		count := 0
		for i < len(children) && children[i].name == p.Name &&
			(p.MaxOccurs == schema.Unbounded || count < p.MaxOccurs) {
			r.element(children[i], p)
			i++
			count++
		}
		if count < p.MinOccurs {
			r.errorf(n, "Missing child element(s). Expected is ( %s ).", p.Name)
			return
		}
	}

	if i < len(children) {
		r.errorf(children[i], "This element is not expected.")
	}
}

func (r *run) all(n *node, ct *schema.ComplexType) {
	seen := make(map[string]bool, len(ct.Particles))
	for _, child := range n.children {
		p := particle(ct, child.name)
		if p == nil || seen[p.Name] {
			r.errorf(child, "This element is not expected.")
			return
		}
		seen[p.Name] = true
		r.element(child, p)
	}

	if len(n.children) == 0 && ct.GroupMin == 0 {
		return
	}

	var missing []string
	for _, p := range ct.Particles {
		if p.MinOccurs > 0 && !seen[p.Name] {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		r.errorf(n, "Missing child element(s). Expected is ( %s ).", strings.Join(missing, ", "))
	}
}

func particle(ct *schema.ComplexType, name string) *schema.Element {
	for _, p := range ct.Particles {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func particleNames(ct *schema.ComplexType) string {
	names := make([]string, len(ct.Particles))
	for i, p := range ct.Particles {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// =============================================================================
// DOCUMENT TREE
// =============================================================================

// node is a decoded element. Names are local; namespaces are ignored.
type node struct {
	name     string
	line     int
	attrs    []xml.Attr
	text     strings.Builder
	children []*node
}

// decodeTree parses doc into an element tree.
func decodeTree(doc []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))

	var root *node
	var stack []*node

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, fmt.Errorf("extra content at the end of the document")
			}
			line, _ := dec.InputPos()
			n := &node{name: t.Name.Local, line: line, attrs: instanceAttrs(t.Attr)}
			if len(stack) == 0 {
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			} else if len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("text outside the document element")
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("no document element")
	}
	return root, nil
}

// instanceAttrs drops namespace declarations and xsi:* attributes, which
// are never declared in a schema.
func instanceAttrs(attrs []xml.Attr) []xml.Attr {
	var out []xml.Attr
	for _, a := range attrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		if a.Name.Space == "http://www.w3.org/2001/XMLSchema-instance" {
			continue
		}
		out = append(out, a)
	}
	return out
}
