// =============================================================================
// Sheet to XML Converter - Schema Reader
// =============================================================================
//
// This module parses the XSD file that describes the output documents and
// extracts the ordered list of record fields (name + declared type). The
// field list drives two things:
//   - the column order of every generated record
//   - how each cell value is converted to text
//
// EXPECTED SCHEMA SHAPE:
//
//   <xs:element name="Root">
//     <xs:complexType>
//       <xs:sequence>
//         <xs:element name="meta"> ... </xs:element>
//         <xs:element name="Item" maxOccurs="unbounded">
//           <xs:complexType>
//             <xs:sequence>
//               <xs:element name="id"     type="xs:int"/>
//               <xs:element name="name"   type="xs:string"/>
//               <xs:element name="joined" type="xs:date"/>
//             </xs:sequence>
//           </xs:complexType>
//         </xs:element>
//       </xs:sequence>
//     </xs:complexType>
//   </xs:element>
//
// The record element ("Item" by default) may be declared anywhere in the
// schema, inline or through a named complex type.
//
// =============================================================================

package schema

import (
	"encoding/xml"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/sheet2xml/internal/types"
)

// =============================================================================
// RAW XSD STRUCTURE
// =============================================================================
// These structs mirror the XSD vocabulary closely enough for encoding/xml to
// decode it. They are converted into the model in model.go.

type rawSchema struct {
	XMLName         xml.Name         `xml:"schema"`
	TargetNamespace string           `xml:"targetNamespace,attr"`
	Attrs           []xml.Attr       `xml:",any,attr"`
	Elements        []rawElement     `xml:"element"`
	ComplexTypes    []rawComplexType `xml:"complexType"`
	SimpleTypes     []rawSimpleType  `xml:"simpleType"`
}

type rawElement struct {
	Name        string          `xml:"name,attr"`
	Type        string          `xml:"type,attr"`
	Ref         string          `xml:"ref,attr"`
	MinOccurs   string          `xml:"minOccurs,attr"`
	MaxOccurs   string          `xml:"maxOccurs,attr"`
	ComplexType *rawComplexType `xml:"complexType"`
	SimpleType  *rawSimpleType  `xml:"simpleType"`
}

type rawComplexType struct {
	Name           string         `xml:"name,attr"`
	Mixed          string         `xml:"mixed,attr"`
	Sequence       *rawGroup      `xml:"sequence"`
	Choice         *rawGroup      `xml:"choice"`
	All            *rawGroup      `xml:"all"`
	Attributes     []rawAttribute `xml:"attribute"`
	ComplexContent *struct{}      `xml:"complexContent"`
	SimpleContent  *struct{}      `xml:"simpleContent"`
}

type rawGroup struct {
	MinOccurs string       `xml:"minOccurs,attr"`
	MaxOccurs string       `xml:"maxOccurs,attr"`
	Elements  []rawElement `xml:"element"`
}

type rawAttribute struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
	Use  string `xml:"use,attr"`
}

type rawSimpleType struct {
	Name        string          `xml:"name,attr"`
	Restriction *rawRestriction `xml:"restriction"`
}

type rawRestriction struct {
	Base         string         `xml:"base,attr"`
	SimpleType   *rawSimpleType `xml:"simpleType"`
	Length       *rawFacet      `xml:"length"`
	MinLength    *rawFacet      `xml:"minLength"`
	MaxLength    *rawFacet      `xml:"maxLength"`
	Patterns     []rawFacet     `xml:"pattern"`
	Enumerations []rawFacet     `xml:"enumeration"`
	MinInclusive *rawFacet      `xml:"minInclusive"`
	MaxInclusive *rawFacet      `xml:"maxInclusive"`
	MinExclusive *rawFacet      `xml:"minExclusive"`
	MaxExclusive *rawFacet      `xml:"maxExclusive"`
}

type rawFacet struct {
	Value string `xml:"value,attr"`
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads and parses the XSD file at path.
//
// RETURNS:
//   - The parsed Schema.
//   - A *types.ParseError if the file cannot be read or is not a usable XSD.
func Parse(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ParseError{Path: path, Err: err}
	}

	s, err := parse(data)
	if err != nil {
		return nil, &types.ParseError{Path: path, Err: err}
	}
	s.Path = path
	return s, nil
}

// ParseBytes parses an XSD document held in memory.
func ParseBytes(data []byte) (*Schema, error) {
	s, err := parse(data)
	if err != nil {
		return nil, &types.ParseError{Path: "<memory>", Err: err}
	}
	return s, nil
}

// ReadFields parses the schema at path and returns the fields of the record
// element in declaration order, together with the parsed schema.
func ReadFields(path, recordElement string) ([]types.Field, *Schema, error) {
	s, err := Parse(path)
	if err != nil {
		return nil, nil, err
	}
	fields, err := s.RecordFields(recordElement)
	if err != nil {
		return nil, nil, err
	}
	return fields, s, nil
}

// =============================================================================
// SCHEMA QUERIES
// =============================================================================

// Global returns the global element declaration with the given name, or nil.
func (s *Schema) Global(name string) *Element {
	for _, el := range s.Elements {
		if el.Name == name {
			return el
		}
	}
	return nil
}

// FindElement searches the schema depth-first, global declarations first,
// for an element declaration with the given name.
func (s *Schema) FindElement(name string) *Element {
	visited := make(map[*ComplexType]bool)

	var walk func(el *Element) *Element
	walk = func(el *Element) *Element {
		if el.Name == name {
			return el
		}
		if el.Complex == nil || visited[el.Complex] {
			return nil
		}
		visited[el.Complex] = true
		for _, p := range el.Complex.Particles {
			if found := walk(p); found != nil {
				return found
			}
		}
		return nil
	}

	for _, el := range s.Elements {
		if found := walk(el); found != nil {
			return found
		}
	}
	return nil
}

// RecordFields returns the ordered child fields of the named record element.
//
// RETURNS:
//   - One Field per child element declaration, in schema order.
//   - A *types.ParseError wrapping types.ErrRecordElementNotFound when the
//     element is missing or declares no child elements.
func (s *Schema) RecordFields(recordElement string) ([]types.Field, error) {
	el := s.FindElement(recordElement)
	if el == nil {
		return nil, &types.ParseError{
			Path: s.Path,
			Err:  fmt.Errorf("%w: %q", types.ErrRecordElementNotFound, recordElement),
		}
	}
	if el.Complex == nil || len(el.Complex.Particles) == 0 {
		return nil, &types.ParseError{
			Path: s.Path,
			Err:  fmt.Errorf("%w: %q declares no child elements", types.ErrRecordElementNotFound, recordElement),
		}
	}

	fields := make([]types.Field, 0, len(el.Complex.Particles))
	for _, p := range el.Complex.Particles {
		f := types.Field{Name: p.Name, Type: types.FieldText, XSDType: p.TypeName}
		if p.Simple != nil {
			f.Type = FieldTypeFor(p.Simple.Builtin)
			if f.XSDType == "" {
				f.XSDType = p.Simple.QName()
			}
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// FieldTypeFor maps a built-in XSD type name to the conversion rule used for
// cell values. Anything that is not numeric or a date is converted as text.
func FieldTypeFor(builtin string) types.FieldType {
	switch builtin {
	case "int", "integer", "long", "short", "byte",
		"nonNegativeInteger", "positiveInteger", "nonPositiveInteger", "negativeInteger",
		"unsignedLong", "unsignedInt", "unsignedShort", "unsignedByte":
		return types.FieldInteger
	case "decimal", "float", "double":
		return types.FieldFloat
	case "date":
		return types.FieldDate
	default:
		return types.FieldText
	}
}

// =============================================================================
// MODEL BUILDING
// =============================================================================

type pendingRef struct {
	el  *Element
	ref string
}

type builder struct {
	schema      *Schema
	xsdPrefixes map[string]bool
	rawSimple   map[string]*rawSimpleType
	resolving   map[string]bool
	refs        []pendingRef
}

func parse(data []byte) (*Schema, error) {
	var raw rawSchema
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed schema: %w", err)
	}
	if raw.XMLName.Space != "" && raw.XMLName.Space != XSDNamespace {
		return nil, fmt.Errorf("root element is not in the XML Schema namespace (got %q)", raw.XMLName.Space)
	}

	b := &builder{
		schema: &Schema{
			TargetNamespace: raw.TargetNamespace,
			complexTypes:    make(map[string]*ComplexType),
			simpleTypes:     make(map[string]*SimpleType),
		},
		xsdPrefixes: xsdPrefixes(raw.Attrs),
		rawSimple:   make(map[string]*rawSimpleType),
		resolving:   make(map[string]bool),
	}

	// Named simple types first: complex types and elements refer to them.
	for i := range raw.SimpleTypes {
		st := &raw.SimpleTypes[i]
		if st.Name == "" {
			return nil, fmt.Errorf("global simpleType without a name")
		}
		b.rawSimple[st.Name] = st
	}
	for i := range raw.SimpleTypes {
		if _, err := b.namedSimple(raw.SimpleTypes[i].Name); err != nil {
			return nil, err
		}
	}

	// Complex type shells, so that types may refer to each other.
	for i := range raw.ComplexTypes {
		name := raw.ComplexTypes[i].Name
		if name == "" {
			return nil, fmt.Errorf("global complexType without a name")
		}
		b.schema.complexTypes[name] = &ComplexType{Name: name}
	}
	for i := range raw.ComplexTypes {
		ct := b.schema.complexTypes[raw.ComplexTypes[i].Name]
		if err := b.fillComplex(ct, &raw.ComplexTypes[i]); err != nil {
			return nil, fmt.Errorf("complexType %q: %w", ct.Name, err)
		}
	}

	for i := range raw.Elements {
		el, err := b.element(&raw.Elements[i], true)
		if err != nil {
			return nil, err
		}
		b.schema.Elements = append(b.schema.Elements, el)
	}

	if err := b.resolveRefs(); err != nil {
		return nil, err
	}

	return b.schema, nil
}

// xsdPrefixes collects the namespace prefixes bound to the XSD namespace.
func xsdPrefixes(attrs []xml.Attr) map[string]bool {
	prefixes := make(map[string]bool)
	for _, a := range attrs {
		if a.Value != XSDNamespace {
			continue
		}
		switch {
		case a.Name.Space == "xmlns":
			prefixes[a.Name.Local] = true
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			prefixes[""] = true
		}
	}
	if len(prefixes) == 0 {
		prefixes["xs"] = true
		prefixes["xsd"] = true
	}
	return prefixes
}

func splitQName(qname string) (prefix, local string) {
	if i := strings.IndexByte(qname, ':'); i >= 0 {
		return qname[:i], qname[i+1:]
	}
	return "", qname
}

// typeRef resolves a type QName to either a complex or a simple type.
func (b *builder) typeRef(qname string) (*ComplexType, *SimpleType, error) {
	prefix, local := splitQName(qname)

	if b.xsdPrefixes[prefix] {
		if local == "anyType" {
			return nil, nil, nil
		}
		if !IsBuiltin(local) {
			return nil, nil, fmt.Errorf("unknown built-in type %q", qname)
		}
		return nil, builtin(local), nil
	}

	if ct, ok := b.schema.complexTypes[local]; ok {
		return ct, nil, nil
	}
	if _, ok := b.rawSimple[local]; ok {
		st, err := b.namedSimple(local)
		return nil, st, err
	}
	if prefix == "" && IsBuiltin(local) {
		return nil, builtin(local), nil
	}
	return nil, nil, fmt.Errorf("unknown type %q", qname)
}

// simpleRef resolves a QName that must name a simple type.
func (b *builder) simpleRef(qname string) (*SimpleType, error) {
	ct, st, err := b.typeRef(qname)
	if err != nil {
		return nil, err
	}
	if ct != nil {
		return nil, fmt.Errorf("type %q is complex, expected a simple type", qname)
	}
	if st == nil {
		return builtin("anySimpleType"), nil
	}
	return st, nil
}

func (b *builder) namedSimple(name string) (*SimpleType, error) {
	if st, ok := b.schema.simpleTypes[name]; ok {
		return st, nil
	}
	if b.resolving[name] {
		return nil, fmt.Errorf("simpleType %q derives from itself", name)
	}
	b.resolving[name] = true
	defer delete(b.resolving, name)

	st, err := b.simpleFromRaw(b.rawSimple[name], name)
	if err != nil {
		return nil, fmt.Errorf("simpleType %q: %w", name, err)
	}
	b.schema.simpleTypes[name] = st
	return st, nil
}

func (b *builder) simpleFromRaw(raw *rawSimpleType, name string) (*SimpleType, error) {
	r := raw.Restriction
	if r == nil {
		// Lists and unions are accepted as plain strings.
		return &SimpleType{Name: name, Builtin: "string", Base: builtin("string")}, nil
	}

	var base *SimpleType
	var err error
	switch {
	case r.Base != "":
		base, err = b.simpleRef(r.Base)
	case r.SimpleType != nil:
		base, err = b.simpleFromRaw(r.SimpleType, "")
	default:
		base = builtin("anySimpleType")
	}
	if err != nil {
		return nil, err
	}

	facets, err := parseFacets(r)
	if err != nil {
		return nil, err
	}

	return &SimpleType{Name: name, Builtin: base.Builtin, Base: base, Facets: facets}, nil
}

func parseFacets(r *rawRestriction) (Facets, error) {
	var f Facets
	var err error

	if f.Length, err = intFacet("length", r.Length); err != nil {
		return f, err
	}
	if f.MinLength, err = intFacet("minLength", r.MinLength); err != nil {
		return f, err
	}
	if f.MaxLength, err = intFacet("maxLength", r.MaxLength); err != nil {
		return f, err
	}

	for _, p := range r.Patterns {
		re, err := regexp.Compile("^(?:" + p.Value + ")$")
		if err != nil {
			return f, fmt.Errorf("pattern %q: %w", p.Value, err)
		}
		f.Patterns = append(f.Patterns, re)
	}
	for _, e := range r.Enumerations {
		f.Enumeration = append(f.Enumeration, e.Value)
	}

	f.MinInclusive = strFacet(r.MinInclusive)
	f.MaxInclusive = strFacet(r.MaxInclusive)
	f.MinExclusive = strFacet(r.MinExclusive)
	f.MaxExclusive = strFacet(r.MaxExclusive)
	return f, nil
}

func intFacet(name string, raw *rawFacet) (*int, error) {
	if raw == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw.Value))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("facet %s: invalid value %q", name, raw.Value)
	}
	return &n, nil
}

func strFacet(raw *rawFacet) *string {
	if raw == nil {
		return nil
	}
	v := strings.TrimSpace(raw.Value)
	return &v
}

func (b *builder) fillComplex(ct *ComplexType, raw *rawComplexType) error {
	if raw.ComplexContent != nil || raw.SimpleContent != nil {
		return fmt.Errorf("complexContent/simpleContent derivation is not supported")
	}
	ct.Mixed = raw.Mixed == "true" || raw.Mixed == "1"

	var group *rawGroup
	switch {
	case raw.Sequence != nil:
		ct.Compositor, group = Sequence, raw.Sequence
	case raw.Choice != nil:
		ct.Compositor, group = Choice, raw.Choice
	case raw.All != nil:
		ct.Compositor, group = All, raw.All
	}

	if group != nil {
		min, max, err := occurs(group.MinOccurs, group.MaxOccurs)
		if err != nil {
			return err
		}
		ct.GroupMin, ct.GroupMax = min, max
		for i := range group.Elements {
			el, err := b.element(&group.Elements[i], false)
			if err != nil {
				return err
			}
			ct.Particles = append(ct.Particles, el)
		}
	}

	for _, a := range raw.Attributes {
		if a.Name == "" {
			continue
		}
		ct.Attributes = append(ct.Attributes, &Attribute{
			Name:     a.Name,
			TypeName: a.Type,
			Required: a.Use == "required",
		})
	}
	return nil
}

func (b *builder) element(raw *rawElement, global bool) (*Element, error) {
	el := &Element{MinOccurs: 1, MaxOccurs: 1}
	if !global {
		min, max, err := occurs(raw.MinOccurs, raw.MaxOccurs)
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", raw.Name+raw.Ref, err)
		}
		el.MinOccurs, el.MaxOccurs = min, max
	}

	if raw.Ref != "" {
		_, local := splitQName(raw.Ref)
		el.Name = local
		b.refs = append(b.refs, pendingRef{el: el, ref: local})
		return el, nil
	}

	if raw.Name == "" {
		return nil, fmt.Errorf("element declaration without name or ref")
	}
	el.Name = raw.Name
	el.TypeName = raw.Type

	var err error
	switch {
	case raw.ComplexType != nil:
		el.Complex = &ComplexType{}
		err = b.fillComplex(el.Complex, raw.ComplexType)
	case raw.SimpleType != nil:
		el.Simple, err = b.simpleFromRaw(raw.SimpleType, "")
	case raw.Type != "":
		el.Complex, el.Simple, err = b.typeRef(raw.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("element %q: %w", raw.Name, err)
	}
	return el, nil
}

func (b *builder) resolveRefs() error {
	for _, p := range b.refs {
		target := b.schema.Global(p.ref)
		if target == nil {
			return fmt.Errorf("element ref %q has no global declaration", p.ref)
		}
		p.el.Name = target.Name
		p.el.TypeName = target.TypeName
		p.el.Complex = target.Complex
		p.el.Simple = target.Simple
	}
	return nil
}

// occurs parses minOccurs/maxOccurs attribute values (both default to 1).
func occurs(minStr, maxStr string) (int, int, error) {
	min, max := 1, 1
	var err error

	if s := strings.TrimSpace(minStr); s != "" {
		if min, err = strconv.Atoi(s); err != nil || min < 0 {
			return 0, 0, fmt.Errorf("invalid minOccurs %q", minStr)
		}
	}
	if s := strings.TrimSpace(maxStr); s != "" {
		if s == "unbounded" {
			max = Unbounded
		} else if max, err = strconv.Atoi(s); err != nil || max < 0 {
			return 0, 0, fmt.Errorf("invalid maxOccurs %q", maxStr)
		}
	}
	if max != Unbounded && max < min {
		return 0, 0, fmt.Errorf("maxOccurs %d is less than minOccurs %d", max, min)
	}
	return min, max, nil
}
