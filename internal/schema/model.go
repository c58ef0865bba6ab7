// =============================================================================
// Sheet to XML Converter - Schema Model
// =============================================================================
//
// The subset of XML Schema the converter understands. It covers what record
// schemas are written with in practice:
//
//   - global and local element declarations, element refs
//   - named and anonymous complex types with sequence / choice / all
//   - minOccurs / maxOccurs (including "unbounded")
//   - attribute declarations with use="required"
//   - named and anonymous simple types restricting a built-in type with
//     length, minLength, maxLength, pattern, enumeration and the
//     min/max inclusive/exclusive facets
//
// Namespaces are matched by local name only. Pattern facets are compiled as
// Go regular expressions, so XSD-only constructs such as \i, \c or
// \p{IsBasicLatin} make the schema fail to load.
//
// =============================================================================

package schema

import "regexp"

// XSDNamespace is the XML Schema namespace URI.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

// Unbounded is the MaxOccurs value for maxOccurs="unbounded".
const Unbounded = -1

// Compositor is the model group kind of a complex type.
type Compositor int

const (
	// Empty means the complex type declares no child elements.
	Empty Compositor = iota
	Sequence
	Choice
	All
)

// String returns the XSD keyword of the compositor.
func (c Compositor) String() string {
	switch c {
	case Sequence:
		return "sequence"
	case Choice:
		return "choice"
	case All:
		return "all"
	default:
		return "empty"
	}
}

// Schema is a parsed XSD document.
type Schema struct {
	// Path is the file the schema was read from, if any.
	Path string

	// TargetNamespace as declared on xs:schema.
	TargetNamespace string

	// Elements are the global element declarations, in document order.
	Elements []*Element

	complexTypes map[string]*ComplexType
	simpleTypes  map[string]*SimpleType
}

// Element is an element declaration (global or local).
type Element struct {
	Name string

	// TypeName is the type attribute as written, e.g. "xs:int". Empty for
	// anonymous types and untyped elements.
	TypeName string

	MinOccurs int
	MaxOccurs int

	// Complex is set for elements with complex content.
	Complex *ComplexType

	// Simple is set for elements with simple content. Both Complex and Simple
	// are nil for untyped elements, which accept anything.
	Simple *SimpleType
}

// Repeats reports whether the element may occur more than once.
func (e *Element) Repeats() bool {
	return e.MaxOccurs == Unbounded || e.MaxOccurs > 1
}

// ComplexType is a named or anonymous complex type.
type ComplexType struct {
	Name       string
	Mixed      bool
	Compositor Compositor

	// Particles are the child element declarations of the model group.
	Particles []*Element

	// GroupMin and GroupMax are the occurrence bounds of the model group.
	GroupMin int
	GroupMax int

	Attributes []*Attribute
}

// Attribute is an attribute declaration.
type Attribute struct {
	Name     string
	TypeName string
	Required bool
}

// SimpleType is a built-in type or a restriction of one.
type SimpleType struct {
	// Name is the local type name. For built-ins this is the XSD name
	// ("int", "date", ...). Empty for anonymous restrictions.
	Name string

	// Builtin is the local name of the built-in type at the root of the
	// derivation chain.
	Builtin string

	// Base is the type this one restricts. Nil for built-ins.
	Base *SimpleType

	Facets Facets
}

// Facets are the constraining facets of a restriction.
type Facets struct {
	Length    *int
	MinLength *int
	MaxLength *int

	Patterns    []*regexp.Regexp
	Enumeration []string

	MinInclusive *string
	MaxInclusive *string
	MinExclusive *string
	MaxExclusive *string
}

// Chain returns t followed by each of its bases, ending at the built-in.
func (t *SimpleType) Chain() []*SimpleType {
	var chain []*SimpleType
	for cur := t; cur != nil; cur = cur.Base {
		chain = append(chain, cur)
	}
	return chain
}

// QName renders the type for messages: "xs:int" for built-ins, the type name
// for named restrictions, or "anonymous restriction of xs:<builtin>".
func (t *SimpleType) QName() string {
	switch {
	case t.Base == nil:
		return "xs:" + t.Name
	case t.Name != "":
		return t.Name
	default:
		return "anonymous restriction of xs:" + t.Builtin
	}
}

// builtinTypes lists the XSD built-in simple types the converter knows.
var builtinTypes = map[string]bool{
	"anySimpleType": true, "anyType": true,
	"string": true, "normalizedString": true, "token": true, "language": true,
	"Name": true, "NCName": true, "ID": true, "IDREF": true, "IDREFS": true,
	"ENTITY": true, "ENTITIES": true, "NMTOKEN": true, "NMTOKENS": true,
	"anyURI": true, "QName": true, "NOTATION": true,
	"boolean": true,
	"decimal": true, "float": true, "double": true,
	"integer": true, "nonPositiveInteger": true, "negativeInteger": true,
	"long": true, "int": true, "short": true, "byte": true,
	"nonNegativeInteger": true, "positiveInteger": true,
	"unsignedLong": true, "unsignedInt": true, "unsignedShort": true, "unsignedByte": true,
	"date": true, "dateTime": true, "time": true, "duration": true,
	"gYear": true, "gYearMonth": true, "gMonth": true, "gMonthDay": true, "gDay": true,
	"base64Binary": true, "hexBinary": true,
}

// IsBuiltin reports whether name is a known XSD built-in simple type.
func IsBuiltin(name string) bool {
	return builtinTypes[name]
}

// builtin returns the shared descriptor of a built-in simple type.
func builtin(name string) *SimpleType {
	return &SimpleType{Name: name, Builtin: name}
}
