package validation

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sheet2xml/internal/schema"
)

// =============================================================================
// SIMPLE TYPE CHECKS
// =============================================================================

// CheckValue validates the text content of an element against a simple type.
//
// RETURNS:
//   - A libxml2-style message if the value is invalid, empty string if valid.
//
// The value is first checked against the built-in type at the root of the
// derivation chain, then against the facets of every restriction step.
func CheckValue(value string, st *schema.SimpleType) string {
	if st.Builtin != "string" && st.Builtin != "anySimpleType" {
		value = collapse(value)
	}

	if !validBuiltin(st.Builtin, value) {
		return fmt.Sprintf("'%s' is not a valid value of the atomic type '%s'.", value, st.QName())
	}

	for _, step := range st.Chain() {
		if msg := checkFacets(value, step.Builtin, step.Facets); msg != "" {
			return msg
		}
	}
	return ""
}

// collapse applies whiteSpace="collapse": trims and folds internal runs.
func collapse(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func checkFacets(value, builtin string, f schema.Facets) string {
	length := utf8.RuneCountInString(value)

	if f.Length != nil && length != *f.Length {
		return fmt.Sprintf("[facet 'length'] The value '%s' has a length of '%d'; this differs from the allowed length of '%d'.", value, length, *f.Length)
	}
	if f.MinLength != nil && length < *f.MinLength {
		return fmt.Sprintf("[facet 'minLength'] The value '%s' has a length of '%d'; this underruns the allowed minimum length of '%d'.", value, length, *f.MinLength)
	}
	if f.MaxLength != nil && length > *f.MaxLength {
		return fmt.Sprintf("[facet 'maxLength'] The value '%s' has a length of '%d'; this exceeds the allowed maximum length of '%d'.", value, length, *f.MaxLength)
	}

	// Patterns of one restriction step are alternatives.
	if len(f.Patterns) > 0 {
		matched := false
		for _, re := range f.Patterns {
			if re.MatchString(value) {
				matched = true
				break
			}
		}
		if !matched {
			return fmt.Sprintf("[facet 'pattern'] The value '%s' is not accepted by the pattern '%s'.", value, patternSource(f.Patterns[0]))
		}
	}

	if len(f.Enumeration) > 0 && !enumerated(value, builtin, f.Enumeration) {
		quoted := make([]string, len(f.Enumeration))
		for i, e := range f.Enumeration {
			quoted[i] = "'" + e + "'"
		}
		return fmt.Sprintf("[facet 'enumeration'] The value '%s' is not an element of the set {%s}.", value, strings.Join(quoted, ", "))
	}

	if f.MinInclusive != nil && compare(value, *f.MinInclusive, builtin) < 0 {
		return fmt.Sprintf("[facet 'minInclusive'] The value '%s' is less than the minimum value allowed ('%s').", value, *f.MinInclusive)
	}
	if f.MaxInclusive != nil && compare(value, *f.MaxInclusive, builtin) > 0 {
		return fmt.Sprintf("[facet 'maxInclusive'] The value '%s' is greater than the maximum value allowed ('%s').", value, *f.MaxInclusive)
	}
	if f.MinExclusive != nil && compare(value, *f.MinExclusive, builtin) <= 0 {
		return fmt.Sprintf("[facet 'minExclusive'] The value '%s' must be greater than '%s'.", value, *f.MinExclusive)
	}
	if f.MaxExclusive != nil && compare(value, *f.MaxExclusive, builtin) >= 0 {
		return fmt.Sprintf("[facet 'maxExclusive'] The value '%s' must be less than '%s'.", value, *f.MaxExclusive)
	}

	return ""
}

// patternSource strips the anchors added when the pattern was compiled.
func patternSource(re *regexp.Regexp) string {
	s := strings.TrimPrefix(re.String(), "^(?:")
	return strings.TrimSuffix(s, ")$")
}

// enumerated compares numerically for numeric types so that "1.0" matches
// an enumeration value of "1".
func enumerated(value, builtin string, set []string) bool {
	for _, e := range set {
		if isNumeric(builtin) {
			if compare(value, e, builtin) == 0 {
				return true
			}
		} else if value == e {
			return true
		}
	}
	return false
}

// compare orders two lexical values of a built-in type. Numeric types are
// compared as decimals; everything else (dates included, whose canonical
// lexical forms sort chronologically) is compared as text.
func compare(a, b, builtin string) int {
	if isNumeric(builtin) {
		da, errA := decimal.NewFromString(a)
		db, errB := decimal.NewFromString(b)
		if errA == nil && errB == nil {
			return da.Cmp(db)
		}
	}
	return strings.Compare(a, b)
}

func isNumeric(builtin string) bool {
	if builtin == "decimal" || builtin == "float" || builtin == "double" {
		return true
	}
	_, ok := integerRanges[builtin]
	return ok
}

// =============================================================================
// BUILT-IN TYPE VALIDATORS
// =============================================================================

var (
	integerPattern  = regexp.MustCompile(`^[+-]?\d+$`)
	decimalPattern  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	doublePattern   = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	datePattern     = regexp.MustCompile(`^-?\d{4,}-\d{2}-\d{2}(Z|[+-]\d{2}:\d{2})?$`)
	dateTimePattern = regexp.MustCompile(`^-?\d{4,}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
	timePattern     = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
	durationPattern = regexp.MustCompile(`^-?P(\d+Y)?(\d+M)?(\d+D)?(T(\d+H)?(\d+M)?(\d+(\.\d+)?S)?)?$`)
	hexPattern      = regexp.MustCompile(`^([0-9a-fA-F]{2})*$`)
	languagePattern = regexp.MustCompile(`^[a-zA-Z]{1,8}(-[a-zA-Z0-9]{1,8})*$`)
	ncNamePattern   = regexp.MustCompile(`^[\pL_][\pL\pN._\-]*$`)
	namePattern     = regexp.MustCompile(`^[\pL_:][\pL\pN._:\-]*$`)
	nmTokenPattern  = regexp.MustCompile(`^[\pL\pN._:\-]+$`)

	gPatterns = map[string]*regexp.Regexp{
		"gYear":      regexp.MustCompile(`^-?\d{4,}(Z|[+-]\d{2}:\d{2})?$`),
		"gYearMonth": regexp.MustCompile(`^-?\d{4,}-(0[1-9]|1[0-2])(Z|[+-]\d{2}:\d{2})?$`),
		"gMonth":     regexp.MustCompile(`^--(0[1-9]|1[0-2])(Z|[+-]\d{2}:\d{2})?$`),
		"gMonthDay":  regexp.MustCompile(`^--(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])(Z|[+-]\d{2}:\d{2})?$`),
		"gDay":       regexp.MustCompile(`^---(0[1-9]|[12]\d|3[01])(Z|[+-]\d{2}:\d{2})?$`),
	}
)

// integerRanges holds the value space bounds of the integer family. An empty
// bound is unlimited.
var integerRanges = map[string][2]string{
	"integer":            {"", ""},
	"nonPositiveInteger": {"", "0"},
	"negativeInteger":    {"", "-1"},
	"long":               {"-9223372036854775808", "9223372036854775807"},
	"int":                {"-2147483648", "2147483647"},
	"short":              {"-32768", "32767"},
	"byte":               {"-128", "127"},
	"nonNegativeInteger": {"0", ""},
	"positiveInteger":    {"1", ""},
	"unsignedLong":       {"0", "18446744073709551615"},
	"unsignedInt":        {"0", "4294967295"},
	"unsignedShort":      {"0", "65535"},
	"unsignedByte":       {"0", "255"},
}

// validBuiltin reports whether value is in the lexical space of a built-in
// type. Types without a lexical constraint accept anything.
func validBuiltin(builtin, value string) bool {
	if bounds, ok := integerRanges[builtin]; ok {
		return validInteger(value, bounds)
	}

	switch builtin {
	case "decimal":
		return decimalPattern.MatchString(value)
	case "float", "double":
		return validDouble(value)
	case "boolean":
		return value == "true" || value == "false" || value == "1" || value == "0"
	case "date":
		return validDate(value)
	case "dateTime":
		return validDateTime(value)
	case "time":
		return timePattern.MatchString(value) && parses("15:04:05", value[:8])
	case "duration":
		return validDuration(value)
	case "gYear", "gYearMonth", "gMonth", "gMonthDay", "gDay":
		return gPatterns[builtin].MatchString(value)
	case "hexBinary":
		return hexPattern.MatchString(value)
	case "base64Binary":
		_, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(value, " ", ""))
		return err == nil
	case "language":
		return languagePattern.MatchString(value)
	case "NCName", "ID", "IDREF", "ENTITY":
		return ncNamePattern.MatchString(value)
	case "Name":
		return namePattern.MatchString(value)
	case "NMTOKEN":
		return nmTokenPattern.MatchString(value)
	case "IDREFS", "ENTITIES", "NMTOKENS":
		return value != ""
	default:
		return true
	}
}

func validInteger(value string, bounds [2]string) bool {
	if !integerPattern.MatchString(value) {
		return false
	}
	n, err := decimal.NewFromString(value)
	if err != nil {
		return false
	}
	if bounds[0] != "" && n.LessThan(decimal.RequireFromString(bounds[0])) {
		return false
	}
	if bounds[1] != "" && n.GreaterThan(decimal.RequireFromString(bounds[1])) {
		return false
	}
	return true
}

func validDouble(value string) bool {
	switch value {
	case "INF", "+INF", "-INF", "NaN":
		return true
	}
	return doublePattern.MatchString(value)
}

// validDate checks the lexical form and that the calendar date exists.
func validDate(value string) bool {
	if !datePattern.MatchString(value) {
		return false
	}
	if value[4] != '-' {
		// Negative or five-digit years are outside time.Parse.
		return true
	}
	return parses("2006-01-02", value[:10])
}

func validDateTime(value string) bool {
	if !dateTimePattern.MatchString(value) {
		return false
	}
	if value[4] != '-' {
		return true
	}
	return parses("2006-01-02T15:04:05", value[:19])
}

func validDuration(value string) bool {
	if !durationPattern.MatchString(value) {
		return false
	}
	// "P" alone and a trailing "T" are not valid durations.
	trimmed := strings.TrimPrefix(value, "-")
	return trimmed != "P" && !strings.HasSuffix(value, "T")
}

func parses(layout, value string) bool {
	_, err := time.Parse(layout, value)
	return err == nil
}
