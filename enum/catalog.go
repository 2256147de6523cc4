package enum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestionDistance bounds how far a catalog name may be from a
// requested name to be offered as a suggestion.
const maxSuggestionDistance = 3

// Values is the ordered list of allowed values of one enumeration.
type Values []Value

// Codes returns the codes of all values, in order.
func (vs Values) Codes() []string {
	codes := make([]string, len(vs))
	for i, v := range vs {
		codes[i] = v.Code()
	}
	return codes
}

// Find returns the first value with the given code.
func (vs Values) Find(code string) (Value, bool) {
	for _, v := range vs {
		if v.kind != KindInvalid && v.code == code {
			return v, true
		}
	}
	return Value{}, false
}

// Clone returns a deep copy of the list. A nil list clones to an empty one.
func (vs Values) Clone() Values {
	out := make(Values, len(vs))
	for i, v := range vs {
		out[i] = v.clone()
	}
	return out
}

// Catalog maps enumeration names to their values.
type Catalog map[string]Values

// ParseCatalog decodes the JSON wire format. The top level must be an object;
// an enumeration declared as null becomes an empty list.
func ParseCatalog(data []byte) (Catalog, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("catalog must be a JSON object")
	}

	var raw map[string]Values
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	catalog := make(Catalog, len(raw))
	for name, values := range raw {
		if values == nil {
			values = Values{}
		}
		catalog[name] = values
	}
	return catalog, nil
}

// CatalogFromMap converts a generically decoded document into a Catalog.
// Every entry must be a list (or nil); every element must be accepted by
// ValueFromAny.
func CatalogFromMap(doc map[string]any) (Catalog, error) {
	catalog := make(Catalog, len(doc))
	for name, entry := range doc {
		switch list := entry.(type) {
		case nil:
			catalog[name] = Values{}
		case []any:
			values := make(Values, 0, len(list))
			for i, item := range list {
				v, err := ValueFromAny(item)
				if err != nil {
					return nil, fmt.Errorf("enum %q value %d: %w", name, i, err)
				}
				values = append(values, v)
			}
			catalog[name] = values
		case []map[string]any:
			values := make(Values, 0, len(list))
			for i, item := range list {
				v, err := ValueFromAny(item)
				if err != nil {
					return nil, fmt.Errorf("enum %q value %d: %w", name, i, err)
				}
				values = append(values, v)
			}
			catalog[name] = values
		default:
			return nil, fmt.Errorf("enum %q must be a list, got %T", name, entry)
		}
	}
	return catalog, nil
}

// Clone returns a deep copy of the catalog. A nil catalog clones to an
// empty one.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for name, values := range c {
		out[name] = values.Clone()
	}
	return out
}

// Names returns the enumeration names in sorted order.
func (c Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c))
}

// Lookup returns the values of the named enumeration, or a
// *MissingEnumError when the catalog does not declare it.
func (c Catalog) Lookup(name string) (Values, error) {
	values, ok := c[name]
	if !ok {
		return nil, &MissingEnumError{Name: name, Suggestion: c.closestName(name)}
	}
	return values, nil
}

// closestName returns the declared name nearest to name by edit distance,
// ignoring case, or "" when none is close enough.
func (c Catalog) closestName(name string) string {
	want := strings.ToLower(name)
	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, candidate := range c.Names() {
		d := levenshtein.ComputeDistance(want, strings.ToLower(candidate))
		if d < bestDist && d < len(want) {
			best, bestDist = candidate, d
		}
	}
	return best
}
