// internal/app/system/filters/descriptor.go
package filters

// Kind is the value type a filter parameter is parsed as.
type Kind int

const (
	Integer     Kind = iota + 1 // exact value plus min/max range
	Float                       // exact value plus min/max range
	StringExact                 // exact match, optionally against Allowed
	StringRegex                 // case-insensitive substring
	Enum                        // exact match against Allowed
	Boolean                     // true/false tokens
	DateRange                   // min/max only
	NestedRange                 // min/max only, over a nested numeric path
	ObjectID                    // exact match on a hex ObjectID reference
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case StringExact:
		return "string"
	case StringRegex:
		return "text"
	case Enum:
		return "enum"
	case Boolean:
		return "boolean"
	case DateRange:
		return "date"
	case NestedRange:
		return "number"
	case ObjectID:
		return "id"
	}
	return "unknown"
}

// ranged reports whether the kind accepts min<Param>/max<Param>.
func (k Kind) ranged() bool {
	switch k {
	case Integer, Float, DateRange, NestedRange:
		return true
	}
	return false
}

// exact reports whether the kind accepts the bare parameter name.
func (k Kind) exact() bool {
	return k != DateRange && k != NestedRange
}

// Field declares one filterable parameter.
type Field struct {
	Param   string   // request parameter name, e.g. "bedrooms"
	Path    string   // storage path, e.g. "bedrooms" or "area.size"
	Kind    Kind     //
	Allowed []string // accepted values for Enum (and optionally StringExact)
}

// Direction is a sort direction in MongoDB terms.
type Direction int

const (
	Asc  Direction = 1
	Desc Direction = -1
)

// Sort names a storage path and direction.
type Sort struct {
	Path      string
	Direction Direction
}

// Population resolves a reference field into an embedded summary.
type Population struct {
	Field  string   // reference path on the listed document, e.g. "agent"
	From   string   // collection holding the referenced document
	As     string   // destination path for the summary, e.g. "agent_info"
	Fields []string // paths copied from the referenced document
}

// Descriptor is the static declaration of one collection's filterable,
// sortable and searchable surface.
type Descriptor struct {
	Name        string
	Collection  string
	Fields      []Field
	TextSearch  []string          // storage paths searched by the "search" param
	DefaultSort Sort              //
	Sortable    map[string]string // sortBy param -> storage path
	ListExclude []string          // paths dropped from list responses
	Populations []Population
}

// field returns the declared field for a parameter name.
func (d Descriptor) field(param string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Param == param {
			return f, true
		}
	}
	return Field{}, false
}
