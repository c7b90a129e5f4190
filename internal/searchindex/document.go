package searchindex

// ValueKind discriminates the field value variants spec.md §3 names
// for a search document.
type ValueKind uint8

const (
	ValueText ValueKind = iota
	ValueInteger
	ValueUnsigned
	ValueBool
	ValueKeyed
)

// Value is one field's indexed content. Exactly one of the typed
// accessors is meaningful, selected by Kind.
type Value struct {
	Kind ValueKind

	Text     string
	Language string // only meaningful when Kind == ValueText

	Integer  int64
	Unsigned uint64
	Bool     bool
	Keyed    map[string][]byte
}

// Text builds a ValueText field, tagged with an optional language (the
// empty string falls back to a language-agnostic analyzer).
func Text(s, language string) Value { return Value{Kind: ValueText, Text: s, Language: language} }

// Integer builds a ValueInteger field.
func Integer(v int64) Value { return Value{Kind: ValueInteger, Integer: v} }

// Unsigned builds a ValueUnsigned field.
func Unsigned(v uint64) Value { return Value{Kind: ValueUnsigned, Unsigned: v} }

// Bool builds a ValueBool field.
func Bool(v bool) Value { return Value{Kind: ValueBool, Bool: v} }

// Keyed builds a ValueKeyed field (a map of keyed sub-values, e.g. a
// recipient-address list).
func Keyed(m map[string][]byte) Value { return Value{Kind: ValueKeyed, Keyed: m} }

// Document is one indexable entity: an (Index, ID) pair plus its
// per-field values.
type Document struct {
	Index  uint8
	ID     uint32
	Fields map[uint8]Value
}
