package searchindex

// Op is a leaf comparison operator against a field's value.
type Op uint8

const (
	OpEqual Op = iota
	OpGreaterThan
	OpLessThan
	OpContains // whole-token, case-insensitive match against a ValueText field
)

// Filter is a node in the prefix-tree filter expression spec.md §4.7
// describes: AND/OR/NOT combinators over leaf field comparisons, with
// short-circuit evaluation.
type Filter struct {
	kind     filterKind
	children []Filter

	field uint8
	op    Op
	value Value

	documentSet []uint32 // pre-materialized id set, used by DocumentSet
}

type filterKind uint8

const (
	filterAnd filterKind = iota
	filterOr
	filterNot
	filterLeaf
	filterDocumentSet
)

// And combines filters with short-circuiting conjunction.
func And(filters ...Filter) Filter { return Filter{kind: filterAnd, children: filters} }

// Or combines filters with short-circuiting disjunction.
func Or(filters ...Filter) Filter { return Filter{kind: filterOr, children: filters} }

// Not negates f.
func Not(f Filter) Filter { return Filter{kind: filterNot, children: []Filter{f}} }

// Compare builds a leaf comparison against field using op and value.
func Compare(field uint8, op Op, value Value) Filter {
	return Filter{kind: filterLeaf, field: field, op: op, value: value}
}

// DocumentSet restricts a query to a pre-materialized id set, used
// when a caller has already narrowed candidates outside the index
// (e.g. an ACL-filtered id list).
func DocumentSet(ids []uint32) Filter {
	return Filter{kind: filterDocumentSet, documentSet: ids}
}

// Comparator orders query results, either by a field's value or by a
// caller-supplied dense rank (used to splice an external backend's
// sort order in as a local comparator).
type Comparator struct {
	Field     uint8
	Ascending bool

	// Rank, when non-nil, overrides Field: rank[id] is a dense sort
	// key an external backend already computed.
	Rank map[uint32]int
}
