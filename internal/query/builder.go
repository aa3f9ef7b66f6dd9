package query

// Builder accumulates predicates step by step. It produces the same
// Condition as And over the same predicates and exists for callers that
// assemble filters incrementally.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	preds []Predicate
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// And appends p when it is active and returns the builder for chaining.
func (b *Builder) And(p Predicate) *Builder {
	if p.Active() {
		b.preds = append(b.preds, p)
	}
	return b
}

// HasValue reports whether any active predicate has been added.
func (b *Builder) HasValue() bool {
	return len(b.preds) > 0
}

// Condition snapshots the accumulated predicates. Later calls to And do not
// affect conditions already returned.
func (b *Builder) Condition() Condition {
	if len(b.preds) == 0 {
		return Condition{}
	}
	out := make([]Predicate, len(b.preds))
	copy(out, b.preds)
	return Condition{preds: out}
}
