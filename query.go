// Package silo provides query mechanisms for component-based entity systems
package silo

// QueryBuilder is a fluent builder over QueryOptions (spec §4.6): And
// names the required set, Or the at-least-one set, Not the excluded
// set. Unlike a general boolean expression tree, the compiled query
// is always the flat four-mask form the spec describes; nesting And/Or/Not
// further than one level of each doesn't change the compiled result,
// so the builder simply accumulates into the three sets.
type QueryBuilder struct {
	opts QueryOptions
}

// NewQueryBuilder returns an empty builder.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// And adds components to the required set R.
func (b *QueryBuilder) And(components ...Component) *QueryBuilder {
	for _, c := range components {
		b.opts.With = append(b.opts.With, c.Name)
	}
	return b
}

// Or adds components to the at-least-one set A.
func (b *QueryBuilder) Or(components ...Component) *QueryBuilder {
	for _, c := range components {
		b.opts.AnyOf = append(b.opts.AnyOf, c.Name)
	}
	return b
}

// Not adds components to the excluded set E.
func (b *QueryBuilder) Not(components ...Component) *QueryBuilder {
	for _, c := range components {
		b.opts.Without = append(b.opts.Without, c.Name)
	}
	return b
}

// React marks components as reactive (X ⊆ R); React implies And.
func (b *QueryBuilder) React(components ...Component) *QueryBuilder {
	for _, c := range components {
		b.opts.With = append(b.opts.With, c.Name)
		b.opts.React = append(b.opts.React, c.Name)
	}
	return b
}

// Mutable marks the resulting query as never cached.
func (b *QueryBuilder) Mutable() *QueryBuilder {
	b.opts.Mutable = true
	return b
}

// Build returns the accumulated QueryOptions.
func (b *QueryBuilder) Build() QueryOptions {
	return b.opts
}
