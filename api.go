package silo

// MustRegisterComponent registers c and panics on failure, for the
// common case of registering components at startup before any World
// state exists to recover into. Generalizes the teacher's
// Factory.NewComponent[T], which had no error return at all.
func MustRegisterComponent(w *World, c Component) CTID {
	id, err := w.RegisterComponent(c)
	if err != nil {
		panic(err)
	}
	return id
}

// MustQuery compiles opts and panics on failure, for query
// registration performed once at system setup rather than per-frame.
func MustQuery(w *World, opts QueryOptions) *Query {
	q, err := w.Query(opts)
	if err != nil {
		panic(err)
	}
	return q
}
