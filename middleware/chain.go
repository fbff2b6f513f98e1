package middleware

// Chain composes mws into one middleware. The first element is outermost:
// Chain(a, b)(h) runs a, then b, then h.
func Chain(mws ...Middleware) Middleware {
	return func(h HandlerFunc) HandlerFunc {
		return Wrap(h, mws...)
	}
}

// Wrap applies mws to h with the first element outermost. Nil entries are
// skipped, so optional middleware can be listed unconditionally.
func Wrap(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		h = mws[i](h)
	}
	return h
}
