// Package context carries request-scoped values (trace and session identity)
// through context.Context.
package context

type contextKey string
