// Package authz implements the permission engine: the claims model, the
// course role hierarchy, the per-request principal, and the handler
// registry that scopes database queries to exactly the rows a principal
// may access.
//
// The package consumes an already-authenticated identity; verifying who
// the caller is belongs to internal/auth. Entity shapes (table names and
// course links) are declared by the domain packages and registered into
// one Registry during startup wiring.
package authz
