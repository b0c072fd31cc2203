// Package search compiles declarative search rules and request parameters
// into grouped query predicates, and assembles them with base filters,
// sorting and pagination into a query against a repository.
package search
