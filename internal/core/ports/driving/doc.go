// Package driving provides interfaces for inbound use cases
// (primary ports): indexing, searching and job scheduling.
package driving
