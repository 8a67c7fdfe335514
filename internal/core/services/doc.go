// Package services implements the core use cases: the indexing pipeline,
// whole-document classification, access-scoped search and the job
// scheduler. Services orchestrate driven ports and contain no
// infrastructure code of their own.
package services
