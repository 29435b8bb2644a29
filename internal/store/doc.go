// Package store defines the persistence boundary of the curriculum model.
// Implementations keep units, their content and their mapping sets, and
// enforce the per-unit mapping version used for optimistic concurrency.
package store
