// Package task runs background work such as merging suggestions into a
// unit's mappings. Tasks are persisted before they are queued so that work
// interrupted by a restart is recovered and re-run.
package task
