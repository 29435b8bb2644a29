// Package service contains the application use cases of the curriculum
// model. It orchestrates the pure domain packages (taxonomy, suggest, mapping,
// analysis) and the store interfaces to fulfill requests from the API and the
// background task runner.
//
// Two services are exposed:
//
// 1. UnitService is the editing boundary for units and everything scoped to
// them: ULOs, materials, assessments, local outcomes and the links between
// them. Validation and status transitions are enforced here before anything
// reaches the store.
//
// 2. AlignmentService owns a unit's mapping set. Applying suggestions and
// user mapping edits both follow the same sequence: take the per-unit lock,
// read the mappings and their version inside a transaction, compute the new
// set, and persist it guarded by the version read. A write prepared against a
// stale version is rejected with a domain.ConflictError.
//
// Services receive their dependencies through constructor injection and never
// depend on a concrete store implementation.
package service
