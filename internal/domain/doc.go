// Package domain contains the curriculum alignment model: units, their learning
// outcomes, weekly materials and assessments, the many-to-many links between them,
// and the taxonomy mapping records attached to a unit or to a single outcome.
//
// Everything in this package is plain data plus validation. The algorithms that
// read the model live in the sub-packages taxonomy, suggest, mapping and analysis,
// none of which perform I/O.
package domain
