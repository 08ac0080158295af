// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (survey.go, events.go, errors.go) with shared types and cross-cutting interfaces.
// Value types with small pure methods plus contracts; no I/O. Adapters and the app layer depend on this package, never the reverse.
package domain
