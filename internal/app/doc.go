// Package app provides the application service layer.
//
// Orchestrates the survey use cases: create, vote, results, history and clear.
// Sits between HTTP handlers and the survey repository, and emits audit events
// after each state change. Depends on domain interfaces, not concrete implementations.
package app
