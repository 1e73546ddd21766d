// Package app provides the application service layer.
//
// Service owns the sentiment model lifecycle (load once, then serve, then release) and the
// single readiness flag. Analyze validates a journal entry, classifies it, and selects a
// reflection. HTTP handlers depend on it; it depends on domain interfaces only.
package app
