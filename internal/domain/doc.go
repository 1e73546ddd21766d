// Package domain defines the core journal types and the classifier contract.
//
// Concept-oriented files (journal.go, classifier.go, errors.go) hold shared types and
// the interfaces consumed by the app layer. Adapters implement them; nothing here
// performs I/O.
package domain
