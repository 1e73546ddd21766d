// Package reflection maps a sentiment classification to a canned empathetic message.
//
// The table is static and read-only. Policy.Select is a pure lookup: label × confidence
// bucket chooses a cell, and a Picker chooses one of the cell's candidates.
package reflection
