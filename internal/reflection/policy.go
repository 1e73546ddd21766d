package reflection

import (
	"fmt"
	"math/rand/v2"

	"github.com/EllaFerreira/ai-journal-bot/internal/domain"
)

// Selection modes accepted by PickerFor.
const (
	ModeFirst  = "first"
	ModeRandom = "random"
)

// Picker chooses an index in [0, n). n is always at least 1.
type Picker func(n int) int

// First always picks the first candidate, making Select deterministic.
func First(int) int { return 0 }

// Uniform picks a candidate uniformly at random. Safe for concurrent use.
func Uniform(n int) int { return rand.IntN(n) }

// PickerFor maps a selection mode to a Picker.
func PickerFor(mode string) (Picker, error) {
	switch mode {
	case ModeFirst:
		return First, nil
	case ModeRandom:
		return Uniform, nil
	default:
		return nil, fmt.Errorf("selection mode must be %q or %q, got %q", ModeFirst, ModeRandom, mode)
	}
}

type Policy struct {
	table Table
	pick  Picker
}

// NewPolicy returns a Policy over table. A nil pick defaults to First.
func NewPolicy(table Table, pick Picker) *Policy {
	if pick == nil {
		pick = First
	}
	return &Policy{table: table, pick: pick}
}

// Select returns the reflection message and emoji for a classification.
func (p *Policy) Select(label domain.Label, confidence float64) (string, string, error) {
	cell, ok := p.table.Lookup(label, BucketFor(confidence))
	if !ok || len(cell.Candidates) == 0 {
		return "", "", fmt.Errorf("%w: %q", domain.ErrUnknownLabel, label)
	}
	return cell.Candidates[p.pick(len(cell.Candidates))], cell.Emoji, nil
}
