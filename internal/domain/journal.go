package domain

import (
	"fmt"
	"strings"
)

// MaxEntryLength is the maximum journal entry length in Unicode code points.
const MaxEntryLength = 1000

// Label is the closed set of sentiment labels the service understands.
type Label string

const (
	LabelPositive Label = "POSITIVE"
	LabelNegative Label = "NEGATIVE"
)

// ParseLabel accepts a classifier label in any case and rejects anything
// outside {POSITIVE, NEGATIVE}.
func ParseLabel(raw string) (Label, error) {
	switch Label(strings.ToUpper(strings.TrimSpace(raw))) {
	case LabelPositive:
		return LabelPositive, nil
	case LabelNegative:
		return LabelNegative, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLabel, raw)
	}
}

// Prediction is one raw (label, score) pair as reported by a classifier backend.
// Label is left unparsed so the app layer can reject unknown vocabularies.
type Prediction struct {
	Label string
	Score float64
}

// Classification is the winning prediction for an entry.
type Classification struct {
	Label      Label
	Confidence float64
}

// Reflection is the response returned for a journal entry.
type Reflection struct {
	Sentiment  Label   `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Reflection string  `json:"reflection"`
	Emoji      string  `json:"emoji"`
}
