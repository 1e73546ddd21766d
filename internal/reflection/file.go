package reflection

import (
	"fmt"

	"github.com/EllaFerreira/ai-journal-bot/internal/domain"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type fileCell struct {
	Emoji      string   `koanf:"emoji"`
	Candidates []string `koanf:"candidates"`
}

type fileLabel struct {
	High     fileCell `koanf:"high"`
	Moderate fileCell `koanf:"moderate"`
}

type fileTable struct {
	Positive fileLabel `koanf:"positive"`
	Negative fileLabel `koanf:"negative"`
}

// LoadTable reads a reflection table from a YAML file:
//
//	positive:
//	  high:     {emoji: "😊", candidates: ["..."]}
//	  moderate: {emoji: "🙂", candidates: ["..."]}
//	negative:
//	  high:     {emoji: "❤️", candidates: ["..."]}
//	  moderate: {emoji: "🤗", candidates: ["..."]}
//
// All four cells are required and each needs an emoji and one candidate or more.
func LoadTable(path string) (Table, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read reflection table %s: %w", path, err)
	}

	var ft fileTable
	if err := k.Unmarshal("", &ft); err != nil {
		return nil, fmt.Errorf("failed to decode reflection table %s: %w", path, err)
	}

	table := Table{}
	cells := []struct {
		label  domain.Label
		bucket Bucket
		cell   fileCell
	}{
		{domain.LabelPositive, BucketHigh, ft.Positive.High},
		{domain.LabelPositive, BucketModerate, ft.Positive.Moderate},
		{domain.LabelNegative, BucketHigh, ft.Negative.High},
		{domain.LabelNegative, BucketModerate, ft.Negative.Moderate},
	}
	for _, c := range cells {
		if c.cell.Emoji == "" || len(c.cell.Candidates) == 0 {
			return nil, fmt.Errorf("reflection table %s: cell %s/%s needs an emoji and at least one candidate", path, c.label, c.bucket)
		}
		table[cellKey{label: c.label, bucket: c.bucket}] = Cell{
			Emoji:      c.cell.Emoji,
			Candidates: c.cell.Candidates,
		}
	}
	return table, nil
}
