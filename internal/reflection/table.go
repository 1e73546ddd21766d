package reflection

import "github.com/EllaFerreira/ai-journal-bot/internal/domain"

// HighConfidenceThreshold splits the buckets. Confidence strictly above it is high.
const HighConfidenceThreshold = 0.8

type Bucket string

const (
	BucketHigh     Bucket = "high"
	BucketModerate Bucket = "moderate"
)

// BucketFor returns the confidence bucket. Exactly 0.8 is moderate.
func BucketFor(confidence float64) Bucket {
	if confidence > HighConfidenceThreshold {
		return BucketHigh
	}
	return BucketModerate
}

// Cell is one (label, bucket) entry of the table.
type Cell struct {
	Emoji      string
	Candidates []string
}

type cellKey struct {
	label  domain.Label
	bucket Bucket
}

// Table is the process-wide reflection table. It must not be mutated.
type Table map[cellKey]Cell

// Lookup returns the cell for label and bucket.
func (t Table) Lookup(label domain.Label, bucket Bucket) (Cell, bool) {
	c, ok := t[cellKey{label: label, bucket: bucket}]
	return c, ok
}

// DefaultTable holds the four cells served by the journal endpoint.
var DefaultTable = Table{
	{domain.LabelPositive, BucketHigh}: {
		Emoji: "😊",
		Candidates: []string{
			"What a wonderful day you've had! Your positive energy really shines through ✨",
			"It sounds like you're having a fantastic time! Keep embracing those good vibes 🌟",
			"Your joy is contagious! Thanks for sharing such uplifting thoughts 😊",
		},
	},
	{domain.LabelPositive, BucketModerate}: {
		Emoji: "🙂",
		Candidates: []string{
			"There's definitely some positivity in your day! Hold onto those bright moments 🌤️",
			"I can sense some good vibes in your entry. Focus on what's going well! 💫",
			"It sounds like there are some nice moments to appreciate today 🌱",
		},
	},
	{domain.LabelNegative, BucketHigh}: {
		Emoji: "❤️",
		Candidates: []string{
			"Sounds like a tough day — be kind to yourself ❤️",
			"I hear you're going through a challenging time. You're stronger than you know 💪",
			"Difficult days happen to everyone. Take care of yourself and remember this too shall pass 🌅",
		},
	},
	{domain.LabelNegative, BucketModerate}: {
		Emoji: "🤗",
		Candidates: []string{
			"It seems like you're having a mixed day. That's completely normal 🌈",
			"I sense some challenges in your day. Remember to be gentle with yourself 🤗",
			"Life has its ups and downs. You're doing your best, and that's what matters 💝",
		},
	},
}
