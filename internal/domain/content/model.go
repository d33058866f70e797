package content

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Channel limits for a single message.
const (
	MaxTextRunes    = 4096
	MaxCaptionRunes = 1024
)

type Kind string

const (
	KindPredictions Kind = "predictions"
	KindResults     Kind = "results"
	KindPromo       Kind = "promo"
	KindHype        Kind = "hype"
	KindBonus       Kind = "bonus"
)

func (k Kind) String() string {
	return string(k)
}

// Image is an already-rendered picture attached to a post.
type Image struct {
	Name string
	Data []byte
}

func (i *Image) Empty() bool {
	return i == nil || len(i.Data) == 0
}

// Button is a URL button shown under a post.
type Button struct {
	Text string
	URL  string
}

// Keyboard is a grid of buttons, one slice per row.
type Keyboard [][]Button

func (k Keyboard) Empty() bool {
	for _, row := range k {
		if len(row) > 0 {
			return false
		}
	}
	return true
}

// Post is channel-ready content. Text is the caption when Image is set.
// MatchIDs lists the fixtures actually rendered into a predictions post; a
// nil slice means every fixture handed to the generator made it in.
type Post struct {
	Text     string
	Image    *Image
	Keyboard Keyboard
	MatchIDs []string
}

func (p Post) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return ErrEmptyPost
	}
	limit := MaxTextRunes
	if !p.Image.Empty() {
		limit = MaxCaptionRunes
	}
	if n := utf8.RuneCountInString(p.Text); n > limit {
		return fmt.Errorf("%w: %d runes, limit %d", ErrPostTooLong, n, limit)
	}
	return nil
}

// Receipt confirms a delivered post.
type Receipt struct {
	Success   bool      `json:"success"`
	MessageID int       `json:"messageId"`
	Kind      Kind      `json:"kind"`
	PostedAt  time.Time `json:"postedAt"`
}
