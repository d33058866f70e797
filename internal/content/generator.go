package content

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/matchday-tipster/internal/domain/content"
	"github.com/riskibarqy/matchday-tipster/internal/domain/match"
	"github.com/riskibarqy/matchday-tipster/internal/domain/settings"
	"github.com/valyala/bytebufferpool"
)

const (
	defaultMaxMatches = 10
	defaultMaxResults = 40

	// footerReserve keeps room under the message limit for the trailing
	// "and N more" line.
	footerReserve = 64
)

var tips = []string{
	"Home win",
	"Away win",
	"Draw",
	"Over 2.5 goals",
	"Under 2.5 goals",
	"Both teams to score",
	"Home win or draw",
	"Away win or draw",
}

// SettingsSource exposes the live settings; the scheduler state satisfies it.
type SettingsSource interface {
	Settings() settings.Settings
}

type Config struct {
	Location   *time.Location
	MaxMatches int
	MaxResults int
	ButtonText string
}

// TemplateGenerator renders posts from fixed text templates. A tip is picked
// deterministically from the match ID, so the same fixture always gets the
// same call.
type TemplateGenerator struct {
	source     SettingsSource
	location   *time.Location
	maxMatches int
	maxResults int
	buttonText string
}

var _ content.Generator = (*TemplateGenerator)(nil)

func NewTemplateGenerator(source SettingsSource, cfg Config) *TemplateGenerator {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxMatches <= 0 {
		cfg.MaxMatches = defaultMaxMatches
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if strings.TrimSpace(cfg.ButtonText) == "" {
		cfg.ButtonText = "Bet now"
	}
	return &TemplateGenerator{
		source:     source,
		location:   cfg.Location,
		maxMatches: cfg.MaxMatches,
		maxResults: cfg.MaxResults,
		buttonText: cfg.ButtonText,
	}
}

// GeneratePredictions renders at most MaxMatches fixtures. The rendered IDs
// are reported on the post so the caller can send the rest separately.
func (g *TemplateGenerator) GeneratePredictions(_ context.Context, matches []match.Match, promoCode string) (content.Post, error) {
	if len(matches) == 0 {
		return content.Post{}, fmt.Errorf("render predictions: no matches")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	rendered := make([]string, 0, min(len(matches), g.maxMatches))
	_, _ = buf.WriteString("⚽ MATCHDAY PREDICTIONS\n")
	for i, m := range matches {
		if i == g.maxMatches {
			_, _ = buf.WriteString("\n…" + strconv.Itoa(len(matches)-i) + " more in the next post")
			break
		}
		_ = buf.WriteByte('\n')
		_, _ = buf.WriteString("🕒 " + m.KickoffAt.In(g.location).Format("15:04"))
		if league := strings.TrimSpace(m.LeagueName); league != "" {
			_, _ = buf.WriteString(" | " + league)
		}
		_, _ = buf.WriteString("\n" + m.Title() + "\n")
		_, _ = buf.WriteString("👉 Tip: " + TipFor(m) + "\n")
		rendered = append(rendered, m.ID)
	}
	if code := strings.TrimSpace(promoCode); code != "" {
		_, _ = buf.WriteString("\n🎁 Use code " + code + " for a boosted first bet")
	}

	post := g.post(buf.String())
	post.MatchIDs = rendered
	return post, nil
}

func (g *TemplateGenerator) GenerateResults(_ context.Context, results []match.Result) (content.Post, error) {
	if len(results) == 0 {
		return content.Post{}, fmt.Errorf("render results: no results")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("📊 YESTERDAY'S RESULTS\n\n")
	runes := utf8.RuneCount(buf.B)
	for i, r := range results {
		line := "✅ " + r.Scoreline() + "\n"
		n := utf8.RuneCountInString(line)
		if i == g.maxResults || runes+n > content.MaxTextRunes-footerReserve {
			_, _ = buf.WriteString("\n…and " + strconv.Itoa(len(results)-i) + " more results")
			break
		}
		_, _ = buf.WriteString(line)
		runes += n
	}
	return g.post(buf.String()), nil
}

func (g *TemplateGenerator) GeneratePromo(_ context.Context, code, offer string) (content.Post, error) {
	code = strings.TrimSpace(code)
	offer = strings.TrimSpace(offer)
	if code == "" && offer == "" {
		return content.Post{}, fmt.Errorf("render promo: code and offer are empty")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("🎁 TODAY'S OFFER\n")
	if offer != "" {
		_, _ = buf.WriteString("\n" + offer + "\n")
	}
	if code != "" {
		_, _ = buf.WriteString("\nPromo code: " + code)
	}
	return g.post(buf.String()), nil
}

func (g *TemplateGenerator) GenerateHype(_ context.Context, matches []match.Match) (content.Post, error) {
	if len(matches) == 0 {
		return content.Post{}, fmt.Errorf("render hype: no matches")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("🔥 " + strconv.Itoa(len(matches)) + " matches on the card today!\n\n")
	for i, m := range matches {
		if i == 3 {
			break
		}
		_, _ = buf.WriteString("⭐ " + m.Title() + " (" + m.KickoffAt.In(g.location).Format("15:04") + ")\n")
	}
	_, _ = buf.WriteString("\nPredictions drop before kickoff. Stay tuned!")
	return g.post(buf.String()), nil
}

func (g *TemplateGenerator) GenerateBonus(_ context.Context, text string) (content.Post, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return content.Post{}, fmt.Errorf("render bonus: text is empty")
	}
	return g.post("💰 BONUS ALERT\n\n" + text), nil
}

func (g *TemplateGenerator) post(text string) content.Post {
	return content.Post{
		Text:     strings.TrimSpace(text),
		Keyboard: g.keyboard(),
	}
}

func (g *TemplateGenerator) keyboard() content.Keyboard {
	if g.source == nil {
		return nil
	}
	website := strings.TrimSpace(g.source.Settings().WebsiteURL)
	if website == "" {
		return nil
	}
	return content.Keyboard{{{Text: g.buttonText, URL: website}}}
}

// TipFor returns the tip shown for m.
func TipFor(m match.Match) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(m.ID))
	return tips[h.Sum32()%uint32(len(tips))]
}
