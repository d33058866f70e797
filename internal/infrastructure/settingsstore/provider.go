package settingsstore

import (
	"context"
	"fmt"
	"os"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchday-tipster/internal/domain/settings"
)

// Static always returns the same settings.
type Static struct {
	value    settings.Settings
	validate *validator.Validate
}

func NewStatic(value settings.Settings) *Static {
	return &Static{value: value.Clone(), validate: validator.New()}
}

func (p *Static) Load(ctx context.Context) (settings.Settings, error) {
	out := p.value.Clone()
	if err := p.validate.StructCtx(ctx, out); err != nil {
		return settings.Settings{}, fmt.Errorf("validate settings: %w", err)
	}
	return out, nil
}

// FileProvider reads a JSON settings document on every Load and lays it over
// base. Keys missing from the document keep their base value.
type FileProvider struct {
	path     string
	base     settings.Settings
	validate *validator.Validate
}

func NewFileProvider(path string, base settings.Settings) *FileProvider {
	return &FileProvider{
		path:     strings.TrimSpace(path),
		base:     base.Clone(),
		validate: validator.New(),
	}
}

type document struct {
	WebsiteURL  *string                  `json:"websiteUrl"`
	PromoCodes  map[settings.Slot]string `json:"promoCodes"`
	BonusOffers map[settings.Slot]string `json:"bonusOffers"`
	AutoPosting *autoPostingDocument     `json:"autoPosting"`
}

type autoPostingDocument struct {
	Enabled            *bool `json:"enabled"`
	DynamicTiming      *bool `json:"dynamicTiming"`
	HoursBeforeMatch   *int  `json:"hoursBeforeMatch"`
	MinGapBetweenPosts *int  `json:"minGapBetweenPosts"`
}

func (p *FileProvider) Load(ctx context.Context) (settings.Settings, error) {
	out := p.base.Clone()
	if p.path == "" {
		return out, p.check(ctx, out)
	}

	raw, err := os.ReadFile(p.path)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("read settings file %s: %w", p.path, err)
	}

	var doc document
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return settings.Settings{}, fmt.Errorf("decode settings file %s: %w", p.path, err)
	}
	if err := mergeDocument(&out, doc); err != nil {
		return settings.Settings{}, fmt.Errorf("settings file %s: %w", p.path, err)
	}

	return out, p.check(ctx, out)
}

func (p *FileProvider) check(ctx context.Context, value settings.Settings) error {
	if err := p.validate.StructCtx(ctx, value); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}
	return nil
}

func mergeDocument(out *settings.Settings, doc document) error {
	if doc.WebsiteURL != nil {
		out.WebsiteURL = strings.TrimSpace(*doc.WebsiteURL)
	}
	if err := mergeSlots(&out.PromoCodes, doc.PromoCodes); err != nil {
		return fmt.Errorf("promoCodes: %w", err)
	}
	if err := mergeSlots(&out.BonusOffers, doc.BonusOffers); err != nil {
		return fmt.Errorf("bonusOffers: %w", err)
	}

	if ap := doc.AutoPosting; ap != nil {
		if ap.Enabled != nil {
			out.AutoPosting.Enabled = *ap.Enabled
		}
		if ap.DynamicTiming != nil {
			out.AutoPosting.DynamicTiming = *ap.DynamicTiming
		}
		if ap.HoursBeforeMatch != nil {
			out.AutoPosting.HoursBeforeMatch = *ap.HoursBeforeMatch
		}
		if ap.MinGapBetweenPosts != nil {
			out.AutoPosting.MinGapBetweenPosts = *ap.MinGapBetweenPosts
		}
	}
	return nil
}

func mergeSlots(dst *map[settings.Slot]string, src map[settings.Slot]string) error {
	if len(src) == 0 {
		return nil
	}
	if *dst == nil {
		*dst = make(map[settings.Slot]string, len(src))
	}
	for key, value := range src {
		slot, err := settings.ParseSlot(string(key))
		if err != nil {
			return err
		}
		(*dst)[slot] = strings.TrimSpace(value)
	}
	return nil
}
