package settings

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
	SlotEvening   Slot = "evening"
)

var Slots = []Slot{SlotMorning, SlotAfternoon, SlotEvening}

func ParseSlot(value string) (Slot, error) {
	slot := Slot(strings.ToLower(strings.TrimSpace(value)))
	switch slot {
	case SlotMorning, SlotAfternoon, SlotEvening:
		return slot, nil
	default:
		return "", fmt.Errorf("unknown promo slot %q", value)
	}
}

// SlotAt maps a local hour to the promo slot that covers it.
func SlotAt(hour int) Slot {
	switch {
	case hour < 12:
		return SlotMorning
	case hour < 17:
		return SlotAfternoon
	default:
		return SlotEvening
	}
}

const (
	DefaultHoursBeforeMatch   = 2
	DefaultMinGapBetweenPosts = 30
)

// AutoPosting toggles and tunes the scheduled posting paths.
type AutoPosting struct {
	Enabled            bool `json:"enabled"`
	DynamicTiming      bool `json:"dynamicTiming"`
	HoursBeforeMatch   int  `json:"hoursBeforeMatch" validate:"gte=1,lte=24"`
	MinGapBetweenPosts int  `json:"minGapBetweenPosts" validate:"gte=0,lte=1440"`
}

// Settings is the operator-editable configuration snapshot.
type Settings struct {
	WebsiteURL  string          `json:"websiteUrl" validate:"omitempty,url"`
	PromoCodes  map[Slot]string `json:"promoCodes"`
	BonusOffers map[Slot]string `json:"bonusOffers"`
	AutoPosting AutoPosting     `json:"autoPosting"`
}

// Defaults is used whenever settings cannot be loaded.
func Defaults() Settings {
	return Settings{
		PromoCodes: map[Slot]string{
			SlotMorning:   "MORNING10",
			SlotAfternoon: "MATCHDAY",
			SlotEvening:   "PRIMETIME",
		},
		BonusOffers: map[Slot]string{
			SlotMorning:   "10% deposit boost before noon",
			SlotAfternoon: "Free bet on your first accumulator",
			SlotEvening:   "Enhanced odds on tonight's late kickoff",
		},
		AutoPosting: AutoPosting{
			Enabled:            true,
			DynamicTiming:      true,
			HoursBeforeMatch:   DefaultHoursBeforeMatch,
			MinGapBetweenPosts: DefaultMinGapBetweenPosts,
		},
	}
}

// Window is the kickoff lookahead used by the dynamic prediction path.
func (s Settings) Window() time.Duration {
	return time.Duration(s.AutoPosting.HoursBeforeMatch) * time.Hour
}

func (s Settings) MinGap() time.Duration {
	return time.Duration(s.AutoPosting.MinGapBetweenPosts) * time.Minute
}

func (s Settings) PromoCode(slot Slot) string {
	return strings.TrimSpace(s.PromoCodes[slot])
}

func (s Settings) BonusOffer(slot Slot) string {
	return strings.TrimSpace(s.BonusOffers[slot])
}

// Clone returns a copy that shares no maps with s.
func (s Settings) Clone() Settings {
	out := s
	out.PromoCodes = maps.Clone(s.PromoCodes)
	out.BonusOffers = maps.Clone(s.BonusOffers)
	return out
}
