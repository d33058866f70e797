package sportmonks

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/matchday-tipster/internal/domain/match"
)

type fixturesEnvelope struct {
	Data       []fixtureDetails `json:"data"`
	Pagination pagination       `json:"pagination"`
}

type pagination struct {
	Count       int     `json:"count"`
	PerPage     int     `json:"per_page"`
	CurrentPage int     `json:"current_page"`
	NextPage    *string `json:"next_page"`
	HasMore     bool    `json:"has_more"`
}

type fixtureDetails struct {
	ID           int64                `json:"id"`
	LeagueID     int64                `json:"league_id"`
	Name         string               `json:"name"`
	StartingAt   string               `json:"starting_at"`
	StateID      int64                `json:"state_id"`
	ResultInfo   string               `json:"result_info"`
	Participants []fixtureParticipant `json:"participants"`
	Scores       []fixtureScoreItem   `json:"scores"`
	State        relation[stateRef]   `json:"state"`
	League       relation[leagueRef]  `json:"league"`
}

type fixtureParticipant struct {
	ID   int64                  `json:"id"`
	Name string                 `json:"name"`
	Meta fixtureParticipantMeta `json:"meta"`
}

type fixtureParticipantMeta struct {
	Location string `json:"location"`
}

type fixtureScoreItem struct {
	ParticipantID int64          `json:"participant_id"`
	Description   string         `json:"description"`
	Score         map[string]any `json:"score"`
	Data          map[string]any `json:"data"`
	Goals         any            `json:"goals"`
}

type stateRef struct {
	ID            int64  `json:"id"`
	State         string `json:"state"`
	DeveloperName string `json:"developer_name"`
}

type leagueRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (f fixtureDetails) toMatch() (match.Match, bool) {
	kickoff := parseProviderDateTime(f.StartingAt)
	if f.ID <= 0 || kickoff == nil {
		return match.Match{}, false
	}
	home, away, _, _ := resolveFixtureParticipants(f.Participants)
	if home == "" || away == "" {
		return match.Match{}, false
	}

	leagueID := f.LeagueID
	leagueName := ""
	if f.League.Set {
		if f.League.Data.ID > 0 {
			leagueID = f.League.Data.ID
		}
		leagueName = strings.TrimSpace(f.League.Data.Name)
	}

	return match.Match{
		ID:         strconv.FormatInt(f.ID, 10),
		LeagueID:   formatOptionalID(leagueID),
		LeagueName: leagueName,
		HomeTeam:   home,
		AwayTeam:   away,
		KickoffAt:  *kickoff,
		Status:     f.status(),
	}, true
}

func (f fixtureDetails) toResult() (match.Result, bool) {
	m, ok := f.toMatch()
	if !ok || !match.IsFinishedStatus(m.Status) {
		return match.Result{}, false
	}
	home, away := resolveFixtureScores(f.Scores, f.Participants)
	if home == nil || away == nil {
		return match.Result{}, false
	}
	return match.Result{Match: m, HomeScore: *home, AwayScore: *away}, true
}

func (f fixtureDetails) status() string {
	stateID := f.StateID
	if stateID == 0 && f.State.Set {
		stateID = f.State.Data.ID
	}
	info := f.ResultInfo
	if info == "" && f.State.Set {
		info = f.State.Data.DeveloperName
	}
	return mapFixtureStatus(stateID, info)
}

func parseProviderDateTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	layouts := []string{
		time.DateTime,
		"2006-01-02T15:04:05Z07:00",
		time.RFC3339,
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

func resolveFixtureParticipants(participants []fixtureParticipant) (string, string, int64, int64) {
	var homeName, awayName string
	var homeID, awayID int64
	for _, item := range participants {
		switch strings.ToLower(strings.TrimSpace(item.Meta.Location)) {
		case "home":
			homeName = strings.TrimSpace(item.Name)
			homeID = item.ID
		case "away":
			awayName = strings.TrimSpace(item.Name)
			awayID = item.ID
		}
	}
	return homeName, awayName, homeID, awayID
}

// resolveFixtureScores picks the most authoritative score description
// present (CURRENT over 2ND_HALF and so on) for each side.
func resolveFixtureScores(scores []fixtureScoreItem, participants []fixtureParticipant) (*int, *int) {
	if len(scores) == 0 {
		return nil, nil
	}
	_, _, homeParticipantID, awayParticipantID := resolveFixtureParticipants(participants)

	bestWeight := 0
	homeValues := map[int]int{}
	awayValues := map[int]int{}
	for _, score := range scores {
		value, ok := score.numericScore()
		if !ok {
			continue
		}

		weight := scoreDescriptionWeight(score.Description)
		if weight > bestWeight {
			bestWeight = weight
			homeValues = map[int]int{}
			awayValues = map[int]int{}
		}
		if weight < bestWeight {
			continue
		}

		if score.ParticipantID == homeParticipantID && homeParticipantID > 0 {
			homeValues[weight] = value
		}
		if score.ParticipantID == awayParticipantID && awayParticipantID > 0 {
			awayValues[weight] = value
		}
	}

	var home, away *int
	if value, ok := homeValues[bestWeight]; ok {
		home = &value
	}
	if value, ok := awayValues[bestWeight]; ok {
		away = &value
	}
	return home, away
}

func mapFixtureStatus(stateID int64, resultInfo string) string {
	switch stateID {
	case 2, 3, 4, 6, 7, 8, 9:
		return match.StatusLive
	case 5, 13, 14:
		return match.StatusFinished
	case 10:
		return match.StatusPostponed
	case 11, 12:
		return match.StatusCancelled
	case 1:
		return match.StatusScheduled
	}

	info := strings.ToLower(strings.TrimSpace(resultInfo))
	switch {
	case strings.Contains(info, "postpon"):
		return match.StatusPostponed
	case strings.Contains(info, "cancel"), strings.Contains(info, "abandon"):
		return match.StatusCancelled
	case strings.Contains(info, "live"), strings.Contains(info, "in play"), strings.Contains(info, "half"):
		return match.StatusLive
	case strings.Contains(info, "finish"), strings.Contains(info, "full time"), strings.Contains(info, "aet"), strings.Contains(info, "pen"):
		return match.StatusFinished
	default:
		return match.StatusScheduled
	}
}

func scoreDescriptionWeight(raw string) int {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case value == "current":
		return 6
	case strings.Contains(value, "normal_time"), strings.Contains(value, "90"):
		return 5
	case strings.Contains(value, "extra_time"):
		return 4
	case strings.Contains(value, "penalt"):
		return 3
	case value == "1st_half", value == "2nd_half":
		return 2
	default:
		return 1
	}
}

func (f fixtureScoreItem) numericScore() (int, bool) {
	for _, candidate := range []any{
		f.Goals,
		lookupMapValue(f.Data, "goals"),
		lookupMapValue(f.Data, "value"),
		lookupMapValue(f.Score, "goals"),
		lookupMapValue(f.Score, "score"),
		lookupMapValue(f.Score, "value"),
	} {
		if candidate == nil {
			continue
		}
		score := int(asFloat64(candidate))
		if score >= 0 {
			return score, true
		}
	}
	return 0, false
}

func formatOptionalID(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// relation decodes an include that may arrive bare or wrapped in {"data": ...}.
type relation[T any] struct {
	Data T
	Set  bool
}

func (r *relation[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		r.Set = false
		return nil
	}

	var wrapped struct {
		Data *T `json:"data"`
	}
	if err := sonic.Unmarshal(trimmed, &wrapped); err == nil && wrapped.Data != nil {
		r.Data = *wrapped.Data
		r.Set = true
		return nil
	}

	var direct T
	if err := sonic.Unmarshal(trimmed, &direct); err != nil {
		return err
	}
	r.Data = direct
	r.Set = true
	return nil
}

func lookupMapValue(src map[string]any, key string) any {
	if src == nil {
		return nil
	}
	return src[key]
}

func asFloat64(value any) float64 {
	switch typed := value.(type) {
	case float64:
		return typed
	case float32:
		return float64(typed)
	case int:
		return float64(typed)
	case int64:
		return float64(typed)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return -1
		}
		return parsed
	default:
		return -1
	}
}
