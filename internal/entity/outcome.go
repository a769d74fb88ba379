package entity

import "strconv"

// OutcomeRecord tracks one opponent-facing identity across matches: the
// cursor into each script bucket plus the bookkeeping for the same-tier
// rematch override. It is the only entity that outlives a single match.
type OutcomeRecord struct {
	Address       string          `json:"address"`
	Cursors       map[string]int  `json:"cursors"`
	MatchesByTier map[string]int  `json:"matches_by_tier"`
	BotWonByTier  map[string]bool `json:"bot_won_by_tier"`
	OverrideUsed  map[string]bool `json:"override_used"`
	LastTier      int64           `json:"last_tier"`
	LastBotWin    bool            `json:"last_bot_win"`
	Matches       int             `json:"matches"`
}

func NewOutcomeRecord(address string) *OutcomeRecord {
	return &OutcomeRecord{
		Address:       address,
		Cursors:       make(map[string]int),
		MatchesByTier: make(map[string]int),
		BotWonByTier:  make(map[string]bool),
		OverrideUsed:  make(map[string]bool),
	}
}

// EligibleForRematchOverride reports whether the next decision at the given
// tier must be forced to a bot win: the identity's most recent match at this
// exact tier was their first at it, the bot lost it, and the override has
// not fired for this tier before. Matches at other tiers in between neither
// trigger nor consume the override.
func (that *OutcomeRecord) EligibleForRematchOverride(tier int64) bool {
	key := TierKey(tier)

	return that.MatchesByTier[key] == 1 &&
		!that.BotWonByTier[key] &&
		!that.OverrideUsed[key]
}

func (that *OutcomeRecord) MarkOverrideUsed(tier int64) {
	that.OverrideUsed[TierKey(tier)] = true
}

// RecordDecision stores the verdict just issued so future rematch checks
// can see the identity's history at this tier.
func (that *OutcomeRecord) RecordDecision(tier int64, botWin bool) {
	key := TierKey(tier)

	that.MatchesByTier[key]++
	that.BotWonByTier[key] = botWin
	that.Matches++
	that.LastTier = tier
	that.LastBotWin = botWin
}

func TierKey(tier int64) string {
	return strconv.FormatInt(tier, 10)
}
