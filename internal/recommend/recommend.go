// Package recommend scores the top available players and picks one to draft.
//
// The scorer is a pure function of its inputs. Identical inputs always
// produce the identical choice, score and breakdown.
package recommend

import (
	"math"
	"sort"

	"github.com/Billy-Davies-2/draftboard/internal/models"
)

// CandidateLimit is how many available players are scored
const CandidateLimit = 20

// Scoring weights
const (
	CustomWeight      = 0.55
	ADPWeight         = 0.35
	BackupBump        = 0.15
	BackupADPMargin   = 12.0
	StarredBonus      = 0.10
	ThumbsDownPenalty = -0.07
	StackBonus        = 0.08
	StarReachBonus    = 0.05
	ADPFallerBonus    = 0.03
	LongWaitBonus     = 0.03
	RankGap           = 10.0
	LongWaitPicks     = 10
	NeedBonus         = 0.05
)

const epsilon = 1e-9

// Scored is one candidate with every scoring component broken out
type Scored struct {
	Player          models.Player `json:"player"`
	CustomComponent float64       `json:"customComponent"`
	ADPComponent    float64       `json:"adpComponent"`
	Base            float64       `json:"base"`
	Backup          float64       `json:"backup"`
	Preference      float64       `json:"preference"`
	Stack           float64       `json:"stack"`
	Reach           float64       `json:"reach"`
	Need            float64       `json:"need"`
	Eligible        bool          `json:"eligible"`
	Score           Score         `json:"score"`

	needPriority int
}

// Result is the scorer's choice plus the breakdown behind it
type Result struct {
	Chosen         *models.Player `json:"chosen"`
	Score          Score          `json:"score"`
	Fallback       bool           `json:"fallback"`
	Reason         string         `json:"reason"`
	PicksUntilNext int            `json:"picksUntilNext"`
	Candidates     []Scored       `json:"candidates"`
}

// Candidates returns the top CandidateLimit players by customRank
func Candidates(available []models.Player) []models.Player {
	out := make([]models.Player, len(available))
	copy(out, available)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CustomRank < out[j].CustomRank
	})
	if len(out) > CandidateLimit {
		out = out[:CandidateLimit]
	}
	return out
}

// Recommend scores the top available players against the user's roster and
// returns the best one. An empty pool yields a nil choice flagged as a
// fallback rather than an error.
func Recommend(available, roster []models.Player, settings models.DraftSettings, picksUntilNext int) Result {
	res := Result{PicksUntilNext: picksUntilNext, Score: Ineligible}

	pool := Candidates(available)
	if len(pool) == 0 {
		res.Fallback = true
		res.Reason = "no available players to recommend"
		return res
	}

	ctx := newRosterContext(roster, settings)
	res.Candidates = scorePool(pool, ctx, picksUntilNext)

	best := -1
	for i := range res.Candidates {
		if !res.Candidates[i].Eligible {
			continue
		}
		if best < 0 || better(res.Candidates[i], res.Candidates[best]) {
			best = i
		}
	}

	if best >= 0 {
		chosen := res.Candidates[best].Player
		res.Chosen = &chosen
		res.Score = res.Candidates[best].Score
		res.Reason = reasonFor(res.Candidates[best])
		return res
	}

	return fallback(available, ctx, res)
}

// fallback picks the highest-base non-K/DST player from the whole available
// list once every top candidate has been excluded.
func fallback(available []models.Player, ctx rosterContext, res Result) Result {
	res.Fallback = true

	all := make([]models.Player, len(available))
	copy(all, available)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CustomRank < all[j].CustomRank
	})

	custom, adp := components(all)
	var pick *Scored
	for i, p := range all {
		if p.Position == models.PositionK || p.Position == models.PositionDST {
			continue
		}
		s := Scored{
			Player:          p,
			CustomComponent: custom[i],
			ADPComponent:    adp[i],
			Base:            CustomWeight*custom[i] + ADPWeight*adp[i],
			Eligible:        true,
			needPriority:    ctx.needPriority(p.Position),
		}
		s.Score = Score(s.Base)
		if pick == nil || better(s, *pick) {
			cp := s
			pick = &cp
		}
	}

	if pick == nil {
		res.Reason = "every available player is a kicker or defense the roster already has"
		return res
	}

	chosen := pick.Player
	res.Chosen = &chosen
	res.Score = pick.Score
	res.Reason = "every top candidate is a kicker or defense the roster already has; " +
		"recommending the best remaining player by base value"
	return res
}

func scorePool(pool []models.Player, ctx rosterContext, picksUntilNext int) []Scored {
	custom, adp := components(pool)

	bestADP := math.Inf(1)
	for _, p := range pool {
		bestADP = math.Min(bestADP, p.ADPRank)
	}
	allowance := 0.5 * float64(picksUntilNext)

	out := make([]Scored, len(pool))
	for i, p := range pool {
		s := Scored{
			Player:          p,
			CustomComponent: custom[i],
			ADPComponent:    adp[i],
			needPriority:    ctx.needPriority(p.Position),
		}
		s.Base = CustomWeight*s.CustomComponent + ADPWeight*s.ADPComponent

		if ctx.backupEligible(p.Position) {
			if median, ok := otherMedianADP(pool, i); ok && p.ADPRank <= median-BackupADPMargin {
				s.Backup = BackupBump
			}
		}

		switch {
		case p.Starred:
			s.Preference = StarredBonus
		case p.ThumbsDown:
			s.Preference = ThumbsDownPenalty
		}

		if ctx.stacksWith(p) {
			s.Stack = StackBonus
		}

		if p.Starred && p.ADPRank-bestADP <= allowance {
			s.Reach += StarReachBonus
		}
		if float64(p.CustomRank)-p.ADPRank >= RankGap {
			s.Reach += ADPFallerBonus
		}
		if p.ADPRank-float64(p.CustomRank) >= RankGap && picksUntilNext >= LongWaitPicks {
			s.Reach += LongWaitBonus
		}

		if (p.Position == models.PositionRB || p.Position == models.PositionWR) && ctx.skillNeed {
			s.Need = NeedBonus
		}

		s.Eligible = !ctx.capped(p.Position)
		if s.Eligible {
			s.Score = Score(s.Base + s.Backup + s.Preference + s.Stack + s.Reach + s.Need)
		} else {
			s.Score = Ineligible
		}
		out[i] = s
	}
	return out
}

// better reports whether a outranks b, applying the tie-break chain when
// scores are equal.
func better(a, b Scored) bool {
	if d := float64(a.Score) - float64(b.Score); math.Abs(d) > epsilon {
		return d > 0
	}
	if d := a.CustomComponent - b.CustomComponent; math.Abs(d) > epsilon {
		return d > 0
	}
	if d := a.ADPComponent - b.ADPComponent; math.Abs(d) > epsilon {
		return d > 0
	}
	if (a.Stack > 0) != (b.Stack > 0) {
		return a.Stack > 0
	}
	if a.Player.Starred != b.Player.Starred {
		return a.Player.Starred
	}
	if a.needPriority != b.needPriority {
		return a.needPriority > b.needPriority
	}
	if a.Player.ADPRank != b.Player.ADPRank {
		return a.Player.ADPRank < b.Player.ADPRank
	}
	return a.Player.PlayerID < b.Player.PlayerID
}

// components returns the inverted percentile of customRank and adpRank for
// each player in the pool. Tied ranks share the first index.
func components(pool []models.Player) (custom, adp []float64) {
	customRanks := make([]float64, len(pool))
	adpRanks := make([]float64, len(pool))
	for i, p := range pool {
		customRanks[i] = float64(p.CustomRank)
		adpRanks[i] = p.ADPRank
	}
	return percentiles(customRanks), percentiles(adpRanks)
}

func percentiles(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 1 {
		out[0] = 1
		return out
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	for i, v := range values {
		idx := sort.SearchFloat64s(sorted, v)
		out[i] = 1 - float64(idx)/float64(n-1)
	}
	return out
}

// otherMedianADP is the median adpRank of the pool's other players at the
// same position as pool[self].
func otherMedianADP(pool []models.Player, self int) (float64, bool) {
	var others []float64
	for i, p := range pool {
		if i != self && p.Position == pool[self].Position {
			others = append(others, p.ADPRank)
		}
	}
	if len(others) == 0 {
		return 0, false
	}
	sort.Float64s(others)
	mid := len(others) / 2
	if len(others)%2 == 1 {
		return others[mid], true
	}
	return (others[mid-1] + others[mid]) / 2, true
}

func reasonFor(s Scored) string {
	switch {
	case s.Stack > 0:
		return "best composite score, stacks with a starter on your roster"
	case s.Backup > 0:
		return "best composite score, falling well below ADP at a filled position"
	case s.Need > 0:
		return "best composite score, fills an open RB/WR starting slot"
	case s.Preference > 0:
		return "best composite score, one of your starred players"
	}
	return "best composite score"
}
