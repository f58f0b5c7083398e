package models

import (
	"math"
	"time"
)

// CardState, bir poll kartının oy durumu.
type CardState string

const (
	CardStateLoading    CardState = "loading"
	CardStateEligible   CardState = "eligible"
	CardStateVoted      CardState = "voted"
	CardStateIneligible CardState = "ineligible"
)

// IneligibleReason, Ineligible durumunun açıklaması.
type IneligibleReason string

const (
	ReasonSignInRequired IneligibleReason = "sign_in_required"
	ReasonPollInactive   IneligibleReason = "poll_inactive"
	ReasonPollExpired    IneligibleReason = "poll_expired"
)

// Message, kullanıcıya gösterilecek açıklama.
func (r IneligibleReason) Message() string {
	switch r {
	case ReasonSignInRequired:
		return "Please sign in to vote on this poll"
	case ReasonPollInactive:
		return "This poll is closed"
	case ReasonPollExpired:
		return "This poll has expired"
	default:
		return ""
	}
}

// EvaluateCard, kartın durumunu hesaplar.
//
// Öncelik: oy verilmişse Voted (süresi dolmuş bir poll'da bile sonuçlar
// görünür). Sonra kullanıcı yoksa sign_in_required, poll pasifse
// poll_inactive, süresi dolmuşsa poll_expired. Hiçbiri değilse Eligible.
func EvaluateCard(poll *Poll, hasUser, hasVoted bool, now time.Time) (CardState, IneligibleReason) {
	if hasUser && hasVoted {
		return CardStateVoted, ""
	}
	if !hasUser {
		return CardStateIneligible, ReasonSignInRequired
	}
	if !poll.IsActive {
		return CardStateIneligible, ReasonPollInactive
	}
	if poll.IsExpired(now) {
		return CardStateIneligible, ReasonPollExpired
	}
	return CardStateEligible, ""
}

// OptionTally, yüzdesi hesaplanmış seçenek.
type OptionTally struct {
	PollOption
	Percentage int `json:"percentage"`
}

// Percentage, round(votes/total*100); total 0 ise 0.
// math.Round yarımları sıfırdan uzağa yuvarlar (12.5 → 13).
func Percentage(votes, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(votes) / float64(total) * 100))
}

// Tally, seçenekleri sırası korunarak yüzdeleriyle döner.
func Tally(options []PollOption) ([]OptionTally, int) {
	total := 0
	for _, o := range options {
		total += o.VoteCount
	}

	tallies := make([]OptionTally, len(options))
	for i, o := range options {
		tallies[i] = OptionTally{PollOption: o, Percentage: Percentage(o.VoteCount, total)}
	}
	return tallies, total
}

// PollCardView, GET /api/polls/{id} yanıtı: kartın çizilmesi için gereken her şey.
type PollCardView struct {
	Poll             Poll             `json:"poll"`
	Options          []OptionTally    `json:"options"`
	TotalVotes       int              `json:"total_votes"`
	UserVoteOptionID *string          `json:"user_vote_option_id"`
	State            CardState        `json:"state"`
	Reason           IneligibleReason `json:"reason,omitempty"`
}

// PollTally, option listesi + toplam. GET /api/polls/{id}/options yanıtı ve
// poll_options_update WS event payload'ı.
type PollTally struct {
	PollID     string        `json:"poll_id"`
	Options    []OptionTally `json:"options"`
	TotalVotes int           `json:"total_votes"`
}

// NewPollTally, ham option listesinden PollTally üretir.
func NewPollTally(pollID string, options []PollOption) PollTally {
	tallies, total := Tally(options)
	return PollTally{PollID: pollID, Options: tallies, TotalVotes: total}
}
