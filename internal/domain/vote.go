package domain

import (
	"strings"
	"time"
)

// VoteType is the direction of a vote.
type VoteType string

const (
	VoteFor     VoteType = "FOR"
	VoteAgainst VoteType = "AGAINST"
)

// Valid reports whether v is FOR or AGAINST.
func (v VoteType) Valid() bool { return v == VoteFor || v == VoteAgainst }

// Opposite returns the other direction.
func (v VoteType) Opposite() VoteType {
	if v == VoteFor {
		return VoteAgainst
	}
	return VoteFor
}

// Vote is a single user's active vote on a project.
type Vote struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProjectID string    `json:"project_id"`
	VoteType  VoteType  `json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteStats is the authoritative tally returned after a vote.
type VoteStats struct {
	VotesFor     int     `json:"votesFor"`
	VotesAgainst int     `json:"votesAgainst"`
	Total        int     `json:"total"`
	Score        float64 `json:"score"`
}

// VoteResult is the backend response to a cast vote.
type VoteResult struct {
	Message        string       `json:"message"`
	Vote           *Vote        `json:"vote,omitempty"`
	Stats          VoteStats    `json:"stats"`
	VotesBreakdown *[]RoleVotes `json:"votesBreakdown,omitempty"`
}

// VoteOutcome is how the backend resolved a vote against the user's prior
// state on the same project.
type VoteOutcome string

const (
	OutcomeRecorded VoteOutcome = "recorded"
	OutcomeUpdated  VoteOutcome = "updated"
	OutcomeRemoved  VoteOutcome = "removed"
)

// Outcome classifies the backend message. Unknown messages count as recorded.
func (r VoteResult) Outcome() VoteOutcome {
	m := strings.ToLower(r.Message)
	switch {
	case strings.Contains(m, "removed"):
		return OutcomeRemoved
	case strings.Contains(m, "updated"), strings.Contains(m, "changed"):
		return OutcomeUpdated
	default:
		return OutcomeRecorded
	}
}

// VoteRecord is one entry of the current user's vote history.
type VoteRecord struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	ProjectName string    `json:"projectName"`
	VoteType    VoteType  `json:"voteType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MyVotes is the response of the vote history endpoint.
type MyVotes struct {
	Votes      []VoteRecord `json:"votes"`
	TotalVotes int          `json:"totalVotes"`
}
