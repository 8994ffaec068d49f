// Package services – VoteService
//
// VoteService forwards votes and the caller's vote history. The backend owns
// toggle semantics; this layer only checks the session and the direction and
// counts outcomes.
package services

import (
	"context"
	"strings"

	"github.com/tbourn/go-curation-gateway/internal/auth"
	"github.com/tbourn/go-curation-gateway/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// VoteBackend is the part of the Backend Gateway VoteService needs.
type VoteBackend interface {
	CastVote(ctx context.Context, token, projectID string, vt domain.VoteType) (*domain.VoteResult, error)
	MyVotes(ctx context.Context, token string) (*domain.MyVotes, error)
}

// VoteService casts votes and lists vote history.
type VoteService struct {
	Backend VoteBackend
	Auth    *auth.Inspector
}

// NewVoteService returns a VoteService.
func NewVoteService(b VoteBackend, in *auth.Inspector) *VoteService {
	return &VoteService{Backend: b, Auth: in}
}

// Cast submits vt for projectID. The session is checked before the body.
func (s *VoteService) Cast(ctx context.Context, token, projectID string, vt domain.VoteType) (*domain.VoteResult, error) {
	tr := otel.Tracer("services/VoteService")
	ctx, span := tr.Start(ctx, "Cast",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("vote.type", string(vt)),
		),
	)
	defer span.End()

	if err := authorize(s.Auth, token); err != nil {
		return nil, err
	}
	if strings.TrimSpace(projectID) == "" {
		return nil, ErrMissingProjectID
	}
	if !vt.Valid() {
		return nil, ErrInvalidVoteType
	}
	res, err := s.Backend.CastVote(ctx, token, projectID, vt)
	if err != nil {
		return nil, err
	}
	outcome := res.Outcome()
	span.SetAttributes(attribute.String("vote.outcome", string(outcome)))
	voteOutcomes.WithLabelValues(string(outcome)).Inc()
	return res, nil
}

// Mine lists the caller's votes.
func (s *VoteService) Mine(ctx context.Context, token string) (*domain.MyVotes, error) {
	tr := otel.Tracer("services/VoteService")
	ctx, span := tr.Start(ctx, "Mine")
	defer span.End()

	if err := authorize(s.Auth, token); err != nil {
		return nil, err
	}
	out, err := s.Backend.MyVotes(ctx, token)
	if err != nil {
		return nil, err
	}
	if out.Votes == nil {
		out.Votes = []domain.VoteRecord{}
	}
	return out, nil
}
