// Package vote issues votes on behalf of a signed-in user and, once the
// backend confirms, writes the returned tally into every cached feed page.
// Nothing is changed locally before confirmation.
package vote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tbourn/go-curation-gateway/internal/domain"
	"github.com/tbourn/go-curation-gateway/internal/feed"
	"github.com/tbourn/go-curation-gateway/internal/gateway"
	"github.com/tbourn/go-curation-gateway/internal/session"
)

var (
	// ErrPending rejects a vote on a project that already has one in flight.
	ErrPending = errors.New("vote: a vote on this project is pending")
	// ErrAuthRequired means sign-in was started instead of voting.
	ErrAuthRequired = errors.New("vote: sign-in required")
	// ErrInvalidType rejects anything but FOR and AGAINST.
	ErrInvalidType = errors.New("vote: invalid vote type")
)

// FailureText is shown when the backend gives no message of its own.
const FailureText = "Voting failed"

// Caster sends a vote. *gateway.Client satisfies it.
type Caster interface {
	CastVote(ctx context.Context, token, projectID string, vt domain.VoteType) (*domain.VoteResult, error)
}

// Updater receives confirmed tallies. *feed.Loop satisfies it.
type Updater interface {
	ApplyVote(ctx context.Context, projectID string, u feed.VoteUpdate) error
}

// Protocol tracks one pending direction per project.
type Protocol struct {
	caster  Caster
	session session.Accessor
	feed    Updater
	notify  Notifier

	mu      sync.Mutex
	pending map[string]domain.VoteType
}

// New wires a Protocol. u may be nil when nothing caches the feed; notify may
// be nil.
func New(c Caster, s session.Accessor, u Updater, notify Notifier) *Protocol {
	if notify == nil {
		notify = Discard
	}
	return &Protocol{
		caster:  c,
		session: s,
		feed:    u,
		notify:  notify,
		pending: make(map[string]domain.VoteType),
	}
}

// Pending returns the direction in flight for projectID.
func (p *Protocol) Pending(projectID string) (domain.VoteType, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.pending[projectID]
	return d, ok
}

// Disabled reports whether direction d is blocked because the opposite one
// is pending.
func (p *Protocol) Disabled(projectID string, d domain.VoteType) bool {
	cur, ok := p.Pending(projectID)
	return ok && cur == d.Opposite()
}

func (p *Protocol) begin(projectID string, d domain.VoteType) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.pending[projectID]; busy {
		return false
	}
	p.pending[projectID] = d
	return true
}

func (p *Protocol) end(projectID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, projectID)
}

// Cast votes d on projectID. Without a signed-in user it starts sign-in and
// returns ErrAuthRequired; the vote is not remembered. Each call carries a
// fresh Idempotency-Key.
func (p *Protocol) Cast(ctx context.Context, projectID string, d domain.VoteType) (*domain.VoteResult, error) {
	if !d.Valid() {
		return nil, ErrInvalidType
	}
	if p.session.Current() == nil {
		if _, err := p.session.BeginAuth(); err != nil {
			return nil, errors.Join(ErrAuthRequired, err)
		}
		return nil, ErrAuthRequired
	}
	if !p.begin(projectID, d) {
		return nil, ErrPending
	}
	defer p.end(projectID)

	ctx = gateway.WithIdempotencyKey(ctx, uuid.NewString())
	res, err := p.caster.CastVote(ctx, p.session.Token(), projectID, d)
	if err != nil {
		p.notify.Notify(LevelError, failureText(err))
		return nil, err
	}
	if p.feed != nil {
		if err := p.feed.ApplyVote(ctx, projectID, feed.UpdateFromResult(*res)); err != nil {
			return res, fmt.Errorf("vote: apply tally: %w", err)
		}
	}
	p.notify.Notify(LevelSuccess, Message(res.Outcome()))
	return res, nil
}

func failureText(err error) string {
	if ue, ok := gateway.AsUpstream(err); ok {
		if m := ue.Message(); m != "" {
			return m
		}
	}
	return FailureText
}
