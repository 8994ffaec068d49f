// Vote HTTP handlers.
//
//   - POST /votes/{projectId}  (cast; transitional cookie preferred, Idempotency-Key honored)
//   - GET  /votes/me           (caller's vote history)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-curation-gateway/internal/domain"
	"github.com/tbourn/go-curation-gateway/internal/http/middleware"
	"github.com/tbourn/go-curation-gateway/internal/sysutil"
)

// CastVoteRequest is the JSON payload for casting a vote.
type CastVoteRequest struct {
	// VoteType is FOR or AGAINST.
	VoteType domain.VoteType `json:"voteType" example:"FOR"`
	// ProjectID is used when the path carries none.
	ProjectID string `json:"projectId,omitempty"`
}

// CastVote godoc
// @ID          castVote
// @Summary     Vote on a project
// @Description Casting the same direction twice removes the vote; the opposite direction updates it. The backend message says which.
// @Tags        Votes
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string                    false "Replay-safe key"
// @Param       projectId        path    string                    true  "Project ID"
// @Param       body             body    handlers.CastVoteRequest  true  "Vote direction"
//
// @Success     200  {object} domain.VoteResult
// @Failure     400  {object} handlers.ErrorResponse "Missing projectId or invalid vote type"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /votes/{projectId} [post]
func (h *Handlers) CastVote(c *gin.Context) {
	tok := middleware.VoteToken(c)
	if !requireToken(c, tok) {
		return
	}
	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	id := sysutil.FirstNonEmpty(c.Param("projectId"), req.ProjectID)
	res, err := h.votes.Cast(c.Request.Context(), tok, id, req.VoteType)
	if err != nil {
		respond(c, err, "Failed to cast vote")
		return
	}
	ok(c, http.StatusOK, res)
}

// MyVotes godoc
// @ID          myVotes
// @Summary     Current user's votes
// @Tags        Votes
// @Produce     json
// @Success     200  {object} domain.MyVotes
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /votes/me [get]
func (h *Handlers) MyVotes(c *gin.Context) {
	tok := middleware.SessionToken(c)
	if !requireToken(c, tok) {
		return
	}
	mv, err := h.votes.Mine(c.Request.Context(), tok)
	if err != nil {
		respond(c, err, "Failed to fetch votes")
		return
	}
	ok(c, http.StatusOK, mv)
}
