// Twitter HTTP handlers.
//
//   - POST /twitter/post    (tweet as the linked account)
//   - GET  /twitter/intent  (redirect to the web intent)
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-curation-gateway/internal/http/middleware"
	"github.com/tbourn/go-curation-gateway/internal/services"
)

// TweetRequest is the JSON payload for posting a tweet.
type TweetRequest struct {
	Text string `json:"text" example:"Just voted on a project"`
}

// TweetResponse wraps the Twitter API response.
type TweetResponse struct {
	Success bool            `json:"success" example:"true"`
	Tweet   json.RawMessage `json:"tweet" swaggertype:"object"`
}

// PostTweet godoc
// @ID          postTweet
// @Summary     Post a tweet
// @Description Fetches the linked account's token from the backend, then posts. Upstream details are logged, never returned.
// @Tags        Twitter
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.TweetRequest  true  "Tweet"
// @Success     200  {object} handlers.TweetResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid tweet content"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Token or post failure"
// @Router      /twitter/post [post]
func (h *Handlers) PostTweet(c *gin.Context) {
	tok := middleware.SessionToken(c)
	if !requireToken(c, tok) {
		return
	}
	var req TweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, services.ErrInvalidTweet, "")
		return
	}
	tweet, err := h.twitter.Post(c.Request.Context(), tok, req.Text)
	if err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Err(err).Msg("tweet failed")
		respond(c, err, "Internal server error")
		return
	}
	ok(c, http.StatusOK, TweetResponse{Success: true, Tweet: tweet})
}

// TweetIntent godoc
// @ID          tweetIntent
// @Summary     Share via the Twitter web intent
// @Tags        Twitter
// @Param       text  query  string  false "Prefilled text"
// @Success     302  {string} string "Redirect to x.com/intent/tweet"
// @Router      /twitter/intent [get]
func (h *Handlers) TweetIntent(c *gin.Context) {
	c.Redirect(http.StatusFound, h.twitter.Intent(c.Query("text")))
}
