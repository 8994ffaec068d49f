// Account HTTP handlers.
//
//   - GET  /user, /auth/me  (current user)
//   - POST /wallet          (link an EVM wallet)
//   - GET  /auth/discord    (redirect to the backend OAuth start)
//   - POST /auth/logout     (clear session cookies)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-curation-gateway/internal/http/middleware"
)

// WalletRequest is the JSON payload for linking a wallet.
type WalletRequest struct {
	WalletAddress string `json:"wallet_address" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
}

// Me godoc
// @ID          me
// @Summary     Current user
// @Tags        Account
// @Produce     json
// @Success     200  {object} domain.User
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /user [get]
func (h *Handlers) Me(c *gin.Context) {
	tok := middleware.SessionToken(c)
	if !requireToken(c, tok) {
		return
	}
	u, err := h.account.Me(c.Request.Context(), tok)
	if err != nil {
		respond(c, err, "Failed to fetch user")
		return
	}
	ok(c, http.StatusOK, u)
}

// SubmitWallet godoc
// @ID          submitWallet
// @Summary     Link a wallet address
// @Tags        Account
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.WalletRequest  true  "Wallet"
// @Success     200  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Missing or invalid address"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /wallet [post]
func (h *Handlers) SubmitWallet(c *gin.Context) {
	tok := middleware.SessionToken(c)
	if !requireToken(c, tok) {
		return
	}
	var req WalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.account.SubmitWallet(c.Request.Context(), tok, req.WalletAddress)
	if err != nil {
		respond(c, err, "Failed to submit wallet address")
		return
	}
	ok(c, http.StatusOK, u)
}

// AuthDiscord godoc
// @ID          authDiscord
// @Summary     Start Discord sign-in
// @Tags        Account
// @Success     302  {string} string "Redirect to the backend OAuth flow"
// @Router      /auth/discord [get]
func (h *Handlers) AuthDiscord(c *gin.Context) {
	c.Redirect(http.StatusFound, h.account.AuthURL())
}

// Logout godoc
// @ID          logout
// @Summary     Sign out
// @Description Clears both session cookies. No upstream call.
// @Tags        Account
// @Produce     json
// @Success     200  {object} handlers.MessageResponse
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	for _, name := range []string{h.cookies.Session, h.cookies.Discord} {
		c.SetCookie(name, "", -1, "/", "", h.cookies.Secure, true)
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Logged out"})
}
