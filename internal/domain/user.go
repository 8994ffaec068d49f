package domain

import "time"

// User is the authenticated account as reported by the backend.
type User struct {
	ID              string    `json:"id"`
	DiscordID       string    `json:"discord_id"`
	Username        string    `json:"username"`
	Avatar          *string   `json:"avatar"`
	WalletAddress   *string   `json:"wallet_address,omitempty"`
	IsAdmin         bool      `json:"is_admin"`
	CanVote         bool      `json:"can_vote"`
	HasMonadRole    bool      `json:"has_monad_role"`
	TwitterID       *string   `json:"twitter_id,omitempty"`
	TwitterUsername *string   `json:"twitter_username,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// UploadResult carries the stored media URLs. BannerURL is nil when no banner
// was uploaded.
type UploadResult struct {
	LogoURL   string  `json:"logoUrl"`
	BannerURL *string `json:"bannerUrl"`
}
