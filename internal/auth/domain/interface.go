package domain

import "context"

type UserRepository interface {
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	// SetRefreshToken unconditionally stores token ("" revokes) for the user.
	SetRefreshToken(ctx context.Context, userID, token string) error
	// RotateRefreshToken replaces the stored refresh token only when the
	// stored value still equals current. Returns false when another rotation
	// won the race or the token was revoked.
	RotateRefreshToken(ctx context.Context, userID, current, next string) (bool, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
	UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (*User, error)
	UpdateAvatarURL(ctx context.Context, userID, url string) (*User, error)
	UpdateCoverImageURL(ctx context.Context, userID, url string) (*User, error)
	GetChannelProfile(ctx context.Context, username, viewerID string) (*ChannelProfile, error)
	GetWatchHistory(ctx context.Context, userID string) ([]WatchHistoryEntry, error)
}
