package domain

import "time"

type User struct {
	ID                  string
	Username            string
	Email               string
	FullName            string
	AvatarURL           string
	CoverImageURL       string
	PasswordHash        string
	CurrentRefreshToken string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ChannelProfile is the aggregated public view of a user as a channel.
type ChannelProfile struct {
	ID                        string
	Username                  string
	FullName                  string
	Email                     string
	AvatarURL                 string
	CoverImageURL             string
	SubscribersCount          int
	ChannelsSubscribedToCount int
	IsSubscribed              bool
}

type WatchHistoryEntry struct {
	VideoID         string
	Title           string
	ThumbnailURL    string
	DurationSeconds int
	Views           int64
	WatchedAt       time.Time
	OwnerID         string
	OwnerUsername   string
	OwnerFullName   string
	OwnerAvatarURL  string
}
