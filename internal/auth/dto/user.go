package dto

import (
	"time"

	"github.com/vidstream/identity-service/internal/auth/domain"
)

// UserOutput is the public projection of a user. The password hash and the
// stored refresh token never appear here.
type UserOutput struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func NewUserOutput(u *domain.User) UserOutput {
	return UserOutput{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.AvatarURL,
		CoverImage: u.CoverImageURL,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

type ChannelProfileOutput struct {
	ID                        string `json:"id"`
	Username                  string `json:"username"`
	FullName                  string `json:"fullName"`
	Email                     string `json:"email"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int    `json:"subscribersCount"`
	ChannelsSubscribedToCount int    `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

func NewChannelProfileOutput(p *domain.ChannelProfile) ChannelProfileOutput {
	return ChannelProfileOutput{
		ID:                        p.ID,
		Username:                  p.Username,
		FullName:                  p.FullName,
		Email:                     p.Email,
		Avatar:                    p.AvatarURL,
		CoverImage:                p.CoverImageURL,
		SubscribersCount:          p.SubscribersCount,
		ChannelsSubscribedToCount: p.ChannelsSubscribedToCount,
		IsSubscribed:              p.IsSubscribed,
	}
}

type WatchHistoryOwner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

type WatchHistoryItem struct {
	VideoID   string            `json:"videoId"`
	Title     string            `json:"title"`
	Thumbnail string            `json:"thumbnail"`
	Duration  int               `json:"duration"`
	Views     int64             `json:"views"`
	WatchedAt time.Time         `json:"watchedAt"`
	Owner     WatchHistoryOwner `json:"owner"`
}

func NewWatchHistoryItem(e domain.WatchHistoryEntry) WatchHistoryItem {
	return WatchHistoryItem{
		VideoID:   e.VideoID,
		Title:     e.Title,
		Thumbnail: e.ThumbnailURL,
		Duration:  e.DurationSeconds,
		Views:     e.Views,
		WatchedAt: e.WatchedAt,
		Owner: WatchHistoryOwner{
			ID:       e.OwnerID,
			Username: e.OwnerUsername,
			FullName: e.OwnerFullName,
			Avatar:   e.OwnerAvatarURL,
		},
	}
}
