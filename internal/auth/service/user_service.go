package service

//go:generate mockgen -destination=../mocks/mock_user_repository.go -package=mocks github.com/vidstream/identity-service/internal/auth/domain UserRepository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidstream/identity-service/internal/auth/domain"
	"github.com/vidstream/identity-service/internal/auth/dto"
	autherror "github.com/vidstream/identity-service/internal/errors"
	"github.com/vidstream/identity-service/internal/media"
)

// UserService owns the session lifecycle: login mints a token pair and
// persists the refresh half, refresh rotates it, logout revokes it. The
// stored refresh token is the single source of truth: a presented refresh
// token is usable exactly once.
type UserService struct {
	repo         domain.UserRepository
	tokenService TokenGenerator
	mediaStore   media.Store
	logger       *zap.Logger
	storeTimeout time.Duration
}

func NewUserService(repo domain.UserRepository, tokenService TokenGenerator, mediaStore media.Store, logger *zap.Logger, storeTimeout time.Duration) *UserService {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &UserService{
		repo:         repo,
		tokenService: tokenService,
		mediaStore:   mediaStore,
		logger:       logger,
		storeTimeout: storeTimeout,
	}
}

// boundCtx caps how long one operation may spend on store and upload round
// trips. A hung backend then surfaces as an error instead of a stuck request;
// fiber's request context carries no deadline of its own.
func (s *UserService) boundCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*dto.UserOutput, error) {
	fullName := strings.TrimSpace(input.FullName)
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	password := strings.TrimSpace(input.Password)

	if fullName == "" || username == "" || email == "" || password == "" {
		return nil, autherror.ErrAllFieldsRequired
	}

	if input.Avatar == nil {
		return nil, autherror.ErrAvatarRequired
	}

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	for _, identifier := range []string{username, email} {
		existing, err := s.repo.GetByUsernameOrEmail(ctx, identifier)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, autherror.ErrUserAlreadyExists
		}
	}

	avatarURL, err := s.mediaStore.Upload(ctx, media.StorageKey("avatars"), input.Avatar.ContentType, input.Avatar.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	var coverImageURL string
	if input.CoverImage != nil {
		coverImageURL, err = s.mediaStore.Upload(ctx, media.StorageKey("covers"), input.CoverImage.ContentType, input.CoverImage.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to upload cover image: %w", err)
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:            uuid.New().String(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
		PasswordHash:  string(hashedPassword),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", username))

	out := dto.NewUserOutput(user)

	return &out, nil
}

func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginOutput, error) {
	identifier := strings.ToLower(strings.TrimSpace(input.Username))
	if identifier == "" {
		identifier = strings.ToLower(strings.TrimSpace(input.Email))
	}
	if identifier == "" {
		return nil, autherror.ErrAllFieldsRequired
	}

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	user, err := s.repo.GetByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return nil, autherror.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.tokenService.Generate(user.ID)
	if err != nil {
		s.logger.Error("token generation failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil, autherror.ErrTokenGeneration
	}

	if err := s.repo.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))

	return &dto.LoginOutput{
		User:         dto.NewUserOutput(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh exchanges a valid refresh token for a fresh pair and rotates the
// stored value. The swap is conditional on the stored token still matching
// the presented one, so of two concurrent refreshes with the same token
// exactly one wins; the loser is rejected like any replayed token.
func (s *UserService) Refresh(ctx context.Context, incomingToken string) (*dto.TokenPair, error) {
	if incomingToken == "" {
		return nil, autherror.ErrInvalidRefreshToken
	}

	userID, err := s.tokenService.Verify(RefreshToken, incomingToken)
	if err != nil {
		s.logger.Debug("refresh token rejected", zap.Error(err))
		return nil, autherror.ErrInvalidRefreshToken
	}

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrInvalidRefreshToken
	}

	if user.CurrentRefreshToken != incomingToken {
		s.logger.Warn("refresh token reuse detected", zap.String("user_id", userID))
		return nil, autherror.ErrRefreshTokenReused
	}

	accessToken, newRefreshToken, err := s.tokenService.Generate(user.ID)
	if err != nil {
		s.logger.Error("token generation failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil, autherror.ErrTokenGeneration
	}

	rotated, err := s.repo.RotateRefreshToken(ctx, user.ID, incomingToken, newRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if !rotated {
		// a concurrent refresh swapped the token between our read and write
		s.logger.Warn("refresh token rotation lost race", zap.String("user_id", user.ID))
		return nil, autherror.ErrRefreshTokenReused
	}

	return &dto.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

func (s *UserService) Logout(ctx context.Context, userID string) error {
	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	if err := s.repo.SetRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	s.logger.Info("user logged out", zap.String("user_id", userID))

	return nil
}

// ChangePassword verifies the old password before replacing the hash. It
// deliberately leaves the stored refresh token alone: existing sessions
// survive a password change.
func (s *UserService) ChangePassword(ctx context.Context, userID string, input dto.ChangePasswordInput) error {
	oldPassword := strings.TrimSpace(input.OldPassword)
	newPassword := strings.TrimSpace(input.NewPassword)

	if oldPassword == "" || newPassword == "" {
		return autherror.ErrAllFieldsRequired
	}

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrUserNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return autherror.ErrInvalidCredentials
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePasswordHash(ctx, userID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("password changed", zap.String("user_id", userID))

	return nil
}

// CurrentUser resolves an access-token subject to its public projection. The
// auth middleware uses it to attach the caller to the request.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (*dto.UserOutput, error) {
	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	out := dto.NewUserOutput(user)

	return &out, nil
}

func (s *UserService) UpdateAccountDetails(ctx context.Context, userID string, input dto.UpdateAccountInput) (*dto.UserOutput, error) {
	fullName := strings.TrimSpace(input.FullName)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if fullName == "" && email == "" {
		return nil, autherror.ErrAllFieldsRequired
	}

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	user, err := s.repo.UpdateAccountDetails(ctx, userID, fullName, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	out := dto.NewUserOutput(user)

	return &out, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID string, file *dto.FileUpload) (*dto.UserOutput, error) {
	if file == nil {
		return nil, autherror.ErrAvatarRequired
	}

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	url, err := s.mediaStore.Upload(ctx, media.StorageKey("avatars"), file.ContentType, file.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	user, err := s.repo.UpdateAvatarURL(ctx, userID, url)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	out := dto.NewUserOutput(user)

	return &out, nil
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, file *dto.FileUpload) (*dto.UserOutput, error) {
	if file == nil {
		return nil, autherror.ErrCoverImageRequired
	}

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	url, err := s.mediaStore.Upload(ctx, media.StorageKey("covers"), file.ContentType, file.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload cover image: %w", err)
	}

	user, err := s.repo.UpdateCoverImageURL(ctx, userID, url)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	out := dto.NewUserOutput(user)

	return &out, nil
}

func (s *UserService) GetChannelProfile(ctx context.Context, username, viewerID string) (*dto.ChannelProfileOutput, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, autherror.ErrAllFieldsRequired
	}

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	profile, err := s.repo.GetChannelProfile(ctx, username, viewerID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, autherror.ErrChannelNotFound
	}

	out := dto.NewChannelProfileOutput(profile)

	return &out, nil
}

func (s *UserService) GetWatchHistory(ctx context.Context, userID string) ([]dto.WatchHistoryItem, error) {
	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	entries, err := s.repo.GetWatchHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.WatchHistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.NewWatchHistoryItem(e))
	}

	return items, nil
}
