package errors

import (
	"errors"
)

var (
	ErrAllFieldsRequired   = errors.New("all fields are required")
	ErrAvatarRequired      = errors.New("avatar file is required")
	ErrCoverImageRequired  = errors.New("cover image file is required")
	ErrUserAlreadyExists   = errors.New("user with email or username already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrChannelNotFound     = errors.New("channel does not exist")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenReused  = errors.New("refresh token expired or already used")
	ErrTokenGeneration     = errors.New("problem while generating tokens")
)
