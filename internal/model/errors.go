package model

import "errors"

var (
	ErrEmptyMessage  = errors.New("message requires text, image, or video")
	ErrTextTooLong   = errors.New("message text exceeds maximum length")
	ErrInvalidUserID = errors.New("invalid user id")
	ErrUserNotFound  = errors.New("user not found")
)
