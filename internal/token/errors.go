package token

import "errors"

var (
	ErrInvalidAddress      = errors.New("token: invalid address")
	ErrInvalidAmount       = errors.New("token: invalid amount")
	ErrTokenPaused         = errors.New("token: paused")
	ErrAlreadyPaused       = errors.New("token: already paused")
	ErrNotPaused           = errors.New("token: not paused")
	ErrInsufficientBalance = errors.New("token: insufficient balance")
)
