package services

import "errors"

// ErrUnauthorized is returned when an operation requires an authenticated session.
var ErrUnauthorized = errors.New("unauthorized")

// User-facing messages. They never carry internal detail.
const (
	MsgIncorrectCredentials = "Incorrect username or password."
	MsgEmailTaken           = "E-mail already exists."
	MsgUsernameTaken        = "Username already taken."
	MsgCouldNotCreate       = "Could not create account."
	MsgCouldNotPost         = "Could not post. Try again."
)
