package storage

import "errors"

var (
	ErrUserExists           = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrNoteNotFound         = errors.New("note not found")
	ErrAssetNotFound        = errors.New("asset not found")
	ErrCollaborationExists  = errors.New("collaboration already exists")
	ErrCollaborationMissing = errors.New("collaboration not found")
)
