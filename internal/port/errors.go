package port

import (
	"errors"

	"medialib/internal/domain"
)

// Sentinel errors used across ports.
var (
	ErrNotFound           = errors.New("record not found")
	ErrConflict           = errors.New("record already exists")
	ErrValidation         = domain.ErrInvalidRecord
	ErrSearchUnavailable  = errors.New("search unavailable")
	ErrRestoreInProgress  = errors.New("a restore or reindex is already running")
	ErrGenerationDisabled = errors.New("text generation is not configured")
	ErrContentBlocked     = errors.New("generation blocked by content policy")
)
