package progress

import "errors"

var (
	ErrInvalidSlot       = errors.New("save slot must be 1, 2 or 3")
	ErrInvalidLevel      = errors.New("level must be between 1 and 8")
	ErrInvalidDifficulty = errors.New("unknown difficulty")
	ErrInvalidTier       = errors.New("fast tier must be between 0 and 11")
	ErrUnknownCharacter  = errors.New("unknown character")
)
