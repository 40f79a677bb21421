package reading

import (
	"context"

	"github.com/rs/zerolog/log"

	"nihongo.exe.dev/dict"
)

// Validator gives best-effort confirmation that a word is real.
type Validator struct {
	exister dict.Exister
}

// NewValidator wraps an Exister.
func NewValidator(e dict.Exister) *Validator {
	return &Validator{exister: e}
}

// Exists reports whether the dictionary knows word. Errors and empty
// results both yield false.
func (v *Validator) Exists(ctx context.Context, word string) bool {
	if v == nil || v.exister == nil {
		return false
	}
	ok, err := v.exister.Exists(ctx, word)
	if err != nil {
		log.Debug().Err(err).Str("word", word).Msg("word validation failed")
		return false
	}
	return ok
}
