package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/menucockpit/server/internal/api/respond"
	"github.com/menucockpit/server/internal/model"
)

// writeDomainError maps tagged domain errors onto HTTP statuses:
// NotFound 404, Validation 422 (full rule list), Conflict 409,
// RateLimited 429 with Retry-After. Anything else is an opaque 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var nf model.NotFoundError
	var ve model.ValidationError
	var ce model.ConflictError
	var rl model.RateLimitedError

	switch {
	case errors.As(err, &nf):
		respond.WriteError(w, http.StatusNotFound, nf.Entity+"_not_found",
			map[string]string{"id": nf.ID})
	case errors.As(err, &ve):
		respond.WriteError(w, http.StatusUnprocessableEntity, "validation_failed",
			map[string]any{"entity": ve.Entity, "rules": ve.Rules})
	case errors.As(err, &ce):
		respond.WriteError(w, http.StatusConflict, ce.Code, ce.Details)
	case errors.As(err, &rl):
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfterSec))
		respond.WriteError(w, http.StatusTooManyRequests, "rate_limited",
			map[string]int{"retry_after": rl.RetryAfterSec})
	default:
		log.Error().Err(err).Msg("request failed")
		respond.WriteInternalError(w)
	}
}
