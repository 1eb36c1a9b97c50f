package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/vaultsync/internal/common"
)

type validator interface {
	Validate() error
}

// decode reads a JSON body of at most limit bytes into dst and validates
// it. An oversized body is reported as errBodyTooLarge, any other failure
// as common.ErrorValidation.
func decode(w http.ResponseWriter, r *http.Request, dst validator, limit int64) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, tooLarge.Limit)
		}
		if errors.Is(err, io.EOF) {
			err = errEmptyBody
		}
		return fmt.Errorf("%w: malformed JSON: %v", common.ErrorValidation, err)
	}
	return dst.Validate()
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(ctx, "failed to encode response", "error", err)
	}
}

func (s *Server) writeDetail(ctx context.Context, w http.ResponseWriter, status int, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", common.BearerScheme)
	}
	s.writeJSON(ctx, w, status, errorResponse{Detail: detail})
}

// writeError maps a service error to a status code. Unexpected errors are
// logged and answered with a generic body.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		s.writeDetail(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errBodyTooLarge):
		s.writeDetail(ctx, w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		s.writeDetail(ctx, w, http.StatusConflict, "username or email already registered")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		s.writeDetail(ctx, w, http.StatusUnauthorized, "refresh token expired")
	case errors.Is(err, common.ErrTokenExpired):
		s.writeDetail(ctx, w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, common.ErrorInactiveUser):
		s.writeDetail(ctx, w, http.StatusUnauthorized, "inactive user")
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		s.writeDetail(ctx, w, http.StatusUnauthorized, "could not validate credentials")
	case errors.Is(err, common.ErrorNotFound):
		s.writeDetail(ctx, w, http.StatusNotFound, "not found")
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		s.writeDetail(ctx, w, http.StatusInternalServerError, "internal server error")
	}
}
