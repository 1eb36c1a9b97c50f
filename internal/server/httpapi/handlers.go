package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/vaultsync/internal/common"
	"github.com/dmitrijs2005/vaultsync/internal/server/services"
	"github.com/dmitrijs2005/vaultsync/internal/timex"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "healthy", Service: common.ServiceName})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := decode(w, r, &req, s.bodyLimit); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	user, err := s.svc.Users.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	s.writeJSON(ctx, w, http.StatusCreated, newUserResponse(user))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decode(w, r, &req, s.bodyLimit); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	pair, err := s.svc.Users.Login(ctx, req.Username, req.Password)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, TokenType: "bearer"})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decode(w, r, &req, s.bodyLimit); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	pair, err := s.svc.Users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, TokenType: "bearer"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	user, err := s.svc.Users.GetUser(ctx, userID)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, newUserResponse(user))
}

func (s *Server) deleteMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	if err := s.svc.Users.DeleteAccount(ctx, userID); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	var req syncRequest
	if err := decode(w, r, &req, s.bodyLimit); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	res, err := s.svc.Sync.Sync(ctx, userID, req.toService())
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, newSyncResponse(res))
}

func (s *Server) pushNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	var req pushNotesRequest
	if err := decode(w, r, &req, s.bodyLimit); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	success, failed := services.Partition(s.svc.Notes.Push(ctx, userID, req.toService()))
	s.writeJSON(ctx, w, http.StatusOK, pushResponse{Success: success, Failed: failed})
}

func (s *Server) pullNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	var req pullRequest
	if err := decode(w, r, &req, s.bodyLimit); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	notes, err := s.svc.Notes.Pull(ctx, userID, req.Paths)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, newPullNotesResponse(notes))
}

func (s *Server) pushAttachments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	var req pushAttachmentsRequest
	if err := decode(w, r, &req, s.attachmentBodyLimit); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	success, failed := services.Partition(s.svc.Attachments.Push(ctx, userID, req.toService()))
	s.writeJSON(ctx, w, http.StatusOK, pushResponse{Success: success, Failed: failed})
}

func (s *Server) pullAttachments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	var req pullRequest
	if err := decode(w, r, &req, s.bodyLimit); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	items, err := s.svc.Attachments.Pull(ctx, userID, req.Paths)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, newPullAttachmentsResponse(items))
}

func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	var req compareRequest
	if err := decode(w, r, &req, s.bodyLimit); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	res, err := s.svc.Report.Compare(ctx, userID, req.toNotes())
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, newCompareResponse(res))
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := UserIDFromContext(ctx)

	q, err := parseListQuery(r.URL.Query())
	if err == nil {
		err = q.Validate()
	}
	if err != nil {
		s.writeDetail(ctx, w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	listing, err := s.svc.Report.ListSynced(ctx, userID, q)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, newSyncedNotesResponse(listing))
}

// parseListQuery reads the listing parameters, applying defaults for the
// absent ones.
func parseListQuery(v url.Values) (services.ListQuery, error) {
	q := services.ListQuery{
		Page:       1,
		PageSize:   services.DefaultPageSize,
		PathFilter: v.Get("path_filter"),
	}

	var err error
	if raw := v.Get("page"); raw != "" {
		if q.Page, err = strconv.Atoi(raw); err != nil {
			return q, invalidf("page must be an integer")
		}
	}
	if raw := v.Get("page_size"); raw != "" {
		if q.PageSize, err = strconv.Atoi(raw); err != nil {
			return q, invalidf("page_size must be an integer")
		}
	}
	if raw := v.Get("include_deleted"); raw != "" {
		if q.IncludeDeleted, err = strconv.ParseBool(raw); err != nil {
			return q, invalidf("include_deleted must be a boolean")
		}
	}
	if q.ModifiedAfter, err = parseTimeParam(v, "modified_after"); err != nil {
		return q, err
	}
	if q.ModifiedBefore, err = parseTimeParam(v, "modified_before"); err != nil {
		return q, err
	}
	return q, nil
}

func parseTimeParam(v url.Values, name string) (*time.Time, error) {
	raw := v.Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := timex.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrorValidation, name, err)
	}
	return &t, nil
}
