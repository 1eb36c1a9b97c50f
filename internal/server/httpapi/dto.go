package httpapi

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/vaultsync/internal/common"
	"github.com/dmitrijs2005/vaultsync/internal/reconcile"
	"github.com/dmitrijs2005/vaultsync/internal/server/models"
	"github.com/dmitrijs2005/vaultsync/internal/server/services"
	"github.com/dmitrijs2005/vaultsync/internal/timex"
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, fmt.Sprintf(format, args...))
}

// Auth.

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *registerRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return invalidf("username is required")
	}
	if r.Password == "" {
		return invalidf("password is required")
	}
	addr, err := mail.ParseAddress(r.Email)
	if err != nil || addr.Address != r.Email {
		return invalidf("email is not a valid address")
	}
	return nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *loginRequest) Validate() error {
	if r.Username == "" || r.Password == "" {
		return invalidf("username and password are required")
	}
	return nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *refreshRequest) Validate() error {
	if r.RefreshToken == "" {
		return invalidf("refresh_token is required")
	}
	return nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type userResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	CreatedAt timex.Time `json:"created_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.UserName, Email: u.Email, CreatedAt: timex.NewTime(u.CreatedAt)}
}

// Sync.

type noteMetadata struct {
	Path        string     `json:"path"`
	ContentHash string     `json:"content_hash"`
	ModifiedAt  timex.Time `json:"modified_at"`
	IsDeleted   bool       `json:"is_deleted"`
}

func (m noteMetadata) toNote() reconcile.Note {
	return reconcile.Note{Path: m.Path, ContentHash: m.ContentHash, ModifiedAt: m.ModifiedAt.Time, IsDeleted: m.IsDeleted}
}

func newNoteMetadata(n reconcile.Note) noteMetadata {
	return noteMetadata{Path: n.Path, ContentHash: n.ContentHash, ModifiedAt: timex.NewTime(n.ModifiedAt), IsDeleted: n.IsDeleted}
}

type attachmentMetadata struct {
	Path        string     `json:"path"`
	ContentHash string     `json:"content_hash"`
	Size        int64      `json:"size"`
	MimeType    *string    `json:"mime_type"`
	ModifiedAt  timex.Time `json:"modified_at"`
	IsDeleted   bool       `json:"is_deleted"`
}

func (m attachmentMetadata) toAttachment() reconcile.Attachment {
	a := reconcile.Attachment{
		Path: m.Path, ContentHash: m.ContentHash, Size: m.Size,
		ModifiedAt: m.ModifiedAt.Time, IsDeleted: m.IsDeleted,
	}
	if m.MimeType != nil {
		a.MimeType = *m.MimeType
	}
	return a
}

func newAttachmentMetadata(a reconcile.Attachment) attachmentMetadata {
	m := attachmentMetadata{
		Path: a.Path, ContentHash: a.ContentHash, Size: a.Size,
		ModifiedAt: timex.NewTime(a.ModifiedAt), IsDeleted: a.IsDeleted,
	}
	if a.MimeType != "" {
		mime := a.MimeType
		m.MimeType = &mime
	}
	return m
}

type syncRequest struct {
	LastSync    *timex.Time          `json:"last_sync"`
	Notes       []noteMetadata       `json:"notes"`
	Attachments []attachmentMetadata `json:"attachments"`
}

func (r *syncRequest) Validate() error {
	for i, n := range r.Notes {
		if n.ModifiedAt.IsZero() {
			return invalidf("notes[%d].modified_at is required", i)
		}
	}
	for i, a := range r.Attachments {
		if a.ModifiedAt.IsZero() {
			return invalidf("attachments[%d].modified_at is required", i)
		}
	}
	return nil
}

func (r *syncRequest) toService() services.SyncRequest {
	out := services.SyncRequest{
		Notes:       make([]reconcile.Note, 0, len(r.Notes)),
		Attachments: make([]reconcile.Attachment, 0, len(r.Attachments)),
	}
	if r.LastSync != nil && !r.LastSync.IsZero() {
		t := r.LastSync.Time
		out.LastSync = &t
	}
	for _, n := range r.Notes {
		out.Notes = append(out.Notes, n.toNote())
	}
	for _, a := range r.Attachments {
		out.Attachments = append(out.Attachments, a.toAttachment())
	}
	return out
}

type syncResponse struct {
	ServerTime        timex.Time           `json:"server_time"`
	NotesToPull       []noteMetadata       `json:"notes_to_pull"`
	NotesToPush       []string             `json:"notes_to_push"`
	Conflicts         []noteMetadata       `json:"conflicts"`
	AttachmentsToPull []attachmentMetadata `json:"attachments_to_pull"`
	AttachmentsToPush []string             `json:"attachments_to_push"`
}

func newSyncResponse(res *services.SyncResult) syncResponse {
	out := syncResponse{
		ServerTime:        timex.NewTime(res.ServerTime),
		NotesToPull:       make([]noteMetadata, 0, len(res.Notes.ToPull)),
		NotesToPush:       res.Notes.ToPush,
		Conflicts:         make([]noteMetadata, 0, len(res.Notes.Conflicts)),
		AttachmentsToPull: make([]attachmentMetadata, 0, len(res.Attachments.ToPull)),
		AttachmentsToPush: res.Attachments.ToPush,
	}
	for _, n := range res.Notes.ToPull {
		out.NotesToPull = append(out.NotesToPull, newNoteMetadata(n))
	}
	for _, n := range res.Notes.Conflicts {
		out.Conflicts = append(out.Conflicts, newNoteMetadata(n))
	}
	for _, a := range res.Attachments.ToPull {
		out.AttachmentsToPull = append(out.AttachmentsToPull, newAttachmentMetadata(a))
	}
	return out
}

type noteContent struct {
	Path        string     `json:"path"`
	Content     string     `json:"content"`
	ContentHash string     `json:"content_hash"`
	ModifiedAt  timex.Time `json:"modified_at"`
	IsDeleted   bool       `json:"is_deleted"`
}

type pushNotesRequest struct {
	Notes []noteContent `json:"notes"`
}

func (r *pushNotesRequest) Validate() error {
	if r.Notes == nil {
		return invalidf("notes is required")
	}
	for i, n := range r.Notes {
		if n.ModifiedAt.IsZero() {
			return invalidf("notes[%d].modified_at is required", i)
		}
	}
	return nil
}

func (r *pushNotesRequest) toService() []services.NoteContent {
	out := make([]services.NoteContent, 0, len(r.Notes))
	for _, n := range r.Notes {
		out = append(out, services.NoteContent{
			Path: n.Path, Content: n.Content, ContentHash: n.ContentHash,
			ModifiedAt: n.ModifiedAt.Time, IsDeleted: n.IsDeleted,
		})
	}
	return out
}

type pushResponse struct {
	Success []string `json:"success"`
	Failed  []string `json:"failed"`
}

type pullRequest struct {
	Paths []string `json:"paths"`
}

func (r *pullRequest) Validate() error {
	if r.Paths == nil {
		return invalidf("paths is required")
	}
	return nil
}

type pullNotesResponse struct {
	Notes []noteContent `json:"notes"`
}

func newPullNotesResponse(notes []services.NoteContent) pullNotesResponse {
	out := pullNotesResponse{Notes: make([]noteContent, 0, len(notes))}
	for _, n := range notes {
		out.Notes = append(out.Notes, noteContent{
			Path: n.Path, Content: n.Content, ContentHash: n.ContentHash,
			ModifiedAt: timex.NewTime(n.ModifiedAt), IsDeleted: n.IsDeleted,
		})
	}
	return out
}

type attachmentContent struct {
	Path          string     `json:"path"`
	ContentBase64 string     `json:"content_base64"`
	ContentHash   string     `json:"content_hash"`
	Size          int64      `json:"size"`
	MimeType      *string    `json:"mime_type"`
	ModifiedAt    timex.Time `json:"modified_at"`
	IsDeleted     bool       `json:"is_deleted"`
}

type pushAttachmentsRequest struct {
	Attachments []attachmentContent `json:"attachments"`
}

func (r *pushAttachmentsRequest) Validate() error {
	if r.Attachments == nil {
		return invalidf("attachments is required")
	}
	for i, a := range r.Attachments {
		if a.ModifiedAt.IsZero() {
			return invalidf("attachments[%d].modified_at is required", i)
		}
		if a.Size < 0 {
			return invalidf("attachments[%d].size must not be negative", i)
		}
	}
	return nil
}

func (r *pushAttachmentsRequest) toService() []services.AttachmentContent {
	out := make([]services.AttachmentContent, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		out = append(out, services.AttachmentContent{
			Path: a.Path, ContentBase64: a.ContentBase64, ContentHash: a.ContentHash,
			Size: a.Size, MimeType: a.MimeType, ModifiedAt: a.ModifiedAt.Time, IsDeleted: a.IsDeleted,
		})
	}
	return out
}

type pullAttachmentsResponse struct {
	Attachments []attachmentContent `json:"attachments"`
}

func newPullAttachmentsResponse(items []services.AttachmentContent) pullAttachmentsResponse {
	out := pullAttachmentsResponse{Attachments: make([]attachmentContent, 0, len(items))}
	for _, a := range items {
		out.Attachments = append(out.Attachments, attachmentContent{
			Path: a.Path, ContentBase64: a.ContentBase64, ContentHash: a.ContentHash,
			Size: a.Size, MimeType: a.MimeType, ModifiedAt: timex.NewTime(a.ModifiedAt), IsDeleted: a.IsDeleted,
		})
	}
	return out
}

// Compare.

type clientNote struct {
	Path        string     `json:"path"`
	ContentHash string     `json:"content_hash"`
	ModifiedAt  timex.Time `json:"modified_at"`
}

type compareRequest struct {
	Notes []clientNote `json:"notes"`
}

func (r *compareRequest) Validate() error {
	if r.Notes == nil {
		return invalidf("notes is required")
	}
	for i, n := range r.Notes {
		if n.ModifiedAt.IsZero() {
			return invalidf("notes[%d].modified_at is required", i)
		}
	}
	return nil
}

func (r *compareRequest) toNotes() []reconcile.Note {
	out := make([]reconcile.Note, 0, len(r.Notes))
	for _, n := range r.Notes {
		out = append(out, reconcile.Note{Path: n.Path, ContentHash: n.ContentHash, ModifiedAt: n.ModifiedAt.Time})
	}
	return out
}

type compareSummary struct {
	TotalClient     int `json:"total_client"`
	TotalServer     int `json:"total_server"`
	ToPush          int `json:"to_push"`
	ToPull          int `json:"to_pull"`
	Conflicts       int `json:"conflicts"`
	Identical       int `json:"identical"`
	DeletedOnServer int `json:"deleted_on_server"`
}

type noteToPush struct {
	Path           string     `json:"path"`
	Reason         string     `json:"reason"`
	ClientModified timex.Time `json:"client_modified"`
}

type noteToPull struct {
	Path           string      `json:"path"`
	Reason         string      `json:"reason"`
	ServerModified timex.Time  `json:"server_modified"`
	ClientModified *timex.Time `json:"client_modified"`
}

type noteConflict struct {
	Path           string     `json:"path"`
	Reason         string     `json:"reason"`
	ClientHash     string     `json:"client_hash"`
	ServerHash     string     `json:"server_hash"`
	ClientModified timex.Time `json:"client_modified"`
	ServerModified timex.Time `json:"server_modified"`
}

type noteDeletedOnServer struct {
	Path      string     `json:"path"`
	DeletedAt timex.Time `json:"deleted_at"`
}

type compareResponse struct {
	ServerTime      timex.Time            `json:"server_time"`
	Summary         compareSummary        `json:"summary"`
	ToPush          []noteToPush          `json:"to_push"`
	ToPull          []noteToPull          `json:"to_pull"`
	Conflicts       []noteConflict        `json:"conflicts"`
	DeletedOnServer []noteDeletedOnServer `json:"deleted_on_server"`
}

func newCompareResponse(res *services.CompareResult) compareResponse {
	s := res.Summary
	out := compareResponse{
		ServerTime: timex.NewTime(res.ServerTime),
		Summary: compareSummary{
			TotalClient: s.TotalClient, TotalServer: s.TotalServer, ToPush: s.ToPush, ToPull: s.ToPull,
			Conflicts: s.Conflicts, Identical: s.Identical, DeletedOnServer: s.DeletedOnServer,
		},
		ToPush:          make([]noteToPush, 0, len(res.ToPush)),
		ToPull:          make([]noteToPull, 0, len(res.ToPull)),
		Conflicts:       make([]noteConflict, 0, len(res.Conflicts)),
		DeletedOnServer: make([]noteDeletedOnServer, 0, len(res.DeletedOnServer)),
	}
	for _, p := range res.ToPush {
		out.ToPush = append(out.ToPush, noteToPush{Path: p.Path, Reason: string(p.Reason), ClientModified: timex.NewTime(p.ClientModified)})
	}
	for _, p := range res.ToPull {
		item := noteToPull{Path: p.Path, Reason: string(p.Reason), ServerModified: timex.NewTime(p.ServerModified)}
		if p.ClientModified != nil {
			cm := timex.NewTime(*p.ClientModified)
			item.ClientModified = &cm
		}
		out.ToPull = append(out.ToPull, item)
	}
	for _, c := range res.Conflicts {
		out.Conflicts = append(out.Conflicts, noteConflict{
			Path: c.Path, Reason: string(c.Reason), ClientHash: c.ClientHash, ServerHash: c.ServerHash,
			ClientModified: timex.NewTime(c.ClientModified), ServerModified: timex.NewTime(c.ServerModified),
		})
	}
	for _, d := range res.DeletedOnServer {
		out.DeletedOnServer = append(out.DeletedOnServer, noteDeletedOnServer{Path: d.Path, DeletedAt: timex.NewTime(d.DeletedAt)})
	}
	return out
}

// Listing.

type referencedAttachment struct {
	Path      string `json:"path"`
	Exists    bool   `json:"exists"`
	SizeBytes *int64 `json:"size_bytes"`
}

type syncedNoteInfo struct {
	Path                  string                 `json:"path"`
	ContentHash           string                 `json:"content_hash"`
	ModifiedAt            timex.Time             `json:"modified_at"`
	SyncedAt              timex.Time             `json:"synced_at"`
	IsDeleted             bool                   `json:"is_deleted"`
	SizeBytes             int64                  `json:"size_bytes"`
	ReferencedAttachments []referencedAttachment `json:"referenced_attachments"`
}

type syncedAttachmentInfo struct {
	Path        string     `json:"path"`
	ContentHash string     `json:"content_hash"`
	ModifiedAt  timex.Time `json:"modified_at"`
	SyncedAt    timex.Time `json:"synced_at"`
	IsDeleted   bool       `json:"is_deleted"`
	SizeBytes   int64      `json:"size_bytes"`
	MimeType    *string    `json:"mime_type"`
}

type syncedNotesResponse struct {
	TotalCount  int                    `json:"total_count"`
	Page        int                    `json:"page"`
	PageSize    int                    `json:"page_size"`
	TotalPages  int                    `json:"total_pages"`
	Notes       []syncedNoteInfo       `json:"notes"`
	Attachments []syncedAttachmentInfo `json:"attachments"`
}

func newSyncedNotesResponse(l *services.Listing) syncedNotesResponse {
	out := syncedNotesResponse{
		TotalCount:  l.TotalCount,
		Page:        l.Page,
		PageSize:    l.PageSize,
		TotalPages:  l.TotalPages,
		Notes:       make([]syncedNoteInfo, 0, len(l.Notes)),
		Attachments: make([]syncedAttachmentInfo, 0, len(l.Attachments)),
	}
	for _, n := range l.Notes {
		info := syncedNoteInfo{
			Path: n.Path, ContentHash: n.ContentHash,
			ModifiedAt: timex.NewTime(n.ModifiedAt), SyncedAt: timex.NewTime(n.SyncedAt),
			IsDeleted: n.IsDeleted, SizeBytes: n.SizeBytes,
			ReferencedAttachments: make([]referencedAttachment, 0, len(n.ReferencedAttachments)),
		}
		for _, r := range n.ReferencedAttachments {
			info.ReferencedAttachments = append(info.ReferencedAttachments, referencedAttachment{Path: r.Path, Exists: r.Exists, SizeBytes: r.SizeBytes})
		}
		out.Notes = append(out.Notes, info)
	}
	for _, a := range l.Attachments {
		out.Attachments = append(out.Attachments, syncedAttachmentInfo{
			Path: a.Path, ContentHash: a.ContentHash,
			ModifiedAt: timex.NewTime(a.ModifiedAt), SyncedAt: timex.NewTime(a.SyncedAt),
			IsDeleted: a.IsDeleted, SizeBytes: a.Size, MimeType: a.MimeType,
		})
	}
	return out
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

var (
	errEmptyBody    = errors.New("empty request body")
	errBodyTooLarge = errors.New("request body too large")
)
