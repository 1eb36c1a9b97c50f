package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultsync/internal/blob"
	"github.com/dmitrijs2005/vaultsync/internal/dbx"
	"github.com/dmitrijs2005/vaultsync/internal/logging"
	"github.com/dmitrijs2005/vaultsync/internal/server/config"
	"github.com/dmitrijs2005/vaultsync/internal/server/models"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/notes"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/repotest"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 11, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	blobs  *blob.MemoryStore
	cfg    *config.Config
	userID string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := repotest.OpenSQLite(t)
	rm, err := repomanager.NewSQLRepositoryManager(dbx.SQLite)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"

	return &testEnv{
		db:     db,
		rm:     rm,
		blobs:  blob.NewMemoryStore(),
		cfg:    cfg,
		userID: repotest.CreateUser(t, db, "alice"),
	}
}

func (e *testEnv) notes() *NoteService {
	return NewNoteService(e.db, e.rm, blob.Namespace(e.blobs, blob.NotesPrefix), e.cfg, logging.Nop())
}

func (e *testEnv) attachments() *AttachmentService {
	return NewAttachmentService(e.db, e.rm, blob.Namespace(e.blobs, blob.AttachmentsPrefix), e.cfg, logging.Nop())
}

func (e *testEnv) sync() *SyncService {
	return NewSyncService(e.db, e.rm, e.cfg, logging.Nop())
}

func (e *testEnv) report() *ReportService {
	return NewReportService(e.db, e.rm, blob.Namespace(e.blobs, blob.NotesPrefix), e.cfg, logging.Nop())
}

func (e *testEnv) users() *UserService {
	return NewUserService(e.db, e.rm, e.blobs, e.cfg, logging.Nop())
}

func pushNotes(t *testing.T, e *testEnv, items ...NoteContent) (success, failed []string) {
	t.Helper()
	return Partition(e.notes().Push(context.Background(), e.userID, items))
}

var errInjected = errors.New("injected failure")

// failingNotesManager hands out notes repositories whose Upsert fails.
type failingNotesManager struct {
	repomanager.RepositoryManager
}

func (m failingNotesManager) Notes(db dbx.DBTX) notes.Repository {
	return failingNotesRepo{m.RepositoryManager.Notes(db)}
}

type failingNotesRepo struct {
	notes.Repository
}

func (failingNotesRepo) Upsert(context.Context, *models.NoteRecord) error {
	return errInjected
}

// failingSaveStore is a blob store whose Save and Delete always fail.
type failingSaveStore struct {
	blob.Store
}

func (failingSaveStore) Save(context.Context, string, string, []byte) (string, error) {
	return "", errInjected
}

func (failingSaveStore) Delete(context.Context, string, string) (bool, error) {
	return false, errInjected
}
