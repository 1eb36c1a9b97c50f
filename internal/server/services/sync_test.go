package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultsync/internal/blob"
	"github.com/dmitrijs2005/vaultsync/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSync_NewDevicePullsEverything(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	pushNotes(t, e,
		NoteContent{Path: "a.md", Content: "1", ModifiedAt: t0},
		NoteContent{Path: "b.md", Content: "2", ModifiedAt: t0},
	)

	svc := e.sync()
	fixed := t0.Add(time.Hour)
	svc.now = func() time.Time { return fixed }

	res, err := svc.Sync(ctx, e.userID, SyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, fixed, res.ServerTime)
	assert.Empty(t, res.Notes.ToPush)
	require.Len(t, res.Notes.ToPull, 2)
	assert.Equal(t, "a.md", res.Notes.ToPull[0].Path)
	assert.Equal(t, "b.md", res.Notes.ToPull[1].Path)
}

func TestSync_RoundTripIsQuiet(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	modified := t0.Add(123456789 * time.Nanosecond)
	pushNotes(t, e, NoteContent{Path: "x.md", Content: "H", ModifiedAt: modified})

	res, err := e.sync().Sync(ctx, e.userID, SyncRequest{
		LastSync: &t0,
		Notes: []reconcile.Note{{
			Path: "x.md", ContentHash: blob.Digest([]byte("H")), ModifiedAt: modified,
		}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Notes.ToPush)
	assert.Empty(t, res.Notes.ToPull)
	assert.Empty(t, res.Notes.Conflicts)
}

func TestSync_DeletionPropagatesAcrossDevices(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	pushNotes(t, e, NoteContent{Path: "note.md", Content: "v1", ModifiedAt: t0})
	hash := blob.Digest([]byte("v1"))

	// device A deletes
	pushNotes(t, e, NoteContent{Path: "note.md", ModifiedAt: t0.Add(time.Hour), IsDeleted: true})

	// device B still holds the old copy and synced after the deletion
	after := t0.Add(2 * time.Hour)
	res, err := e.sync().Sync(ctx, e.userID, SyncRequest{
		LastSync: &after,
		Notes:    []reconcile.Note{{Path: "note.md", ContentHash: hash, ModifiedAt: t0}},
	})
	require.NoError(t, err)
	require.Len(t, res.Notes.ToPull, 1)
	assert.Equal(t, "note.md", res.Notes.ToPull[0].Path)
	assert.True(t, res.Notes.ToPull[0].IsDeleted)
	assert.Empty(t, res.Notes.ToPush)
}

func TestSync_Attachments(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	e.attachments().Push(ctx, e.userID, []AttachmentContent{
		{Path: "same.png", ContentBase64: b64("S"), Size: 1, ModifiedAt: t0},
		{Path: "diff.png", ContentBase64: b64("server"), Size: 6, ModifiedAt: t0},
		{Path: "server-only.png", ContentBase64: b64("o"), Size: 1, ModifiedAt: t0},
		{Path: "dead.png", ContentBase64: b64("d"), Size: 1, ModifiedAt: t0},
	})
	e.attachments().Push(ctx, e.userID, []AttachmentContent{{Path: "dead.png", ModifiedAt: t0, IsDeleted: true}})

	res, err := e.sync().Sync(ctx, e.userID, SyncRequest{
		Attachments: []reconcile.Attachment{
			{Path: "same.png", ContentHash: blob.Digest([]byte("S"))},
			{Path: "diff.png", ContentHash: blob.Digest([]byte("client"))},
			{Path: "new.png", ContentHash: "x"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"new.png"}, res.Attachments.ToPush)

	var pulled []string
	for _, a := range res.Attachments.ToPull {
		pulled = append(pulled, a.Path)
	}
	assert.ElementsMatch(t, []string{"diff.png", "server-only.png"}, pulled)
}

func TestSync_NonCanonicalPathsMatchTheirRecords(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	pushNotes(t, e,
		NoteContent{Path: "./a//b.md", Content: "B", ModifiedAt: t0},
		NoteContent{Path: `dir\c.md`, Content: "server", ModifiedAt: t0.Add(time.Hour)},
	)
	e.attachments().Push(ctx, e.userID, []AttachmentContent{
		{Path: "./img//x.png", ContentBase64: b64("X"), Size: 1, ModifiedAt: t0},
	})

	res, err := e.sync().Sync(ctx, e.userID, SyncRequest{
		Notes: []reconcile.Note{
			{Path: "./a//b.md", ContentHash: blob.Digest([]byte("B")), ModifiedAt: t0},
			{Path: `dir\c.md`, ContentHash: blob.Digest([]byte("client")), ModifiedAt: t0},
		},
		Attachments: []reconcile.Attachment{
			{Path: "./img//x.png", ContentHash: blob.Digest([]byte("X"))},
		},
	})
	require.NoError(t, err)

	assert.Empty(t, res.Notes.ToPush)
	assert.Empty(t, res.Notes.Conflicts)
	require.Len(t, res.Notes.ToPull, 1)
	assert.Equal(t, `dir\c.md`, res.Notes.ToPull[0].Path, "echoed in the client's spelling")
	assert.Empty(t, res.Attachments.ToPush)
	assert.Empty(t, res.Attachments.ToPull)

	got, err := e.notes().Pull(ctx, e.userID, []string{"./a//b.md"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "./a//b.md", got[0].Path)
	assert.Equal(t, "B", got[0].Content)

	atts, err := e.attachments().Pull(ctx, e.userID, []string{"./img//x.png"})
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, "./img//x.png", atts[0].Path)
}

func TestSync_NonCanonicalUnknownPathIsPushedAsSent(t *testing.T) {
	e := newTestEnv(t)

	res, err := e.sync().Sync(context.Background(), e.userID, SyncRequest{
		Notes: []reconcile.Note{
			{Path: "./new//n.md", ContentHash: "h", ModifiedAt: t0},
			{Path: "../escape.md", ContentHash: "h", ModifiedAt: t0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"./new//n.md", "../escape.md"}, res.Notes.ToPush)
}
