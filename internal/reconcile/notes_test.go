package reconcile

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0 = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
	t2 = t1.Add(time.Hour)
)

func paths(notes []Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Path)
	}
	return out
}

func TestNotes_NewDevice(t *testing.T) {
	server := []Note{
		{Path: "a.md", ContentHash: "h1", ModifiedAt: t1},
		{Path: "b.md", ContentHash: "h2", ModifiedAt: t1},
	}

	v := Notes(server, ChangedSince(server, nil), nil)

	assert.ElementsMatch(t, []string{"a.md", "b.md"}, paths(v.ToPull))
	assert.Empty(t, v.ToPush)
	assert.Empty(t, v.Conflicts)
}

func TestNotes_NoOp(t *testing.T) {
	server := []Note{{Path: "x.md", ContentHash: "H", ModifiedAt: t1}}
	client := []Note{{Path: "x.md", ContentHash: "H", ModifiedAt: t1}}

	v := Notes(server, ChangedSince(server, nil), client)

	assert.Empty(t, v.ToPush)
	assert.Empty(t, v.ToPull)
	assert.Empty(t, v.Conflicts)
}

func TestNotes_SimultaneousEditIsConflict(t *testing.T) {
	server := []Note{{Path: "note.md", ContentHash: "S", ModifiedAt: t1}}
	client := []Note{{Path: "note.md", ContentHash: "C", ModifiedAt: t1}}

	v := Notes(server, ChangedSince(server, nil), client)

	require.Len(t, v.Conflicts, 1)
	assert.Equal(t, "note.md", v.Conflicts[0].Path)
	assert.Equal(t, "S", v.Conflicts[0].ContentHash)
	assert.Empty(t, v.ToPush)
	assert.Empty(t, v.ToPull)
}

func TestNotes_DeletionPropagates(t *testing.T) {
	server := []Note{{Path: "note.md", ContentHash: "", ModifiedAt: t2, IsDeleted: true}}
	client := []Note{{Path: "note.md", ContentHash: "H", ModifiedAt: t1}}

	// The cursor is after the deletion: tombstones still propagate.
	last := t2.Add(time.Hour)
	v := Notes(server, ChangedSince(server, &last), client)

	require.Len(t, v.ToPull, 1)
	assert.Equal(t, "note.md", v.ToPull[0].Path)
	assert.True(t, v.ToPull[0].IsDeleted)
}

func TestNotes_Rules(t *testing.T) {
	tests := []struct {
		name     string
		server   *Note
		client   Note
		lastSync *time.Time
		want     action
	}{
		{
			name:   "unknown path is pushed",
			client: Note{Path: "p.md", ContentHash: "h", ModifiedAt: t1},
			want:   actionPush,
		},
		{
			name:   "unknown deleted path is pushed so the tombstone is recorded",
			client: Note{Path: "p.md", ModifiedAt: t1, IsDeleted: true},
			want:   actionPush,
		},
		{
			name:   "client deletion newer wins",
			server: &Note{Path: "p.md", ContentHash: "h", ModifiedAt: t1},
			client: Note{Path: "p.md", ModifiedAt: t2, IsDeleted: true},
			want:   actionPush,
		},
		{
			name:   "client deletion tie wins",
			server: &Note{Path: "p.md", ContentHash: "h", ModifiedAt: t1},
			client: Note{Path: "p.md", ModifiedAt: t1, IsDeleted: true},
			want:   actionPush,
		},
		{
			name:   "server edit after client deletion conflicts",
			server: &Note{Path: "p.md", ContentHash: "h", ModifiedAt: t2},
			client: Note{Path: "p.md", ModifiedAt: t1, IsDeleted: true},
			want:   actionConflict,
		},
		{
			name:   "both deleted",
			server: &Note{Path: "p.md", ModifiedAt: t1, IsDeleted: true},
			client: Note{Path: "p.md", ModifiedAt: t2, IsDeleted: true},
			want:   actionNone,
		},
		{
			name:   "recreation after deletion is pushed",
			server: &Note{Path: "p.md", ModifiedAt: t1, IsDeleted: true},
			client: Note{Path: "p.md", ContentHash: "h", ModifiedAt: t2},
			want:   actionPush,
		},
		{
			name:   "tombstone at equal time is pulled",
			server: &Note{Path: "p.md", ModifiedAt: t1, IsDeleted: true},
			client: Note{Path: "p.md", ContentHash: "h", ModifiedAt: t1},
			want:   actionPull,
		},
		{
			name:   "equal hash wins over timestamps",
			server: &Note{Path: "p.md", ContentHash: "h", ModifiedAt: t1},
			client: Note{Path: "p.md", ContentHash: "h", ModifiedAt: t2},
			want:   actionNone,
		},
		{
			name:   "client newer is pushed",
			server: &Note{Path: "p.md", ContentHash: "a", ModifiedAt: t1},
			client: Note{Path: "p.md", ContentHash: "b", ModifiedAt: t2},
			want:   actionPush,
		},
		{
			name:     "server newer and changed is pulled",
			server:   &Note{Path: "p.md", ContentHash: "a", ModifiedAt: t2},
			client:   Note{Path: "p.md", ContentHash: "b", ModifiedAt: t1},
			lastSync: &t1,
			want:     actionPull,
		},
		{
			name:     "server newer but unchanged since last sync is not offered",
			server:   &Note{Path: "p.md", ContentHash: "a", ModifiedAt: t1},
			client:   Note{Path: "p.md", ContentHash: "b", ModifiedAt: t0},
			lastSync: &t2,
			want:     actionNone,
		},
		{
			name:   "sub-microsecond differences are equal",
			server: &Note{Path: "p.md", ContentHash: "a", ModifiedAt: t1},
			client: Note{Path: "p.md", ContentHash: "b", ModifiedAt: t1.Add(300 * time.Nanosecond)},
			want:   actionConflict,
		},
		{
			name:   "time zones are compared in UTC",
			server: &Note{Path: "p.md", ContentHash: "a", ModifiedAt: t1},
			client: Note{Path: "p.md", ContentHash: "b", ModifiedAt: t1.In(time.FixedZone("CET", 3600))},
			want:   actionConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var server []Note
			if tt.server != nil {
				server = []Note{*tt.server}
			}
			v := Notes(server, ChangedSince(server, tt.lastSync), []Note{tt.client})

			var got action
			switch {
			case len(v.ToPush) == 1:
				got = actionPush
			case len(v.ToPull) == 1:
				got = actionPull
			case len(v.Conflicts) == 1:
				got = actionConflict
			}
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(v.ToPush)+len(v.ToPull)+len(v.Conflicts), 1)
		})
	}
}

func TestNotes_ServerOnly(t *testing.T) {
	server := []Note{
		{Path: "live.md", ContentHash: "h", ModifiedAt: t0},
		{Path: "gone.md", ModifiedAt: t1, IsDeleted: true},
	}

	for _, last := range []*time.Time{nil, &t0, &t2} {
		v := Notes(server, ChangedSince(server, last), []Note{})
		assert.Equal(t, []string{"live.md"}, paths(v.ToPull), "last_sync=%v", last)
	}
}

func TestNotes_TombstoneStability(t *testing.T) {
	server := []Note{{Path: "old.md", ModifiedAt: t1, IsDeleted: true}}
	client := []Note{{Path: "other.md", ContentHash: "x", ModifiedAt: t0}}

	for i := 0; i < 3; i++ {
		v := Notes(server, ChangedSince(server, nil), client)
		assert.NotContains(t, paths(v.ToPull), "old.md")
		assert.NotContains(t, paths(v.Conflicts), "old.md")
	}
}

func TestChangedSince(t *testing.T) {
	server := []Note{
		{Path: "a.md", ModifiedAt: t0},
		{Path: "b.md", ModifiedAt: t1},
		{Path: "c.md", ModifiedAt: t2},
	}

	all := ChangedSince(server, nil)
	assert.Len(t, all, 3)

	since := ChangedSince(server, &t1)
	assert.False(t, since.Has("a.md"))
	assert.False(t, since.Has("b.md"), "equal to cursor is not changed")
	assert.True(t, since.Has("c.md"))

	var empty PathSet
	assert.False(t, empty.Has("a.md"))
}

// Equal hashes never produce a verdict, whatever the timestamps, flags or cursor.
func TestNotes_EqualHashNeverActs(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	times := []time.Time{t0, t1, t2}

	for i := 0; i < 500; i++ {
		hash := fmt.Sprintf("h%d", rnd.Intn(3))
		server := []Note{{Path: "p.md", ContentHash: hash, ModifiedAt: times[rnd.Intn(3)]}}
		client := []Note{{Path: "p.md", ContentHash: hash, ModifiedAt: times[rnd.Intn(3)]}}

		var last *time.Time
		if rnd.Intn(2) == 0 {
			last = &times[rnd.Intn(3)]
		}

		v := Notes(server, ChangedSince(server, last), client)
		require.Empty(t, v.ToPush)
		require.Empty(t, v.ToPull)
		require.Empty(t, v.Conflicts)
	}
}

func TestNotes_EveryPathDecidedAtMostOnce(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	times := []time.Time{t0, t1, t2}

	var server, client []Note
	for i := 0; i < 200; i++ {
		p := fmt.Sprintf("n%03d.md", i)
		if rnd.Intn(4) != 0 {
			deleted := rnd.Intn(4) == 0
			hash := fmt.Sprintf("s%d", rnd.Intn(2))
			if deleted {
				hash = ""
			}
			server = append(server, Note{Path: p, ContentHash: hash, ModifiedAt: times[rnd.Intn(3)], IsDeleted: deleted})
		}
		if rnd.Intn(4) != 0 {
			client = append(client, Note{Path: p, ContentHash: fmt.Sprintf("s%d", rnd.Intn(2)), ModifiedAt: times[rnd.Intn(3)], IsDeleted: rnd.Intn(5) == 0})
		}
	}

	v := Notes(server, ChangedSince(server, &t1), client)

	seen := map[string]int{}
	for _, p := range v.ToPush {
		seen[p]++
	}
	for _, n := range v.ToPull {
		seen[n.Path]++
	}
	for _, n := range v.Conflicts {
		seen[n.Path]++
	}
	for p, n := range seen {
		assert.Equal(t, 1, n, "path %s decided %d times", p, n)
	}
}
