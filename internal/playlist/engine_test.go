package playlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/playcast/internal/apperr"
	"github.com/stwalsh4118/playcast/internal/db"
	"github.com/stwalsh4118/playcast/internal/models"
	"github.com/stwalsh4118/playcast/internal/testutil"
)

type engineFixture struct {
	database *db.DB
	repos    *db.Repositories
	engine   *Engine
	playlist *models.Playlist
	videos   []*models.Video
}

// setupEngine creates a playlist and n videos that are not yet members
func setupEngine(t *testing.T, n int) *engineFixture {
	database, repos := testutil.NewDB(t)

	user := testutil.CreateUser(t, repos)
	device := testutil.CreateDevice(t, repos, user.ID)

	return &engineFixture{
		database: database,
		repos:    repos,
		engine:   NewEngine(),
		playlist: testutil.CreatePlaylist(t, repos, user.ID, "Morning"),
		videos:   testutil.CreateVideos(t, repos, device.ID, n),
	}
}

func (f *engineFixture) insert(t *testing.T, videoID int64, position *int) *models.PlaylistMembership {
	t.Helper()

	var membership *models.PlaylistMembership
	err := f.database.InTx(context.Background(), func(tx *db.Repositories) error {
		var err error
		membership, err = f.engine.InsertAt(context.Background(), tx, f.playlist.ID, videoID, position)
		return err
	})
	require.NoError(t, err)
	return membership
}

func (f *engineFixture) appendAll(t *testing.T) {
	t.Helper()
	for _, v := range f.videos {
		f.insert(t, v.ID, nil)
	}
}

// order returns the member video ids in position order
func (f *engineFixture) order(t *testing.T) []int64 {
	t.Helper()

	ids, err := f.repos.Memberships.VideoIDs(context.Background(), f.playlist.ID)
	require.NoError(t, err)
	return ids
}

// assertContiguous checks that positions are exactly 1..count
func (f *engineFixture) assertContiguous(t *testing.T) {
	t.Helper()

	memberships, err := f.engine.Memberships(context.Background(), f.repos, f.playlist.ID)
	require.NoError(t, err)
	for i, m := range memberships {
		assert.Equal(t, i+1, m.Position, "position of video %d", m.VideoID)
	}
}

func (f *engineFixture) ids(indexes ...int) []int64 {
	ids := make([]int64, len(indexes))
	for i, idx := range indexes {
		ids[i] = f.videos[idx].ID
	}
	return ids
}

func intPtr(i int) *int {
	return &i
}

func TestInsertAt_AppendAssignsNextPosition(t *testing.T) {
	f := setupEngine(t, 3)

	for i, v := range f.videos {
		m := f.insert(t, v.ID, nil)
		assert.Equal(t, i+1, m.Position)
	}

	assert.Equal(t, f.ids(0, 1, 2), f.order(t))
	f.assertContiguous(t)
}

func TestInsertAt_ShiftsLaterRows(t *testing.T) {
	f := setupEngine(t, 4)
	f.insert(t, f.videos[0].ID, nil)
	f.insert(t, f.videos[1].ID, nil)
	f.insert(t, f.videos[2].ID, nil)

	m := f.insert(t, f.videos[3].ID, intPtr(2))

	assert.Equal(t, 2, m.Position)
	assert.Equal(t, f.ids(0, 3, 1, 2), f.order(t))
	f.assertContiguous(t)
}

func TestInsertAt_FrontAndEnd(t *testing.T) {
	f := setupEngine(t, 3)
	f.insert(t, f.videos[0].ID, nil)

	f.insert(t, f.videos[1].ID, intPtr(1))
	f.insert(t, f.videos[2].ID, intPtr(3))

	assert.Equal(t, f.ids(1, 0, 2), f.order(t))
	f.assertContiguous(t)
}

func TestInsertAt_DuplicateIsConflict(t *testing.T) {
	f := setupEngine(t, 1)
	f.insert(t, f.videos[0].ID, nil)

	err := f.database.InTx(context.Background(), func(tx *db.Repositories) error {
		_, err := f.engine.InsertAt(context.Background(), tx, f.playlist.ID, f.videos[0].ID, nil)
		return err
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, f.ids(0), f.order(t))
}

func TestInsertAt_PositionOutOfRange(t *testing.T) {
	tests := []struct {
		name     string
		position int
	}{
		{"zero", 0},
		{"negative", -1},
		{"past end", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupEngine(t, 2)
			f.insert(t, f.videos[0].ID, nil)

			err := f.database.InTx(context.Background(), func(tx *db.Repositories) error {
				_, err := f.engine.InsertAt(context.Background(), tx, f.playlist.ID, f.videos[1].ID, intPtr(tt.position))
				return err
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
			assert.Equal(t, f.ids(0), f.order(t))
		})
	}
}

func TestRemoveVideo_ClosesGap(t *testing.T) {
	f := setupEngine(t, 4)
	f.appendAll(t)

	err := f.database.InTx(context.Background(), func(tx *db.Repositories) error {
		return f.engine.RemoveVideo(context.Background(), tx, f.playlist.ID, f.videos[1].ID)
	})
	require.NoError(t, err)

	assert.Equal(t, f.ids(0, 2, 3), f.order(t))
	f.assertContiguous(t)

	exists, err := f.engine.Exists(context.Background(), f.repos, f.playlist.ID, f.videos[1].ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRemoveVideo_NotMember(t *testing.T) {
	f := setupEngine(t, 2)
	f.insert(t, f.videos[0].ID, nil)

	err := f.database.InTx(context.Background(), func(tx *db.Repositories) error {
		return f.engine.RemoveVideo(context.Background(), tx, f.playlist.ID, f.videos[1].ID)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReorder_AppliesNewOrder(t *testing.T) {
	f := setupEngine(t, 3)
	f.appendAll(t)

	err := f.database.InTx(context.Background(), func(tx *db.Repositories) error {
		return f.engine.Reorder(context.Background(), tx, f.playlist.ID, f.ids(2, 0, 1))
	})
	require.NoError(t, err)

	assert.Equal(t, f.ids(2, 0, 1), f.order(t))
	f.assertContiguous(t)

	for want, idx := range []int{2, 0, 1} {
		position, ok, err := f.engine.PositionOf(context.Background(), f.repos, f.playlist.ID, f.videos[idx].ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want+1, position)
	}
}

func TestReorder_RejectsNonPermutation(t *testing.T) {
	tests := []struct {
		name  string
		order []int
		extra bool
	}{
		{name: "missing member", order: []int{1, 0}},
		{name: "duplicate member", order: []int{0, 0, 1, 2}},
		{name: "empty", order: []int{}},
		{name: "stranger", order: []int{0, 1, 2}, extra: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupEngine(t, 4)
			for _, v := range f.videos[:3] {
				f.insert(t, v.ID, nil)
			}
			before := f.order(t)

			proposed := f.ids(tt.order...)
			if tt.extra {
				proposed = append(proposed, f.videos[3].ID)
			}

			err := f.database.InTx(context.Background(), func(tx *db.Repositories) error {
				return f.engine.Reorder(context.Background(), tx, f.playlist.ID, proposed)
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
			assert.Equal(t, before, f.order(t))
			f.assertContiguous(t)
		})
	}
}

func TestReorder_EmptyPlaylist(t *testing.T) {
	f := setupEngine(t, 0)

	err := f.database.InTx(context.Background(), func(tx *db.Repositories) error {
		return f.engine.Reorder(context.Background(), tx, f.playlist.ID, nil)
	})

	require.NoError(t, err)
	assert.Empty(t, f.order(t))
}

func TestSetPosition(t *testing.T) {
	f := setupEngine(t, 2)
	f.insert(t, f.videos[0].ID, nil)

	err := f.database.InTx(context.Background(), func(tx *db.Repositories) error {
		return f.engine.SetPosition(context.Background(), tx, f.playlist.ID, f.videos[0].ID, 0)
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	err = f.database.InTx(context.Background(), func(tx *db.Repositories) error {
		return f.engine.SetPosition(context.Background(), tx, f.playlist.ID, f.videos[1].ID, 1)
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPositionOf_NotMember(t *testing.T) {
	f := setupEngine(t, 1)

	position, ok, err := f.engine.PositionOf(context.Background(), f.repos, f.playlist.ID, f.videos[0].ID)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, position)
}

func TestListOrdered_ReturnsVideosByPosition(t *testing.T) {
	f := setupEngine(t, 3)
	f.insert(t, f.videos[2].ID, nil)
	f.insert(t, f.videos[0].ID, nil)
	f.insert(t, f.videos[1].ID, intPtr(1))

	videos, err := f.engine.ListOrdered(context.Background(), f.repos, f.playlist.ID)
	require.NoError(t, err)
	require.Len(t, videos, 3)

	assert.Equal(t, f.videos[1].ID, videos[0].ID)
	assert.Equal(t, f.videos[2].ID, videos[1].ID)
	assert.Equal(t, f.videos[0].ID, videos[2].ID)
	assert.Equal(t, f.videos[1].URL, videos[0].URL)
}

func TestSameMembers(t *testing.T) {
	assert.NoError(t, sameMembers([]int64{1, 2, 3}, []int64{3, 1, 2}))
	assert.NoError(t, sameMembers(nil, nil))
	assert.ErrorIs(t, sameMembers([]int64{1, 2}, []int64{1}), apperr.ErrInvalidInput)
	assert.ErrorIs(t, sameMembers([]int64{1, 2}, []int64{1, 2, 2}), apperr.ErrInvalidInput)
	assert.ErrorIs(t, sameMembers([]int64{1, 2}, []int64{1, 3}), apperr.ErrInvalidInput)
}

func TestDetachVideos_RenumbersEveryPlaylist(t *testing.T) {
	f := setupEngine(t, 4)
	f.appendAll(t)

	other := testutil.CreatePlaylist(t, f.repos, f.playlist.UserID, "Evening")
	err := f.database.InTx(context.Background(), func(tx *db.Repositories) error {
		for _, v := range []*models.Video{f.videos[3], f.videos[1], f.videos[0]} {
			if _, err := f.engine.InsertAt(context.Background(), tx, other.ID, v.ID, nil); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var detached int
	err = f.database.InTx(context.Background(), func(tx *db.Repositories) error {
		var err error
		detached, err = f.engine.DetachVideos(context.Background(), tx, f.ids(0, 3))
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 4, detached)
	assert.Equal(t, f.ids(1, 2), f.order(t))
	f.assertContiguous(t)

	memberships, err := f.engine.Memberships(context.Background(), f.repos, other.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, f.videos[1].ID, memberships[0].VideoID)
	assert.Equal(t, 1, memberships[0].Position)
}

func TestDetachVideos_NothingToDetach(t *testing.T) {
	f := setupEngine(t, 1)

	err := f.database.InTx(context.Background(), func(tx *db.Repositories) error {
		n, err := f.engine.DetachVideos(context.Background(), tx, nil)
		assert.Zero(t, n)
		return err
	})

	require.NoError(t, err)
}
