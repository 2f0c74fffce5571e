package businessflow

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/amirphl/photo-moderation/app/services"
	"github.com/amirphl/photo-moderation/models"
	"github.com/amirphl/photo-moderation/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type moderationFixture struct {
	store     *memStore
	uow       *fakeUnitOfWork
	media     *fakeMediaStore
	publisher *fakePublisher
	audit     *fakeAuditRepo
	reports   *fakeReports
	flow      PhotoModerationFlow
}

func newModerationFixture() *moderationFixture {
	f := &moderationFixture{
		store:     newMemStore(),
		media:     &fakeMediaStore{},
		publisher: &fakePublisher{},
		audit:     &fakeAuditRepo{},
		reports:   &fakeReports{},
	}
	f.uow = newFakeUnitOfWork(f.store)
	f.flow = NewPhotoModerationFlow(f.uow, f.reports, f.audit, f.media, f.publisher, nil)
	return f
}

func moderatorContext() context.Context {
	ctx := context.WithValue(context.Background(), utils.UsernameKey, "mod")
	ctx = context.WithValue(ctx, utils.UserIDKey, uint(1))
	return context.WithValue(ctx, utils.RequestIDKey, "req-1")
}

func TestApprovePhoto(t *testing.T) {
	t.Run("FirstApprovedPhotoBecomesMain", func(t *testing.T) {
		f := newModerationFixture()
		user := f.store.addUser("lisa")
		photo := f.store.addPhoto(user.ID, false, false, "p1")

		require.NoError(t, f.flow.ApprovePhoto(moderatorContext(), photo.ID))

		stored := f.store.photos[photo.ID]
		assert.True(t, stored.IsApproved)
		assert.True(t, stored.IsMain)
		assert.Equal(t, 1, f.uow.locks, "owner row should be locked")

		// audit and event follow the commit
		assert.Equal(t, []string{models.AuditActionPhotoApproved}, f.audit.actions())
		require.Len(t, f.publisher.events, 1)
		event := f.publisher.events[0]
		assert.Equal(t, services.EventPhotoApproved, event.Type)
		assert.Equal(t, "mod", event.Actor)
		assert.Equal(t, "req-1", event.RequestID)
		require.NotNil(t, event.PhotoID)
		assert.Equal(t, photo.ID, *event.PhotoID)
	})

	t.Run("ExistingMainIsKept", func(t *testing.T) {
		f := newModerationFixture()
		user := f.store.addUser("todd")
		main := f.store.addPhoto(user.ID, true, true, "main")
		pending := f.store.addPhoto(user.ID, false, false, "pending")

		require.NoError(t, f.flow.ApprovePhoto(moderatorContext(), pending.ID))

		assert.True(t, f.store.photos[pending.ID].IsApproved)
		assert.False(t, f.store.photos[pending.ID].IsMain)
		assert.True(t, f.store.photos[main.ID].IsMain)
	})

	t.Run("PhotoNotFound", func(t *testing.T) {
		f := newModerationFixture()

		err := f.flow.ApprovePhoto(context.Background(), 999)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		assert.Equal(t, MsgPhotoNotFound, err.Error())
		assert.Empty(t, f.publisher.events)
		assert.Empty(t, f.audit.entries)
	})

	t.Run("OwnerMissing", func(t *testing.T) {
		f := newModerationFixture()
		photo := f.store.addPhoto(4242, false, false, "orphan")

		err := f.flow.ApprovePhoto(context.Background(), photo.ID)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		assert.Equal(t, MsgUserNotFound, err.Error())
	})

	t.Run("NothingToSaveFails", func(t *testing.T) {
		f := newModerationFixture()
		user := f.store.addUser("bob")
		photo := f.store.addPhoto(user.ID, true, true, "main")

		err := f.flow.ApprovePhoto(context.Background(), photo.ID)
		require.Error(t, err)
		assert.True(t, IsPersistenceFailure(err))
		assert.Equal(t, MsgApproveFailed, err.Error())
	})

	t.Run("StoreReportsNoRows", func(t *testing.T) {
		f := newModerationFixture()
		user := f.store.addUser("kim")
		photo := f.store.addPhoto(user.ID, false, false, "p1")
		f.uow.forceComplete = utils.ToPtr(false)

		err := f.flow.ApprovePhoto(context.Background(), photo.ID)
		require.Error(t, err)
		assert.Equal(t, MsgApproveFailed, err.Error())
		assert.Empty(t, f.publisher.events)
	})

	t.Run("PublishFailureDoesNotFailApproval", func(t *testing.T) {
		f := newModerationFixture()
		user := f.store.addUser("ana")
		photo := f.store.addPhoto(user.ID, false, false, "p1")
		f.publisher.err = errors.New("broker down")
		f.audit.err = errors.New("audit table locked")

		require.NoError(t, f.flow.ApprovePhoto(context.Background(), photo.ID))
		assert.True(t, f.store.photos[photo.ID].IsApproved)
	})
}

func TestRejectPhoto(t *testing.T) {
	t.Run("RemovesRemoteAssetAndRow", func(t *testing.T) {
		f := newModerationFixture()
		user := f.store.addUser("lisa")
		photo := f.store.addPhoto(user.ID, false, false, "users/photos/abc.jpg")

		require.NoError(t, f.flow.RejectPhoto(moderatorContext(), photo.ID))

		assert.NotContains(t, f.store.photos, photo.ID)
		assert.Equal(t, []string{"users/photos/abc.jpg"}, f.media.deleted)
		assert.Equal(t, []string{services.EventPhotoRejected}, f.publisher.types())
	})

	t.Run("PhotoWithoutAssetSkipsMediaStore", func(t *testing.T) {
		f := newModerationFixture()
		user := f.store.addUser("lisa")
		photo := f.store.addPhoto(user.ID, true, false, "")

		require.NoError(t, f.flow.RejectPhoto(context.Background(), photo.ID))

		assert.NotContains(t, f.store.photos, photo.ID)
		assert.Empty(t, f.media.deleted)
	})

	t.Run("MainPhotoCannotBeRejected", func(t *testing.T) {
		f := newModerationFixture()
		user := f.store.addUser("lisa")
		photo := f.store.addPhoto(user.ID, true, true, "main")

		err := f.flow.RejectPhoto(context.Background(), photo.ID)
		require.Error(t, err)
		assert.True(t, IsInvalidOperation(err))
		assert.Equal(t, MsgCannotReject, err.Error())
		assert.Contains(t, f.store.photos, photo.ID)
		assert.Empty(t, f.media.deleted)
	})

	t.Run("PhotoPromotedWhileWaitingForOwnerLock", func(t *testing.T) {
		f := newModerationFixture()
		user := f.store.addUser("lisa")
		photo := f.store.addPhoto(user.ID, true, false, "p1")
		f.uow.onLock = func() { f.store.photos[photo.ID].IsMain = true }

		err := f.flow.RejectPhoto(context.Background(), photo.ID)
		require.Error(t, err)
		assert.Equal(t, MsgCannotReject, err.Error())
		assert.Equal(t, 1, f.uow.locks)
		assert.Contains(t, f.store.photos, photo.ID)
		assert.Empty(t, f.media.deleted)
	})

	t.Run("MissingPhotoCannotBeRejected", func(t *testing.T) {
		f := newModerationFixture()

		err := f.flow.RejectPhoto(context.Background(), 12345)
		require.Error(t, err)
		assert.True(t, IsInvalidOperation(err))
		assert.Equal(t, MsgCannotReject, err.Error())
	})

	t.Run("RemoteFailureLeavesPhotoInPlace", func(t *testing.T) {
		f := newModerationFixture()
		user := f.store.addUser("lisa")
		photo := f.store.addPhoto(user.ID, false, false, "p1")
		f.media.deleteErr = errors.New("s3 timeout")

		err := f.flow.RejectPhoto(context.Background(), photo.ID)
		require.Error(t, err)
		assert.True(t, IsDependencyFailure(err))
		assert.Contains(t, f.store.photos, photo.ID)
		assert.Zero(t, f.uow.completions)
		assert.Empty(t, f.publisher.events)
	})

	t.Run("StoreReportsNoRows", func(t *testing.T) {
		f := newModerationFixture()
		user := f.store.addUser("lisa")
		photo := f.store.addPhoto(user.ID, false, false, "p1")
		f.uow.forceComplete = utils.ToPtr(false)

		err := f.flow.RejectPhoto(context.Background(), photo.ID)
		require.Error(t, err)
		assert.Equal(t, MsgRejectFailed, err.Error())
	})
}

func TestGetPhotosForApproval(t *testing.T) {
	f := newModerationFixture()
	lisa := f.store.addUser("lisa")
	todd := f.store.addUser("todd")
	first := f.store.addPhoto(lisa.ID, false, false, "a")
	f.store.addPhoto(lisa.ID, true, true, "b")
	second := f.store.addPhoto(todd.ID, false, false, "c")

	photos, err := f.flow.GetPhotosForApproval(context.Background())
	require.NoError(t, err)
	require.Len(t, photos, 2)

	assert.Equal(t, first.ID, photos[0].ID)
	assert.Equal(t, "lisa", photos[0].Username)
	assert.Equal(t, second.ID, photos[1].ID)
	assert.Equal(t, "todd", photos[1].Username)
	assert.False(t, photos[1].IsApproved)
}

func TestPhotoApprovalStats(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		f := newModerationFixture()

		_, err := f.flow.GetPhotoApprovalStats(context.Background(), 1)
		assert.True(t, IsNotFound(err))

		_, err = f.flow.GetUsersWithoutMainPhoto(context.Background(), 1)
		assert.True(t, IsNotFound(err))
	})

	t.Run("Rows", func(t *testing.T) {
		f := newModerationFixture()
		f.reports.stats = []models.PhotoApprovalStat{
			{Username: "lisa", ApprovedPhotos: 2, PendingPhotos: 1},
			{Username: "todd", ApprovedPhotos: 0, PendingPhotos: 3},
		}
		f.reports.names = []string{"todd"}

		stats, err := f.flow.GetPhotoApprovalStats(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, "lisa", stats[0].Username)
		assert.Equal(t, 2, stats[0].ApprovedPhotos)
		assert.Equal(t, 3, stats[1].PendingPhotos)

		names, err := f.flow.GetUsersWithoutMainPhoto(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"todd"}, names)
	})

	t.Run("Export", func(t *testing.T) {
		f := newModerationFixture()
		f.reports.stats = []models.PhotoApprovalStat{
			{Username: "lisa", ApprovedPhotos: 2, PendingPhotos: 1},
		}

		filename, data, err := f.flow.ExportPhotoApprovalStats(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "photo_approval_stats.xlsx", filename)

		book, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer book.Close()

		rows, err := book.GetRows("Photo stats")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, []string{"username", "approved_photos", "pending_photos"}, rows[0])
		assert.Equal(t, []string{"lisa", "2", "1"}, rows[1])
	})
}

func TestModerationHistory(t *testing.T) {
	t.Run("HistoryOutlivesRejectedPhoto", func(t *testing.T) {
		f := newModerationFixture()
		user := f.store.addUser("lisa")
		approved := f.store.addPhoto(user.ID, false, false, "p1")
		rejected := f.store.addPhoto(user.ID, true, false, "p2")

		require.NoError(t, f.flow.ApprovePhoto(moderatorContext(), approved.ID))
		require.NoError(t, f.flow.RejectPhoto(moderatorContext(), rejected.ID))
		require.NotContains(t, f.store.photos, rejected.ID)

		history, err := f.flow.GetPhotoHistory(context.Background(), rejected.ID, 1)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, models.AuditActionPhotoRejected, history[0].Action)
		assert.True(t, history[0].Moderation)
		assert.False(t, history[0].Failed)
		require.NotNil(t, history[0].ActorUsername)
		assert.Equal(t, "mod", *history[0].ActorUsername)
	})

	t.Run("ActorActivityNewestFirstAndPaged", func(t *testing.T) {
		f := newModerationFixture()
		user := f.store.addUser("lisa")
		first := f.store.addPhoto(user.ID, false, false, "p1")
		second := f.store.addPhoto(user.ID, true, false, "p2")
		require.NoError(t, f.flow.ApprovePhoto(moderatorContext(), first.ID))
		require.NoError(t, f.flow.RejectPhoto(moderatorContext(), second.ID))

		activity, err := f.flow.GetActorActivity(context.Background(), 1, 1)
		require.NoError(t, err)
		require.Len(t, activity, 2)
		assert.Equal(t, models.AuditActionPhotoRejected, activity[0].Action)
		assert.Equal(t, models.AuditActionPhotoApproved, activity[1].Action)

		activity, err = f.flow.GetActorActivity(context.Background(), 1, 2)
		require.NoError(t, err)
		assert.Empty(t, activity)

		activity, err = f.flow.GetActorActivity(context.Background(), 2, 1)
		require.NoError(t, err)
		assert.Empty(t, activity)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		f := newModerationFixture()
		f.audit.err = errors.New("connection reset")

		_, err := f.flow.GetPhotoHistory(context.Background(), 1, 1)
		assert.Error(t, err)
	})
}
