package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amirphl/photo-moderation/app/dto"
	businessflow "github.com/amirphl/photo-moderation/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeModerationFlow struct {
	approved []uint
	rejected []uint
	err      error
	stats    []dto.PhotoApprovalStatDTO
	export   []byte
	statsFor uint
	history  []uint
	page     int
}

func (f *fakeModerationFlow) ApprovePhoto(_ context.Context, id uint) error {
	f.approved = append(f.approved, id)
	return f.err
}

func (f *fakeModerationFlow) RejectPhoto(_ context.Context, id uint) error {
	f.rejected = append(f.rejected, id)
	return f.err
}

func (f *fakeModerationFlow) GetPhotosForApproval(context.Context) ([]dto.PhotoForApprovalDTO, error) {
	return []dto.PhotoForApprovalDTO{}, f.err
}

func (f *fakeModerationFlow) GetPhotoApprovalStats(_ context.Context, currentUserID uint) ([]dto.PhotoApprovalStatDTO, error) {
	f.statsFor = currentUserID
	return f.stats, f.err
}

func (f *fakeModerationFlow) GetUsersWithoutMainPhoto(context.Context, uint) ([]string, error) {
	return []string{"bob"}, f.err
}

func (f *fakeModerationFlow) ExportPhotoApprovalStats(_ context.Context, currentUserID uint) (string, []byte, error) {
	f.statsFor = currentUserID
	return "photo-stats.xlsx", f.export, f.err
}

func (f *fakeModerationFlow) GetPhotoHistory(_ context.Context, photoID uint, page int) ([]dto.AuditEntryDTO, error) {
	f.history = append(f.history, photoID)
	f.page = page
	return []dto.AuditEntryDTO{{ID: 7, Action: "photo_approved", PhotoID: &photoID, Moderation: true}}, f.err
}

func (f *fakeModerationFlow) GetActorActivity(_ context.Context, actorID uint, page int) ([]dto.AuditEntryDTO, error) {
	f.history = append(f.history, actorID)
	f.page = page
	return []dto.AuditEntryDTO{}, f.err
}

type fakeRoleAdminFlow struct {
	username string
	rolesCSV string
	err      error
}

func (f *fakeRoleAdminFlow) EditRoles(_ context.Context, username, rolesCSV string) ([]string, error) {
	f.username, f.rolesCSV = username, rolesCSV
	if f.err != nil {
		return nil, f.err
	}
	return splitRoles(rolesCSV), nil
}

func (f *fakeRoleAdminFlow) GetUsersWithRoles(context.Context) ([]dto.UserRolesDTO, error) {
	return nil, f.err
}

func splitRoles(csv string) []string {
	if csv == "" {
		return nil
	}
	return []string{csv}
}

type fakeTagFlow struct {
	assigned   map[uint][]string
	assignedBy string
	removed    []string
	created    []string
	deleted    []string
	err        error
	photoTags  *dto.PhotoTagsDTO
}

func newFakeTagFlow() *fakeTagFlow {
	return &fakeTagFlow{assigned: map[uint][]string{}}
}

func (f *fakeTagFlow) AssignTagsToPhoto(_ context.Context, username string, photoID uint, names []string) error {
	f.assignedBy = username
	f.assigned[photoID] = names
	return f.err
}

func (f *fakeTagFlow) RemoveTagFromPhoto(_ context.Context, _ uint, name string) error {
	f.removed = append(f.removed, name)
	return f.err
}

func (f *fakeTagFlow) GetTags(context.Context) ([]dto.TagDTO, error) {
	return []dto.TagDTO{{ID: 1, Name: "beach"}}, f.err
}

func (f *fakeTagFlow) CreateTag(_ context.Context, name string) (*dto.TagDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, name)
	return &dto.TagDTO{ID: 2, Name: name}, nil
}

func (f *fakeTagFlow) RemoveTagByName(_ context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return f.err
}

func (f *fakeTagFlow) GetPhotoTags(context.Context, uint) (*dto.PhotoTagsDTO, error) {
	return f.photoTags, f.err
}

func newAdminApp(mod *fakeModerationFlow, roles *fakeRoleAdminFlow, tags *fakeTagFlow) *fiber.App {
	h := NewAdminHandler(mod, roles, tags, zap.NewNop())
	return newTestApp(1, "admin", func(app *fiber.App) {
		app.Post("/admin/approve-photo/:id", h.ApprovePhoto)
		app.Delete("/admin/reject-photo/:id", h.RejectPhoto)
		app.Get("/admin/photos-to-moderate", h.GetPhotosForApproval)
		app.Get("/admin/photo-stats", h.GetPhotoApprovalStats)
		app.Get("/admin/photo-stats/export", h.ExportPhotoApprovalStats)
		app.Get("/admin/users-without-main-photo", h.GetUsersWithoutMainPhoto)
		app.Get("/admin/photo-history/:id", h.GetPhotoHistory)
		app.Get("/admin/user-activity/:userId", h.GetActorActivity)
		app.Post("/admin/edit-roles/:username", h.EditRoles)
		app.Get("/admin/tags", h.GetTags)
		app.Post("/admin/create-tag", h.CreateTag)
		app.Delete("/admin/delete-tag/:name", h.DeleteTag)
	})
}

func TestAdminHandler(t *testing.T) {
	t.Run("ApprovePhoto", func(t *testing.T) {
		mod := &fakeModerationFlow{}
		app := newAdminApp(mod, &fakeRoleAdminFlow{}, newFakeTagFlow())

		resp, env := doJSON(t, app, http.MethodPost, "/admin/approve-photo/42", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, env.Success)
		assert.Equal(t, []uint{42}, mod.approved)
	})

	t.Run("ApprovePhotoInvalidID", func(t *testing.T) {
		mod := &fakeModerationFlow{}
		app := newAdminApp(mod, &fakeRoleAdminFlow{}, newFakeTagFlow())

		resp, env := doJSON(t, app, http.MethodPost, "/admin/approve-photo/abc", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, businessflow.CodeValidation, env.Error.Code)
		assert.Empty(t, mod.approved)
	})

	t.Run("ApprovePhotoNotFound", func(t *testing.T) {
		mod := &fakeModerationFlow{err: businessflow.NotFound(businessflow.MsgPhotoNotFound)}
		app := newAdminApp(mod, &fakeRoleAdminFlow{}, newFakeTagFlow())

		resp, env := doJSON(t, app, http.MethodPost, "/admin/approve-photo/9", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, businessflow.MsgPhotoNotFound, env.Message)
		assert.Equal(t, businessflow.CodeNotFound, env.Error.Code)
	})

	t.Run("ApprovePhotoPersistenceFailure", func(t *testing.T) {
		mod := &fakeModerationFlow{err: businessflow.PersistenceFailure(businessflow.MsgApproveFailed, nil)}
		app := newAdminApp(mod, &fakeRoleAdminFlow{}, newFakeTagFlow())

		resp, env := doJSON(t, app, http.MethodPost, "/admin/approve-photo/9", "")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Problem approving photo.", env.Message)
	})

	t.Run("RejectPhotoCannotReject", func(t *testing.T) {
		mod := &fakeModerationFlow{err: businessflow.InvalidOperation(businessflow.MsgCannotReject)}
		app := newAdminApp(mod, &fakeRoleAdminFlow{}, newFakeTagFlow())

		resp, env := doJSON(t, app, http.MethodDelete, "/admin/reject-photo/5", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, businessflow.MsgCannotReject, env.Message)
		assert.Equal(t, []uint{5}, mod.rejected)
	})

	t.Run("RejectPhotoRemoteFailure", func(t *testing.T) {
		mod := &fakeModerationFlow{err: businessflow.DependencyFailure(businessflow.MsgMediaStoreUnavailable, errors.New("timeout"))}
		app := newAdminApp(mod, &fakeRoleAdminFlow{}, newFakeTagFlow())

		resp, _ := doJSON(t, app, http.MethodDelete, "/admin/reject-photo/5", "")
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("UnexpectedErrorIsInternal", func(t *testing.T) {
		mod := &fakeModerationFlow{err: errors.New("boom")}
		app := newAdminApp(mod, &fakeRoleAdminFlow{}, newFakeTagFlow())

		resp, env := doJSON(t, app, http.MethodGet, "/admin/photos-to-moderate", "")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	})

	t.Run("PhotoStatsUseActingUser", func(t *testing.T) {
		mod := &fakeModerationFlow{stats: []dto.PhotoApprovalStatDTO{{Username: "bob", ApprovedPhotos: 2}}}
		app := newAdminApp(mod, &fakeRoleAdminFlow{}, newFakeTagFlow())

		resp, env := doJSON(t, app, http.MethodGet, "/admin/photo-stats", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, uint(1), mod.statsFor)
		assert.Contains(t, string(env.Data), `"bob"`)
	})

	t.Run("ExportSendsAttachment", func(t *testing.T) {
		mod := &fakeModerationFlow{export: []byte("xlsx-bytes")}
		app := newAdminApp(mod, &fakeRoleAdminFlow{}, newFakeTagFlow())

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin/photo-stats/export", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "photo-stats.xlsx")
		assert.Equal(t, "xlsx-bytes", string(body))
	})

	t.Run("UsersWithoutMainPhoto", func(t *testing.T) {
		app := newAdminApp(&fakeModerationFlow{}, &fakeRoleAdminFlow{}, newFakeTagFlow())

		resp, env := doJSON(t, app, http.MethodGet, "/admin/users-without-main-photo", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `["bob"]`, string(env.Data))
	})

	t.Run("PhotoHistoryDefaultsToFirstPage", func(t *testing.T) {
		mod := &fakeModerationFlow{}
		app := newAdminApp(mod, &fakeRoleAdminFlow{}, newFakeTagFlow())

		resp, env := doJSON(t, app, http.MethodGet, "/admin/photo-history/42", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []uint{42}, mod.history)
		assert.Equal(t, 1, mod.page)
		assert.JSONEq(t, `[{"id":7,"action":"photo_approved","photo_id":42,"moderation":true,"failed":false,"created_at":""}]`, string(env.Data))
	})

	t.Run("UserActivityPassesPage", func(t *testing.T) {
		mod := &fakeModerationFlow{}
		app := newAdminApp(mod, &fakeRoleAdminFlow{}, newFakeTagFlow())

		resp, _ := doJSON(t, app, http.MethodGet, "/admin/user-activity/3?page=2", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []uint{3}, mod.history)
		assert.Equal(t, 2, mod.page)
	})

	t.Run("HistoryRejectsBadPage", func(t *testing.T) {
		mod := &fakeModerationFlow{}
		app := newAdminApp(mod, &fakeRoleAdminFlow{}, newFakeTagFlow())

		resp, env := doJSON(t, app, http.MethodGet, "/admin/photo-history/42?page=0", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, businessflow.CodeValidation, env.Error.Code)
		assert.Empty(t, mod.history)
	})

	t.Run("EditRolesPassesLowerCasedUsernameAndQuery", func(t *testing.T) {
		roles := &fakeRoleAdminFlow{}
		app := newAdminApp(&fakeModerationFlow{}, roles, newFakeTagFlow())

		resp, _ := doJSON(t, app, http.MethodPost, "/admin/edit-roles/Lisa?roles=Member,Moderator", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "lisa", roles.username)
		assert.Equal(t, "Member,Moderator", roles.rolesCSV)
	})

	t.Run("EditRolesValidation", func(t *testing.T) {
		roles := &fakeRoleAdminFlow{err: businessflow.Validation(businessflow.MsgRolesRequired)}
		app := newAdminApp(&fakeModerationFlow{}, roles, newFakeTagFlow())

		resp, env := doJSON(t, app, http.MethodPost, "/admin/edit-roles/lisa", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, businessflow.MsgRolesRequired, env.Message)
	})

	t.Run("CreateTag", func(t *testing.T) {
		tags := newFakeTagFlow()
		app := newAdminApp(&fakeModerationFlow{}, &fakeRoleAdminFlow{}, tags)

		resp, env := doJSON(t, app, http.MethodPost, "/admin/create-tag", `{"tag_name":"sunset"}`)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, []string{"sunset"}, tags.created)
		assert.Contains(t, string(env.Data), "sunset")
	})

	t.Run("CreateTagRequiresName", func(t *testing.T) {
		tags := newFakeTagFlow()
		app := newAdminApp(&fakeModerationFlow{}, &fakeRoleAdminFlow{}, tags)

		resp, env := doJSON(t, app, http.MethodPost, "/admin/create-tag", `{}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, businessflow.CodeValidation, env.Error.Code)
		assert.Empty(t, tags.created)
	})

	t.Run("CreateTagConflict", func(t *testing.T) {
		tags := newFakeTagFlow()
		tags.err = businessflow.Conflict(businessflow.MsgTagExists)
		app := newAdminApp(&fakeModerationFlow{}, &fakeRoleAdminFlow{}, tags)

		resp, _ := doJSON(t, app, http.MethodPost, "/admin/create-tag", `{"tag_name":"beach"}`)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("DeleteTagUnescapesName", func(t *testing.T) {
		tags := newFakeTagFlow()
		app := newAdminApp(&fakeModerationFlow{}, &fakeRoleAdminFlow{}, tags)

		resp, _ := doJSON(t, app, http.MethodDelete, "/admin/delete-tag/golden%20hour", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{"golden hour"}, tags.deleted)
	})
}
