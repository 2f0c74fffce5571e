package handlers

import (
	"io"
	"net/url"

	"github.com/amirphl/photo-moderation/app/dto"
	businessflow "github.com/amirphl/photo-moderation/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// UserPhotoHandlerInterface defines the endpoints users call on their own photos
type UserPhotoHandlerInterface interface {
	AssignTags(c fiber.Ctx) error
	RemoveTag(c fiber.Ctx) error
	SetMainPhoto(c fiber.Ctx) error
	DeletePhoto(c fiber.Ctx) error
	AddPhoto(c fiber.Ctx) error
	GetPhotos(c fiber.Ctx) error
	GetPhotoTags(c fiber.Ctx) error
}

// UserPhotoHandler serves the /users routes
type UserPhotoHandler struct {
	baseHandler
	photos businessflow.PhotoOwnershipFlow
	tags   businessflow.TagFlow
}

func NewUserPhotoHandler(photos businessflow.PhotoOwnershipFlow, tags businessflow.TagFlow, logger *zap.Logger) *UserPhotoHandler {
	return &UserPhotoHandler{
		baseHandler: newBaseHandler(logger),
		photos:      photos,
		tags:        tags,
	}
}

// AssignTags
// @Summary Assign tags to a photo
// @Description Creates unknown tags and skips tags the photo already has.
// @Tags Photos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param photoId path int true "Photo ID"
// @Param request body dto.AssignTagsRequest true "Tag names"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Photo not found"
// @Router /api/v1/users/assign-tags/{photoId} [post]
func (h *UserPhotoHandler) AssignTags(c fiber.Ctx) error {
	_, username, ok := currentUser(c)
	if !ok {
		return h.unauthenticated(c)
	}
	photoID, ok := parseIDParam(c, "photoId")
	if !ok {
		return h.invalidParam(c, "photo id")
	}

	var req dto.AssignTagsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationFailed(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/users/assign-tags")
	defer cancel()

	if err := h.tags.AssignTagsToPhoto(ctx, username, photoID, req.TagNames); err != nil {
		return h.handleFlowError(c, err, businessflow.MsgAssignTagsFailed)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Tags assigned", nil)
}

// RemoveTag
// @Summary Remove a tag from a photo
// @Description Succeeds when the tag or the assignment does not exist.
// @Tags Photos
// @Produce json
// @Security BearerAuth
// @Param photoId path int true "Photo ID"
// @Param tagName path string true "Tag name"
// @Success 200 {object} dto.APIResponse
// @Router /api/v1/users/remove-tag/{photoId}/{tagName} [delete]
func (h *UserPhotoHandler) RemoveTag(c fiber.Ctx) error {
	photoID, ok := parseIDParam(c, "photoId")
	if !ok {
		return h.invalidParam(c, "photo id")
	}
	tagName, err := url.PathUnescape(c.Params("tagName"))
	if err != nil {
		return h.invalidParam(c, "tag name")
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/users/remove-tag")
	defer cancel()

	if err := h.tags.RemoveTagFromPhoto(ctx, photoID, tagName); err != nil {
		return h.handleFlowError(c, err, "Problem removing tag.")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Tag removed", nil)
}

// SetMainPhoto
// @Summary Make one of your approved photos the main photo
// @Tags Photos
// @Security BearerAuth
// @Param photoId path int true "Photo ID"
// @Success 204 "Main photo changed"
// @Failure 400 {object} dto.APIResponse "Cannot set this photo as main"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /api/v1/users/set-main-photo/{photoId} [put]
func (h *UserPhotoHandler) SetMainPhoto(c fiber.Ctx) error {
	_, username, ok := currentUser(c)
	if !ok {
		return h.unauthenticated(c)
	}
	photoID, ok := parseIDParam(c, "photoId")
	if !ok {
		return h.invalidParam(c, "photo id")
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/users/set-main-photo")
	defer cancel()

	if err := h.photos.SetMainPhoto(ctx, username, photoID); err != nil {
		return h.handleFlowError(c, err, businessflow.MsgSetMainFailed)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeletePhoto
// @Summary Delete one of your photos
// @Tags Photos
// @Produce json
// @Security BearerAuth
// @Param photoId path int true "Photo ID"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse "Cannot delete this photo"
// @Failure 403 {object} dto.APIResponse "Photo belongs to another user"
// @Failure 502 {object} dto.APIResponse "Photo storage is unavailable"
// @Router /api/v1/users/delete-photo/{photoId} [delete]
func (h *UserPhotoHandler) DeletePhoto(c fiber.Ctx) error {
	_, username, ok := currentUser(c)
	if !ok {
		return h.unauthenticated(c)
	}
	photoID, ok := parseIDParam(c, "photoId")
	if !ok {
		return h.invalidParam(c, "photo id")
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/users/delete-photo")
	defer cancel()

	if err := h.photos.DeletePhoto(ctx, username, photoID); err != nil {
		return h.handleFlowError(c, err, businessflow.MsgDeleteFailed)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Photo deleted", nil)
}

// AddPhoto
// @Summary Upload a photo
// @Description The photo waits for moderation before it is shown.
// @Tags Photos
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image (jpeg, png, gif or webp)"
// @Success 201 {object} dto.APIResponse{data=dto.PhotoDTO}
// @Failure 400 {object} dto.APIResponse "Missing or unsupported file"
// @Failure 502 {object} dto.APIResponse "Photo storage is unavailable"
// @Router /api/v1/users/add-photo [post]
func (h *UserPhotoHandler) AddPhoto(c fiber.Ctx) error {
	_, username, ok := currentUser(c)
	if !ok {
		return h.unauthenticated(c)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "File is required.", businessflow.CodeValidation, nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "File upload failed", "FILE_UPLOAD_FAILED", err.Error())
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "File upload failed", "FILE_UPLOAD_FAILED", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/users/add-photo")
	defer cancel()

	photo, err := h.photos.AddPhoto(ctx, username, dto.AddPhotoUpload{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Data:        data,
	})
	if err != nil {
		return h.handleFlowError(c, err, businessflow.MsgUploadFailed)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Photo uploaded", photo)
}

// GetPhotos
// @Summary List your approved photos with tags
// @Tags Photos
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.PhotoDTO}
// @Router /api/v1/users/photos [get]
func (h *UserPhotoHandler) GetPhotos(c fiber.Ctx) error {
	_, username, ok := currentUser(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/users/photos")
	defer cancel()

	photos, err := h.photos.GetPhotosWithTags(ctx, username)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list photos")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Photos retrieved", photos)
}

// GetPhotoTags
// @Summary List the tags on a photo
// @Tags Photos
// @Produce json
// @Security BearerAuth
// @Param photoId path int true "Photo ID"
// @Success 200 {object} dto.APIResponse{data=dto.PhotoTagsDTO}
// @Failure 404 {object} dto.APIResponse "Photo not found"
// @Router /api/v1/users/photo-tags/{photoId} [get]
func (h *UserPhotoHandler) GetPhotoTags(c fiber.Ctx) error {
	photoID, ok := parseIDParam(c, "photoId")
	if !ok {
		return h.invalidParam(c, "photo id")
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/users/photo-tags")
	defer cancel()

	tags, err := h.tags.GetPhotoTags(ctx, photoID)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list photo tags")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Photo tags retrieved", tags)
}
