package dto

// AssignTagsRequest is the body of POST /users/assign-tags/:photoId
type AssignTagsRequest struct {
	TagNames []string `json:"tag_names" validate:"required,min=1,max=50,dive,max=100"`
}

// CreateTagRequest is the body of POST /admin/create-tag
type CreateTagRequest struct {
	TagName string `json:"tag_name" validate:"required,max=100"`
}

// TagDTO represents a tag
type TagDTO struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// PhotoTagsDTO lists the tag names on a photo
type PhotoTagsDTO struct {
	PhotoID uint     `json:"photo_id"`
	Tags    []string `json:"tags"`
}
