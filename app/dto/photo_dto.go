package dto

// PhotoForApprovalDTO is a pending photo with its owner
type PhotoForApprovalDTO struct {
	ID         uint   `json:"id"`
	URL        string `json:"url"`
	Username   string `json:"username"`
	IsApproved bool   `json:"is_approved"`
	CreatedAt  string `json:"created_at"`
}

// PhotoDTO is an approved photo as shown to its owner
type PhotoDTO struct {
	ID         uint     `json:"id"`
	URL        string   `json:"url"`
	IsMain     bool     `json:"is_main"`
	IsApproved bool     `json:"is_approved"`
	Tags       []string `json:"tags"`
	CreatedAt  string   `json:"created_at"`
}

// PhotoApprovalStatDTO summarizes one user's moderation queue
type PhotoApprovalStatDTO struct {
	Username       string `json:"username"`
	ApprovedPhotos int    `json:"approved_photos"`
	PendingPhotos  int    `json:"pending_photos"`
}

// AddPhotoUpload is the decoded multipart upload handed to the photo flow
type AddPhotoUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// AuditEntryDTO is one audit log row as shown to staff
type AuditEntryDTO struct {
	ID            uint    `json:"id"`
	Action        string  `json:"action"`
	ActorUsername *string `json:"actor_username,omitempty"`
	PhotoID       *uint   `json:"photo_id,omitempty"`
	TargetUserID  *uint   `json:"target_user_id,omitempty"`
	Description   *string `json:"description,omitempty"`
	RequestID     *string `json:"request_id,omitempty"`
	Moderation    bool    `json:"moderation"`
	Failed        bool    `json:"failed"`
	CreatedAt     string  `json:"created_at"`
}
