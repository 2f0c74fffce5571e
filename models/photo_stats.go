package models

// PhotoApprovalStat summarizes the moderation state of one user's photos
type PhotoApprovalStat struct {
	Username       string `db:"username" json:"username"`
	ApprovedPhotos int    `db:"approved_photos" json:"approved_photos"`
	PendingPhotos  int    `db:"pending_photos" json:"pending_photos"`
}
