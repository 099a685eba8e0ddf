package dto

// NotificationListRequest inbox query.
type NotificationListRequest struct {
	PaginationRequest
	UnreadOnly bool `form:"unread_only"`
}

// NotificationResponse inbox entry.
type NotificationResponse struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	IsRead        bool    `json:"is_read"`
	AppointmentID *string `json:"appointment_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// UnreadCountResponse unread badge count.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
