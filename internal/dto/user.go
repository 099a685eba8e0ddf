package dto

// UserListRequest admin user list query.
type UserListRequest struct {
	PaginationRequest
	Role    string `form:"role"    binding:"omitempty,oneof=patient doctor admin"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}
