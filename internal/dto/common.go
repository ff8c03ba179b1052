package dto

// PageRequest 通用分页排序请求
type PageRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Ordering string `form:"ordering" binding:"omitempty,max=50"`
	Search   string `form:"search" binding:"omitempty,max=100"`
}

// UserBrief 用户简要信息
type UserBrief struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
}
