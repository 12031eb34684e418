package model

const (
	RoleUser    = "user"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

type UserProfile struct {
	UserID          string `json:"user_id"`
	Role            string `json:"role"`
	DailyQueryCount int    `json:"daily_query_count"`
	LastQueryDate   string `json:"last_query_date"`
}

func (p *UserProfile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
