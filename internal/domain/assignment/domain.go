package assignment

// ProjectAssignment maps a user to a project tag. A user may hold any number
// of tags and a tag any number of users; administration of the mapping lives
// in the dashboard.
type ProjectAssignment struct {
	UserID     int64  `json:"user_id"`
	ProjectTag string `json:"project_tag"`
}
