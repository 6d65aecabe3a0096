package models

// Роли операторов
const (
	RoleAdmin  = "ROLE_ADMIN"
	RoleViewer = "ROLE_VIEWER"
)

// HasRole проверяет, есть ли у пользователя указанная роль.
func HasRole(userRoles []string, targetRole string) bool {
	for _, role := range userRoles {
		if role == targetRole {
			return true
		}
	}
	return false
}
