package models

// Role enum for staff tokens issued by the identity provider.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleFrontDesk Role = "frontdesk"
)
