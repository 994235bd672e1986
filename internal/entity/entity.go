package entity

// TablePrefix is the single source of truth for physical table names. Every
// TableName() method derives from it; nothing else may hardcode the prefix.
const TablePrefix = "bo_"

// Row statuses shared by the admin-managed entities.
const (
	StatusDisabled = 0
	StatusEnabled  = 1
)
