// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file defines table and column names. Queries are built
// from these constants so a schema rename touches one place.
package constants

// Table Names
const (
	// TableUsers stores user accounts and their pending reset secrets.
	TableUsers = "users"

	// TableSessions stores issued session tokens so they can be revoked.
	TableSessions = "sessions"
)

// User Columns
const (
	ColumnUserID              = "user_id"
	ColumnName                = "name"
	ColumnEmail               = "email"
	ColumnPasswordHash        = "password_hash"
	ColumnSalt                = "salt"
	ColumnResetPasswordToken  = "reset_password_token"
	ColumnResetPasswordExpire = "reset_password_expire"
	ColumnCreatedAt           = "created_at"
	ColumnUpdatedAt           = "updated_at"
)

// Session Columns
const (
	ColumnSessionID = "session_id"
	ColumnExpiresAt = "expires_at"
	ColumnRevokedAt = "revoked_at"
)

// Supported database drivers. DriverPostgres uses lib/pq, DriverPgx uses the
// pgx stdlib adapter, DriverMySQL uses go-sql-driver/mysql.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverMySQL    = "mysql"
)

// Sensitive column and argument names redacted from query logs.
var SensitiveQueryFields = []string{
	ColumnPasswordHash,
	ColumnSalt,
	ColumnResetPasswordToken,
}
