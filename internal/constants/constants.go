package constants

import "time"

// Session and context keys
const (
	SessionCookieName = "okr_session"
	SessionTokenKey   = "session_token"
	ContextKeyUserID  = "user_id"
	ContextKeyUser    = "user"
)

// Credential rules
const (
	MinPasswordLength = 8
	// bcrypt only accepts passwords up to 72 bytes
	MaxPasswordBytes = 72
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Token lifetimes
const (
	DefaultSessionTTL      = 7 * 24 * time.Hour
	InvitationTTL          = 7 * 24 * time.Hour
	EmailVerificationTTL   = 24 * time.Hour
	PasswordResetTTL       = time.Hour
	SessionTokenBytes      = 32
	InvitationTokenBytes   = 24
	VerificationTokenBytes = 24
)

// AI suggestions
const (
	MaxSuggestedKeyResults = 5
)

// Avatar uploads
const (
	MaxAvatarBytes = 2 << 20
)
