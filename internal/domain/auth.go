package domain

import "time"

// Token is the parsed form of an access token. ID is the jti used for revocation on logout.
type Token struct {
	ID        string
	SubjectID string
	Role      UserRole
	IssuedAt  time.Time
	ExpiresAt time.Time
}

