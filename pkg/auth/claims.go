package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ActorID uuid.UUID
	Role    enums.ActorRole
	Name    string
	JTI     string
}

// AccessTokenClaims represents the typed JWT presented by admins, pilots and
// companies. For pilot and company principals ActorID is the directory id.
// Tokens are issued by the identity service; this service only verifies them.
type AccessTokenClaims struct {
	ActorID uuid.UUID       `json:"actor_id"`
	Role    enums.ActorRole `json:"role"`
	Name    string          `json:"name,omitempty"`
	jwt.RegisteredClaims
}
