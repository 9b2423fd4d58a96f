package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tandemflight-backend/pkg/config"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "tandemflight", ExpirationMinutes: 30}

func mint(t *testing.T, now time.Time, payload AccessTokenPayload) string {
	t.Helper()
	token, err := MintAccessToken(testJWT, now, payload)
	require.NoError(t, err)
	return token
}

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Now().UTC()
	actor := uuid.New()

	claims, err := ParseAccessToken(testJWT, mint(t, now, AccessTokenPayload{
		ActorID: actor,
		Role:    enums.ActorRoleCompany,
		Name:    " Sky Tandems ",
		JTI:     "token-1",
	}))
	require.NoError(t, err)

	assert.Equal(t, actor, claims.ActorID)
	assert.Equal(t, enums.ActorRoleCompany, claims.Role)
	assert.Equal(t, "Sky Tandems", claims.Name)
	assert.Equal(t, "token-1", claims.ID)
	assert.Equal(t, actor.String(), claims.Subject)
	assert.Equal(t, testJWT.Issuer, claims.Issuer)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestParseAccessTokenRejects(t *testing.T) {
	valid := mint(t, time.Now(), AccessTokenPayload{ActorID: uuid.New(), Role: enums.ActorRoleAdmin})
	otherIssuer := testJWT
	otherIssuer.Issuer = "someone-else"

	tests := []struct {
		name    string
		cfg     config.JWTConfig
		token   string
		wantErr error
	}{
		{name: "tampered signature", cfg: testJWT, token: valid + "x", wantErr: jwt.ErrTokenSignatureInvalid},
		{name: "expired", cfg: testJWT, token: mint(t, time.Now().Add(-time.Hour), AccessTokenPayload{ActorID: uuid.New(), Role: enums.ActorRolePilot}), wantErr: jwt.ErrTokenExpired},
		{name: "wrong issuer", cfg: otherIssuer, token: valid, wantErr: jwt.ErrTokenInvalidIssuer},
		{name: "no secret", cfg: config.JWTConfig{}, token: valid, wantErr: ErrMissingSecret},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAccessToken(tc.cfg, tc.token)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestMintAccessTokenValidatesPayload(t *testing.T) {
	for _, role := range []enums.ActorRole{"", enums.ActorRoleSystem, "customer"} {
		_, err := MintAccessToken(testJWT, time.Now(), AccessTokenPayload{ActorID: uuid.New(), Role: role})
		assert.Error(t, err, "role %q", role)
	}

	_, err := MintAccessToken(testJWT, time.Now(), AccessTokenPayload{Role: enums.ActorRoleAdmin})
	assert.ErrorIs(t, err, ErrMissingActor)

	_, err = MintAccessToken(config.JWTConfig{Secret: "s", Issuer: "i"}, time.Now(), AccessTokenPayload{ActorID: uuid.New(), Role: enums.ActorRoleAdmin})
	assert.Error(t, err)
}
