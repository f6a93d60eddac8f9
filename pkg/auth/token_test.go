package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

func TestCreateAndVerifyToken(t *testing.T) {
	secret := []byte("test-secret")
	token, exp, err := CreateToken(secret, "st-1", models.RoleOwnerAdmin, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := VerifyToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "st-1", claims.Subject)
	assert.Equal(t, models.RoleOwnerAdmin, claims.Role)

	_, err = VerifyToken([]byte("other"), token)
	assert.Error(t, err)
}

func TestVerifyToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	token, _, err := CreateToken(secret, "st-1", models.RoleStaff, -time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken(secret, token)
	assert.Error(t, err)
}

func TestInspectToken(t *testing.T) {
	token, _, err := CreateToken([]byte("server-only"), "st-9", models.RoleLead, -time.Minute)
	require.NoError(t, err)

	claims, err := InspectToken(token)
	require.NoError(t, err)
	assert.Equal(t, "st-9", claims.Subject)
	assert.Equal(t, models.RoleLead, claims.Role)
	assert.True(t, claims.Expired(time.Now()))

	_, err = InspectToken("not-a-jwt")
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("LeadSafe123!", 4)
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("LeadSafe123!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
