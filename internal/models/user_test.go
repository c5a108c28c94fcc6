package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/authflow/internal/models"
)

func TestNewUser(t *testing.T) {
	now := time.Now()
	user := models.NewUser("Ann", "ann@x.com")

	require.NotNil(t, user)
	_, err := uuid.Parse(user.ID)
	assert.NoError(t, err, "NewUser should assign a uuid")
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "ann@x.com", user.Email)
	assert.Empty(t, user.PasswordHash)
	assert.Nil(t, user.ResetPasswordToken)
	assert.Nil(t, user.ResetPasswordExpire)
	assert.WithinDuration(t, now, user.CreatedAt, time.Second)
	assert.Equal(t, "users", user.TableName())
}

func TestUserJSONNeverContainsSecrets(t *testing.T) {
	token := "abc123"
	expire := time.Now().Add(time.Minute)
	user := &models.User{
		ID:                  "u1",
		Name:                "Ann",
		Email:               "ann@x.com",
		PasswordHash:        "hash",
		Salt:                "salt",
		ResetPasswordToken:  &token,
		ResetPasswordExpire: &expire,
	}

	for name, v := range map[string]interface{}{
		"user":    user,
		"public":  user.Public(),
		"profile": user.Profile(),
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := json.Marshal(v)
			require.NoError(t, err)

			var fields map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &fields))

			assert.Equal(t, "Ann", fields["name"])
			for _, secret := range []string{"password", "passwordHash", "PasswordHash", "salt", "Salt", "resetPasswordToken", "ResetPasswordToken"} {
				assert.NotContains(t, fields, secret)
			}
			assert.NotContains(t, string(raw), "hash")
		})
	}
}

func TestUserHasPendingReset(t *testing.T) {
	now := time.Now()
	token := "t"
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	tests := []struct {
		name   string
		token  *string
		expire *time.Time
		want   bool
	}{
		{"none", nil, nil, false},
		{"unexpired", &token, &future, true},
		{"expired", &token, &past, false},
		{"token without expiry", &token, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &models.User{ResetPasswordToken: tt.token, ResetPasswordExpire: tt.expire}
			assert.Equal(t, tt.want, u.HasPendingReset(now))
		})
	}
}
