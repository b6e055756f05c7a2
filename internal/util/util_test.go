package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDayNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"8", 8, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"two", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDayNumber(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDay)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckDayNumber(t *testing.T) {
	n, err := CheckDayNumber(3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = CheckDayNumber(0)
	assert.ErrorIs(t, err, ErrInvalidDay)
	_, err = CheckDayNumber(-1)
	assert.ErrorIs(t, err, ErrInvalidDay)
}

func TestValidUserID(t *testing.T) {
	assert.True(t, ValidUserID("default_user"))
	assert.True(t, ValidUserID("a.b-c_9"))
	assert.False(t, ValidUserID(""))
	assert.False(t, ValidUserID("has space"))
	assert.False(t, ValidUserID("slash/inside"))
	assert.False(t, ValidUserID(string(make([]byte, 65))))
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("u1", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1", claims.Subject)

	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWT("u1", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, "secret")
	assert.Error(t, err)
}
