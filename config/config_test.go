package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_SECRET", "0123456789abcdef-test")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "local", c.StorageDriver)
	assert.Equal(t, 30*24*time.Hour, c.JWTExpiry)
	assert.Equal(t, int64(50<<20), c.MaxUploadBytes())
	assert.Equal(t, []string{"*"}, c.AllowedOrigins())
}

func TestLoadNormalisesAdminEmail(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_EMAIL", "  Admin@Example.ORG ")
	t.Setenv("ADMIN_PASSWORD", "s3cret-pass")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "admin@example.org", c.AdminEmail)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"short secret":           {"JWT_SECRET": "short"},
		"cloudinary without url": {"STORAGE_DRIVER": "cloudinary"},
		"unknown driver":         {"DB_DRIVER": "mongo"},
		"admin without password": {"ADMIN_EMAIL": "admin@example.org"},
		"bad expiry":             {"JWT_EXPIRY": "thirty days"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	c := &Config{CORSOrigins: "https://a.example, https://b.example,,"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins())
}
