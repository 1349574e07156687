package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_test(t *testing.T) {
	conf, err := LoadConfig("test")
	require.NoError(t, err)

	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.Equal(t, 12*time.Hour, conf.Auth.TokenExpiry)
	assert.False(t, conf.Auth.PasswordPolicy, "opt-in")
	assert.True(t, conf.Registration.AutoSeed)
	assert.Equal(t, "memory", conf.Queue.Backend)
	assert.Equal(t, "postgres", conf.Database.DriverName())
	assert.Equal(t, "localhost:5432", conf.Database.Address())
}

func TestLoadConfig_env(t *testing.T) {
	t.Setenv("TEST_AUTH_BCRYPTCOST", "4")
	t.Setenv("TEST_DATABASE_ENGINE", "pgx")
	t.Setenv("TEST_REGISTRATION_AUTOSEED", "false")

	conf, err := LoadConfig("TEST")
	require.NoError(t, err)
	assert.Equal(t, 4, conf.Auth.BcryptCost)
	assert.Equal(t, "pgx", conf.Database.DriverName())
	assert.False(t, conf.Registration.AutoSeed)
}

func TestConfig_Validate(t *testing.T) {
	conf, err := LoadConfig("TEST")
	require.NoError(t, err)
	require.NoError(t, conf.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "no secret key", mutate: func(c *Config) { c.SecretKey = "" }},
		{name: "no token expiry", mutate: func(c *Config) { c.Auth.TokenExpiry = 0 }},
		{name: "bcrypt cost too low", mutate: func(c *Config) { c.Auth.BcryptCost = 1 }},
		{name: "bcrypt cost too high", mutate: func(c *Config) { c.Auth.BcryptCost = 40 }},
		{name: "no connections", mutate: func(c *Config) { c.Database.MaxOpenConns = 0 }},
		{name: "no queue buffer", mutate: func(c *Config) { c.Queue.Size = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := *conf
			tc.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadConfig_secretKey(t *testing.T) {
	_, err := LoadConfig("PROD")
	if assert.Error(t, err, "the development key is refused") {
		assert.Contains(t, err.Error(), "secretKey")
	}

	t.Setenv("PROD_SECRETKEY", "prod-only-secret")
	conf, err := LoadConfig("PROD")
	require.NoError(t, err)
	assert.Equal(t, "prod-only-secret", conf.SecretKey)

	for _, env := range []string{"", "DEV", "TEST"} {
		conf, err = LoadConfig(env)
		require.NoError(t, err, env)
		assert.Equal(t, devSecretKey, conf.SecretKey)
	}
}

func TestConfig_DefaultFromEmail(t *testing.T) {
	conf := &Config{AppName: "Institute", defaultFromEmail: "Institute <no-reply@localhost>"}
	assert.Equal(t, "no-reply@localhost", conf.DefaultFromEmail().Address)
	assert.Equal(t, "Institute", conf.DefaultFromEmail().Name)

	conf.defaultFromEmail = "not an address"
	assert.Equal(t, "Institute", conf.DefaultFromEmail().Name)
	assert.Equal(t, "not an address", conf.DefaultFromEmail().Address)
}
