package awsconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults the region", func(t *testing.T) {
		t.Setenv("AWS_REGION", "")
		cfg, err := Load(context.Background(), Options{})
		require.NoError(t, err)
		assert.Equal(t, DefaultRegion, cfg.Region)
	})

	t.Run("static credentials", func(t *testing.T) {
		cfg, err := Load(context.Background(), Options{
			Region:          "eu-west-1",
			AccessKeyID:     "AKIDEXAMPLE",
			SecretAccessKey: "secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "eu-west-1", cfg.Region)

		creds, err := cfg.Credentials.Retrieve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
	})
}
