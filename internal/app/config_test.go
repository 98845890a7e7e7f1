package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "2024-10", cfg.ShopifyAPIVersion)
	require.Equal(t, 30*time.Second, cfg.SnapshotCacheTTL)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigShopRequiresToken(t *testing.T) {
	t.Setenv("SHOPIFY_SHOP", "demo.myshopify.com")
	t.Setenv("SHOPIFY_ADMIN_TOKEN", "")

	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("SHOPIFY_ADMIN_TOKEN", "shpat_test")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "demo.myshopify.com", cfg.ShopifyShop)
}

func TestIsProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
}
