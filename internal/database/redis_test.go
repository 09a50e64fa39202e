package database

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestConnectRedis(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client, err := ConnectRedis(t.Context(), "redis://"+mini.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Set(t.Context(), "results:stats:1", "{}", 0).Err())
	require.True(t, mini.Exists("results:stats:1"))

	_, err = ConnectRedis(t.Context(), "")
	require.Error(t, err)

	_, err = ConnectRedis(t.Context(), "not a url")
	require.Error(t, err)
}
