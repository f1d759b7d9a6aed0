package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAllowList(t *testing.T) {
	list := DefaultAllowList()

	public := []string{
		"/",
		"/index.html",
		"/user/login",
		"/user/register",
		"/user/sendVerificationCode",
		"/user/resetUserPassword",
		"/admin/login",
		"/song/getAllSongs",
		"/song/getSongDetail/12",
		"/artist/getArtistDetail/3",
		"/playlist/getRecommendedPlaylists",
		"/banner/getBannerList",
		"/health/ready",
		"/metrics",
	}
	for _, path := range public {
		assert.True(t, list.IsPublic(path), path)
	}

	protected := []string{
		"/user/logout",
		"/user/getUserInfo",
		"/user/updateUserPassword",
		"/user/deleteAccount",
		"/admin/logout",
		"/admin/register",
		"/favorite/getFavoriteSongs",
		"/comment/addSongComment",
		"/playlist/addPlaylist",
		"",
	}
	for _, path := range protected {
		assert.False(t, list.IsPublic(path), path)
	}
}

func TestLoadAllowListDefaultsWhenUnset(t *testing.T) {
	list, err := LoadAllowList("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAllowList(), list)
}

func TestLoadAllowListFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.yaml")
	content := "prefixes:\n  - /user/login\n  - /public\nexact:\n  - /\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	list, err := LoadAllowList(path)
	require.NoError(t, err)

	assert.True(t, list.IsPublic("/public/anything"))
	assert.True(t, list.IsPublic("/"))
	assert.False(t, list.IsPublic("/song/getAllSongs"))
}

func TestLoadAllowListRejectsRootPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prefixes:\n  - /\n"), 0o600))

	_, err := LoadAllowList(path)
	assert.Error(t, err)
}

func TestLoadAllowListErrors(t *testing.T) {
	_, err := LoadAllowList(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prefixes: [user/login]\n"), 0o600))
	_, err = LoadAllowList(path)
	assert.Error(t, err)
}
