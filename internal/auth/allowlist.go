package auth

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AllowList holds the paths exempt from authentication. Prefix entries match
// any path starting with them; exact entries match only themselves.
type AllowList struct {
	Prefixes []string `yaml:"prefixes"`
	Exact    []string `yaml:"exact"`
}

// DefaultAllowList covers account entry points, public catalog reads, static
// resources and operational probes.
func DefaultAllowList() AllowList {
	return AllowList{
		Prefixes: []string{
			"/user/login",
			"/user/register",
			"/user/sendVerificationCode",
			"/user/resetUserPassword",
			"/admin/login",
			"/song/getAllSongs",
			"/song/getRecommendedSongs",
			"/song/getSongDetail",
			"/artist/getAllArtists",
			"/artist/getRandomArtists",
			"/artist/getArtistDetail",
			"/playlist/getAllPlaylists",
			"/playlist/getRecommendedPlaylists",
			"/playlist/getPlaylistDetail",
			"/banner/getBannerList",
			"/index.html",
			"/health",
			"/metrics",
		},
		// "/" as a prefix would exempt every path.
		Exact: []string{"/"},
	}
}

// LoadAllowList reads an allow-list from a YAML file. An empty path yields
// the defaults.
func LoadAllowList(path string) (AllowList, error) {
	if path == "" {
		return DefaultAllowList(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return AllowList{}, fmt.Errorf("read allow-list: %w", err)
	}

	var list AllowList
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return AllowList{}, fmt.Errorf("parse allow-list %s: %w", path, err)
	}
	if err := list.validate(); err != nil {
		return AllowList{}, fmt.Errorf("allow-list %s: %w", path, err)
	}
	return list, nil
}

func (l AllowList) validate() error {
	for _, p := range l.Prefixes {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("prefix %q must start with /", p)
		}
		if p == "/" {
			return fmt.Errorf("prefix / exempts every path; list it under exact")
		}
	}
	for _, p := range l.Exact {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("exact path %q must start with /", p)
		}
	}
	return nil
}

// IsPublic reports whether path bypasses authentication.
func (l AllowList) IsPublic(path string) bool {
	for _, exact := range l.Exact {
		if path == exact {
			return true
		}
	}
	for _, prefix := range l.Prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
