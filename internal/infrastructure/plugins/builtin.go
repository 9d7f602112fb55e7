package plugins

import (
	"fetcher.dev/cli/internal/plugins/github"
	"fetcher.dev/cli/internal/plugins/linkedin"
	"fetcher.dev/cli/internal/plugins/spotify"
	"fetcher.dev/cli/internal/plugins/trello"
)

// Builtin returns the plugins compiled into the binary, in load order
func Builtin() []Registration {
	return []Registration{
		{Name: github.Name, Factory: github.New},
		{Name: trello.Name, Factory: trello.New},
		{Name: spotify.Name, Factory: spotify.New},
		{Name: linkedin.Name, Factory: linkedin.New},
	}
}
