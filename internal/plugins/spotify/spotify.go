// Package spotify exposes the Spotify Web API as fetcher commands. Access tokens are
// obtained through the authorization-code flow on a loopback redirect.
package spotify

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
	httpinfra "fetcher.dev/cli/internal/infrastructure/http"
	"fetcher.dev/cli/internal/infrastructure/oauth"
	"fetcher.dev/cli/internal/plugins/pluginkit"
)

const (
	Name               = "spotify"
	TokenPrefix        = "SPOTIFY"
	DefaultBaseURL     = "https://api.spotify.com/v1"
	DefaultAccountsURL = "https://accounts.spotify.com"
	DefaultRedirectURL = "http://127.0.0.1:3003/callback"
)

var scopes = []string{
	"user-read-private",
	"user-read-email",
	"user-read-currently-playing",
	"playlist-read-private",
	"playlist-modify-public",
	"playlist-modify-private",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-recently-played",
	"user-top-read",
	"user-follow-read",
	"user-follow-modify",
}

var (
	searchTypes = []string{"track", "artist", "album"}
	topTypes    = []string{"tracks", "artists"}
	// charts maps a country to its chart playlists
	charts = map[string][]chart{
		"brazil": {{Name: "top50", PlaylistID: "37i9dQZEVXbMXbN3EUUhlg"}},
	}
)

type chart struct {
	Name       string
	PlaylistID string
}

// Plugin talks to the Spotify Web API with a user token
type Plugin struct {
	*pluginkit.Base
	pluginkit.OAuthSupport
	client  *httpinfra.Client
	printer *message.Printer
}

// New is the registry factory for the Spotify plugin
func New(deps pluginkit.Deps) (ports.Plugin, error) {
	creds, err := deps.Require(Name, "SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET")
	if err != nil {
		return nil, err
	}
	baseURL, err := deps.BaseURL(Name, "SPOTIFY_API_URL", DefaultBaseURL)
	if err != nil {
		return nil, err
	}
	accountsURL, err := deps.BaseURL(Name, "SPOTIFY_ACCOUNTS_URL", DefaultAccountsURL)
	if err != nil {
		return nil, err
	}

	provider := oauth.Provider{
		Name:         Name,
		ClientID:     creds["SPOTIFY_CLIENT_ID"],
		ClientSecret: creds["SPOTIFY_CLIENT_SECRET"],
		AuthURL:      strings.TrimRight(accountsURL, "/") + "/authorize",
		TokenURL:     strings.TrimRight(accountsURL, "/") + "/api/token",
		RedirectURL:  deps.LookupOr("SPOTIFY_REDIRECT_URI", DefaultRedirectURL),
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInHeader,
		AuthParams:   map[string]string{"show_dialog": "true"},
	}
	tokens := deps.NewTokenCache(TokenPrefix, provider,
		deps.NewClient(Name, accountsURL, nil),
		deps.BearerProbe(Name, baseURL, "me"))

	p := &Plugin{
		OAuthSupport: pluginkit.OAuthSupport{Tokens: tokens},
		client:       deps.NewClient(Name, baseURL, httpinfra.BearerAuth{Tokens: tokens}),
		printer:      message.NewPrinter(language.English),
	}

	playlistID := domain.Param{Name: "playlist_id", Type: domain.ParamString, Required: true, Description: "Spotify playlist ID"}

	p.Base, err = pluginkit.NewBase(Name, "Spotify profile, library, playlists and search", p.test,
		domain.Command{
			Name: "me", Description: "Show your Spotify profile", Usage: "me",
			Handler: p.me,
		},
		domain.Command{
			Name: "search", Description: "Search for tracks, artists, or albums", Usage: "search [type] [query]", MinArgs: 2,
			Params: []domain.Param{
				{Name: "type", Type: domain.ParamString, Required: true, Description: "One of " + strings.Join(searchTypes, ", ")},
				{Name: "query", Type: domain.ParamString, Required: true, Description: "Search text"},
			},
			Handler: p.search,
		},
		domain.Command{
			Name: "top", Description: "Show your top tracks or artists", Usage: "top [tracks|artists]", MinArgs: 1,
			Params:  []domain.Param{{Name: "type", Type: domain.ParamString, Required: true, Description: "One of " + strings.Join(topTypes, ", ")}},
			Handler: p.top,
		},
		domain.Command{
			Name: "recent", Description: "Show your recently played tracks", Usage: "recent",
			Handler: p.recent,
		},
		domain.Command{
			Name: "playlists", Description: "List your playlists", Usage: "playlists",
			Handler: p.playlists,
		},
		domain.Command{
			Name: "playlist", Description: "Show details of a playlist", Usage: "playlist [playlist_id]", MinArgs: 1,
			Params:  []domain.Param{playlistID},
			Handler: p.playlist,
		},
		domain.Command{
			Name: "create-playlist", Description: "Create a new playlist", Usage: "create-playlist [name] [description]", MinArgs: 1,
			Params: []domain.Param{
				{Name: "name", Type: domain.ParamString, Required: true, Description: "Playlist name"},
				{Name: "description", Type: domain.ParamString, Description: "Playlist description"},
			},
			Handler: p.createPlaylist,
		},
		domain.Command{
			Name: "edit-playlist", Description: "Edit playlist details", Usage: "edit-playlist [playlist_id] [name] [description]", MinArgs: 3,
			Params: []domain.Param{
				playlistID,
				{Name: "name", Type: domain.ParamString, Required: true, Description: "New playlist name"},
				{Name: "description", Type: domain.ParamString, Required: true, Description: "New playlist description"},
			},
			Handler: p.editPlaylist,
		},
		domain.Command{
			Name: "add-to-playlist", Description: "Add tracks to a playlist", Usage: "add-to-playlist [playlist_id] [track_id...]", MinArgs: 2,
			Params: []domain.Param{
				playlistID,
				{Name: "track_ids", Type: domain.ParamString, Required: true, Description: "Track IDs separated by spaces"},
			},
			Handler: p.addToPlaylist,
		},
		domain.Command{
			Name: "following", Description: "Show artists you are following", Usage: "following",
			Handler: p.following,
		},
		domain.Command{
			Name: "recommendations", Description: "Get track recommendations seeded by your top tracks", Usage: "recommendations",
			Handler: p.recommendations,
		},
		domain.Command{
			Name: "charts", Description: "Show top charts", Usage: "charts [country] [limit]",
			Params: []domain.Param{
				{Name: "country", Type: domain.ParamString, Default: "brazil", Description: "Country name"},
				{Name: "limit", Type: domain.ParamStringOrNumber, Default: "10", Description: "Number of tracks to show"},
			},
			Handler: p.charts,
		},
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plugin) test(ctx context.Context, out io.Writer) error {
	fmt.Fprintln(out, "Testing Spotify plugin...")
	if err := p.me(ctx, nil, out); err != nil {
		return err
	}
	fmt.Fprintln(out, "\n✅ Spotify connection OK")
	return nil
}

func (p *Plugin) me(ctx context.Context, _ []string, out io.Writer) error {
	var u profile
	if err := p.client.Get(ctx, "me", nil, &u); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nYour Spotify Profile:")
	fmt.Fprintf(out, "Name: %s\n", u.DisplayName)
	fmt.Fprintf(out, "Email: %s\n", u.Email)
	fmt.Fprintf(out, "Country: %s\n", u.Country)
	fmt.Fprintf(out, "Account Type: %s\n", u.Product)
	fmt.Fprintf(out, "Followers: %d\n", u.Followers.Total)
	if len(u.Images) > 0 {
		fmt.Fprintf(out, "Profile Image: %s\n", u.Images[0].URL)
	}
	return nil
}

func (p *Plugin) search(ctx context.Context, args []string, out io.Writer) error {
	kind, query := args[0], strings.Join(args[1:], " ")
	if !oneOf(kind, searchTypes) {
		fmt.Fprintf(out, "❌ Invalid search type. Must be one of: %s\n", strings.Join(searchTypes, ", "))
		return &domain.UsageError{Command: "search", Usage: "search [" + strings.Join(searchTypes, "|") + "] [query]"}
	}

	var result struct {
		Tracks  page[track]  `json:"tracks"`
		Artists page[artist] `json:"artists"`
		Albums  page[album]  `json:"albums"`
	}
	params := url.Values{"q": {query}, "type": {kind}, "limit": {"10"}}
	if err := p.client.Get(ctx, "search", params, &result); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n🔍 Search results for %s: '%s'\n", kind, query)
	switch kind {
	case "track":
		for i, t := range result.Tracks.Items {
			p.printTrack(out, i+1, t)
			fmt.Fprintf(out, "   🔗 %s\n", t.ExternalURLs.Spotify)
		}
	case "artist":
		for i, a := range result.Artists.Items {
			p.printArtist(out, i+1, a)
		}
	case "album":
		for i, a := range result.Albums.Items {
			fmt.Fprintf(out, "\n%d. 💿 %s\n", i+1, a.Name)
			fmt.Fprintf(out, "   👤 %s\n", joinNames(a.Artists))
			fmt.Fprintf(out, "   📅 %s\n", a.ReleaseDate)
			fmt.Fprintf(out, "   🔗 %s\n", a.ExternalURLs.Spotify)
		}
	}
	return nil
}

func (p *Plugin) top(ctx context.Context, args []string, out io.Writer) error {
	kind := args[0]
	if !oneOf(kind, topTypes) {
		fmt.Fprintln(out, "❌ Invalid type. Must be 'tracks' or 'artists'")
		return &domain.UsageError{Command: "top", Usage: "top [tracks|artists]"}
	}

	fmt.Fprintf(out, "\n🌟 Your Top %s:\n", strings.ToUpper(kind[:1])+kind[1:])
	if kind == "tracks" {
		var items page[track]
		if err := p.client.Get(ctx, "me/top/tracks", nil, &items); err != nil {
			return err
		}
		for i, t := range items.Items {
			p.printTrack(out, i+1, t)
		}
		return nil
	}

	var items page[artist]
	if err := p.client.Get(ctx, "me/top/artists", nil, &items); err != nil {
		return err
	}
	for i, a := range items.Items {
		p.printArtist(out, i+1, a)
	}
	return nil
}

func (p *Plugin) recent(ctx context.Context, _ []string, out io.Writer) error {
	var items page[playlistTrack]
	if err := p.client.Get(ctx, "me/player/recently-played", nil, &items); err != nil {
		return err
	}
	fmt.Fprintln(out, "\n🕒 Recently Played Tracks:")
	for i, item := range items.Items {
		p.printTrack(out, i+1, item.Track)
		played := item.PlayedAt
		if ts, err := time.Parse(time.RFC3339, item.PlayedAt); err == nil {
			played = ts.Format(time.DateTime)
		}
		fmt.Fprintf(out, "   ⏰ Played: %s\n", played)
	}
	return nil
}

func (p *Plugin) playlists(ctx context.Context, _ []string, out io.Writer) error {
	var items page[playlist]
	if err := p.client.Get(ctx, "me/playlists", nil, &items); err != nil {
		return err
	}
	fmt.Fprintln(out, "\n📋 Your Playlists:")
	for i, pl := range items.Items {
		fmt.Fprintf(out, "\n%d. 📝 %s\n", i+1, pl.Name)
		if pl.Description != "" {
			fmt.Fprintf(out, "   ℹ️ %s\n", pl.Description)
		} else {
			fmt.Fprintln(out, "   ℹ️ No description")
		}
		fmt.Fprintf(out, "   🎵 Tracks: %d\n", pl.Tracks.Total)
		fmt.Fprintf(out, "   🔗 ID: %s\n", pl.ID)
	}
	return nil
}

func (p *Plugin) playlist(ctx context.Context, args []string, out io.Writer) error {
	var pl playlist
	if err := p.client.Get(ctx, "playlists/"+url.PathEscape(args[0]), nil, &pl); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n📝 Playlist: %s\n", pl.Name)
	fmt.Fprintf(out, "ℹ️ %s\n", pl.Description)
	fmt.Fprintf(out, "👤 Created by: %s\n", pl.Owner.DisplayName)
	fmt.Fprintf(out, "🎵 Total tracks: %d\n", pl.Tracks.Total)
	fmt.Fprintf(out, "🔗 URL: %s\n", pl.ExternalURLs.Spotify)
	fmt.Fprintln(out, "\nTracks:")
	for i, item := range pl.Tracks.Items {
		p.printTrack(out, i+1, item.Track)
	}
	return nil
}

func (p *Plugin) createPlaylist(ctx context.Context, args []string, out io.Writer) error {
	var u profile
	if err := p.client.Get(ctx, "me", nil, &u); err != nil {
		return fmt.Errorf("failed to get user profile: %w", err)
	}

	req := map[string]interface{}{
		"name":        args[0],
		"description": strings.Join(args[1:], " "),
		"public":      true,
	}
	var created playlist
	if err := p.client.Post(ctx, "users/"+url.PathEscape(u.ID)+"/playlists", req, &created); err != nil {
		return err
	}

	fmt.Fprintln(out, "\n✅ Playlist created successfully!")
	fmt.Fprintf(out, "Name: %s\n", created.Name)
	fmt.Fprintf(out, "Description: %s\n", created.Description)
	fmt.Fprintf(out, "URL: %s\n", created.ExternalURLs.Spotify)
	fmt.Fprintf(out, "ID: %s\n", created.ID)
	fmt.Fprintln(out, "\nTip: Use this ID with the 'playlist' command to view details")
	return nil
}

func (p *Plugin) editPlaylist(ctx context.Context, args []string, out io.Writer) error {
	name, description := args[1], strings.Join(args[2:], " ")
	req := map[string]string{"name": name, "description": description}
	if err := p.client.Put(ctx, "playlists/"+url.PathEscape(args[0]), req, nil); err != nil {
		return err
	}
	fmt.Fprintln(out, "\n✅ Playlist updated successfully!")
	fmt.Fprintf(out, "Name: %s\n", name)
	fmt.Fprintf(out, "Description: %s\n", description)
	return nil
}

func (p *Plugin) addToPlaylist(ctx context.Context, args []string, out io.Writer) error {
	trackIDs := args[1:]
	uris := make([]string, 0, len(trackIDs))
	for _, id := range trackIDs {
		uris = append(uris, "spotify:track:"+id)
	}
	if err := p.client.Post(ctx, "playlists/"+url.PathEscape(args[0])+"/tracks", map[string][]string{"uris": uris}, nil); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n✅ Successfully added %d track(s) to the playlist!\n", len(trackIDs))
	fmt.Fprintln(out, "\nAdded tracks:")
	for _, id := range trackIDs {
		var t track
		// Names are informational; a failed lookup does not undo the addition
		if err := p.client.Get(ctx, "tracks/"+url.PathEscape(id), nil, &t); err != nil {
			continue
		}
		fmt.Fprintf(out, "🎵 %s - %s\n", t.Name, t.artistNames())
	}
	return nil
}

func (p *Plugin) following(ctx context.Context, _ []string, out io.Writer) error {
	var result struct {
		Artists page[artist] `json:"artists"`
	}
	if err := p.client.Get(ctx, "me/following", url.Values{"type": {"artist"}}, &result); err != nil {
		return err
	}
	fmt.Fprintln(out, "\n🎭 Artists you follow:")
	for i, a := range result.Artists.Items {
		p.printArtist(out, i+1, a)
		fmt.Fprintf(out, "   🔗 %s\n", a.ExternalURLs.Spotify)
	}
	return nil
}

func (p *Plugin) recommendations(ctx context.Context, _ []string, out io.Writer) error {
	var top page[track]
	if err := p.client.Get(ctx, "me/top/tracks", url.Values{"limit": {"5"}}, &top); err != nil {
		return fmt.Errorf("failed to get top tracks for recommendations: %w", err)
	}
	if len(top.Items) == 0 {
		fmt.Fprintln(out, "No top tracks yet; listen to some music first")
		return nil
	}

	seeds := make([]string, 0, 2)
	for _, t := range top.Items {
		if len(seeds) == 2 {
			break
		}
		seeds = append(seeds, t.ID)
	}

	var result struct {
		Tracks []track `json:"tracks"`
	}
	params := url.Values{"seed_tracks": {strings.Join(seeds, ",")}, "limit": {"10"}}
	if err := p.client.Get(ctx, "recommendations", params, &result); err != nil {
		return err
	}
	fmt.Fprintln(out, "\n🎯 Recommended Tracks based on your top tracks:")
	for i, t := range result.Tracks {
		p.printTrack(out, i+1, t)
		fmt.Fprintf(out, "   🔗 %s\n", t.ExternalURLs.Spotify)
	}
	return nil
}

func (p *Plugin) charts(ctx context.Context, args []string, out io.Writer) error {
	country := strings.ToLower(domain.Arg(args, 0, "brazil"))
	limit, err := strconv.Atoi(domain.Arg(args, 1, "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	lists, ok := charts[country]
	if !ok {
		fmt.Fprintf(out, "Charts not available for %s. Available countries: %s\n", country, strings.Join(chartCountries(), ", "))
		return &domain.UsageError{Command: "charts", Usage: "charts [country] [limit]"}
	}

	fmt.Fprintf(out, "\n📊 Top Charts - %s\n", strings.ToUpper(country[:1])+country[1:])
	for _, c := range lists {
		var pl playlist
		if err := p.client.Get(ctx, "playlists/"+c.PlaylistID, nil, &pl); err != nil {
			fmt.Fprintf(out, "❌ Error fetching %s: %d\n", c.Name, domain.StatusCode(err))
			continue
		}
		fmt.Fprintf(out, "\n🎵 %s\n", pl.Name)
		fmt.Fprintf(out, "🔗 %s\n\n", pl.ExternalURLs.Spotify)
		for i, item := range pl.Tracks.Items {
			if i == limit {
				break
			}
			t := item.Track
			fmt.Fprintf(out, "%d. %s - %s\n", i+1, t.Name, t.artistNames())
			fmt.Fprintf(out, "   💿 %s\n", t.Album.Name)
			fmt.Fprintf(out, "   ⏱️  %.1fmin\n", float64(t.DurationMS)/60000)
			fmt.Fprintf(out, "   🔗 %s\n\n", t.ExternalURLs.Spotify)
		}
		fmt.Fprintf(out, "\nTotal tracks in playlist: %d\n", len(pl.Tracks.Items))
		fmt.Fprintln(out, strings.Repeat("-", 50))
	}
	return nil
}

func (p *Plugin) printTrack(out io.Writer, n int, t track) {
	fmt.Fprintf(out, "\n%d. 🎵 %s\n", n, t.Name)
	fmt.Fprintf(out, "   👤 %s\n", t.artistNames())
	fmt.Fprintf(out, "   💿 %s\n", t.Album.Name)
}

func (p *Plugin) printArtist(out io.Writer, n int, a artist) {
	fmt.Fprintf(out, "\n%d. 👤 %s\n", n, a.Name)
	fmt.Fprintf(out, "   👥 Followers: %s\n", p.printer.Sprintf("%d", a.Followers.Total))
	fmt.Fprintf(out, "   🎭 Genres: %s\n", strings.Join(a.Genres, ", "))
}

func chartCountries() []string {
	names := make([]string, 0, len(charts))
	for name := range charts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func oneOf(s string, options []string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}

var _ ports.Authenticatable = (*Plugin)(nil)
