// Package trello exposes Trello boards, lists and cards as fetcher commands.
package trello

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
	httpinfra "fetcher.dev/cli/internal/infrastructure/http"
	"fetcher.dev/cli/internal/plugins/pluginkit"
)

const (
	Name           = "trello"
	DefaultBaseURL = "https://api.trello.com/1"
)

// Plugin talks to the Trello REST API with an API key and member token
type Plugin struct {
	*pluginkit.Base
	client *httpinfra.Client
}

// New is the registry factory for the Trello plugin
func New(deps pluginkit.Deps) (ports.Plugin, error) {
	creds, err := deps.Require(Name, "TRELLO_API_KEY", "TRELLO_TOKEN")
	if err != nil {
		return nil, err
	}
	baseURL, err := deps.BaseURL(Name, "TRELLO_BASE_URL", DefaultBaseURL)
	if err != nil {
		return nil, err
	}

	p := &Plugin{
		client: deps.NewClient(Name, baseURL, httpinfra.QueryAuth{Params: map[string]string{
			"key":   creds["TRELLO_API_KEY"],
			"token": creds["TRELLO_TOKEN"],
		}}),
	}

	p.Base, err = pluginkit.NewBase(Name, "Trello boards, lists and cards", p.test,
		domain.Command{
			Name: "boards", Description: "List all boards", Usage: "boards",
			Handler: p.boards,
		},
		domain.Command{
			Name: "board", Description: "Get board information with its open lists and cards", Usage: "board [board_id]", MinArgs: 1,
			Params:  []domain.Param{{Name: "board_id", Type: domain.ParamString, Required: true, Description: "Trello board ID"}},
			Handler: p.board,
		},
		domain.Command{
			Name: "card", Description: "Get card information", Usage: "card [card_id]", MinArgs: 1,
			Params:  []domain.Param{{Name: "card_id", Type: domain.ParamString, Required: true, Description: "Trello card ID"}},
			Handler: p.card,
		},
		domain.Command{
			Name: "list", Description: "Get list information with its open cards", Usage: "list [list_id]", MinArgs: 1,
			Params:  []domain.Param{{Name: "list_id", Type: domain.ParamString, Required: true, Description: "Trello list ID"}},
			Handler: p.list,
		},
		domain.Command{
			Name: "add_comment", Description: "Add a comment to a card", Usage: "add_comment [card_id] [comment]", MinArgs: 2,
			Params: []domain.Param{
				{Name: "card_id", Type: domain.ParamString, Required: true, Description: "Trello card ID"},
				{Name: "comment", Type: domain.ParamString, Required: true, Description: "Comment text"},
			},
			Handler: p.addComment,
		},
		domain.Command{
			Name: "move_card", Description: "Move a card to a different list", Usage: "move_card [card_id] [list_id]", MinArgs: 2,
			Params: []domain.Param{
				{Name: "card_id", Type: domain.ParamString, Required: true, Description: "Trello card ID"},
				{Name: "list_id", Type: domain.ParamString, Required: true, Description: "Destination list ID"},
			},
			Handler: p.moveCard,
		},
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plugin) test(ctx context.Context, out io.Writer) error {
	fmt.Fprintln(out, "Testing Trello plugin...")
	fmt.Fprintln(out, "\nTesting authentication:")

	var m member
	if err := p.client.Get(ctx, "members/me", nil, &m); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nUser Information:")
	fmt.Fprintf(out, "  Name: %s\n", orDefault(m.FullName, "N/A"))
	fmt.Fprintf(out, "  Username: %s\n", orDefault(m.Username, "N/A"))
	fmt.Fprintf(out, "  Email: %s\n", orDefault(m.Email, "N/A"))
	fmt.Fprintf(out, "  URL: %s\n", orDefault(m.URL, "N/A"))

	fmt.Fprintln(out, "\nListing boards:")
	if err := p.boards(ctx, nil, out); err != nil {
		return err
	}
	fmt.Fprintln(out, "\n✅ Trello connection OK")
	return nil
}

func (p *Plugin) boards(ctx context.Context, _ []string, out io.Writer) error {
	var list []entity
	if err := p.client.Get(ctx, "members/me/boards", nil, &list); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nYour Boards:")
	printEntities(out, list)
	return nil
}

func (p *Plugin) board(ctx context.Context, args []string, out io.Writer) error {
	var b board
	query := url.Values{"lists": {"open"}, "cards": {"open"}}
	if err := p.client.Get(ctx, "boards/"+url.PathEscape(args[0]), query, &b); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nBoard: %s\n", b.Name)
	fmt.Fprintf(out, "Description: %s\n", orDefault(b.Desc, "No description"))
	fmt.Fprintf(out, "URL: %s\n", orDefault(b.URL, "No URL"))
	if b.Lists != nil {
		fmt.Fprintln(out, "\nLists:")
		printEntities(out, b.Lists)
	}
	if b.Cards != nil {
		fmt.Fprintln(out, "\nCards:")
		printEntities(out, b.Cards)
	}
	return nil
}

func (p *Plugin) card(ctx context.Context, args []string, out io.Writer) error {
	var c card
	if err := p.client.Get(ctx, "cards/"+url.PathEscape(args[0]), nil, &c); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nCard: %s\n", c.Name)
	fmt.Fprintf(out, "Description: %s\n", orDefault(c.Desc, "No description"))
	fmt.Fprintf(out, "Due Date: %s\n", orDefault(c.Due, "No due date"))
	fmt.Fprintf(out, "URL: %s\n", orDefault(c.URL, "No URL"))
	return nil
}

func (p *Plugin) list(ctx context.Context, args []string, out io.Writer) error {
	var l cardList
	if err := p.client.Get(ctx, "lists/"+url.PathEscape(args[0]), url.Values{"cards": {"open"}}, &l); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nList: %s\n", l.Name)
	closed := "No"
	if l.Closed {
		closed = "Yes"
	}
	fmt.Fprintf(out, "Closed: %s\n", closed)
	if l.Cards != nil {
		fmt.Fprintln(out, "\nCards in this list:")
		printEntities(out, l.Cards)
	}
	return nil
}

func (p *Plugin) addComment(ctx context.Context, args []string, out io.Writer) error {
	cardID := args[0]
	if err := p.client.Post(ctx, "cards/"+url.PathEscape(cardID)+"/actions/comments", map[string]string{"text": args[1]}, nil); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nComment added successfully to card %s\n", cardID)
	return nil
}

func (p *Plugin) moveCard(ctx context.Context, args []string, out io.Writer) error {
	cardID, listID := args[0], args[1]
	if err := p.client.Put(ctx, "cards/"+url.PathEscape(cardID), map[string]string{"idList": listID}, nil); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nCard moved successfully to list %s\n", listID)
	return nil
}

func printEntities(out io.Writer, list []entity) {
	for _, e := range list {
		fmt.Fprintf(out, "- %s (ID: %s)\n", e.Name, e.ID)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
