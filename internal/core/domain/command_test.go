package domain

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func noopHandler(context.Context, []string, io.Writer) error { return nil }

// TestNewCommandTable_Validation tests construction rules of command tables
func TestNewCommandTable_Validation(t *testing.T) {
	tests := []struct {
		name     string
		commands []Command
		wantErr  string
	}{
		{
			name:     "EmptyTable_IsValid",
			commands: nil,
		},
		{
			name: "UniqueNames_AreAccepted",
			commands: []Command{
				{Name: "me", Handler: noopHandler},
				{Name: "repo", Handler: noopHandler},
			},
		},
		{
			name: "DuplicateName_IsRejected",
			commands: []Command{
				{Name: "me", Handler: noopHandler},
				{Name: "me", Handler: noopHandler},
			},
			wantErr: "duplicate command 'me'",
		},
		{
			name:     "EmptyName_IsRejected",
			commands: []Command{{Handler: noopHandler}},
			wantErr:  "command name cannot be empty",
		},
		{
			name:     "MissingHandler_IsRejected",
			commands: []Command{{Name: "me"}},
			wantErr:  "command 'me' has no handler",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewCommandTable(tt.commands...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, table)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.commands), table.Len())
		})
	}
}

// TestCommandTable_Lookup tests lookup of known and unknown commands
func TestCommandTable_Lookup(t *testing.T) {
	table := MustCommandTable(
		Command{Name: "boards", Description: "List boards", Handler: noopHandler},
		Command{Name: "board", Description: "Show a board", MinArgs: 1, Handler: noopHandler},
	)

	cmd, ok := table.Lookup("board")
	require.True(t, ok)
	assert.Equal(t, "Show a board", cmd.Description)
	assert.Equal(t, 1, cmd.MinArgs)

	_, ok = table.Lookup("cards")
	assert.False(t, ok)
}

// TestCommandTable_ParamsAreCopied tests that callers cannot mutate declared params
func TestCommandTable_ParamsAreCopied(t *testing.T) {
	params := []Param{{Name: "owner_repo", Type: ParamString}}
	table := MustCommandTable(Command{Name: "repo", Params: params, Handler: noopHandler})

	params[0].Name = "changed"

	cmd, _ := table.Lookup("repo")
	assert.Equal(t, "owner_repo", cmd.Params[0].Name)
}

// TestCommandTable_PreservesDeclarationOrder property-tests ordering of names
func TestCommandTable_PreservesDeclarationOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		commands := make([]Command, 0, n)
		for i := 0; i < n; i++ {
			commands = append(commands, Command{Name: fmt.Sprintf("cmd%d", i), Handler: noopHandler})
		}
		commands = rapid.Permutation(commands).Draw(t, "order")

		table, err := NewCommandTable(commands...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := table.Names()
		for i, cmd := range commands {
			if got[i] != cmd.Name {
				t.Fatalf("position %d: got %s want %s", i, got[i], cmd.Name)
			}
		}
		if len(got) != n {
			t.Fatalf("got %d names, want %d", len(got), n)
		}
	})
}

// TestArg tests positional argument fallback
func TestArg(t *testing.T) {
	args := []string{"octocat/Hello-World", ""}
	assert.Equal(t, "octocat/Hello-World", Arg(args, 0, "x"))
	assert.Equal(t, "open", Arg(args, 1, "open"))
	assert.Equal(t, "5", Arg(args, 2, "5"))
}
