// Package chat implements `weftctl chat`, an interactive terminal chat that
// streams through the weftd proxy.
package chat

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

var chatExample = heredoc.Doc(`
		# Interactive chat mode (TUI)
		weftctl chat

		# Single message mode
		weftctl chat "latest news about Go releases"

		# Connect to a specific weftd server
		weftctl chat --server=http://localhost:11985 "Hello"
`)

// ChatOptions holds the flags of the chat command.
type ChatOptions struct {
	ServerAddr string
	Token      string
	Model      string
}

// NewChatOptions returns chat options with defaults matching a local weftd.
func NewChatOptions() *ChatOptions {
	return &ChatOptions{
		ServerAddr: "http://localhost:11985",
		Model:      "gpt-4o",
	}
}

// NewCmdChat creates the chat command.
func NewCmdChat() *cobra.Command {
	o := NewChatOptions()

	cmd := &cobra.Command{
		Use:                   "chat [message]",
		DisableFlagsInUseLine: true,
		Short:                 "Chat through the weft splicing proxy",
		Long: heredoc.Doc(`
			Start a conversation through the weftd proxy.

			When invoked without arguments, open an interactive terminal chat.
			When invoked with a message argument, send it and print the streamed
			response. Questions about current events trigger a live web search
			spliced transparently into the answer.
		`),
		Example: chatExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
	}

	cmd.Flags().StringVar(&o.ServerAddr, "server", o.ServerAddr, "weftd HTTP server address")
	cmd.Flags().StringVar(&o.Token, "token", o.Token, "Bearer token for the weftd gateway (WEFT_GATEWAY_TOKEN also works)")
	cmd.Flags().StringVar(&o.Model, "model", o.Model, "Model name forwarded to the upstream endpoint")

	return cmd
}

// Complete fills in derived fields.
func (o *ChatOptions) Complete() error {
	if o.Token == "" {
		o.Token = os.Getenv("WEFT_GATEWAY_TOKEN")
	}
	// Ensure server address has schema
	if !strings.HasPrefix(o.ServerAddr, "http://") && !strings.HasPrefix(o.ServerAddr, "https://") {
		o.ServerAddr = "http://" + o.ServerAddr
	}
	return nil
}

// Run executes the chat command.
func (o *ChatOptions) Run(ctx context.Context, args []string) error {
	client := NewWeftClient(o.ServerAddr, o.Token, o.Model, nil)

	if len(args) > 0 {
		// Single message mode: send and print response
		message := strings.Join(args, " ")
		err := RunOnce(client, message, func(delta string) {
			fmt.Print(delta)
		})
		fmt.Println()
		return err
	}

	return RunTUI(client)
}
