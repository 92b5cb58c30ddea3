package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"brainbox/internal/gateway/handlers"
	"brainbox/internal/runner"
)

// turnFunc answers one turn over history.
type turnFunc func(ctx context.Context, history []runner.ChatMessage) (string, error)

// NewChatCmd creates the chat command.
func NewChatCmd() *cobra.Command {
	var (
		serverURL string
		local     bool
	)

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the assistant",
		Long: `Send a message to the Brainbox assistant and print the answer.

By default the message goes to a running server (started with 'brainbox serve').
With --local the turn runs in this process against the configured backend.

If no message is provided, an interactive conversation starts.`,
		Example: `  # Send a single message
  brainbox chat "What is on my list?"

  # Run without a server
  brainbox chat --local "Add buy milk to my tasks"

  # Interactive chat
  brainbox chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := mustCLIContext(cmd)
			if err != nil {
				return err
			}

			var turn turnFunc
			if local {
				a, err := newApp(cliCtx)
				if err != nil {
					return err
				}
				turn = localTurn(a.runner)
			} else {
				if serverURL == "" {
					serverURL = cliCtx.gatewayURL()
				}
				turn = remoteTurn(http.DefaultClient, serverURL)
			}

			if len(args) == 0 {
				return runInteractiveChat(cmd.Context(), os.Stdin, cmd.OutOrStdout(), turn, isTerminal(os.Stdin))
			}

			message := strings.Join(args, " ")
			answer, err := turn(cmd.Context(), []runner.ChatMessage{{Role: runner.RoleUser, Text: message, Sequence: 1}})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "url", "", "Brainbox server URL (reads from config if not specified)")
	cmd.Flags().BoolVar(&local, "local", false, "run the turn in-process instead of on the server")

	return cmd
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func localTurn(r *runner.Runner) turnFunc {
	return func(ctx context.Context, history []runner.ChatMessage) (string, error) {
		result := r.Respond(ctx, history)
		if !result.OK() {
			return "", fmt.Errorf("%s: %s", result.Kind, result.Message)
		}
		return result.Text, nil
	}
}

func remoteTurn(client *http.Client, serverURL string) turnFunc {
	return func(ctx context.Context, history []runner.ChatMessage) (string, error) {
		last := history[len(history)-1]
		body, err := json.Marshal(handlers.ChatRequest{
			UserMessage:         last.Text,
			ConversationHistory: history[:len(history)-1],
		})
		if err != nil {
			return "", fmt.Errorf("failed to marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+"/api/v1/chat", bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to send request: %w\nIs the server running? Start it with: brainbox serve", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", decodeServerError(resp)
		}
		var out handlers.ChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		return out.AssistantResponse, nil
	}
}

func decodeServerError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	var e handlers.ErrorResponse
	if err := json.Unmarshal(data, &e); err == nil && e.Error.Message != "" {
		if e.Error.Kind != "" {
			return fmt.Errorf("%s (%d, %s): %s", e.Error.Code, resp.StatusCode, e.Error.Kind, e.Error.Message)
		}
		return fmt.Errorf("%s (%d): %s", e.Error.Code, resp.StatusCode, e.Error.Message)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
}

// runInteractiveChat reads user lines from in until EOF or "exit". The
// conversation is kept here and sent whole on every turn; failed turns are
// not added to it.
func runInteractiveChat(ctx context.Context, in io.Reader, out io.Writer, turn turnFunc, interactive bool) error {
	if interactive {
		fmt.Fprintln(out, "Brainbox Interactive Chat")
		fmt.Fprintln(out, "-------------------------")
		fmt.Fprintln(out, "Type 'exit' or 'quit' to end the session")
		fmt.Fprintln(out, "Type 'clear' to start a new conversation")
		fmt.Fprintln(out)
	}

	var history []runner.ChatMessage
	var seq int64
	reader := bufio.NewReader(in)

	for {
		if interactive {
			fmt.Fprint(out, "You: ")
		}
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		input := strings.TrimSpace(line)
		switch strings.ToLower(input) {
		case "":
			if eof {
				return nil
			}
			continue
		case "exit", "quit":
			return nil
		case "clear":
			history, seq = nil, 0
			fmt.Fprintln(out, "(conversation cleared)")
			continue
		}

		seq++
		pending := append(append([]runner.ChatMessage(nil), history...), runner.ChatMessage{Role: runner.RoleUser, Text: input, Sequence: seq})
		answer, err := turn(ctx, pending)
		if err != nil {
			seq--
			fmt.Fprintf(out, "Error: %v\n", err)
		} else {
			seq++
			history = append(pending, runner.ChatMessage{Role: runner.RoleAssistant, Text: answer, Sequence: seq})
			if interactive {
				fmt.Fprintf(out, "Brainbox: %s\n\n", answer)
			} else {
				fmt.Fprintln(out, answer)
			}
		}

		if eof || ctx.Err() != nil {
			return nil
		}
	}
}
