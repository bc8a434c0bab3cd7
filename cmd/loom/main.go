// Package main provides the CLI entry point for loom, a natural-language
// program harness.
//
// loom compiles a session's chat messages into Lua, executes them against a
// persistent namespace, and reports the resulting value or streaming
// notifications. This binary is a minimal line-oriented driver for the
// core — not the HTTP/streaming front door spec.md's Non-goals exclude from
// scope — analogous to original_source/backend/main.py's thin FastAPI
// wrapper around the same core.
//
//	loom run --provider anthropic < session.txt
//	echo "x = 7" | loom run --provider fake
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexusharness/loom/internal/config"
	"github.com/nexusharness/loom/internal/errand"
	"github.com/nexusharness/loom/internal/llm"
	"github.com/nexusharness/loom/internal/session"
	"github.com/nexusharness/loom/internal/trace"
	"github.com/nexusharness/loom/pkg/models"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "loom",
		Short:   "loom - a natural-language program harness",
		Version: fmt.Sprintf("%s (commit %s)", version, commit),
		Long: `loom classifies each message into a synthesis pipeline (code, code_skill,
routine, generating_routine, or data), asks a language model to synthesize
Lua, installs the result into a persistent execution namespace, and
surfaces the invocation's terminal value or streaming notifications.`,
		SilenceUsage: true,
	}
	root.AddCommand(buildRunCmd())
	return root
}

func buildRunCmd() *cobra.Command {
	var (
		configPath  string
		provider    string
		model       string
		apiKey      string
		tracePath   string
		sessionName string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive a session from a line-oriented transcript (one message per line) on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				client  llm.Client
				sessCfg session.Config
				err     error
			)
			if configPath != "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				client, err = cfg.LLM.BuildClient()
				if err != nil {
					return err
				}
				sessCfg = cfg.Session.ToSessionConfig()
				if tracePath == "" {
					tracePath = cfg.Trace.Path
				}
			} else {
				client, err = buildClient(provider, model, apiKey)
				if err != nil {
					return err
				}
				sessCfg = session.DefaultConfig()
			}

			registry, err := errand.NewRegistry()
			if err != nil {
				return fmt.Errorf("load errands: %w", err)
			}

			var sink *trace.Sink
			if tracePath != "" {
				sink, err = trace.NewFile(tracePath, sessionName, sessionName)
				if err != nil {
					return fmt.Errorf("open trace file: %w", err)
				}
			}

			sess := session.New(client, registry, sink, sessCfg, sessionName)
			return runTranscript(cmd.Context(), sess, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a loom config file (overrides --provider/--model/--api-key)")
	cmd.Flags().StringVar(&provider, "provider", "fake", "LM provider: anthropic, openai, or fake")
	cmd.Flags().StringVar(&model, "model", "", "override the provider's default model")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "provider API key (or set ANTHROPIC_API_KEY/OPENAI_API_KEY)")
	cmd.Flags().StringVar(&tracePath, "trace", "", "write the compilation/execution trace to this path")
	cmd.Flags().StringVar(&sessionName, "session", "cli", "session id used for trace headers")
	return cmd
}

func buildClient(provider, model, apiKey string) (llm.Client, error) {
	switch provider {
	case "", "fake":
		return &llm.FakeClient{Default: "-- no fake reply configured"}, nil
	case "anthropic":
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		return llm.NewAnthropicClient(llm.AnthropicConfig{APIKey: apiKey, DefaultModel: model})
	case "openai":
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return llm.NewOpenAIClient(llm.OpenAIConfig{APIKey: apiKey, DefaultModel: model})
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// runTranscript reads one message per line from r and drives it through the
// session, printing the terminal value or forwarded notifications to stdout.
// A line may start with "type: " (one of models.Choices(), or "auto") to
// force classification; bare lines are sent as TypeAuto.
func runTranscript(ctx context.Context, sess *session.Session, r interface{ Read([]byte) (int, error) }) error {
	scanner := bufio.NewScanner(r)
	mid := int64(0)
	for scanner.Scan() {
		mid++
		msg := parseTranscriptLine(mid, sess.ID, scanner.Text())

		if msg.Type == models.TypeGeneratingRoutine {
			events, err := sess.Harness.Stream(ctx, msg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "message %d: %v\n", mid, err)
				continue
			}
			for ev := range events {
				if ev.Err != nil {
					fmt.Fprintf(os.Stderr, "message %d: %v\n", mid, ev.Err)
					break
				}
				fmt.Printf("[%d] %s: %v\n", mid, ev.Notification.Type(), ev.Notification.Fields)
			}
			continue
		}

		out, err := sess.Harness.Process(ctx, msg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "message %d: %v\n", mid, err)
			continue
		}
		if out != nil {
			fmt.Printf("[%d] => %v\n", mid, out)
		}
	}
	return scanner.Err()
}

func parseTranscriptLine(mid int64, sessionID, line string) models.Message {
	msg := models.Message{MID: mid, SessionID: sessionID, Role: "user", Content: line, Type: models.TypeAuto}
	for _, choice := range append(models.Choices(), string(models.TypeAuto)) {
		prefix := choice + ": "
		if strings.HasPrefix(line, prefix) {
			msg.Type = models.MessageType(choice)
			msg.Content = strings.TrimPrefix(line, prefix)
			return msg
		}
	}
	return msg
}
