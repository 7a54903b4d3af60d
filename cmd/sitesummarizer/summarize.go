package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leofalp/sitesummarizer/core/summarizer"
	"github.com/leofalp/sitesummarizer/providers/ai"
	"github.com/leofalp/sitesummarizer/providers/observability"
	"github.com/leofalp/sitesummarizer/providers/page"
	"github.com/leofalp/sitesummarizer/providers/sink"
	"github.com/leofalp/sitesummarizer/providers/store"
)

type summarizeFlags struct {
	provider  string
	model     string
	length    string
	apiKey    string
	selection string
	stored    bool
}

func newSummarizeCmd() *cobra.Command {
	var flags summarizeFlags

	cmd := &cobra.Command{
		Use:   "summarize <url-or-text>",
		Short: "Summarize a page and print the summary as it streams",
		Long: "Summarize the first http(s) URL found in the argument. With --stored the\n" +
			"provider, model, length and API key come from the saved settings.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSummarize(ctx, cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.provider, "provider", "p", "openai", "LLM provider: openai or gemini")
	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "model name (default: provider default)")
	cmd.Flags().StringVarP(&flags.length, "length", "l", summarizer.LengthMedium, "summary length: short, medium or long")
	cmd.Flags().StringVar(&flags.apiKey, "api-key", "", "provider API key")
	cmd.Flags().StringVar(&flags.selection, "selection", "", "selected text to summarize instead of the whole page")
	cmd.Flags().BoolVar(&flags.stored, "stored", false, "use the saved settings and API key")
	cmd.MarkFlagsMutuallyExclusive("stored", "api-key")

	return cmd
}

func runSummarize(ctx context.Context, out io.Writer, input string, flags summarizeFlags) error {
	target, err := page.ResolveTarget(input)
	if err != nil {
		return err
	}
	target.Selection = flags.selection

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.observer.Warn(ctx, "Failed to close settings store", observability.Error(err))
		}
	}()

	var printed sync.WaitGroup
	opened := func(sessionID string) {
		// opened runs before INIT is broadcast, so the subscription sees the
		// whole stream
		sub := a.hub.Subscribe(sessionID)
		printed.Add(1)
		go func() {
			defer printed.Done()
			defer sub.Close()
			printStream(ctx, out, sub)
		}()
	}

	var session *store.Session
	if flags.stored {
		session, err = a.summarizer.SummarizeShortcut(ctx, summarizer.ShortcutRequest{Target: target}, opened)
	} else {
		session, err = a.summarizer.Summarize(ctx, summarizer.Request{
			Target:   target,
			Provider: ai.ParseProviderName(flags.provider),
			APIKey:   flags.apiKey,
			Model:    flags.model,
			Length:   flags.length,
		}, opened)
	}
	printed.Wait()

	if session != nil && session.Summary != "" && !strings.HasSuffix(session.Summary, "\n") {
		fmt.Fprintln(out)
	}
	return err
}

// printStream writes deltas to out until the session ends.
func printStream(ctx context.Context, out io.Writer, sub *sink.Subscription) {
	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			return
		}
		if msg.Type == sink.MessageDelta {
			fmt.Fprint(out, msg.Delta)
		}
		if msg.Type.Terminal() {
			return
		}
	}
}
