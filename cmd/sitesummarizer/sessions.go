package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/sitesummarizer/internal/config"
	"github.com/leofalp/sitesummarizer/internal/utils"
	"github.com/leofalp/sitesummarizer/providers/store"
)

const sessionsRequestTimeout = 10 * time.Second

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect sessions held by a running server",
	}
	cmd.AddCommand(newSessionsShowCmd())
	return cmd
}

func newSessionsShowCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a session stored by the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				addr = cfg.ListenAddr
			}

			session, err := fetchSession(cmd.Context(), addr, args[0])
			if err != nil {
				return err
			}
			return printSession(cmd.OutOrStdout(), session)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "server address (default $SUMMARIZER_LISTEN_ADDR)")
	return cmd
}

func fetchSession(ctx context.Context, addr, id string) (store.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, sessionsRequestTimeout)
	defer cancel()

	endpoint := (&url.URL{Scheme: "http", Host: addr, Path: "/sessions/" + id}).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return store.Session{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return store.Session{}, fmt.Errorf("request session: %w", err)
	}
	defer utils.CloseWithLog(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return store.Session{}, fmt.Errorf("session %q: %w", id, store.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return store.Session{}, fmt.Errorf("unexpected status: %s: %s", resp.Status, utils.ReadErrorBody(resp))
	}

	var session store.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return store.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

func printSession(out io.Writer, session store.Session) error {
	status := "streaming"
	switch {
	case session.Done && session.OK:
		status = "done"
	case session.Done:
		status = "failed: " + session.Error
	}

	fmt.Fprintf(out, "%s  %s/%s  %s\n", session.ID, session.Provider, session.Model, status)
	fmt.Fprintf(out, "%s\n%s\n\n", session.Title, session.URL)
	_, err := fmt.Fprintln(out, session.Summary)
	return err
}
