package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/leofalp/sitesummarizer/core/settings"
	"github.com/leofalp/sitesummarizer/providers/ai"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the saved summarization settings",
	}
	cmd.AddCommand(newSettingsShowCmd())
	cmd.AddCommand(newSettingsSetCmd())
	cmd.AddCommand(newSettingsClearKeyCmd())
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				current, err := a.settings.Load(ctx)
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), current)
				return nil
			})
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	var provider, model, length, apiKey string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change saved settings; unset flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				current, err := a.settings.Load(ctx)
				if err != nil {
					return err
				}

				flags := cmd.Flags()
				if flags.Changed("provider") {
					current.Provider = ai.ParseProviderName(provider)
				}
				if flags.Changed("model") {
					current.Model = model
				}
				if flags.Changed("length") {
					current.Length = length
				}

				if err := a.settings.Save(ctx, current, apiKey); err != nil {
					return err
				}

				saved, err := a.settings.Load(ctx)
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), saved)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "LLM provider: openai or gemini")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name; empty uses the provider default")
	cmd.Flags().StringVarP(&length, "length", "l", "", "summary length: short, medium or long")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key to store encrypted")
	return cmd
}

func newSettingsClearKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-key",
		Short: "Remove the saved API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if err := a.settings.ClearAPIKey(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "API key removed")
				return nil
			})
		},
	}
}

func printSettings(out io.Writer, s settings.Settings) {
	model := s.Model
	if model == "" {
		model = "(provider default)"
	}
	fmt.Fprintf(out, "provider: %s\n", s.Provider)
	fmt.Fprintf(out, "model:    %s\n", model)
	fmt.Fprintf(out, "length:   %s\n", s.Length)
	key := "not set"
	if s.HasAPIKey {
		key = "set"
	}
	fmt.Fprintf(out, "api key:  %s\n", key)
}

// withApp opens the app for one command and closes it afterwards.
func withApp(ctx context.Context, run func(context.Context, *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return run(ctx, a)
}
