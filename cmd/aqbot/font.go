package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tools.zach/dev/aqbot/internal/fontfetch"
	"tools.zach/dev/aqbot/internal/typeface"
)

func newFontCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "font",
		Short: "Manage the header font",
	}
	cmd.AddCommand(newFontFetchCmd(a), newFontInfoCmd(a))
	return cmd
}

func newFontFetchCmd(a *app) *cobra.Command {
	var (
		output  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "fetch [google:FAMILY:WEIGHT]",
		Short: "Download the header font from Google Fonts",
		Long: `Download a font from Google Fonts and install it as the header font.

Without an argument header.font_fallback from the config is used. The font is
written to header.font when set, otherwise to <data-dir>/fonts/header.ttf.`,
		Example: `  aqbot font fetch
  aqbot font fetch "google:Bebas Neue:400"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			raw := cfg.Header.FontFallback
			if len(args) == 1 {
				raw = args[0]
			}
			spec, err := fontfetch.ParseSpec(raw)
			if err != nil {
				return err
			}
			dst := output
			if dst == "" {
				dst = cfg.FontPath(a.dataDir)
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			family, err := fontfetch.New(fontfetch.WithLogger(a.cliLogger())).Install(ctx, spec, dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "installed %s (%s) to %s\n", spec, family, dst)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Install path (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Overall download timeout")
	return cmd
}

func newFontInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the installed header font",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			path := cfg.FontPath(a.dataDir)
			if _, err := os.Stat(path); err != nil {
				fmt.Fprintf(a.stdout, "no header font at %s, run \"aqbot font fetch\"\n", path)
				return nil
			}
			font, err := typeface.Load(path)
			if err != nil {
				return err
			}
			ascent, descent := font.Metrics(24)
			fmt.Fprintf(a.stdout, "%s\n  family:  %s\n  ascent:  %.1fpx at 24px\n  descent: %.1fpx at 24px\n",
				path, font.Name(), ascent, descent)
			return nil
		},
	}
}
