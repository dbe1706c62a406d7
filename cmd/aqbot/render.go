package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"tools.zach/dev/aqbot/internal/atomicfile"
	"tools.zach/dev/aqbot/internal/header"
	"tools.zach/dev/aqbot/internal/preview"
)

// ///////////////////////////////////////////////
// Render Command
// ///////////////////////////////////////////////

type renderOptions struct {
	req    header.Request
	svg    bool
	output string
}

// defaultOutput names the render in the data directory's renders folder.
func (a *app) defaultOutput(req header.Request, svg bool) string {
	ext := ".png"
	if svg {
		ext = ".svg"
	}
	return a.paths().Render(fmt.Sprintf("aq-header-day-%d%s", req.Day, ext))
}

func newRenderCmd(a *app) *cobra.Command {
	var o renderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one header banner to a file",
		Example: `  aqbot render --day 12 --channel warroom --role Officers
  aqbot render --day 3 --channel raid --role "Quest Team" --width 400 --height 100 -o day3.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.render(o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.req.Day, "day", 0, "Day counter")
	f.StringVar(&o.req.ChannelName, "channel", "", "Channel name shown in the left pill")
	f.StringVar(&o.req.RoleName, "role", "", "Role name shown in the right pill")
	f.IntVar(&o.req.Width, "width", 0, "Width in pixels (default from config)")
	f.IntVar(&o.req.Height, "height", 0, "Height in pixels (default from config)")
	f.BoolVar(&o.svg, "svg", false, "Write SVG markup instead of PNG")
	f.StringVarP(&o.output, "output", "o", "", "Output file (default <data-dir>/renders/aq-header-day-N.png)")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func (a *app) render(o renderOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	log := a.cliLogger()
	gen, err := newGenerator(cfg, a.dataDir, log)
	if err != nil {
		return err
	}

	req := o.req
	if req.Width == 0 {
		req.Width = cfg.Header.Width
	}
	if req.Height == 0 {
		req.Height = cfg.Header.Height
	}

	var data []byte
	if o.svg {
		data, err = gen.GenerateSVG(req)
	} else {
		data, err = gen.Generate(req)
	}
	if err != nil {
		return err
	}

	out := o.output
	if out == "" {
		out = a.defaultOutput(req, o.svg)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := atomicfile.Write(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(a.stdout, "wrote %s (%d bytes)\n", out, len(data))
	return nil
}

// ///////////////////////////////////////////////
// Preview Command
// ///////////////////////////////////////////////

type previewOptions struct {
	svg    bool
	watch  bool
	output string
}

func newPreviewCmd(a *app) *cobra.Command {
	var o previewOptions
	cmd := &cobra.Command{
		Use:   "preview REQUEST.toml",
		Short: "Render a request file, optionally on every change",
		Long: `Render the banner described by a TOML request file:

  day = 12
  channel = "warroom"
  role = "Officers"

With --watch the banner is re-rendered each time the file is saved, which is
handy for tuning colors and names with an image viewer open on the output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newPreviewer(args[0], o)
			if err != nil {
				return err
			}
			if !o.watch {
				res := p.Render()
				if res.Err != nil {
					return res.Err
				}
				fmt.Fprintf(a.stdout, "wrote %s (%d bytes)\n", res.Output, res.Bytes)
				return nil
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
			defer stop()
			fmt.Fprintf(a.stdout, "watching %s, press Ctrl+C to stop\n", args[0])
			return p.Watch(ctx)
		},
	}
	cmd.Flags().BoolVar(&o.svg, "svg", false, "Write SVG markup instead of PNG")
	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "Re-render when the request file changes")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Output file (default: request file name with .png or .svg)")
	return cmd
}

func (a *app) newPreviewer(src string, o previewOptions) (*preview.Previewer, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	log := a.cliLogger()
	gen, err := newGenerator(cfg, a.dataDir, log)
	if err != nil {
		return nil, err
	}

	out := o.output
	if out == "" {
		ext := ".png"
		if o.svg {
			ext = ".svg"
		}
		out = src[:len(src)-len(filepath.Ext(src))] + ext
	}

	opts := []preview.Option{preview.WithSVG(o.svg), preview.WithLogger(log)}
	if o.watch {
		opts = append(opts, preview.OnRender(func(r preview.Result) {
			if r.Err != nil {
				fmt.Fprintf(a.stderr, "render failed: %v\n", r.Err)
				return
			}
			fmt.Fprintf(a.stdout, "rendered day %d to %s\n", r.Request.Day, r.Output)
		}))
	}
	return preview.New(gen, src, out, opts...), nil
}
