package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ByLCY/autofit/config"
	"github.com/ByLCY/autofit/fit"
	"github.com/ByLCY/autofit/fonts"
	"github.com/ByLCY/autofit/layout"
	"github.com/ByLCY/autofit/renderer"
	"github.com/ByLCY/autofit/telemetry"
	"github.com/ByLCY/autofit/watch"
)

type outputOptions struct {
	input     string
	output    string
	data      string
	debugJSON string
	rawUnits  bool
	outline   bool
}

func (o *outputOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "输出路径，扩展名决定格式（默认与输入同名）")
	cmd.Flags().StringVarP(&o.data, "data", "d", "", "绑定到 DSL 的 YAML/JSON 数据文件")
	cmd.Flags().BoolVar(&o.outline, "outline", false, "为所有文本框绘制边框")
}

func (a *app) renderCmd() *cobra.Command {
	var opts outputOptions
	cmd := &cobra.Command{
		Use:   "render <file.autofit>",
		Short: "适配全部文本框并输出 PDF/PNG/JPEG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input = args[0]
			return a.render(cmd.Context(), opts)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.debugJSON, "debug-json", "", "布局调试 JSON 输出路径")
	cmd.Flags().BoolVar(&opts.rawUnits, "debug-raw-units", false, "在调试 JSON 中输出 debug.rawUnits 影子字段")
	return cmd
}

// render 串联解析、布局与渲染。
func (a *app) render(ctx context.Context, opts outputOptions) (err error) {
	doc, data, err := watch.Load(opts.input, opts.data)
	if err != nil {
		return err
	}
	output, format, err := a.resolveOutput(opts)
	if err != nil {
		return err
	}
	r, err := a.newRenderer(filepath.Dir(opts.input))
	if err != nil {
		return err
	}
	defaults, err := a.cfg.FitDefaults()
	if err != nil {
		return fmt.Errorf("配置 fit 段无效: %w", err)
	}

	ctx, span := a.tracer.StartRender(ctx, doc.Name, string(format))
	defer func() { span.End(err) }()

	res, buildErr := layout.Build(doc, data, a.buildOptions(ctx, r, defaults, opts.rawUnits))
	if res != nil && opts.debugJSON != "" {
		if err := layout.WriteDebugJSON(res, opts.debugJSON); err != nil {
			return err
		}
		a.log.Info("Debug layout written", zap.String("path", opts.debugJSON))
	}
	if buildErr != nil {
		return fmt.Errorf("布局计算失败: %w", buildErr)
	}

	overflowing := a.reportOverflow(res)
	span.SetFrames(len(res.Frames), overflowing)

	n, err := a.writeOutput(r, res, format, output, opts.outline)
	if err != nil {
		return err
	}
	span.SetBytes(n)
	a.log.Info("Rendered", zap.String("path", output), zap.String("format", string(format)), zap.Int("bytes", n))
	return nil
}

func (a *app) watchCmd() *cobra.Command {
	var opts outputOptions
	cmd := &cobra.Command{
		Use:   "watch <file.autofit>",
		Short: "监听 DSL 与数据文件，变化后重新适配并输出",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input = args[0]
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func (a *app) watch(ctx context.Context, opts outputOptions) error {
	output, format, err := a.resolveOutput(opts)
	if err != nil {
		return err
	}
	r, err := a.newRenderer(filepath.Dir(opts.input))
	if err != nil {
		return err
	}
	defaults, err := a.cfg.FitDefaults()
	if err != nil {
		return fmt.Errorf("配置 fit 段无效: %w", err)
	}

	render := func(res *layout.Result) error {
		a.reportOverflow(res)
		n, err := a.writeOutput(r, res, format, output, opts.outline)
		if err != nil {
			return err
		}
		a.log.Info("Rendered", zap.String("path", output), zap.Int("bytes", n))
		return nil
	}
	return watch.Run(ctx, watch.Config{
		DocumentPath: opts.input,
		DataPath:     opts.data,
		TickInterval: a.cfg.Watch.TickInterval,
		Debounce:     a.cfg.Watch.Debounce,
	}, a.buildOptions(ctx, r, defaults, false), render, a.log)
}

type measureOptions struct {
	width, height float64
	padding       string
	mode          string
	min, max      float64
	precision     float64
	font          string
	lineHeight    string
}

type measureOutput struct {
	fit.Result
	NaturalWidth  float64           `json:"naturalWidth"`
	NaturalHeight float64           `json:"naturalHeight"`
	Overflows     bool              `json:"overflows"`
	Lines         []layout.TextLine `json:"lines"`
}

func (a *app) measureCmd() *cobra.Command {
	var opts measureOptions
	cmd := &cobra.Command{
		Use:   "measure <text>...",
		Short: "在 W×H 的盒子中适配一段文本并输出 JSON 结果",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fitOpts []fit.Option
			if cmd.Flags().Changed("mode") {
				mode, err := fit.ParseMode(opts.mode)
				if err != nil {
					return err
				}
				fitOpts = append(fitOpts, fit.WithMode(mode))
			}
			if cmd.Flags().Changed("min") {
				fitOpts = append(fitOpts, fit.WithMinFontSize(opts.min))
			}
			if cmd.Flags().Changed("max") {
				fitOpts = append(fitOpts, fit.WithMaxFontSize(opts.max))
			}
			if cmd.Flags().Changed("precision") {
				fitOpts = append(fitOpts, fit.WithPrecision(opts.precision))
			}
			out, err := a.measure(strings.Join(args, " "), opts, fitOpts...)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&opts.width, "width", 400, "盒子宽度（px）")
	f.Float64Var(&opts.height, "height", 100, "盒子高度（px）")
	f.StringVar(&opts.padding, "padding", "", "内边距，CSS 简写")
	f.StringVar(&opts.mode, "mode", "", "single-line | multi-line | box")
	f.Float64Var(&opts.min, "min", fit.DefaultMinFontSizePx, "最小字号（px）")
	f.Float64Var(&opts.max, "max", fit.DefaultMaxFontSizePx, "最大字号（px）")
	f.Float64Var(&opts.precision, "precision", fit.DefaultFontSizePrecisionPx, "字号精度（px）")
	f.StringVar(&opts.font, "font", fonts.Default, "内置字体名或字体文件路径")
	f.StringVar(&opts.lineHeight, "line-height", "", "行高，例如 1.2x 或 24px")
	return cmd
}

func (a *app) measure(content string, opts measureOptions, fitOpts ...fit.Option) (*measureOutput, error) {
	var pad layout.Margin
	if opts.padding != "" {
		var err error
		if pad, err = layout.ParseMargin(opts.padding, opts.width); err != nil {
			return nil, err
		}
	}
	var lh layout.LineHeightSpec
	if opts.lineHeight != "" {
		var err error
		if lh, err = layout.ParseLineHeight(opts.lineHeight); err != nil {
			return nil, err
		}
	}
	src := opts.font
	if _, err := fonts.Load(src); err == nil {
		src = "builtin:" + fonts.Trim(src)
	}

	cwd, _ := os.Getwd()
	r, err := a.newRenderer(cwd)
	if err != nil {
		return nil, err
	}
	fitOpts = append(fitOpts, fit.WithObserver(telemetry.Observers(context.Background(), a.log, a.tracer)("measure")))
	cfg, err := a.cfg.FitDefaults(fitOpts...)
	if err != nil {
		return nil, err
	}

	box := layout.NewBox(opts.width, opts.height, pad)
	text := layout.NewText(box, r, layout.FontResource{Name: "measure", Src: src}, lh, content, fit.DefaultMinFontSizePx)
	res, err := fit.Fit(text, box, fit.WithConfig(cfg))
	if err != nil {
		return nil, err
	}
	if err := text.Err(); err != nil {
		return nil, fmt.Errorf("排版失败: %w", err)
	}

	nw, nh := text.NaturalSize()
	cw, ch := box.ContentSize()
	m := fit.Measurement{NaturalWidth: nw, NaturalHeight: nh, ContainerWidth: cw, ContainerHeight: ch}
	overflows := m.Overflows()
	if cfg.Mode == fit.SingleLine {
		overflows = !m.FitsWidth()
	}
	return &measureOutput{
		Result:        res,
		NaturalWidth:  nw,
		NaturalHeight: nh,
		Overflows:     !res.Skipped && overflows,
		Lines:         text.Lines(),
	}, nil
}

func (a *app) configCmd() *cobra.Command {
	var template bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "打印当前生效的配置",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if template {
				data, err = config.Prepare()
			} else {
				data, err = config.Dump(a.cfg)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&template, "template", false, "打印带默认值的配置模板")
	return cmd
}

func (a *app) buildOptions(ctx context.Context, ts layout.Typesetter, defaults fit.Config, rawUnits bool) layout.BuildOptions {
	return layout.BuildOptions{
		Typesetter: ts,
		Defaults:   defaults,
		Observer:   telemetry.Observers(ctx, a.log, a.tracer),
		Debug:      layout.DebugOptions{RawUnits: rawUnits},
	}
}

// resolveOutput 决定输出路径与格式：未指定路径时沿用输入文件名并使用配置中的格式。
func (a *app) resolveOutput(opts outputOptions) (string, renderer.Format, error) {
	output := opts.output
	if output == "" {
		format, err := renderer.ParseFormat(a.cfg.Render.Format)
		if err != nil {
			return "", "", err
		}
		stem := strings.TrimSuffix(opts.input, filepath.Ext(opts.input))
		return stem + "." + string(format), format, nil
	}
	format, err := a.cfg.OutputFormat(output)
	if err != nil {
		return "", "", err
	}
	return output, format, nil
}

func (a *app) writeOutput(r renderer.Renderer, res *layout.Result, format renderer.Format, path string, outline bool) (int, error) {
	if outline || a.cfg.Render.Outline {
		for i := range res.Frames {
			res.Frames[i].Outline = true
		}
	}
	data, err := r.Render(res, format)
	if err != nil {
		return 0, fmt.Errorf("渲染失败: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("写入输出文件失败: %w", err)
	}
	return len(data), nil
}

// reportOverflow 记录在最小字号下仍溢出的文本框并返回其数量。
func (a *app) reportOverflow(res *layout.Result) int {
	n := 0
	for _, f := range res.Frames {
		if len(f.Unbound) > 0 {
			a.log.Warn("Unresolved placeholders", zap.String("frame", f.Name), zap.Strings("paths", f.Unbound))
		}
		if f.Overflows {
			n++
			a.log.Warn("Text overflows at minimum font size",
				zap.String("frame", f.Name), zap.Float64("font_size_px", f.FontSize))
		}
	}
	return n
}
