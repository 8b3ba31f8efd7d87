package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ByLCY/autofit/config"
	"github.com/ByLCY/autofit/fonts"
	canvasrenderer "github.com/ByLCY/autofit/renderer/canvas"
	"github.com/ByLCY/autofit/telemetry"
)

var version = "dev"

// app 持有一次命令执行期间共享的配置、日志与追踪器。
type app struct {
	configPath string

	cfg    *config.Config
	log    *zap.Logger
	closer io.Closer
	tracer *telemetry.Tracer
	trace  *os.File
}

func main() {
	a := &app{}
	if err := a.rootCmd().Execute(); err != nil {
		if a.log != nil {
			a.log.Error("命令执行失败", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		_ = a.close()
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "autofit",
		Short:         "autofit - 按容器尺寸自动选择字号并输出 PDF 或图片",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "配置文件路径（YAML）")

	root.AddCommand(
		a.renderCmd(),
		a.measureCmd(),
		a.watchCmd(),
		a.configCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "打印版本号",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "autofit %s\n", version)
			},
		},
	)
	return root
}

// init 加载配置并准备日志与追踪。
func (a *app) init(ctx context.Context) error {
	cfg, err := config.LoadConfiguration(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, closer, err := cfg.Logging.Prepare()
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	a.log, a.closer = log, closer

	tc := telemetry.Config{Enabled: cfg.Tracing.Enable, Pretty: cfg.Tracing.Pretty, Version: version}
	if tc.Enabled && cfg.Tracing.Destination != "" {
		f, err := os.Create(cfg.Tracing.Destination)
		if err != nil {
			return fmt.Errorf("无法创建追踪输出文件: %w", err)
		}
		a.trace = f
		tc.Output = f
	}
	if ctx == nil {
		ctx = context.Background()
	}
	a.tracer, err = telemetry.New(ctx, tc)
	if err != nil {
		return fmt.Errorf("初始化追踪失败: %w", err)
	}
	log.Debug("Program started", zap.String("version", version), zap.String("config", a.configPath))
	return nil
}

// close 依次关闭追踪器、追踪文件与日志，错误会被合并。
func (a *app) close() (err error) {
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = multierr.Append(err, a.tracer.Shutdown(ctx))
		cancel()
		a.tracer = nil
	}
	if a.trace != nil {
		err = multierr.Append(err, a.trace.Close())
		a.trace = nil
	}
	if a.closer != nil {
		err = multierr.Append(err, a.closer.Close())
		a.closer = nil
	}
	return err
}

// newRenderer 按配置创建 canvas 渲染器，baseDir 用于解析相对字体路径。
func (a *app) newRenderer(baseDir string) (*canvasrenderer.Renderer, error) {
	extra, err := fonts.LoadDir(a.cfg.Render.FontsDir)
	if err != nil {
		return nil, err
	}
	return canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir:     baseDir,
		Fonts:       extra,
		Scale:       a.cfg.Render.Scale,
		JPEGQuality: a.cfg.Render.JPEGQuality,
	}), nil
}
