package watch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ByLCY/autofit/binding"
	"github.com/ByLCY/autofit/dsl"
	"github.com/ByLCY/autofit/fit"
	"github.com/ByLCY/autofit/layout"
)

// Config describes what to watch and how often to tick.
type Config struct {
	DocumentPath string
	DataPath     string
	TickInterval time.Duration
	Debounce     time.Duration
}

// Load parses the document and decodes the optional data file.
func Load(documentPath, dataPath string) (*dsl.Document, any, error) {
	doc, err := dsl.ParseFile(documentPath)
	if err != nil {
		return nil, nil, fmt.Errorf("解析 DSL 失败: %w", err)
	}
	data, err := binding.LoadFile(dataPath)
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据文件失败: %w", err)
	}
	return doc, data, nil
}

// Run renders the document whenever it or its data file changes until ctx is
// cancelled. Broken revisions are logged and skipped; the last good layout
// stays on screen.
func Run(ctx context.Context, cfg Config, build layout.BuildOptions, render RenderFunc, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	doc, data, err := Load(cfg.DocumentPath, cfg.DataPath)
	if err != nil {
		return err
	}

	scheduler := fit.NewTickerScheduler(ctx, cfg.TickInterval)
	defer scheduler.Stop()

	live, err := NewLive(doc, data, Options{
		Build:     build,
		Scheduler: scheduler,
		Render:    render,
		Log:       log,
	})
	if err != nil {
		return err
	}
	defer live.Close()

	watcher, err := NewWatcher(ctx, cfg.Debounce, cfg.DocumentPath, cfg.DataPath)
	if err != nil {
		return fmt.Errorf("无法监听文件: %w", err)
	}
	defer watcher.Close()

	log.Info("Watching for changes", zap.String("document", cfg.DocumentPath), zap.String("data", cfg.DataPath))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if ev.Removed {
				log.Warn("Watched file removed", zap.String("path", ev.Path))
				continue
			}
			doc, data, err := Load(cfg.DocumentPath, cfg.DataPath)
			if err != nil {
				log.Error("Reload failed", zap.String("path", ev.Path), zap.Error(err))
				continue
			}
			log.Debug("Reloading", zap.String("path", ev.Path))
			scheduler.Schedule(func() {
				if err := live.Apply(doc, data); err != nil {
					log.Error("Update failed", zap.Error(err))
				}
			})
		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			log.Warn("Watcher error", zap.Error(err))
		}
	}
}
