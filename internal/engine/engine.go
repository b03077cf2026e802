package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scrollbg/internal/analyzer"
	"github.com/ivlev/scrollbg/internal/config"
	"github.com/ivlev/scrollbg/internal/director"
	"github.com/ivlev/scrollbg/internal/effects"
	"github.com/ivlev/scrollbg/internal/renderer"
	"github.com/ivlev/scrollbg/internal/source"
	"github.com/ivlev/scrollbg/internal/system"
	"github.com/ivlev/scrollbg/internal/video"
)

// SinkFactory открывает приемник кадров для экрана i.
type SinkFactory func(ctx context.Context, i int, screen config.Screen) (video.FrameSink, error)

// Scene содержит все, что нужно циклу кадров. Собирается один раз до первого тика.
type Scene struct {
	Path     director.Path
	Playback *renderer.Playback
	Surfaces []*effects.Surface
}

type ScrollProject struct {
	Config *config.Config
	Source source.Source
	RunID  string

	// Необязательные подмены, в основном для тестов
	Clock   Clock
	NewSink SinkFactory

	tempDir  string
	segments []string
	pool     *system.FramePool
	frames   int
}

func NewScrollProject(cfg *config.Config, src source.Source, runID string) *ScrollProject {
	return &ScrollProject{
		Config: cfg,
		Source: src,
		RunID:  runID,
		pool:   system.NewFramePool(),
	}
}

// Prepare загружает фон, строит путь и воспроизведение и масштабирует фон
// под каждый экран.
func (p *ScrollProject) Prepare(ctx context.Context) (*Scene, error) {
	cfg := p.Config
	img, err := source.Load(p.Source, cfg.Page, cfg.DPI)
	if err != nil {
		return nil, err
	}

	waypoints, smoothing, speedPerSec, err := p.route(img)
	if err != nil {
		return nil, err
	}

	path, err := director.Build(waypoints, smoothing)
	if err != nil {
		return nil, fmt.Errorf("build path: %w", err)
	}

	speed, err := renderer.NewSpeed(config.PerMilli(speedPerSec), cfg.Scale)
	if err != nil {
		return nil, err
	}
	playback, err := renderer.NewPlayback(path, speed)
	if err != nil {
		return nil, err
	}

	mode, err := config.ParseScalingMode(cfg.ScalingMode)
	if err != nil {
		return nil, err
	}
	if err := system.CheckMemory(surfaceBytes(mode, cfg.Scale, img.Bounds().Size(), cfg.Screens)); err != nil {
		return nil, err
	}

	surfaces := make([]*effects.Surface, len(cfg.Screens))
	scaler := &effects.Scaler{Mode: mode, Scale: cfg.Scale}
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i, screen := range cfg.Screens {
		g.Go(func() error {
			s, err := scaler.Prepare(img, screen)
			if err != nil {
				return fmt.Errorf("screen %d: %w", i, err)
			}
			surfaces[i] = s
			system.Logger().Info("surface prepared", "screen", screen.String(), "image", s.Size())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fmt.Printf("[*] Путь: %d опорных точек -> %d точек | скорость %.4g ед/с (эффективная %.4g ед/мс)\n",
		len(waypoints), path.Len(), speedPerSec, float64(speed))
	for i, s := range surfaces {
		fmt.Printf("[*] Экран %d: %s | фон %dx%d\n", i, s.Screen, s.Size().X, s.Size().Y)
	}

	return &Scene{Path: path, Playback: playback, Surfaces: surfaces}, nil
}

// route берет опорные точки из файла маршрута, из детектора областей или из
// строки точек, в этом порядке. Настройки из файла маршрута важнее конфига.
func (p *ScrollProject) route(img image.Image) ([]director.Point, director.Smoothing, float64, error) {
	cfg := p.Config
	smoothing := director.Smoothing{Enabled: cfg.Bezier, Resolution: cfg.BezierRes}
	speed := cfg.Speed

	switch {
	case cfg.Route != "":
		route, err := director.ReadRoute(cfg.Route)
		if err != nil {
			return nil, smoothing, 0, fmt.Errorf("read route: %w", err)
		}
		if rs := route.Smoothing(); rs.Enabled {
			smoothing.Enabled = true
			if rs.Resolution > 0 {
				smoothing.Resolution = rs.Resolution
			}
		}
		if route.Speed > 0 {
			speed = route.Speed
		}
		fmt.Printf("[*] Используется маршрут: %s\n", cfg.Route)
		return route.Points(), smoothing, speed, nil

	case cfg.Points == config.AutoPoints:
		det, err := analyzer.NewDetector(cfg.Detector)
		if err != nil {
			return nil, smoothing, 0, err
		}
		blocks, err := det.Detect(img)
		if err != nil {
			return nil, smoothing, 0, fmt.Errorf("analyze background: %w", err)
		}
		points := director.RouteFromBlocks(blocks, img.Bounds())
		fmt.Printf("[*] Автомаршрут: %d областей -> %s\n", len(blocks), director.FormatWaypoints(points))
		return points, smoothing, speed, nil

	default:
		points, err := director.ParseWaypoints(cfg.Points)
		if err != nil {
			return nil, smoothing, 0, fmt.Errorf("point string %q is invalid: %w", cfg.Points, err)
		}
		return points, smoothing, speed, nil
	}
}

// Run рендерит до конца Duration или до отмены ctx, затем финализирует
// результат.
func (p *ScrollProject) Run(ctx context.Context) error {
	startTime := time.Now()

	scene, err := p.Prepare(ctx)
	if err != nil {
		return err
	}

	p.tempDir, err = os.MkdirTemp("", "scrollbg_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(p.tempDir)

	// Приемники переживают прерывание, чтобы уже записанные файлы были дописаны
	sinkCtx := context.WithoutCancel(ctx)
	sinks, err := p.openSinks(sinkCtx, scene.Surfaces)
	if err != nil {
		return err
	}

	renderStart := time.Now()
	loopErr := p.loop(ctx, scene, sinks)
	renderTime := time.Since(renderStart)

	var closeErrs []error
	for i, s := range sinks {
		if err := s.Close(); err != nil {
			closeErrs = append(closeErrs, fmt.Errorf("screen %d: %w", i, err))
		}
	}
	if err := errors.Join(append([]error{loopErr}, closeErrs...)...); err != nil {
		return err
	}

	if p.Config.OutputMode == config.OutputVideo && p.NewSink == nil {
		fmt.Println("[*] Сборка финального видео...")
		params := p.encoderParams()
		if err := video.Stack(sinkCtx, p.segments, p.Config.Screens, p.Config.Output, params); err != nil {
			return fmt.Errorf("assemble final video: %w", err)
		}
	}

	p.report(time.Since(startTime), renderTime)
	return nil
}

// loop - цикл кадров: тик, рендер всех экранов из одной и той же позиции,
// передача кадров писателям экранов.
func (p *ScrollProject) loop(ctx context.Context, scene *Scene, sinks []video.FrameSink) error {
	clock := p.clock()
	total := p.totalFrames()
	log := system.Logger()

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	queues := make([]chan *image.RGBA, len(sinks))
	for i, sink := range sinks {
		queues[i] = make(chan *image.RGBA, 4)
		g.Go(func() error {
			for frame := range queues[i] {
				err := sink.WriteFrame(frame)
				p.pool.Put(frame)
				if err != nil {
					return fmt.Errorf("screen %d: %w", i, err)
				}
			}
			return nil
		})
	}

	produce := func() error {
		frames := make([]*image.RGBA, len(scene.Surfaces))
		for total < 0 || p.frames < total {
			delta, err := clock.Next(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					fmt.Println("[!] Прервано, финализируем результат")
					return nil
				}
				return err
			}

			if p.Config.Realtime && p.frames > 0 && delta > 2*FrameInterval(p.Config.FPS) {
				log.Warn("slow frame", "n", p.frames, "delta", delta)
			}

			pos := scene.Playback.Tick(delta)
			if err := p.renderFrame(gctx, scene.Surfaces, pos, frames); err != nil {
				return err
			}

			for i, frame := range frames {
				select {
				case queues[i] <- frame:
				case <-gctx.Done():
					return nil
				}
			}

			p.frames++
			if log.Enabled(ctx, slog.LevelDebug) && p.frames%max(1, p.Config.FPS) == 0 {
				idx, _ := scene.Playback.Segment()
				log.Debug("frame", "n", p.frames, "delta", delta, "segment", idx, "x", pos.X, "y", pos.Y)
			}
			if total > 0 && p.frames%(p.Config.FPS*10) == 0 {
				fmt.Printf("[>] Готово: %d/%d кадров\n", p.frames, total)
			}
		}
		return nil
	}

	produceErr := produce()
	for _, q := range queues {
		close(q)
	}
	return errors.Join(produceErr, g.Wait())
}

// renderFrame параллельно собирает по кадру на каждую поверхность.
func (p *ScrollProject) renderFrame(ctx context.Context, surfaces []*effects.Surface, pos director.Point, frames []*image.RGBA) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i, s := range surfaces {
		g.Go(func() error {
			frame := p.pool.Get(s.View())
			renderer.Compose(frame, s.Image, renderer.Offset(pos, s.Size(), s.View()))
			frames[i] = frame
			return nil
		})
	}
	return g.Wait()
}

func (p *ScrollProject) openSinks(ctx context.Context, surfaces []*effects.Surface) ([]video.FrameSink, error) {
	factory := p.NewSink
	if factory == nil {
		factory = p.defaultSink
	}

	sinks := make([]video.FrameSink, 0, len(surfaces))
	for i, s := range surfaces {
		sink, err := factory(ctx, i, s.Screen)
		if err != nil {
			for _, opened := range sinks {
				opened.Close()
			}
			return nil, fmt.Errorf("open output for screen %d: %w", i, err)
		}
		sinks = append(sinks, sink)
	}
	system.Logger().Info("sinks opened", "count", len(sinks), "mode", p.Config.OutputMode)
	return sinks, nil
}

func (p *ScrollProject) defaultSink(ctx context.Context, i int, screen config.Screen) (video.FrameSink, error) {
	if p.Config.OutputMode == config.OutputFrames {
		dir := p.Config.Output
		if len(p.Config.Screens) > 1 {
			dir = filepath.Join(dir, fmt.Sprintf("screen%d", i))
		}
		return video.NewPNGSink(dir)
	}

	segPath := filepath.Join(p.tempDir, fmt.Sprintf("s%d.mp4", i))
	p.segments = append(p.segments, segPath)
	return video.NewFFmpegSink(ctx, segPath, image.Pt(screen.Width, screen.Height), p.encoderParams())
}

func (p *ScrollProject) encoderParams() video.Params {
	return video.Params{FPS: p.Config.FPS, Encoder: p.Config.VideoEncoder, Quality: p.Config.Quality}
}

func (p *ScrollProject) clock() Clock {
	if p.Clock != nil {
		return p.Clock
	}
	if p.Config.Realtime {
		return NewWallClock(p.Config.FPS)
	}
	return NewFixedClock(p.Config.FPS)
}

// totalFrames возвращает число кадров для рендера или -1 без ограничения.
func (p *ScrollProject) totalFrames() int {
	if p.Config.Duration <= 0 {
		return -1
	}
	return max(1, int(math.Round(p.Config.Duration*float64(p.Config.FPS))))
}

func (p *ScrollProject) workers() int {
	if p.Config.Workers > 0 {
		return p.Config.Workers
	}
	return system.DefaultWorkers()
}

// Frames возвращает число уже отрендеренных кадров.
func (p *ScrollProject) Frames() int { return p.frames }

// surfaceBytes оценивает память под масштабированные фоны и очереди кадров
// всех экранов.
func surfaceBytes(mode config.ScalingMode, scale float64, img image.Point, screens []config.Screen) uint64 {
	var total uint64
	for _, s := range screens {
		view := image.Pt(s.Width, s.Height)
		size := effects.ScaledSize(mode, scale, img, view)
		total += uint64(size.X) * uint64(size.Y) * 4
		total += uint64(view.X) * uint64(view.Y) * 4 * 6
	}
	return total
}

func (p *ScrollProject) report(total, render time.Duration) {
	fps := float64(p.frames) / render.Seconds()
	if !p.Config.ShowStats {
		return
	}

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Run: %s\n"+
			"Frames: %d x %d screen(s)\n"+
			"Total Time: %.2fs\n"+
			"Rendering: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		p.Config.BuildVersion, p.RunID, p.frames, len(p.Config.Screens), total.Seconds(), render.Seconds(), fps,
	)
	fmt.Print(report)

	logEntry := fmt.Sprintf("[%s] Build: %s | Run: %s | Input: %s | Screens: %d | Frames: %d | Total: %.2fs | Render: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		p.RunID,
		filepath.Base(p.Config.Image),
		len(p.Config.Screens),
		p.frames,
		total.Seconds(),
		render.Seconds(),
		fps,
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
		return
	}
	defer f.Close()
	f.WriteString(logEntry)
}
