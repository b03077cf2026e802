package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/scrollbg/internal/config"
	"github.com/ivlev/scrollbg/internal/director"
	"github.com/ivlev/scrollbg/internal/engine"
	"github.com/ivlev/scrollbg/internal/source"
	"github.com/ivlev/scrollbg/internal/system"
)

var version = "dev"

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	// Создаем нужные директории, если их нет

	for _, d := range []string{"input/images", "output"} {
		os.MkdirAll(d, 0755)
	}

	def := config.Default()
	flags := *def
	var screensFlag, presetFlag, configFlag string
	var widthFlag, heightFlag int
	var versionFlag bool

	flag.StringVar(&flags.Image, "input", "", "Фоновое изображение, папка с изображениями, PDF или qr:TEXT (по умолчанию: самый свежий файл в input/images/)")
	flag.StringVar(&flags.Image, "image", "", "Синоним -input")
	flag.IntVar(&flags.Page, "page", 0, "Номер страницы или изображения в многостраничном источнике")
	flag.IntVar(&flags.DPI, "dpi", def.DPI, "DPI для рендера PDF")
	flag.Float64Var(&flags.Scale, "scale", def.Scale, "Масштаб фона относительно экрана (>= 1)")
	flag.StringVar(&flags.ScalingMode, "mode", def.ScalingMode, "Масштабирование: stretch, fit-width, fit-height (или 0, 1, 2)")
	flag.Float64Var(&flags.Speed, "velocity", def.Speed, "Скорость движения в единицах пути в секунду")
	flag.StringVar(&flags.Points, "points", "", `Опорные точки "x0,y0;x1,y1;..." в [0,1] или "auto" для обхода найденных областей`)
	flag.StringVar(&flags.Route, "route", "", "YAML-маршрут, созданный scrollroute")
	flag.StringVar(&flags.Detector, "detector", "contrast", "Детектор областей для -points auto: contrast, grid")
	flag.BoolVar(&flags.Bezier, "bezier", false, "Сглаживать путь квадратичными кривыми Безье")
	flag.IntVar(&flags.BezierRes, "bezier-res", def.BezierRes, "Точек на каждую сглаженную опорную точку")
	flag.IntVar(&flags.FPS, "fps", def.FPS, "FPS")
	flag.StringVar(&screensFlag, "screens", "", `Раскладка экранов "WxH+X+Y;WxH+X+Y"`)
	flag.IntVar(&widthFlag, "width", 1280, "Ширина (если не задан -screens)")
	flag.IntVar(&heightFlag, "height", 720, "Высота (если не задан -screens)")
	flag.StringVar(&presetFlag, "preset", "", "Пресет формата: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	flag.Float64Var(&flags.Duration, "duration", 0, "Длительность в секундах (0 с -realtime - до прерывания)")
	flag.StringVar(&flags.Output, "output", "", "Путь к видео или папка кадров при -output-mode frames (если пусто, генерируется автоматически в output/)")
	flag.StringVar(&flags.OutputMode, "output-mode", def.OutputMode, "Результат: video или frames")
	flag.BoolVar(&flags.Realtime, "realtime", false, "Темп кадров по реальному времени вместо фиксированного шага")
	flag.IntVar(&flags.Workers, "workers", 0, "Потоки рендера (0 - по числу физических ядер)")
	flag.StringVar(&flags.VideoEncoder, "encoder", "auto", "Видеоэнкодер (auto - поиск аппаратного энкодера)")
	flag.IntVar(&flags.Quality, "quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	flag.StringVar(&configFlag, "config", "", "YAML-конфиг; флаги командной строки имеют приоритет")
	flag.BoolVar(&flags.ShowStats, "stats", false, "Вывести отчет о производительности и дописать его в benchmark.log")
	flag.BoolVar(&flags.Debug, "debug", false, "Подробная диагностика в stderr")
	flag.BoolVar(&versionFlag, "version", false, "Показать версию и выйти")

	flag.Parse()

	if versionFlag {
		fmt.Println("scrollbg", version)
		return
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := &flags
	if configFlag != "" {
		cfg = config.Default()
		cfg.Detector = flags.Detector
		cfg.VideoEncoder = flags.VideoEncoder
		if err := config.LoadFile(cfg, configFlag); err != nil {
			log.Fatalf("[-] Ошибка конфига: %v", err)
		}
		overrideFromFlags(cfg, &flags, set)
		fmt.Printf("[*] Конфиг: %s\n", configFlag)
	}
	cfg.BuildVersion = version

	switch {
	case screensFlag != "":
		screens, err := config.ParseScreens(screensFlag)
		if err != nil {
			log.Fatalf("[-] Неверный -screens: %v", err)
		}
		cfg.Screens = screens
	case presetFlag != "":
		w, h, err := presetSize(presetFlag)
		if err != nil {
			log.Fatalf("[-] %v", err)
		}
		cfg.Screens = []config.Screen{{Width: w, Height: h}}
	case set["width"] || set["height"]:
		cfg.Screens = []config.Screen{{Width: widthFlag, Height: heightFlag}}
	}

	runID := uuid.NewString()
	if cfg.Debug {
		system.SetLogger(system.NewDebugLogger(runID))
	}

	if cfg.Image == "" {
		latest, err := system.FindLatestImage("input/images", isInput)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите изображение в input/images/", err)
		}
		cfg.Image = latest
		fmt.Printf("[*] Выбран файл: %s\n", cfg.Image)
	}

	if cfg.Points == "" && cfg.Route == "" {
		if latest, err := director.FindLatestRoute(director.RoutesDir); err == nil {
			cfg.Route = latest
			fmt.Printf("[*] Выбран маршрут: %s\n", cfg.Route)
		}
	}

	if cfg.VideoEncoder == "" || cfg.VideoEncoder == "auto" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", cfg.VideoEncoder)
		}
	}
	if cfg.Quality == 0 {
		cfg.Quality = system.DefaultQuality(cfg.VideoEncoder)
	}

	if cfg.Output == "" {
		cfg.Output = defaultOutput(cfg)
	}
	if cfg.OutputMode == config.OutputVideo {
		os.MkdirAll(filepath.Dir(cfg.Output), 0755)
	}

	if err := cfg.Validate(); err != nil {
		for _, e := range unwrapJoined(err) {
			fmt.Fprintf(os.Stderr, "[-] %v\n", e)
		}
		os.Exit(1)
	}

	src, err := source.Open(cfg.Image)
	if err != nil {
		log.Fatalf("[-] Ошибка инициализации источника: %v", err)
	}
	defer src.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("[*] Запуск %s | экранов: %d | %d FPS | энкодер %s\n", runID, len(cfg.Screens), cfg.FPS, cfg.VideoEncoder)

	// Инициализируем зависимости
	project := engine.NewScrollProject(cfg, src, runID)
	if err := project.Run(ctx); err != nil {
		src.Close()
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}

	fmt.Printf("[+++] Успешно! Кадров: %d, результат: %s\n", project.Frames(), cfg.Output)
}

// overrideFromFlags переносит флаги, явно заданные в командной строке, поверх
// значений из конфига.
func overrideFromFlags(cfg, flags *config.Config, set map[string]bool) {
	apply := map[string]func(){
		"input":       func() { cfg.Image = flags.Image },
		"image":       func() { cfg.Image = flags.Image },
		"page":        func() { cfg.Page = flags.Page },
		"dpi":         func() { cfg.DPI = flags.DPI },
		"scale":       func() { cfg.Scale = flags.Scale },
		"mode":        func() { cfg.ScalingMode = flags.ScalingMode },
		"velocity":    func() { cfg.Speed = flags.Speed },
		"points":      func() { cfg.Points = flags.Points },
		"route":       func() { cfg.Route = flags.Route },
		"detector":    func() { cfg.Detector = flags.Detector },
		"bezier":      func() { cfg.Bezier = flags.Bezier },
		"bezier-res":  func() { cfg.BezierRes = flags.BezierRes },
		"fps":         func() { cfg.FPS = flags.FPS },
		"duration":    func() { cfg.Duration = flags.Duration },
		"output":      func() { cfg.Output = flags.Output },
		"output-mode": func() { cfg.OutputMode = flags.OutputMode },
		"realtime":    func() { cfg.Realtime = flags.Realtime },
		"workers":     func() { cfg.Workers = flags.Workers },
		"encoder":     func() { cfg.VideoEncoder = flags.VideoEncoder },
		"quality":     func() { cfg.Quality = flags.Quality },
		"stats":       func() { cfg.ShowStats = flags.ShowStats },
		"debug":       func() { cfg.Debug = flags.Debug },
	}
	for name, fn := range apply {
		if set[name] {
			fn()
		}
	}
}

func presetSize(preset string) (int, int, error) {
	switch preset {
	case "16:9":
		return 1280, 720, nil
	case "9:16":
		return 720, 1280, nil
	case "4:5":
		return 1080, 1350, nil
	}
	return 0, 0, fmt.Errorf("неизвестный пресет %q, ожидается 16:9, 9:16 или 4:5", preset)
}

func isInput(name string) bool {
	return source.IsImage(name) || strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// defaultOutput называет результат по имени входа и текущему времени.
func defaultOutput(cfg *config.Config) string {
	name := strings.TrimPrefix(cfg.Image, source.QRPrefix)
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")

	if cfg.OutputMode == config.OutputFrames {
		return filepath.Join("output", fmt.Sprintf("%s_%s", base, timestamp))
	}
	return filepath.Join("output", fmt.Sprintf("%s_%s.mp4", base, timestamp))
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
