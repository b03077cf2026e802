package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits увеличивает лимит открытых файлов: каждый экран держит
// трубу энкодера открытой весь прогон.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	}
}

// FindLatestImage возвращает самое свежее изображение в папке dir.
func FindLatestImage(dir string, isImage func(string) bool) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !isImage(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено изображений", dir)
	}

	return latestFile, nil
}

// GetBestH264Encoder ищет аппаратный энкодер в ffmpeg, иначе возвращает libx264.
func GetBestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}

	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}

// DefaultQuality возвращает качество по умолчанию для энкодера.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // битрейт = Q*100 кбит/с
	case "h264_nvenc":
		return 28
	default:
		return 23 // Стандартный CRF для x264
	}
}

// DefaultWorkers возвращает число физических ядер или GOMAXPROCS.
func DefaultWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// CheckMemory возвращает ошибку, если need байт больше доступной памяти, и
// предупреждает, если больше половины.
func CheckMemory(need uint64) error {
	vm, err := mem.VirtualMemory()
	if err != nil {
		Logger().Warn("memory probe failed", "err", err)
		return nil
	}

	if need > vm.Available {
		return fmt.Errorf("масштабированным фонам нужно %d МиБ, доступно только %d МиБ; уменьшите -scale или размер экрана",
			need>>20, vm.Available>>20)
	}
	if need > vm.Available/2 {
		fmt.Printf("[!] Масштабированные фоны займут %d МиБ из %d МиБ доступной памяти\n", need>>20, vm.Available>>20)
	}
	return nil
}
