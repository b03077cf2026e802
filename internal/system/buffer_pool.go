package system

import (
	"image"
	"sync"
)

// FramePool предоставляет повторное использование буферов *image.RGBA по
// размеру, чтобы цикл кадров не нагружал Garbage Collector (GC). Буферы
// возвращаются со старыми пикселями, вызывающий перезаписывает кадр целиком.
type FramePool struct {
	pools map[image.Point]*sync.Pool
	mu    sync.RWMutex
}

func NewFramePool() *FramePool {
	return &FramePool{pools: make(map[image.Point]*sync.Pool)}
}

// Get возвращает кадр заданного размера с началом в нуле.
func (p *FramePool) Get(size image.Point) *image.RGBA {
	p.mu.RLock()
	pool, exists := p.pools[size]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[size]
		if !exists {
			pool = &sync.Pool{
				New: func() any {
					return image.NewRGBA(image.Rectangle{Max: size})
				},
			}
			p.pools[size] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

// Put возвращает кадр в пул для повторного использования. Кадры размеров,
// которые не запрашивались, отбрасываются.
func (p *FramePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[img.Rect.Size()]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
