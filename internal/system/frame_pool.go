package system

import (
	"image"
	"image/draw"
	"sync"
)

// FramePool recycles *image.RGBA buffers between frames of the same size so
// that a long video does not allocate a fresh pixel buffer per second.
type FramePool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

var framePool = &FramePool{
	pools: make(map[image.Rectangle]*sync.Pool),
}

// AcquireRGBA copies img into a pooled buffer. The returned release func
// hands the buffer back and must be called exactly once, after which the
// buffer must not be used.
func AcquireRGBA(img image.Image) (*image.RGBA, func()) {
	return framePool.Acquire(img)
}

func (p *FramePool) Acquire(img image.Image) (*image.RGBA, func()) {
	bounds := img.Bounds()
	buf := p.get(bounds)
	draw.Draw(buf, bounds, img, bounds.Min, draw.Src)

	var once sync.Once
	return buf, func() {
		once.Do(func() { p.put(buf) })
	}
}

func (p *FramePool) get(rect image.Rectangle) *image.RGBA {
	p.mu.RLock()
	pool, exists := p.pools[rect]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		pool, exists = p.pools[rect]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewRGBA(rect)
				},
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

func (p *FramePool) put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[img.Rect]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
