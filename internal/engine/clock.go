package engine

import (
	"context"
	"time"
)

// firstDelta отдается на самом первом кадре: он больше любого интервала
// кадра, поэтому воспроизведение сразу входит в первый сегмент.
const firstDelta = time.Second

// Clock задает темп цикла кадров.
type Clock interface {
	// Next ждет следующий кадр и возвращает время, прошедшее с предыдущего.
	Next(ctx context.Context) (time.Duration, error)
}

// FrameInterval возвращает интервал кадра в целых миллисекундах.
func FrameInterval(fps int) time.Duration {
	return time.Duration(1000/fps) * time.Millisecond
}

// FixedClock никогда не ждет. Кадр n получает расстояние между границами n и
// n+1 точной сетки 1/fps, поэтому fps кадров в сумме дают ровно секунду.
// Используется для офлайн-рендера: результат не зависит от скорости машины.
type FixedClock struct {
	fps     int64
	n       int64 // номер кадра внутри текущей секунды
	started bool
}

func NewFixedClock(fps int) *FixedClock {
	return &FixedClock{fps: int64(fps)}
}

func (c *FixedClock) Next(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !c.started {
		c.started = true
		return firstDelta, nil
	}

	d := c.boundary(c.n+1) - c.boundary(c.n)
	c.n++
	if c.n == c.fps {
		// Сетка повторяется каждую секунду
		c.n = 0
	}
	return d, nil
}

func (c *FixedClock) boundary(n int64) time.Duration {
	return time.Duration(n * int64(time.Second) / c.fps)
}

// WallClock идет по реальному времени: опрашивает часы каждую миллисекунду,
// пока не пройдет интервал кадра, и отдает измеренную дельту в целых
// миллисекундах. Отброшенный остаток переходит в следующий кадр.
type WallClock struct {
	frame time.Duration
	last  time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewWallClock(fps int) *WallClock {
	return &WallClock{
		frame: FrameInterval(fps),
		now:   time.Now,
		sleep: sleepContext,
	}
}

func (c *WallClock) Next(ctx context.Context) (time.Duration, error) {
	if c.last.IsZero() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		c.last = c.now()
		return firstDelta, nil
	}

	for c.now().Sub(c.last) < c.frame {
		if err := c.sleep(ctx, time.Millisecond); err != nil {
			return 0, err
		}
	}

	delta := c.now().Sub(c.last).Truncate(time.Millisecond)
	c.last = c.last.Add(delta)
	return delta, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
