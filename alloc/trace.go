package alloc

import "go.uber.org/zap"

// Traced logs every allocator call at debug level through a zap logger.
// Useful when diagnosing a container's allocation pattern or hunting a
// double release; not intended to stay enabled in production paths.
type Traced struct {
	inner Allocator
	log   *zap.Logger
}

// NewTraced wraps inner with call logging. A nil inner uses Global; a nil
// logger disables output.
func NewTraced(inner Allocator, log *zap.Logger) *Traced {
	if inner == nil {
		inner = Global
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Traced{inner: inner, log: log}
}

// Allocate implements Allocator.
func (t *Traced) Allocate(lay Layout) (Block, error) {
	b, err := t.inner.Allocate(lay)
	t.log.Debug("allocate",
		zap.Int("size", lay.Size()),
		zap.Int("align", lay.Align()),
		zap.Int("cap", b.Cap()),
		zap.Error(err))
	if err != nil {
		return Block{}, err
	}
	return b, nil
}

// Grow implements Allocator.
func (t *Traced) Grow(b Block, newSize int) (Block, error) {
	old := b.Cap()
	nb, err := t.inner.Grow(b, newSize)
	t.log.Debug("grow",
		zap.Int("old", old),
		zap.Int("new", newSize),
		zap.Error(err))
	if err != nil {
		return Block{}, err
	}
	return nb, nil
}

// Shrink implements Allocator.
func (t *Traced) Shrink(b Block, newSize int) (Block, error) {
	old := b.Cap()
	nb, err := t.inner.Shrink(b, newSize)
	t.log.Debug("shrink",
		zap.Int("old", old),
		zap.Int("new", newSize),
		zap.Error(err))
	if err != nil {
		return Block{}, err
	}
	return nb, nil
}

// Release implements Allocator.
func (t *Traced) Release(b Block) {
	t.inner.Release(b)
	t.log.Debug("release", zap.Int("cap", b.Cap()))
}
