package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"

	"matuwall/internal/logging"
)

const defaultWorkers = 2

// ErrClosed is the result error for requests dropped by Close.
var ErrClosed = errors.New("thumbnail pipeline closed")

// errLoopGone stops the worker group once results can no longer be posted.
var errLoopGone = errors.New("ui loop stopped")

// Poster hands a closure to the UI loop. It must not run fn inline.
type Poster interface {
	Post(fn func()) bool
}

// Result is delivered to every waiter of a key. Path is empty on failure.
type Result struct {
	Key  Key
	Path string
	Err  error
}

// Waiter receives a render result on the UI loop.
type Waiter func(Result)

// RenderFunc writes the thumbnail for key to dst.
type RenderFunc func(ctx context.Context, key Key, dst string) error

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	Workers int
	Render  RenderFunc
	Logger  *slog.Logger
}

type request struct {
	key     Key
	waiters []Waiter
}

type job struct {
	key Key
	dst string
}

// Pipeline renders cache misses on a fixed worker pool and delivers results
// back through a Poster.
//
// Request and the completion closures run on the UI loop and are the only
// code touching the in-flight map, so it needs no lock. The job queue is the
// one structure shared with workers.
type Pipeline struct {
	cache  *Cache
	poster Poster
	render RenderFunc
	logger *slog.Logger

	inflight map[string]*request

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []job
	closed bool

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPipeline starts the worker pool.
func NewPipeline(cache *Cache, poster Poster, opts PipelineOptions) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Render == nil {
		opts.Render = func(_ context.Context, key Key, dst string) error {
			return RenderFile(key.Path, dst, key.Width, key.Height)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	p := &Pipeline{
		cache:    cache,
		poster:   poster,
		render:   opts.Render,
		logger:   logging.NewComponentLogger(opts.Logger, "thumbnail"),
		inflight: make(map[string]*request),
		group:    group,
		ctx:      gctx,
		cancel:   cancel,
	}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < opts.Workers; i++ {
		group.Go(p.work)
	}
	return p
}

// Request returns the cached path on a hit. On a miss it registers waiter
// and schedules at most one render per key; waiter is called later on the
// UI loop. After the pipeline stops, misses are not scheduled and waiter is
// never called. Must be called from the UI loop.
func (p *Pipeline) Request(key Key, waiter Waiter) (string, bool) {
	if path, ok := p.cache.Lookup(key); ok {
		return path, true
	}
	digest := key.Digest()
	if req, ok := p.inflight[digest]; ok {
		if waiter != nil {
			req.waiters = append(req.waiters, waiter)
		}
		return "", false
	}

	req := &request{key: key}
	if waiter != nil {
		req.waiters = append(req.waiters, waiter)
	}
	p.inflight[digest] = req

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		delete(p.inflight, digest)
		return "", false
	}
	p.queue = append(p.queue, job{key: key, dst: p.cache.Path(key)})
	p.mu.Unlock()
	p.cond.Signal()
	return "", false
}

// InFlight returns the number of keys awaiting completion. UI loop only.
func (p *Pipeline) InFlight() int {
	return len(p.inflight)
}

// Close stops accepting work and waits for running renders to finish.
// Waiters of queued jobs receive ErrClosed through the poster; completions
// of running renders may still be posted.
func (p *Pipeline) Close() error {
	for _, j := range p.stop() {
		result := Result{Key: j.key, Err: ErrClosed}
		p.poster.Post(func() { p.complete(result) })
	}
	err := p.group.Wait()
	p.cancel()
	if errors.Is(err, errLoopGone) {
		return nil
	}
	return err
}

// stop closes the queue and returns the jobs that never started.
func (p *Pipeline) stop() []job {
	p.mu.Lock()
	p.closed = true
	dropped := p.queue
	p.queue = nil
	p.mu.Unlock()
	p.cond.Broadcast()
	return dropped
}

func (p *Pipeline) next() (job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if p.closed {
		return job{}, false
	}
	j := p.queue[0]
	p.queue[0] = job{}
	p.queue = p.queue[1:]
	return j, true
}

func (p *Pipeline) work() error {
	for {
		j, ok := p.next()
		if !ok {
			return nil
		}
		result := p.run(j)
		if !p.poster.Post(func() { p.complete(result) }) {
			p.logger.Debug("ui loop gone; stopping thumbnail workers", logging.String(logging.FieldPath, j.key.Path))
			p.stop()
			return errLoopGone
		}
	}
}

func (p *Pipeline) run(j job) (result Result) {
	result = Result{Key: j.key}
	defer func() {
		if r := recover(); r != nil {
			result.Path = ""
			result.Err = fmt.Errorf("render panic: %v", r)
			p.logger.Error("thumbnail render panicked",
				logging.String(logging.FieldPath, j.key.Path),
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())))
		}
	}()

	if path, ok := p.cache.Lookup(j.key); ok {
		result.Path = path
		return result
	}
	if err := p.cache.EnsureDir(); err != nil {
		result.Err = err
		return result
	}
	if err := p.render(p.ctx, j.key, j.dst); err != nil {
		logging.WarnWithContext(p.logger, "thumbnail render failed", "thumbnail_render_failed",
			logging.String(logging.FieldPath, j.key.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "card keeps its placeholder"),
			logging.String(logging.FieldErrorHint, "check that the file is a readable image"))
		result.Err = err
		return result
	}
	result.Path = j.dst
	return result
}

func (p *Pipeline) complete(result Result) {
	digest := result.Key.Digest()
	req, ok := p.inflight[digest]
	if !ok {
		return
	}
	delete(p.inflight, digest)
	for _, waiter := range req.waiters {
		waiter(result)
	}
}
