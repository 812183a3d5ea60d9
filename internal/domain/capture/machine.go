package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/photobooth/photobooth-api/internal/pkg/imaging"
)

// Camera grabs one encoded frame from the live source
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Pipeline applies the filter then the watermark to a frame
type Pipeline interface {
	Process(frame []byte, f imaging.Filter) imaging.ProcessedFrame
}

// Persister stores finished frames and returns the created record
type Persister interface {
	Persist(ctx context.Context, upload Upload) (*Record, error)
}

// Options configures a Machine
type Options struct {
	Camera     Camera
	Pipeline   Pipeline
	Persister  Persister
	Scheduler  Scheduler // TickerScheduler when nil
	Filter     imaging.Filter
	Background string

	CountdownFrom int           // default 5
	StripSize     int           // default 3
	Interval      time.Duration // default 1s
}

// Machine sequences countdown, capture, transforms and persistence for one booth.
// All transitions happen under one mutex; observers are called after it is released.
// Camera, pipeline and persister calls run without the mutex and their results
// are dropped when the generation moved on meanwhile.
type Machine struct {
	opts Options

	mu            sync.Mutex
	state         State
	remaining     int
	session       Session
	stopCountdown func()
	generation    uint64

	observers map[int]func(Notification)
	nextObs   int
	pending   []Notification
}

// NewMachine creates a machine in Idle with a single-shot session
func NewMachine(opts Options) (*Machine, error) {
	if opts.Camera == nil {
		return nil, ErrNoCamera
	}
	if opts.Pipeline == nil {
		return nil, ErrNoPipeline
	}
	if opts.Persister == nil {
		return nil, ErrNoPersister
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TickerScheduler{}
	}
	if opts.Filter == "" {
		opts.Filter = imaging.FilterNormal
	}
	if opts.Background == "" {
		opts.Background = "none"
	}
	if opts.CountdownFrom <= 0 {
		opts.CountdownFrom = 5
	}
	if opts.StripSize <= 0 {
		opts.StripSize = 3
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}

	return &Machine{
		opts:      opts,
		session:   Session{Mode: ModeSingle},
		observers: make(map[int]func(Notification)),
	}, nil
}

// Subscribe registers fn for every notification. Call the returned func to stop.
func (m *Machine) Subscribe(fn func(Notification)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// State returns the current state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Remaining returns the seconds left on the live countdown
func (m *Machine) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

// Session returns a copy of the current session
func (m *Machine) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	s.Frames = append([][]byte(nil), m.session.Frames...)
	if m.session.Captured != nil {
		rec := *m.session.Captured
		s.Captured = &rec
	}
	return s
}

// SetFilter changes the filter applied to the next captures
func (m *Machine) SetFilter(f imaging.Filter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts.Filter = f
}

// Start begins a new flow in mode, dropping any previous session
func (m *Machine) Start(mode Mode) {
	m.mu.Lock()
	m.cancelCountdown()
	m.reset(mode)
	m.unlockAndNotify()
}

// Back abandons the flow: a live countdown is cancelled without capturing
func (m *Machine) Back() {
	m.mu.Lock()
	m.cancelCountdown()
	m.reset(m.session.Mode)
	m.unlockAndNotify()
}

// Trigger starts the countdown. A countdown already running is replaced,
// so two rapid triggers produce one capture.
func (m *Machine) Trigger(ctx context.Context) error {
	m.mu.Lock()

	switch m.state {
	case StateComplete:
		m.mu.Unlock()
		return ErrSessionComplete
	case StateCaptured:
		m.mu.Unlock()
		return ErrCaptureInProgress
	}
	if len(m.session.Frames) >= m.framesNeeded() {
		m.mu.Unlock()
		return ErrUploadPending
	}

	m.cancelCountdown()
	m.generation++
	gen := m.generation
	m.state = StateCountdown
	m.remaining = m.opts.CountdownFrom
	m.emit(Notification{Kind: NotifyCountdown, Remaining: m.remaining})
	m.stopCountdown = m.opts.Scheduler.Every(m.opts.Interval, func() {
		m.tick(ctx, gen)
	})

	m.unlockAndNotify()
	return nil
}

// Retry re-sends captured frames after a failed upload. It blocks until the
// persister returns.
func (m *Machine) Retry(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateIdle || len(m.session.Frames) < m.framesNeeded() {
		m.mu.Unlock()
		return ErrNothingToRetry
	}
	m.generation++
	gen := m.generation
	m.state = StateCaptured
	upload := m.upload()
	m.unlockAndNotify()

	m.persist(ctx, gen, upload)
	return nil
}

func (m *Machine) tick(ctx context.Context, gen uint64) {
	m.mu.Lock()
	// stale tick from a replaced or cancelled countdown
	if gen != m.generation || m.state != StateCountdown {
		m.mu.Unlock()
		return
	}

	m.remaining--
	if m.remaining > 0 {
		m.emit(Notification{Kind: NotifyCountdown, Remaining: m.remaining})
		m.unlockAndNotify()
		return
	}

	m.cancelCountdown()
	m.state = StateCaptured
	gen = m.generation
	filter := m.opts.Filter
	m.unlockAndNotify()

	m.capture(ctx, gen, filter)
}

// stale reports whether work started at gen was abandoned. It runs with m.mu held.
func (m *Machine) stale(gen uint64) bool {
	return gen != m.generation || m.state != StateCaptured
}

func (m *Machine) capture(ctx context.Context, gen uint64, filter imaging.Filter) {
	frame, err := m.opts.Camera.Capture(ctx)
	if err == nil && len(frame) == 0 {
		err = fmt.Errorf("empty frame")
	}
	if err != nil {
		m.mu.Lock()
		if m.stale(gen) {
			m.mu.Unlock()
			return
		}
		m.state = StateIdle
		m.emit(Notification{
			Kind:    NotifyError,
			Message: "Camera unavailable, check the camera and try again",
			Err:     fmt.Errorf("%w: %v", ErrCameraFailed, err),
		})
		m.unlockAndNotify()
		return
	}

	out := m.opts.Pipeline.Process(frame, filter)
	if out.Filter.Fallback() {
		log.Warn().Err(out.Filter.Err).Str("filter", string(filter)).Msg("Filter failed, keeping original frame")
	}
	if out.Watermark.Fallback() {
		log.Warn().Err(out.Watermark.Err).Msg("Watermark failed, keeping unwatermarked frame")
	}

	m.mu.Lock()
	if m.stale(gen) {
		m.mu.Unlock()
		log.Debug().Msg("Dropping frame captured for an abandoned session")
		return
	}
	m.session.Frames = append(m.session.Frames, out.Data)

	total := m.framesNeeded()
	shot := len(m.session.Frames)
	if shot < total {
		m.session.StripIndex++
		m.state = StateIdle
		m.emit(Notification{
			Kind:    NotifyProgress,
			Shot:    shot,
			Total:   total,
			Message: fmt.Sprintf("Photo %d/%d captured!", shot, total),
		})
		m.unlockAndNotify()
		return
	}

	upload := m.upload()
	m.unlockAndNotify()
	m.persist(ctx, gen, upload)
}

// upload snapshots the session frames. It runs with m.mu held.
func (m *Machine) upload() Upload {
	return Upload{
		Mode:       m.session.Mode,
		Filter:     string(m.opts.Filter),
		Background: m.opts.Background,
		Frames:     append([][]byte(nil), m.session.Frames...),
	}
}

func (m *Machine) persist(ctx context.Context, gen uint64, upload Upload) {
	rec, err := m.opts.Persister.Persist(ctx, upload)

	m.mu.Lock()
	if m.stale(gen) {
		m.mu.Unlock()
		if err == nil && rec != nil {
			log.Warn().Int64("photo_id", rec.ID).Msg("Upload finished after the session was abandoned")
		}
		return
	}
	if err != nil {
		// frames are kept for Retry
		m.state = StateIdle
		m.emit(Notification{
			Kind:    NotifyError,
			Message: "Could not save the photo, please retry",
			Err:     err,
		})
		m.unlockAndNotify()
		return
	}

	m.session.Captured = rec
	m.state = StateComplete
	m.emit(Notification{
		Kind:    NotifyComplete,
		Shot:    len(upload.Frames),
		Total:   len(upload.Frames),
		Message: "Photo saved!",
		Record:  rec,
	})
	m.unlockAndNotify()
}

func (m *Machine) framesNeeded() int {
	if m.session.Mode == ModeStrip {
		return m.opts.StripSize
	}
	return 1
}

func (m *Machine) cancelCountdown() {
	if m.stopCountdown != nil {
		m.stopCountdown()
		m.stopCountdown = nil
	}
	m.generation++
	m.remaining = 0
}

func (m *Machine) reset(mode Mode) {
	if mode == "" {
		mode = ModeSingle
	}
	m.state = StateIdle
	m.session = Session{Mode: mode}
}

func (m *Machine) emit(n Notification) {
	n.State = m.state
	m.pending = append(m.pending, n)
}

// unlockAndNotify releases m.mu and delivers queued notifications
func (m *Machine) unlockAndNotify() {
	pending := m.pending
	m.pending = nil
	observers := make([]func(Notification), 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.mu.Unlock()

	for _, n := range pending {
		for _, fn := range observers {
			fn(n)
		}
	}
}
