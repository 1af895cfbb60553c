package detector

import (
	"context"
	"sync"
	"time"

	"emotion/internal/models"

	"go.uber.org/zap"
)

type State int

const (
	StateIdle State = iota
	StateCapturing
	StateFileSelected
	StateSubmitting
	StateRendered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateFileSelected:
		return "file-selected"
	case StateSubmitting:
		return "submitting"
	case StateRendered:
		return "rendered"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// User-facing notices.
const (
	NoticeCaptureUnavailable = "Image not ready yet, please try again."
	NoticeNoFile             = "Please select an image first."
	NoticeServerError        = "Server error: Could not get prediction."
)

type Source interface {
	CaptureFromCamera() (models.ImagePayload, error)
	PendingFile() (models.ImagePayload, error)
}

type Notifier interface {
	Notify(message string)
}

type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// Processor runs one analyze cycle per call:
// Idle -> Capturing|FileSelected -> Submitting -> Rendered|Failed -> Idle.
// Overlapping calls are not serialized.
type Processor struct {
	source    Source
	submitter Submitter
	notifier  Notifier
	log       *zap.Logger

	OnResult      func(*models.EmotionResult)
	OnStateChange func(State)

	mu      sync.RWMutex
	state   State
	last    *models.EmotionResult
	latency time.Duration
}

func NewProcessor(source Source, submitter Submitter, notifier Notifier, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}

	return &Processor{
		source:    source,
		submitter: submitter,
		notifier:  notifier,
		log:       log.Named("processor"),
	}
}

func (p *Processor) CaptureAndAnalyze(ctx context.Context) error {
	p.setState(StateCapturing)

	payload, err := p.source.CaptureFromCamera()
	if err != nil {
		p.log.Warn("capture unavailable", zap.Error(err))
		p.notify(NoticeCaptureUnavailable)
		p.setState(StateIdle)
		return err
	}

	return p.submit(ctx, payload)
}

func (p *Processor) UploadAndAnalyze(ctx context.Context) error {
	p.setState(StateFileSelected)

	payload, err := p.source.PendingFile()
	if err != nil {
		p.log.Warn("no file to upload", zap.Error(err))
		p.notify(NoticeNoFile)
		p.setState(StateIdle)
		return err
	}

	return p.submit(ctx, payload)
}

func (p *Processor) submit(ctx context.Context, payload models.ImagePayload) error {
	p.setState(StateSubmitting)

	start := time.Now()
	result, err := p.submitter.Submit(ctx, payload)
	elapsed := time.Since(start)

	p.mu.Lock()
	p.latency = elapsed
	p.mu.Unlock()

	if err != nil {
		p.log.Error("prediction failed", zap.String("filename", payload.Filename), zap.Error(err))
		p.setState(StateFailed)
		p.notify(NoticeServerError)
		p.setState(StateIdle)
		return err
	}

	p.mu.Lock()
	p.last = result
	p.mu.Unlock()

	p.setState(StateRendered)
	if p.OnResult != nil {
		p.OnResult(result)
	}
	p.setState(StateIdle)

	p.log.Info("prediction rendered",
		zap.String("filename", payload.Filename),
		zap.Strings("emotions", result.Emotions),
		zap.Duration("latency", elapsed))

	return nil
}

// LastResult is the most recent successful prediction, or nil.
func (p *Processor) LastResult() *models.EmotionResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

func (p *Processor) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Processor) Latency() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latency
}

func (p *Processor) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()

	if p.OnStateChange != nil {
		p.OnStateChange(s)
	}
}

func (p *Processor) notify(message string) {
	if p.notifier != nil {
		p.notifier.Notify(message)
	}
}
