package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/capture"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/domain"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/models"
)

// Submitter publishes and later amends the alert record. Implemented by the
// alert service.
type Submitter interface {
	Submit(ctx context.Context, draft models.AlertDraft) (*models.Alert, error)
	Attach(ctx context.Context, id uuid.UUID, ev models.Evidence) (*models.Alert, error)
}

// Pipeline is the evidence capture run for one activation.
type Pipeline interface {
	Run(ctx context.Context) (models.Evidence, error)
}

type Config struct {
	Countdown time.Duration // total arming time before submission
	Tick      time.Duration
	Logger    zerolog.Logger
}

// Hooks carry UI side effects (countdown beep, phase display). Optional.
type Hooks struct {
	OnTick  func(remaining int)
	OnPhase func(id uuid.UUID, phase domain.Phase)
}

// Activation is one SOS attempt: one cancellation token, one countdown, one
// pipeline run, and at most one alert record.
type Activation struct {
	id     uuid.UUID
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	phase     domain.Phase
	cancelled bool
	alertID   uuid.UUID
	hasAlert  bool
	evidence  *models.Evidence
	attached  bool
}

func (a *Activation) ID() uuid.UUID { return a.id }

// Done is closed once the countdown and the pipeline have both settled and
// any evidence patch has been attempted.
func (a *Activation) Done() <-chan struct{} { return a.done }

func (a *Activation) Phase() domain.Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// AlertID returns the published record id, valid once the countdown reached
// zero.
func (a *Activation) AlertID() (uuid.UUID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alertID, a.hasAlert
}

// Coordinator owns the activation state machine. It is the only component
// that creates alert records for SOS activations and the only one that
// patches evidence into them.
type Coordinator struct {
	config    Config
	pipeline  Pipeline
	submitter Submitter
	hooks     Hooks
	logger    zerolog.Logger

	mu      sync.Mutex
	current *Activation
}

func New(pipeline Pipeline, submitter Submitter, cfg Config, hooks Hooks) (*Coordinator, error) {
	if pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if submitter == nil {
		return nil, errors.New("submitter is required")
	}
	if cfg.Countdown <= 0 {
		cfg.Countdown = 5 * time.Second
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.Countdown < cfg.Tick {
		return nil, fmt.Errorf("countdown %v shorter than tick %v", cfg.Countdown, cfg.Tick)
	}
	return &Coordinator{
		config:    cfg,
		pipeline:  pipeline,
		submitter: submitter,
		hooks:     hooks,
		logger:    cfg.Logger.With().Str("component", "sos_lifecycle").Logger(),
	}, nil
}

// Activate leaves Idle: a fresh cancellation token is created, the evidence
// pipeline starts in the background and the countdown begins. An activation
// already in flight is cancelled and replaced.
func (c *Coordinator) Activate(ctx context.Context, draft models.AlertDraft) (*Activation, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if prev := c.current; prev != nil {
		c.cancelActivation(prev)
	}

	// The token must outlive the triggering request: detach from the
	// caller's context before attaching our own cancel.
	actCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	act := &Activation{
		id:     uuid.New(),
		cancel: cancel,
		done:   make(chan struct{}),
		phase:  domain.Arming,
	}
	c.current = act
	c.mu.Unlock()

	c.logger.Info().
		Str("activation_id", act.id.String()).
		Dur("countdown", c.config.Countdown).
		Msg("sos activated")
	c.notifyPhase(act, domain.Arming)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.runCountdown(actCtx, act, draft)
	}()
	go func() {
		defer wg.Done()
		c.runPipeline(actCtx, act)
	}()
	go func() {
		wg.Wait()
		close(act.done)
	}()

	return act, nil
}

// Cancel aborts the current activation if it is still arming. After the
// countdown reached zero the alert is already on its way and cancellation
// is a no-op.
func (c *Coordinator) Cancel() bool {
	c.mu.Lock()
	act := c.current
	c.mu.Unlock()
	if act == nil {
		return false
	}

	act.mu.Lock()
	if act.cancelled || act.phase != domain.Arming {
		act.mu.Unlock()
		return false
	}
	act.cancelled = true
	act.phase = domain.Idle
	act.mu.Unlock()

	act.cancel()
	c.logger.Info().Str("activation_id", act.id.String()).Msg("sos cancelled")
	c.notifyPhase(act, domain.Idle)
	return true
}

// Phase reports the current activation's phase, Idle when none is in flight.
func (c *Coordinator) Phase() domain.Phase {
	c.mu.Lock()
	act := c.current
	c.mu.Unlock()
	if act == nil {
		return domain.Idle
	}
	return act.Phase()
}

// cancelActivation is the cancel-and-replace path; caller holds c.mu.
func (c *Coordinator) cancelActivation(act *Activation) {
	act.mu.Lock()
	already := act.cancelled
	act.cancelled = true
	if act.phase == domain.Arming {
		act.phase = domain.Idle
	}
	act.mu.Unlock()
	act.cancel()
	if !already {
		c.logger.Info().Str("activation_id", act.id.String()).Msg("previous activation replaced")
	}
}

func (c *Coordinator) runCountdown(ctx context.Context, act *Activation, draft models.AlertDraft) {
	total := int(c.config.Countdown / c.config.Tick)
	timer := time.NewTimer(c.config.Tick)
	defer timer.Stop()

	for remaining := total; remaining > 0; remaining-- {
		select {
		case <-ctx.Done():
			// Cancel already moved the phase to Idle.
			return
		case <-timer.C:
		}
		if c.hooks.OnTick != nil {
			c.hooks.OnTick(remaining - 1)
		}
		if remaining > 1 {
			timer.Reset(c.config.Tick)
		}
	}

	act.mu.Lock()
	if act.cancelled {
		act.mu.Unlock()
		return
	}
	if err := domain.ValidatePhaseTransition(act.phase, domain.PhaseSubmitted); err != nil {
		act.mu.Unlock()
		c.logger.Error().Err(err).Str("activation_id", act.id.String()).Msg("countdown raced activation state")
		return
	}
	act.phase = domain.PhaseSubmitted
	act.mu.Unlock()
	c.notifyPhase(act, domain.PhaseSubmitted)

	// Submission must not wait on the evidence pipeline, and must survive a
	// later token signal.
	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	alert, err := c.submitter.Submit(submitCtx, draft)
	if err != nil {
		c.logger.Error().Err(err).
			Str("activation_id", act.id.String()).
			Msg("alert submission failed")
		return
	}

	act.mu.Lock()
	act.alertID = alert.ID
	act.hasAlert = true
	act.mu.Unlock()

	c.logger.Info().
		Str("activation_id", act.id.String()).
		Str("alert_id", alert.ID.String()).
		Msg("alert submitted")

	c.tryAttach(ctx, act)
}

func (c *Coordinator) runPipeline(ctx context.Context, act *Activation) {
	ev, err := c.pipeline.Run(ctx)
	if err != nil {
		if errors.Is(err, capture.ErrAborted) {
			c.logger.Debug().Str("activation_id", act.id.String()).Msg("evidence discarded")
		} else {
			c.logger.Warn().Err(err).Str("activation_id", act.id.String()).Msg("evidence capture failed")
		}
		return
	}

	act.mu.Lock()
	act.evidence = &ev
	act.mu.Unlock()

	c.tryAttach(ctx, act)
}

// tryAttach is the rendezvous between countdown and pipeline: it patches the
// record exactly once, only when this activation still owns an uncancelled,
// published alert and the evidence has resolved — regardless of which side
// finished first.
func (c *Coordinator) tryAttach(ctx context.Context, act *Activation) {
	act.mu.Lock()
	if act.cancelled || act.attached || !act.hasAlert || act.evidence == nil {
		act.mu.Unlock()
		return
	}
	if act.evidence.Empty() {
		// Nothing captured; the record keeps evidence: null.
		act.mu.Unlock()
		c.logger.Info().Str("activation_id", act.id.String()).Msg("no evidence to attach")
		return
	}
	act.attached = true
	ev := *act.evidence
	alertID := act.alertID
	act.mu.Unlock()

	attachCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if _, err := c.submitter.Attach(attachCtx, alertID, ev); err != nil {
		c.logger.Error().Err(err).
			Str("alert_id", alertID.String()).
			Msg("evidence patch failed")
		return
	}

	act.mu.Lock()
	transitioned := false
	if !act.cancelled && domain.CanTransitionPhase(act.phase, domain.EvidenceAttached) {
		act.phase = domain.EvidenceAttached
		transitioned = true
	}
	act.mu.Unlock()
	if transitioned {
		c.notifyPhase(act, domain.EvidenceAttached)
	}

	c.logger.Info().
		Str("alert_id", alertID.String()).
		Int("images", len(ev.ImageURLs)).
		Bool("audio", ev.AudioURL != "").
		Msg("evidence attached")
}

func (c *Coordinator) notifyPhase(act *Activation, phase domain.Phase) {
	if c.hooks.OnPhase != nil {
		c.hooks.OnPhase(act.id, phase)
	}
}
