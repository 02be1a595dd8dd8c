// Package controller runs the analyze workflow behind the trigger control: it
// validates the input, drives the display regions and hands results to the renderer.
package controller

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/bryanwahyu/code-understood/internal/domain/analysis"
)

// Stable identifiers of the display regions.
const (
	IDTrigger = "analyzeBtn"
	IDInput   = "codeInput"
	IDResults = "results"
	IDLoading = "loading"
	IDErrors  = "errorBox"
)

// ErrInFlight is returned when the trigger fires while a request is outstanding.
var ErrInFlight = errors.New("analysis already in progress")

// InputRegion is the user-editable text field.
type InputRegion interface {
	Text() string
}

// TriggerControl is the control that starts an analysis.
type TriggerControl interface {
	SetEnabled(enabled bool)
}

// ResultsRegion displays rendered cards.
type ResultsRegion interface {
	Clear()
	Show(cards []analysis.Card)
}

// LoadingIndicator is shown while a request is outstanding.
type LoadingIndicator interface {
	SetVisible(visible bool)
}

// ErrorRegion displays a failure message.
type ErrorRegion interface {
	Show(message string)
	Hide()
}

// Notifier shows a blocking notice to the user.
type Notifier interface {
	Notify(message string)
}

// Regions bundles the display collaborators the controller drives.
type Regions struct {
	Input   InputRegion
	Trigger TriggerControl
	Results ResultsRegion
	Loading LoadingIndicator
	Errors  ErrorRegion
	Notice  Notifier
}

// Controller owns one in-flight analysis at a time.
type Controller struct {
	client   analysis.Client
	ui       Regions
	policy   analysis.Policy
	log      *zap.Logger
	inFlight atomic.Bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithPolicy selects how missing result fields are rendered.
func WithPolicy(p analysis.Policy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a controller bound to its display regions.
func New(client analysis.Client, ui Regions, opts ...Option) *Controller {
	c := &Controller{
		client: client,
		ui:     ui,
		policy: analysis.Tolerant,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether a request is outstanding.
func (c *Controller) Busy() bool { return c.inFlight.Load() }

// Analyze is the trigger's activation handler. It blocks until the backend
// answers or fails. The returned error has already been shown to the user.
func (c *Controller) Analyze(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer c.inFlight.Store(false)

	code := strings.TrimSpace(c.ui.Input.Text())
	if code == "" {
		c.ui.Notice.Notify(analysis.EmptyInputNotice)
		return analysis.ErrEmptyInput
	}

	c.ui.Results.Clear()
	c.ui.Errors.Hide()
	c.ui.Loading.SetVisible(true)
	c.ui.Trigger.SetEnabled(false)

	result, err := c.client.Analyze(ctx, code)

	c.ui.Loading.SetVisible(false)
	c.ui.Trigger.SetEnabled(true)

	if err != nil {
		return c.fail(err)
	}
	if msg, ok := result.Failure(); ok {
		c.ui.Errors.Show(msg)
		c.log.Warn("backend reported failure", zap.String("message", msg))
		return &analysis.BackendError{Reported: true, Message: msg}
	}

	cards, err := analysis.Render(result, c.policy)
	if err != nil {
		return c.fail(err)
	}
	c.ui.Results.Show(cards)
	c.log.Debug("analysis rendered", zap.Int("cards", len(cards)))
	return nil
}

func (c *Controller) fail(err error) error {
	msg := analysis.GenericFailureMessage
	var be *analysis.BackendError
	if errors.As(err, &be) {
		msg = be.UserMessage()
	}
	c.ui.Errors.Show(msg)
	c.log.Error("analysis failed", zap.String("region", IDErrors), zap.Error(err))
	return err
}
