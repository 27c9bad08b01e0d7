// Package wizard drives the three-step order fulfillment flow: pick
// services, pick spare parts, review and submit. The session is pure
// state bound to a single order; transport lives behind the Submitter
// interface.
package wizard

import (
	"context"
	"errors"

	"motoshop/internal/models"
	"motoshop/internal/selection"
)

// Step identifies the wizard's current screen.
type Step int

const (
	StepServices Step = iota
	StepParts
	StepReview
)

// Submit phases. A session submits at most once; the tri-state guards
// re-entry while a submission is in flight.
type phase int

const (
	phaseIdle phase = iota
	phaseSubmitting
	phaseDone
)

var (
	// ErrSubmitInFlight is returned when Submit is called while a prior
	// submission has not resolved yet.
	ErrSubmitInFlight = errors.New("submission already in progress")
	// ErrSessionClosed is returned when Submit is called after the
	// session already submitted successfully.
	ErrSessionClosed = errors.New("session already submitted")
)

const msgServiceRequired = "must select at least one service"
const msgSubmitFailed = "could not submit the order, please try again"

// ValidationError blocks a state transition with a user-facing message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// Payload is the submission built from a session at submit time.
type Payload struct {
	OrderID        string           `json:"order_id"`
	Status         string           `json:"status"`
	Services       []selection.Line `json:"services"`
	Parts          []selection.Line `json:"parts"`
	GeneralComment string           `json:"general_comment"`
	Total          float64          `json:"total"`
}

// Submitter delivers a fulfillment payload to the backend.
type Submitter interface {
	SubmitFulfillment(ctx context.Context, p Payload) error
}

// Session is the state of one open fulfillment dialog.
type Session struct {
	orderID        string
	step           Step
	services       *selection.Editor[models.Service]
	parts          *selection.Editor[models.Part]
	generalComment string
	errMsg         string
	phase          phase
	submitter      Submitter
}

// NewSession opens a wizard session bound to the given order.
func NewSession(orderID string, submitter Submitter) *Session {
	s := &Session{orderID: orderID, submitter: submitter}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.step = StepServices
	s.services = selection.NewEditor(ServiceAdapter)
	s.parts = selection.NewEditor(PartAdapter)
	s.generalComment = ""
	s.errMsg = ""
	s.phase = phaseIdle
}

// Bind points the session at an order. Binding to a different order
// discards all prior state; rebinding the same order is a no-op.
func (s *Session) Bind(orderID string) {
	if orderID == s.orderID {
		return
	}
	s.orderID = orderID
	s.reset()
}

// OrderID returns the bound order.
func (s *Session) OrderID() string { return s.orderID }

// Step returns the current wizard step.
func (s *Session) Step() Step { return s.step }

// Err returns the currently displayed error message, if any.
func (s *Session) Err() string { return s.errMsg }

// Services is the service selection editor.
func (s *Session) Services() *selection.Editor[models.Service] { return s.services }

// Parts is the spare-part selection editor.
func (s *Session) Parts() *selection.Editor[models.Part] { return s.parts }

// SetGeneralComment sets the order-level comment.
func (s *Session) SetGeneralComment(text string) { s.generalComment = text }

// GeneralComment returns the order-level comment.
func (s *Session) GeneralComment() string { return s.generalComment }

// Total is the running sum of both selections.
func (s *Session) Total() float64 {
	return s.services.Subtotal() + s.parts.Subtotal()
}

// Next advances one step. Leaving the services step with an empty
// selection is blocked: the step stays put and an error message is set.
// Returns whether the step advanced.
func (s *Session) Next() bool {
	if s.step == StepServices && s.services.Len() == 0 {
		s.errMsg = msgServiceRequired
		return false
	}
	if s.step < StepReview {
		s.step++
	}
	s.errMsg = ""
	return true
}

// Back steps backward. Always allowed; clears any error.
func (s *Session) Back() {
	if s.step > StepServices {
		s.step--
	}
	s.errMsg = ""
}

// Submit validates the session, builds the payload and hands it to the
// submitter. On success the session resets to its initial empty state
// and closes. On submitter failure the step and selections are left
// intact so the user can retry without re-entering anything.
func (s *Session) Submit(ctx context.Context) error {
	switch s.phase {
	case phaseSubmitting:
		return ErrSubmitInFlight
	case phaseDone:
		return ErrSessionClosed
	}

	if s.services.Len() == 0 {
		s.step = StepServices
		s.errMsg = msgServiceRequired
		return &ValidationError{Msg: msgServiceRequired}
	}

	payload := Payload{
		OrderID:        s.orderID,
		Status:         "in_progress",
		Services:       s.services.Lines(),
		Parts:          s.parts.Lines(),
		GeneralComment: s.generalComment,
		Total:          s.Total(),
	}

	s.phase = phaseSubmitting
	if err := s.submitter.SubmitFulfillment(ctx, payload); err != nil {
		s.phase = phaseIdle
		s.errMsg = msgSubmitFailed
		return err
	}

	s.reset()
	s.phase = phaseDone
	return nil
}

// Closed reports whether the session finished a successful submission.
func (s *Session) Closed() bool { return s.phase == phaseDone }

// ServiceAdapter reads services for a selection editor. Services carry
// no stock constraint.
var ServiceAdapter = selection.Adapter[models.Service]{
	ID:    func(s models.Service) int64 { return s.ID },
	Name:  func(s models.Service) string { return s.Name },
	Price: func(s models.Service) float64 { return s.Price },
	Stock: func(models.Service) (int, bool) { return 0, false },
}

// PartAdapter reads spare parts for a selection editor; the catalog
// stock count caps selectable quantities.
var PartAdapter = selection.Adapter[models.Part]{
	ID:    func(p models.Part) int64 { return p.ID },
	Name:  func(p models.Part) string { return p.Name },
	Price: func(p models.Part) float64 { return p.Price },
	Stock: func(p models.Part) (int, bool) { return p.Stock, true },
}
