// README: Per-turn reply pipeline: classify, dispatch to an intent handler, then generic generation, then canned reply.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wayfarer/internal/ai"
	"wayfarer/internal/modules/booking"
	"wayfarer/internal/modules/format"
	"wayfarer/internal/modules/intent"
	"wayfarer/internal/modules/provider"
	"wayfarer/internal/types"
)

var (
	ErrHandlerPanic  = errors.New("assistant: handler panicked")
	ErrNoHandler     = errors.New("assistant: no handler for intent")
	ErrNotConfigured = errors.New("assistant: dependency not configured")
)

type Classifier interface {
	Classify(message string) *intent.Intent
}

type Resolver interface {
	Resolve(ctx context.Context, place string) (string, error)
}

// Provider is the travel API surface the handlers search with.
type Provider interface {
	SearchFlights(ctx context.Context, q provider.FlightQuery) (provider.FlightResults, error)
	SearchHotels(ctx context.Context, q provider.HotelQuery) ([]provider.HotelOffer, error)
	SearchPointsOfInterest(ctx context.Context, lat, lng float64, radiusKm int) ([]provider.PointOfInterest, error)
	LookupLocation(ctx context.Context, keyword string) ([]provider.Location, error)
}

// Places backs point-of-interest lookups with geocoding and a text search.
type Places interface {
	Geocode(ctx context.Context, place string) (float64, float64, error)
	Attractions(ctx context.Context, city string) ([]provider.PointOfInterest, error)
}

type Bookings interface {
	RememberOffers(ctx context.Context, conversationID uuid.UUID, offers []provider.FlightOffer) error
	Book(ctx context.Context, cmd booking.BookCommand) (*booking.Result, error)
}

type Quota interface {
	Consume(ctx context.Context, owner string) error
}

// Options wires the orchestrator. Places, Bookings, Generator and Quota are
// optional; a missing one makes its step fail over to the next tier.
type Options struct {
	Classifier Classifier
	Resolver   Resolver
	Provider   Provider
	Places     Places
	Bookings   Bookings
	Generator  ai.Generator
	Quota      Quota
	Formatter  *format.Formatter
	Log        *zap.Logger
	// Threshold zero means intent.DefaultThreshold.
	Threshold  float64
	Location   *time.Location
	Now        func() time.Time
}

type Orchestrator struct {
	opts     Options
	log      *zap.Logger
	handlers map[intent.Category]handler
}

// Request is one turn to answer. History ends with the user message.
type Request struct {
	ConversationID uuid.UUID
	OwnerID        string
	History        []types.Turn
}

type Reply struct {
	Text   string
	State  State
	Intent *intent.Intent
	// Trail lists every state the turn passed through, in order.
	Trail []State
}

func New(opts Options) *Orchestrator {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Formatter == nil {
		opts.Formatter = format.New(opts.Log)
	}
	if opts.Threshold == 0 {
		opts.Threshold = intent.DefaultThreshold
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	o := &Orchestrator{opts: opts, log: opts.Log.Named("assistant")}
	o.handlers = map[intent.Category]handler{
		intent.CategoryFlight:          o.handleFlight,
		intent.CategoryHotel:           o.handleHotel,
		intent.CategoryPointOfInterest: o.handlePointsOfInterest,
		intent.CategoryItinerary:       o.handleItinerary,
		intent.CategoryBooking:         o.handleBooking,
	}
	return o
}

// turn tracks the state machine for a single Respond call.
type turn struct {
	o     *Orchestrator
	reply Reply
}

func (t *turn) advance(to State) {
	from := t.reply.State
	if !CanTransition(from, to) {
		t.o.log.DPanic("invalid assistant transition", zap.String("from", string(from)), zap.String("to", string(to)))
	}
	t.reply.State = to
	t.reply.Trail = append(t.reply.Trail, to)
}

// Respond always returns exactly one non-empty reply in a terminal state.
func (o *Orchestrator) Respond(ctx context.Context, req Request) Reply {
	t := &turn{o: o, reply: Reply{State: StateAwaitingClassification, Trail: []State{StateAwaitingClassification}}}
	last, idx := types.LatestUserTurn(req.History)

	if IsFirstTurn(req.History, idx) {
		t.advance(StateGreeting)
		t.reply.Text = GreetingReply
		return t.reply
	}

	in := o.opts.Classifier.Classify(last.Content)
	t.reply.Intent = in
	h, ok := o.handlerFor(in)
	if ok {
		t.advance(StateDispatched)
		text, err := o.runHandler(ctx, h, req, last.Content)
		if err == nil && strings.TrimSpace(text) != "" {
			t.advance(StateHandlerSucceeded)
			t.reply.Text = text
			return t.reply
		}
		o.log.Warn("intent handler failed",
			zap.String("category", string(in.Category)),
			zap.String("conversation_id", req.ConversationID.String()),
			zap.Error(err))
		t.advance(StateHandlerFailed)
	} else {
		t.advance(StateDeferred)
	}

	t.advance(StateGenericGeneration)
	text, err := o.Generate(ctx, req)
	if err == nil {
		t.advance(StateGenerationSucceeded)
		t.reply.Text = text
		return t.reply
	}
	o.log.Info("generic generation unavailable, using canned reply", zap.Error(err))
	t.advance(StateGenerationFailed)
	t.reply.Text = CannedReply(last.Content)
	return t.reply
}

// IsFirstTurn reports whether no user or assistant turn precedes index idx.
// A history without any user turn counts as a first turn.
func IsFirstTurn(history []types.Turn, idx int) bool {
	if idx < 0 {
		return true
	}
	for _, h := range history[:idx] {
		if h.Role == types.RoleUser || h.Role == types.RoleAssistant {
			return false
		}
	}
	return true
}

func (o *Orchestrator) handlerFor(in *intent.Intent) (handler, bool) {
	if !in.Dispatchable(o.opts.Threshold) {
		return nil, false
	}
	h, ok := o.handlers[in.Category]
	return h, ok
}

// Dispatch runs the handler for a category directly, bypassing classification.
func (o *Orchestrator) Dispatch(ctx context.Context, category intent.Category, req Request) (string, error) {
	h, ok := o.handlers[category]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoHandler, category)
	}
	last, _ := types.LatestUserTurn(req.History)
	return o.runHandler(ctx, h, req, last.Content)
}

func (o *Orchestrator) runHandler(ctx context.Context, h handler, req Request, message string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("intent handler panic", zap.Any("panic", r), zap.Stack("stack"))
			text, err = "", fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h(ctx, req, message)
}

// Generate is the generic tier. It fails when no generator is configured,
// the owner's quota is spent, the backend errors or the text is blank.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (string, error) {
	if o.opts.Generator == nil {
		return "", fmt.Errorf("%w: generator", ErrNotConfigured)
	}
	if o.opts.Quota != nil {
		if err := o.opts.Quota.Consume(ctx, req.OwnerID); err != nil {
			return "", err
		}
	}
	text, err := o.opts.Generator.Generate(ctx, ai.TravelSystemPrompt(o.now()), req.History)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: blank reply", ai.ErrGeneration)
	}
	return text, nil
}

func (o *Orchestrator) now() time.Time {
	return o.opts.Now().In(o.opts.Location)
}
