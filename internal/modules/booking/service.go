// README: Booking service enforces confirm-price-before-book and records each attempt.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wayfarer/internal/modules/provider"
)

// Provider is the part of the travel API a booking needs.
type Provider interface {
	ConfirmPrice(ctx context.Context, offer provider.FlightOffer) (provider.FlightOffer, error)
	CreateBooking(ctx context.Context, offer provider.FlightOffer, travelers []provider.Traveler) (provider.Order, error)
}

var (
	ErrInvalidState = errors.New("invalid booking state transition")
	ErrNotFound     = errors.New("booking not found")
	ErrConflict     = errors.New("booking state conflict")
	ErrBadRequest   = errors.New("bad request")
)

type Service struct {
	repo     Repository
	offers   OfferCache
	provider Provider
	log      *zap.Logger
}

func NewService(repo Repository, offers OfferCache, p Provider, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, offers: offers, provider: p, log: log.Named("booking")}
}

// RememberOffers stores the offers just shown so a later turn can book one.
func (s *Service) RememberOffers(ctx context.Context, conversationID uuid.UUID, offers []provider.FlightOffer) error {
	return s.offers.SaveOffers(ctx, conversationID, offers)
}

type BookCommand struct {
	ConversationID uuid.UUID
	OwnerID        string
	Option         int
	Traveler       provider.Traveler
}

type Result struct {
	Booking *Booking
	Offer   provider.FlightOffer
	Order   provider.Order
}

// Book confirms the offer's price and only then creates the order. A moved
// price ends the attempt with a *provider.PriceChangedError and refreshes
// the cached offer, so repeating the request books at the new price.
func (s *Service) Book(ctx context.Context, cmd BookCommand) (*Result, error) {
	if cmd.Option < 1 || cmd.Traveler.FirstName == "" || cmd.Traveler.LastName == "" || cmd.Traveler.Email == "" {
		return nil, ErrBadRequest
	}
	offer, err := s.offers.Offer(ctx, cmd.ConversationID, cmd.Option)
	if err != nil {
		return nil, err
	}
	quoted, err := offer.Price.Money()
	if err != nil {
		return nil, err
	}

	b, err := s.openBooking(ctx, cmd, offer)
	if err != nil {
		return nil, err
	}
	res := &Result{Booking: b, Offer: offer}

	confirmed, err := s.provider.ConfirmPrice(ctx, offer)
	var changed *provider.PriceChangedError
	switch {
	case errors.As(err, &changed):
		s.log.Info("price changed before booking",
			zap.String("booking_id", b.ID.String()),
			zap.Stringer("quoted", changed.Quoted),
			zap.Stringer("confirmed", changed.Confirmed))
		if terr := s.transition(ctx, b, StatusPriceChanged, StatusPatch{Confirmed: &changed.Confirmed}); terr != nil {
			return nil, terr
		}
		if rerr := s.offers.ReplaceOffer(ctx, cmd.ConversationID, cmd.Option, confirmed); rerr != nil {
			s.log.Warn("could not refresh cached offer", zap.Error(rerr))
		}
		res.Offer = confirmed
		return res, err
	case err != nil:
		s.fail(ctx, b, err)
		return nil, err
	}

	price, err := confirmed.Price.Money()
	if err != nil {
		price = quoted
	}
	if err := s.transition(ctx, b, StatusPriced, StatusPatch{Confirmed: &price}); err != nil {
		return nil, err
	}
	res.Offer = confirmed

	order, err := s.provider.CreateBooking(ctx, confirmed, []provider.Traveler{cmd.Traveler})
	if err != nil {
		s.fail(ctx, b, err)
		return nil, err
	}
	if err := s.transition(ctx, b, StatusBooked, StatusPatch{ProviderOrderID: order.ID, Reference: order.Reference}); err != nil {
		s.log.Error("order placed but booking record not updated",
			zap.String("booking_id", b.ID.String()), zap.String("order_id", order.ID), zap.Error(err))
	}
	res.Order = order
	return res, nil
}

// openBooking resumes a booking waiting on a price re-confirmation, or
// creates a new quoted one.
func (s *Service) openBooking(ctx context.Context, cmd BookCommand, offer provider.FlightOffer) (*Booking, error) {
	quoted, _ := offer.Price.Money()
	pending, err := s.repo.FindPending(ctx, cmd.ConversationID, cmd.Option)
	if err == nil && pending.OfferID == offer.ID {
		return pending, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	now := time.Now().UTC()
	b := &Booking{
		ID:             uuid.New(),
		ConversationID: cmd.ConversationID,
		OwnerID:        cmd.OwnerID,
		OfferID:        offer.ID,
		Option:         cmd.Option,
		Status:         StatusQuoted,
		Quoted:         quoted,
		Traveler:       cmd.Traveler,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	_ = s.repo.AppendEvent(ctx, &Event{BookingID: b.ID, FromStatus: StatusNone, ToStatus: StatusQuoted, CreatedAt: now})
	return b, nil
}

func (s *Service) transition(ctx context.Context, b *Booking, to Status, patch StatusPatch) error {
	if !CanTransition(b.Status, to) {
		return ErrInvalidState
	}
	ok, err := s.repo.UpdateStatus(ctx, b.ID, b.Status, to, b.StatusVersion, patch)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.repo.AppendEvent(ctx, &Event{BookingID: b.ID, FromStatus: b.Status, ToStatus: to, CreatedAt: time.Now().UTC()})
	b.Status = to
	b.StatusVersion++
	if patch.Confirmed != nil {
		b.Confirmed = patch.Confirmed
	}
	if patch.ProviderOrderID != "" {
		b.ProviderOrderID = patch.ProviderOrderID
	}
	if patch.Reference != "" {
		b.Reference = patch.Reference
	}
	if patch.FailureReason != "" {
		b.FailureReason = patch.FailureReason
	}
	return nil
}

func (s *Service) fail(ctx context.Context, b *Booking, cause error) {
	if err := s.transition(ctx, b, StatusFailed, StatusPatch{FailureReason: cause.Error()}); err != nil {
		s.log.Warn("could not mark booking failed", zap.String("booking_id", b.ID.String()), zap.Error(err))
	}
}

// Get returns a booking by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.Get(ctx, id)
}
