package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"wayfarer/internal/ai"
	"wayfarer/internal/modules/aiusage"
	"wayfarer/internal/modules/booking"
	"wayfarer/internal/modules/intent"
	"wayfarer/internal/modules/location"
	"wayfarer/internal/modules/provider"
	"wayfarer/internal/types"
)

var testNow = time.Date(2026, 10, 18, 14, 30, 0, 0, time.UTC)

const flightMessage = "Find flights from New York to London on June 15th"

// fakeProvider answers searches from canned data and records queries.
type fakeProvider struct {
	mu          sync.Mutex
	flights     provider.FlightResults
	hotels      []provider.HotelOffer
	pois        []provider.PointOfInterest
	locations   []provider.Location
	err         error
	panicMsg    string
	flightQuery provider.FlightQuery
	hotelQuery  provider.HotelQuery
	calls       int
}

func (f *fakeProvider) SearchFlights(_ context.Context, q provider.FlightQuery) (provider.FlightResults, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.flightQuery = q
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.flights, f.err
}

func (f *fakeProvider) SearchHotels(_ context.Context, q provider.HotelQuery) ([]provider.HotelOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.hotelQuery = q
	return f.hotels, f.err
}

func (f *fakeProvider) SearchPointsOfInterest(_ context.Context, lat, lng float64, radiusKm int) ([]provider.PointOfInterest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.pois, f.err
}

func (f *fakeProvider) LookupLocation(_ context.Context, keyword string) ([]provider.Location, error) {
	return f.locations, nil
}

type fakeResolver struct{ err error }

func (r fakeResolver) Resolve(_ context.Context, place string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	code, _ := location.Synthesize(place)
	return code, nil
}

// recordingResolver wraps a real resolver and keeps the tier that answered.
type recordingResolver struct {
	r       *location.Resolver
	mu      sync.Mutex
	answers []location.Resolution
}

func (rr *recordingResolver) Resolve(ctx context.Context, place string) (string, error) {
	res, err := rr.r.ResolveDetailed(ctx, place)
	rr.mu.Lock()
	rr.answers = append(rr.answers, res)
	rr.mu.Unlock()
	return res.Code, err
}

type fakeGenerator struct {
	text  string
	err   error
	calls int
}

func (g *fakeGenerator) Generate(_ context.Context, systemPrompt string, history []types.Turn) (string, error) {
	g.calls++
	return g.text, g.err
}

type fakeQuota struct{ err error }

func (q fakeQuota) Consume(context.Context, string) error { return q.err }

type fakePlaces struct {
	pois []provider.PointOfInterest
	err  error
}

func (p fakePlaces) Geocode(context.Context, string) (float64, float64, error) {
	return 41.9, 12.5, p.err
}

func (p fakePlaces) Attractions(context.Context, string) ([]provider.PointOfInterest, error) {
	return p.pois, nil
}

func flightOffer(id, total string) provider.FlightOffer {
	return provider.FlightOffer{
		ID:    id,
		Price: provider.OfferPrice{Currency: "USD", Total: total},
		Itineraries: []provider.Itinerary{{Segments: []provider.Segment{{
			CarrierCode: "BA",
			Number:      "178",
			Departure:   provider.Endpoint{IataCode: "JFK", At: "2026-10-19T18:00:00"},
			Arrival:     provider.Endpoint{IataCode: "LHR", At: "2026-10-20T06:05:00"},
		}}}},
	}
}

func newOrchestrator(p Provider, r Resolver, mods ...func(*Options)) *Orchestrator {
	opts := Options{
		Classifier: intent.NewClassifier(nil),
		Resolver:   r,
		Provider:   p,
		Now:        func() time.Time { return testNow },
	}
	for _, m := range mods {
		m(&opts)
	}
	return New(opts)
}

// withPrior puts an earlier exchange before msg so first-turn immunity does not apply.
func withPrior(msg string) Request {
	return Request{
		ConversationID: uuid.New(),
		OwnerID:        "user-1",
		History: []types.Turn{
			{Role: types.RoleUser, Content: "hello"},
			{Role: types.RoleAssistant, Content: GreetingReply},
			{Role: types.RoleUser, Content: msg},
		},
	}
}

func requireTerminal(t *testing.T, r Reply) {
	t.Helper()
	require.NotEmpty(t, strings.TrimSpace(r.Text))
	require.True(t, Terminal(r.State), "state %s", r.State)
	for i := 1; i < len(r.Trail); i++ {
		require.True(t, CanTransition(r.Trail[i-1], r.Trail[i]), "%s -> %s", r.Trail[i-1], r.Trail[i])
	}
}

func TestStateTable(t *testing.T) {
	require.True(t, CanTransition(StateAwaitingClassification, StateGreeting))
	require.True(t, CanTransition(StateHandlerFailed, StateGenericGeneration))
	require.True(t, CanTransition(StateDeferred, StateGenericGeneration))
	require.False(t, CanTransition(StateDeferred, StateDispatched))
	require.False(t, CanTransition(StateGenerationFailed, StateGenericGeneration))
	for _, s := range []State{StateGreeting, StateHandlerSucceeded, StateGenerationSucceeded, StateGenerationFailed} {
		require.True(t, Terminal(s), s)
	}
	require.False(t, Terminal(StateDispatched))
}

func TestFirstTurnAlwaysGreets(t *testing.T) {
	p := &fakeProvider{}
	o := newOrchestrator(p, fakeResolver{})

	req := Request{ConversationID: uuid.New(), History: []types.Turn{
		{Role: types.RoleSystem, Content: "conversation created"},
		{Role: types.RoleUser, Content: "I need a flight from Chicago to Miami on July 15"},
	}}
	reply := o.Respond(context.Background(), req)
	require.Equal(t, StateGreeting, reply.State)
	require.Equal(t, GreetingReply, reply.Text)
	require.Nil(t, reply.Intent)
	require.Zero(t, p.calls)
	requireTerminal(t, reply)

	reply = o.Respond(context.Background(), Request{})
	require.Equal(t, StateGreeting, reply.State)
}

func TestEndToEndFlightUsesFallbackTable(t *testing.T) {
	client := provider.New(provider.Config{}, nil)
	require.False(t, client.State().Initialized)
	rr := &recordingResolver{r: location.NewResolver(client, nil, nil, nil)}
	p := &fakeProvider{flights: provider.FlightResults{Offers: []provider.FlightOffer{
		flightOffer("1", "500.00"), flightOffer("2", "520.00"), flightOffer("3", "530.00"),
		flightOffer("4", "540.00"), flightOffer("5", "550.00"), flightOffer("6", "560.00"),
		flightOffer("7", "570.00"),
	}}}
	o := newOrchestrator(p, rr)

	reply := o.Respond(context.Background(), withPrior(flightMessage))
	requireTerminal(t, reply)
	require.Equal(t, StateHandlerSucceeded, reply.State)
	require.NotNil(t, reply.Intent)
	require.Equal(t, intent.CategoryFlight, reply.Intent.Category)
	require.Equal(t, 0.9, reply.Intent.Confidence)

	require.Len(t, rr.answers, 2)
	require.Equal(t, "JFK", rr.answers[0].Code)
	require.Equal(t, location.SourceTable, rr.answers[0].Source)
	require.Equal(t, "LHR", rr.answers[1].Code)
	require.Equal(t, location.SourceTable, rr.answers[1].Source)
	require.Equal(t, "JFK", p.flightQuery.Origin)
	require.Equal(t, "LHR", p.flightQuery.Destination)
	require.Equal(t, "2026-10-19", p.flightQuery.DepartDate)

	require.Contains(t, reply.Text, "New York to London")
	require.Contains(t, reply.Text, "5. ")
	require.NotContains(t, reply.Text, "6. ")
	require.Contains(t, reply.Text, "2 more")
}

func TestEndToEndFlightWithUninitializedProvider(t *testing.T) {
	client := provider.New(provider.Config{}, nil)
	o := newOrchestrator(client, location.NewResolver(client, nil, nil, nil))

	reply := o.Respond(context.Background(), withPrior(flightMessage))
	requireTerminal(t, reply)
	require.Equal(t, StateGenerationFailed, reply.State)
	require.Equal(t, []State{
		StateAwaitingClassification, StateDispatched, StateHandlerFailed,
		StateGenericGeneration, StateGenerationFailed,
	}, reply.Trail)
	require.Contains(t, reply.Text, "New York to London")
}

func TestFallbackCompleteness(t *testing.T) {
	cases := []struct {
		name  string
		msg   string
		p     *fakeProvider
		r     Resolver
		mods  []func(*Options)
		state State
		want  string
	}{
		{name: "extraction incomplete", msg: "I want to fly to Tokyo", p: &fakeProvider{}, r: fakeResolver{},
			state: StateHandlerSucceeded, want: "departure city and travel date"},
		{name: "resolution fails", msg: flightMessage, p: &fakeProvider{}, r: fakeResolver{err: location.ErrResolution},
			state: StateGenerationFailed, want: "New York to London"},
		{name: "provider not initialized", msg: "hotels in Paris from July 3rd to July 6th",
			p: &fakeProvider{err: provider.ErrNotInitialized}, r: fakeResolver{},
			state: StateGenerationFailed, want: "hotels"},
		{name: "provider request error", msg: flightMessage,
			p: &fakeProvider{err: &provider.RequestError{Kind: provider.KindUpstream, Op: "search_flights", StatusCode: 503}}, r: fakeResolver{},
			state: StateGenerationFailed, want: "trouble searching flights"},
		{name: "handler panics", msg: flightMessage, p: &fakeProvider{panicMsg: "nil map"}, r: fakeResolver{},
			state: StateGenerationFailed, want: "New York to London"},
		{name: "generation errors", msg: flightMessage, p: &fakeProvider{err: errors.New("boom")}, r: fakeResolver{},
			mods:  []func(*Options){func(o *Options) { o.Generator = &fakeGenerator{err: ai.ErrGeneration} }},
			state: StateGenerationFailed, want: "New York to London"},
		{name: "generation blank", msg: "tell me about travelling", p: &fakeProvider{}, r: fakeResolver{},
			mods:  []func(*Options){func(o *Options) { o.Generator = &fakeGenerator{text: "  "} }},
			state: StateGenerationFailed, want: "What would you like to plan?"},
		{name: "quota exhausted", msg: "tell me about travelling", p: &fakeProvider{}, r: fakeResolver{},
			mods: []func(*Options){func(o *Options) {
				o.Generator = &fakeGenerator{text: "never"}
				o.Quota = fakeQuota{err: aiusage.ErrQuotaExhausted}
			}},
			state: StateGenerationFailed, want: "What would you like to plan?"},
		{name: "handler fails then generation succeeds", msg: flightMessage, p: &fakeProvider{err: errors.New("boom")}, r: fakeResolver{},
			mods:  []func(*Options){func(o *Options) { o.Generator = &fakeGenerator{text: "Try again later for New York to London."} }},
			state: StateGenerationSucceeded, want: "Try again later"},
		{name: "deferred to generation", msg: "is Lisbon nice for a vacation", p: &fakeProvider{}, r: fakeResolver{},
			mods:  []func(*Options){func(o *Options) { o.Generator = &fakeGenerator{text: "Lisbon is lovely in spring."} }},
			state: StateGenerationSucceeded, want: "Lisbon is lovely"},
		{name: "small talk without generator", msg: "hello", p: &fakeProvider{}, r: fakeResolver{},
			state: StateGenerationFailed, want: "What would you like to plan?"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := newOrchestrator(tc.p, tc.r, tc.mods...)
			reply := o.Respond(context.Background(), withPrior(tc.msg))
			requireTerminal(t, reply)
			require.Equal(t, tc.state, reply.State)
			require.Contains(t, reply.Text, tc.want)
		})
	}
}

func TestDeferredSkipsHandlers(t *testing.T) {
	p := &fakeProvider{}
	gen := &fakeGenerator{text: "Sure."}
	o := newOrchestrator(p, fakeResolver{}, func(o *Options) { o.Generator = gen })

	reply := o.Respond(context.Background(), withPrior("any cheap one-way tickets lately?"))
	require.Equal(t, []State{StateAwaitingClassification, StateDeferred, StateGenericGeneration, StateGenerationSucceeded}, reply.Trail)
	require.Equal(t, 0.6, reply.Intent.Confidence)
	require.Zero(t, p.calls)
	require.Equal(t, 1, gen.calls)
}

func TestDispatchRunsHandlerDirectly(t *testing.T) {
	p := &fakeProvider{pois: []provider.PointOfInterest{{Name: "Colosseum", Category: "SIGHTS", Rank: 1}}}
	o := newOrchestrator(p, fakeResolver{}, func(o *Options) { o.Places = fakePlaces{} })

	text, err := o.Dispatch(context.Background(), intent.CategoryPointOfInterest, withPrior("things to do in Rome"))
	require.NoError(t, err)
	require.Contains(t, text, "Colosseum")

	_, err = o.Dispatch(context.Background(), intent.CategoryGeneral, withPrior("hi"))
	require.ErrorIs(t, err, ErrNoHandler)

	p.panicMsg = "kaboom"
	_, err = o.Dispatch(context.Background(), intent.CategoryFlight, withPrior(flightMessage))
	require.ErrorIs(t, err, ErrHandlerPanic)
}

func TestPointsOfInterestFallBackToPlaces(t *testing.T) {
	p := &fakeProvider{err: &provider.RequestError{Kind: provider.KindUpstream, Op: "search_pois"}}
	places := fakePlaces{pois: []provider.PointOfInterest{{Name: "Trevi Fountain", Rank: 1}}}
	o := newOrchestrator(p, fakeResolver{}, func(o *Options) { o.Places = places })

	text, err := o.Dispatch(context.Background(), intent.CategoryPointOfInterest, withPrior("what to see in Rome"))
	require.NoError(t, err)
	require.Contains(t, text, "Trevi Fountain")

	// Without Places the provider supplies coordinates and its error fails the handler.
	p.locations = []provider.Location{{IataCode: "ROM", GeoCode: provider.GeoCode{Latitude: 41.9, Longitude: 12.5}}}
	_, err = newOrchestrator(p, fakeResolver{}).Dispatch(context.Background(), intent.CategoryPointOfInterest, withPrior("what to see in Rome"))
	var reqErr *provider.RequestError
	require.ErrorAs(t, err, &reqErr)
}

func TestItineraryHandler(t *testing.T) {
	var pois []provider.PointOfInterest
	for i := 1; i <= 6; i++ {
		pois = append(pois, provider.PointOfInterest{Name: fmt.Sprintf("Stop %d", i), Rank: i})
	}
	p := &fakeProvider{pois: pois}
	o := newOrchestrator(p, fakeResolver{}, func(o *Options) { o.Places = fakePlaces{} })

	reply := o.Respond(context.Background(), withPrior("plan a 2 day itinerary for Rome"))
	requireTerminal(t, reply)
	require.Equal(t, StateHandlerSucceeded, reply.State)
	require.Equal(t, intent.CategoryItinerary, reply.Intent.Category)
	require.Contains(t, reply.Text, "Day 2")
	require.NotContains(t, reply.Text, "Day 3")
}

func TestHotelHandlerComputesStay(t *testing.T) {
	p := &fakeProvider{}
	o := newOrchestrator(p, fakeResolver{})

	reply := o.Respond(context.Background(), withPrior("find a hotel in Paris checking in December 3rd for 4 nights"))
	requireTerminal(t, reply)
	require.Equal(t, StateHandlerSucceeded, reply.State)
	require.Equal(t, "2026-12-03", p.hotelQuery.CheckIn)
	require.Equal(t, "2026-12-07", p.hotelQuery.CheckOut)
	require.Contains(t, reply.Text, "Paris")
}

// bookingProvider confirms every offer at a fixed total.
type bookingProvider struct {
	total     string
	bookCalls int
}

func (b *bookingProvider) ConfirmPrice(_ context.Context, offer provider.FlightOffer) (provider.FlightOffer, error) {
	confirmed := offer
	confirmed.Raw = nil
	confirmed.Price.Total, confirmed.Price.GrandTotal = b.total, b.total
	quoted, _ := offer.Price.Money()
	price, _ := confirmed.Price.Money()
	return confirmed, provider.CheckPrice(quoted, price)
}

func (b *bookingProvider) CreateBooking(context.Context, provider.FlightOffer, []provider.Traveler) (provider.Order, error) {
	b.bookCalls++
	return provider.Order{ID: "ORDER1", Reference: "QX7K2P"}, nil
}

func TestBookingHandlerEnforcesPriceGate(t *testing.T) {
	bp := &bookingProvider{total: "510.00"}
	svc := booking.NewService(booking.NewMemoryStore(), booking.NewMemoryOfferCache(), bp, nil)
	p := &fakeProvider{flights: provider.FlightResults{Offers: []provider.FlightOffer{flightOffer("1", "500.00")}}}
	o := newOrchestrator(p, fakeResolver{}, func(o *Options) { o.Bookings = svc })

	req := withPrior(flightMessage)
	search := o.Respond(context.Background(), req)
	require.Equal(t, StateHandlerSucceeded, search.State)

	req.History = append(req.History,
		types.Turn{Role: types.RoleAssistant, Content: search.Text},
		types.Turn{Role: types.RoleUser, Content: "book option 1 for Jane Doe, jane@example.com"})
	reply := o.Respond(context.Background(), req)
	requireTerminal(t, reply)
	require.Equal(t, StateHandlerSucceeded, reply.State)
	require.Equal(t, intent.CategoryBooking, reply.Intent.Category)
	require.Contains(t, reply.Text, "500.00 USD")
	require.Contains(t, reply.Text, "510.00 USD")
	require.Zero(t, bp.bookCalls)

	// Repeating the request confirms at the refreshed price and books.
	reply = o.Respond(context.Background(), req)
	require.Equal(t, StateHandlerSucceeded, reply.State)
	require.Contains(t, reply.Text, "QX7K2P")
	require.Equal(t, 1, bp.bookCalls)
}

func TestBookingHandlerWithoutOffers(t *testing.T) {
	svc := booking.NewService(booking.NewMemoryStore(), booking.NewMemoryOfferCache(), &bookingProvider{total: "1.00"}, nil)
	o := newOrchestrator(&fakeProvider{}, fakeResolver{}, func(o *Options) { o.Bookings = svc })

	reply := o.Respond(context.Background(), withPrior("book option 2 for Jane Doe, jane@example.com"))
	require.Equal(t, StateHandlerSucceeded, reply.State)
	require.Contains(t, reply.Text, "Search for flights first")

	reply = o.Respond(context.Background(), withPrior("please book option 2"))
	require.Equal(t, StateHandlerSucceeded, reply.State)
	require.Contains(t, reply.Text, "traveler name and email address")
}

func TestCannedReply(t *testing.T) {
	require.Contains(t, CannedReply(flightMessage), "New York to London")
	require.Contains(t, CannedReply("cheap flights please"), "include where you're flying from")
	require.Contains(t, CannedReply("a hotel please"), "hotels")
	require.NotEmpty(t, CannedReply(""))
}
