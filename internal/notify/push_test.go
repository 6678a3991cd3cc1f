package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitsight/coaching-app/internal/config"
	"fitsight/coaching-app/internal/domain"
	"fitsight/coaching-app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubSubRepo struct {
	subs    []domain.PushSubscription
	deleted []primitive.ObjectID
}

func (r *stubSubRepo) Create(_ context.Context, sub *domain.PushSubscription) (primitive.ObjectID, error) {
	if sub.ID == primitive.NilObjectID {
		sub.ID = primitive.NewObjectID()
	}
	r.subs = append(r.subs, *sub)
	return sub.ID, nil
}

func (r *stubSubRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.PushSubscription, error) {
	var out []domain.PushSubscription
	for i := range r.subs {
		if r.subs[i].ClientID == clientID {
			out = append(out, r.subs[i])
		}
	}
	return out, nil
}

func (r *stubSubRepo) ListSubscribedClientIDs(_ context.Context) ([]primitive.ObjectID, error) {
	return nil, nil
}

func (r *stubSubRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.deleted = append(r.deleted, id)
	for i := range r.subs {
		if r.subs[i].ID == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			break
		}
	}
	return nil
}

var _ repository.PushSubscriptionRepository = (*stubSubRepo)(nil)

func newTestDispatcher(gatewayURL string, repo *stubSubRepo) Dispatcher {
	return NewPushDispatcher(config.PushConfig{
		GatewayURL: gatewayURL,
		APIKey:     "test-key",
		Timeout:    2 * time.Second,
	}, repo)
}

func TestDispatchDeliversToEveryEndpoint(t *testing.T) {
	var received []pushPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var p pushPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		received = append(received, p)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	clientID := primitive.NewObjectID()
	repo := &stubSubRepo{}
	repo.Create(context.Background(), &domain.PushSubscription{ClientID: clientID, Endpoint: "device-a"})
	repo.Create(context.Background(), &domain.PushSubscription{ClientID: clientID, Endpoint: "device-b"})

	d := newTestDispatcher(server.URL, repo)
	err := d.Dispatch(context.Background(), Notification{
		ClientID:     clientID,
		Title:        "Time to move",
		Message:      "No workouts logged for 3 days.",
		ReminderType: domain.ReminderInactivityWorkouts,
	})
	require.NoError(t, err)
	require.Len(t, received, 2)
	assert.Equal(t, string(domain.ReminderInactivityWorkouts), received[0].Tag)
}

func TestDispatchPrunesGoneEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p pushPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		if p.Endpoint == "dead-device" {
			w.WriteHeader(http.StatusGone)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	clientID := primitive.NewObjectID()
	repo := &stubSubRepo{}
	repo.Create(context.Background(), &domain.PushSubscription{ClientID: clientID, Endpoint: "dead-device"})
	repo.Create(context.Background(), &domain.PushSubscription{ClientID: clientID, Endpoint: "live-device"})

	d := newTestDispatcher(server.URL, repo)
	err := d.Dispatch(context.Background(), Notification{ClientID: clientID, Title: "t", Message: "m"})

	// One device accepted, so the dispatch succeeds and the dead endpoint is
	// removed.
	require.NoError(t, err)
	assert.Len(t, repo.deleted, 1)
	assert.Len(t, repo.subs, 1)
	assert.Equal(t, "live-device", repo.subs[0].Endpoint)
}

func TestDispatchAllEndpointsFailing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	clientID := primitive.NewObjectID()
	repo := &stubSubRepo{}
	repo.Create(context.Background(), &domain.PushSubscription{ClientID: clientID, Endpoint: "device-a"})

	d := newTestDispatcher(server.URL, repo)
	err := d.Dispatch(context.Background(), Notification{ClientID: clientID, Title: "t", Message: "m"})
	assert.Error(t, err)
}

func TestDispatchWithoutSubscriptions(t *testing.T) {
	d := newTestDispatcher("http://gateway.invalid", &stubSubRepo{})
	err := d.Dispatch(context.Background(), Notification{ClientID: primitive.NewObjectID()})
	assert.ErrorIs(t, err, ErrNoSubscriptions)
}
