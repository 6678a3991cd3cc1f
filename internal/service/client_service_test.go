package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"fitsight/coaching-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newClientFixture(t *testing.T) (ClientService, *fakeScheduleRepo, *fakePushRepo, *stubFileStorage, primitive.ObjectID) {
	t.Helper()

	userRepo := newFakeUserRepo()
	goalRepo := &fakeGoalRepo{}
	scheduleRepo := &fakeScheduleRepo{}
	pushRepo := &fakePushRepo{}
	fs := &stubFileStorage{}

	client := &domain.User{Role: domain.RoleClient, Email: "client@example.com"}
	userRepo.add(client)

	progress := NewProgressService(userRepo, goalRepo, scheduleRepo)
	svc := NewClientService(goalRepo, scheduleRepo, pushRepo, progress, fs)
	return svc, scheduleRepo, pushRepo, fs, client.ID
}

func TestRequestCheckInPhotoUploadURL(t *testing.T) {
	t.Run("image content type produces a scoped key", func(t *testing.T) {
		svc, _, _, fs, clientID := newClientFixture(t)

		resp, err := svc.RequestCheckInPhotoUploadURL(context.Background(), clientID, "image/jpeg")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(resp.ObjectKey, "checkins/"+clientID.Hex()+"/"))
		assert.True(t, strings.HasSuffix(resp.ObjectKey, ".jpeg"))
		assert.NotEmpty(t, resp.UploadURL)
		require.Len(t, fs.uploadKeys, 1)
		assert.Equal(t, resp.ObjectKey, fs.uploadKeys[0])
	})

	t.Run("non-image content type is rejected", func(t *testing.T) {
		svc, _, _, fs, clientID := newClientFixture(t)

		_, err := svc.RequestCheckInPhotoUploadURL(context.Background(), clientID, "application/pdf")
		assert.Error(t, err)
		assert.Empty(t, fs.uploadKeys)
	})

	t.Run("missing content type is rejected", func(t *testing.T) {
		svc, _, _, _, clientID := newClientFixture(t)
		_, err := svc.RequestCheckInPhotoUploadURL(context.Background(), clientID, "")
		assert.Error(t, err)
	})
}

func TestRegisterPushSubscription(t *testing.T) {
	svc, _, pushRepo, _, clientID := newClientFixture(t)

	sub, err := svc.RegisterPushSubscription(context.Background(), clientID, &domain.PushSubscription{
		Endpoint: "https://push.example.com/device-1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, primitive.NilObjectID, sub.ID)
	assert.Equal(t, clientID, sub.ClientID)
	assert.Len(t, pushRepo.subs, 1)

	_, err = svc.RegisterPushSubscription(context.Background(), clientID, &domain.PushSubscription{})
	assert.Error(t, err, "an empty endpoint is rejected")
}

func TestGetMySchedule(t *testing.T) {
	svc, scheduleRepo, _, _, clientID := newClientFixture(t)

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	scheduleRepo.CreateItem(context.Background(), &domain.WeeklyScheduleItem{
		ClientID: clientID, Title: "In range", ScheduledOn: day.AddDate(0, 0, 2),
	})
	scheduleRepo.CreateItem(context.Background(), &domain.WeeklyScheduleItem{
		ClientID: clientID, Title: "Out of range", ScheduledOn: day.AddDate(0, 0, 10),
	})

	items, err := svc.GetMySchedule(context.Background(), clientID, day, day.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "In range", items[0].Title)
}
