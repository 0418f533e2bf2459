package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily_trivia_bot/internal/domain/delivery"
	"daily_trivia_bot/internal/domain/user"
)

func addUser(t *testing.T, repo *fakeUserRepo, phone, deliveryTime, timezone string, active bool) *user.User {
	t.Helper()
	u := &user.User{
		PhoneNumber:  phone,
		Categories:   []string{"science"},
		DeliveryTime: deliveryTime,
		Timezone:     timezone,
		IsActive:     active,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestPopulateQueueCreatesEntries(t *testing.T) {
	userRepo := newFakeUserRepo()
	deliveryRepo := newFakeDeliveryRepo()
	svc := NewScheduleService(userRepo, deliveryRepo, testLogger())

	ny := addUser(t, userRepo, "+12125550100", "08:00", "America/New_York", true)
	la := addUser(t, userRepo, "+13105550101", "21:00", "America/Los_Angeles", true)
	addUser(t, userRepo, "+14155550102", "09:00", "UTC", false) // inactive, never scheduled

	day := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.PopulateQueue(context.Background(), day))

	nyEntry, err := deliveryRepo.GetEntryByUserAndDate(context.Background(), ny.ID, day)
	require.NoError(t, err)
	assert.Equal(t, delivery.StatusPending, nyEntry.Status)
	// 08:00 Eastern standard time is 13:00 UTC.
	assert.Equal(t, time.Date(2026, time.January, 15, 13, 0, 0, 0, time.UTC), nyEntry.ScheduledAt)

	laEntry, err := deliveryRepo.GetEntryByUserAndDate(context.Background(), la.ID, day)
	require.NoError(t, err)
	// 21:00 Pacific standard time crosses into the next UTC day.
	assert.Equal(t, time.Date(2026, time.January, 16, 5, 0, 0, 0, time.UTC), laEntry.ScheduledAt)

	assert.Len(t, deliveryRepo.entries, 2)
}

func TestPopulateQueueIsIdempotent(t *testing.T) {
	userRepo := newFakeUserRepo()
	deliveryRepo := newFakeDeliveryRepo()
	svc := NewScheduleService(userRepo, deliveryRepo, testLogger())

	addUser(t, userRepo, "+12125550100", "08:00", "America/New_York", true)

	day := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.PopulateQueue(context.Background(), day))
	require.NoError(t, svc.PopulateQueue(context.Background(), day))

	assert.Len(t, deliveryRepo.entries, 1)
}

func TestPopulateQueueSkipsUnschedulableUsers(t *testing.T) {
	userRepo := newFakeUserRepo()
	deliveryRepo := newFakeDeliveryRepo()
	svc := NewScheduleService(userRepo, deliveryRepo, testLogger())

	addUser(t, userRepo, "+12125550100", "08:00", "Not/AZone", true)
	good := addUser(t, userRepo, "+13105550101", "09:00", "UTC", true)

	day := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.PopulateQueue(context.Background(), day))

	// The broken user is skipped without aborting the run.
	assert.Len(t, deliveryRepo.entries, 1)
	_, err := deliveryRepo.GetEntryByUserAndDate(context.Background(), good.ID, day)
	assert.NoError(t, err)
}

func TestPopulateQueueNormalizesDate(t *testing.T) {
	userRepo := newFakeUserRepo()
	deliveryRepo := newFakeDeliveryRepo()
	svc := NewScheduleService(userRepo, deliveryRepo, testLogger())

	u := addUser(t, userRepo, "+12125550100", "09:00", "UTC", true)

	// A timestamp mid-day must schedule for that calendar day, not shift it.
	require.NoError(t, svc.PopulateQueue(context.Background(), time.Date(2026, time.March, 2, 17, 42, 0, 0, time.UTC)))

	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	entry, err := deliveryRepo.GetEntryByUserAndDate(context.Background(), u.ID, day)
	require.NoError(t, err)
	assert.Equal(t, day, entry.DeliveryDate)
	assert.Equal(t, time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC), entry.ScheduledAt)
}
