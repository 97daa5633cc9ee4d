// internal/lifecycle/approval_test.go
package lifecycle

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/DeividBruno15/eventoplus-sub000/internal/common/errors"
	"github.com/DeividBruno15/eventoplus-sub000/internal/common/logger"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createApprovalOrchestrator(t *testing.T, apps *fakeApplicationStore, events *fakeEventStore, convs *fakeConversationStore, disp *fakeDispatcher) *ApprovalOrchestrator {
	return NewApprovalOrchestrator(apps, events, convs, disp, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestApprove_Success(t *testing.T) {
	ctx := context.Background()
	apps := newFakeApplicationStore(
		makeApplication("app-1", "event-1", "provider-1", "dj", models.StatusPending),
	)
	events := newFakeEventStore(
		makeEvent("event-1", "contractor-1", models.ServiceRequest{Category: "dj", Count: 2, FilledCount: 0}),
	)
	convs := newFakeConversationStore()
	disp := &fakeDispatcher{}

	orch := createApprovalOrchestrator(t, apps, events, convs, disp)
	event, err := events.Get(ctx, "event-1")
	require.NoError(t, err)

	result, err := orch.Approve(ctx, "app-1", "provider-1", event)
	require.NoError(t, err)

	assert.False(t, result.AlreadyConnected)
	assert.False(t, result.PartialFailure)
	assert.NotEmpty(t, result.ConversationID)
	assert.Equal(t, models.StatusAccepted, apps.status("app-1"))

	updated, err := events.Get(ctx, "event-1")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ServiceRequests[0].FilledCount)

	assert.Equal(t, []models.NotificationKind{models.NotifyApplicationApproved}, disp.kinds())
}

func TestApprove_SiblingExclusivity(t *testing.T) {
	ctx := context.Background()
	apps := newFakeApplicationStore(
		makeApplication("app-1", "event-1", "provider-1", "dj", models.StatusPending),
		makeApplication("app-2", "event-1", "provider-2", "dj", models.StatusPending),
		makeApplication("app-3", "event-1", "provider-3", "dj", models.StatusPending),
		makeApplication("app-4", "event-1", "provider-4", "catering", models.StatusPending),
	)
	events := newFakeEventStore(
		makeEvent("event-1", "contractor-1", models.ServiceRequest{Category: "dj", Count: 1}),
	)
	orch := createApprovalOrchestrator(t, apps, events, newFakeConversationStore(), &fakeDispatcher{})
	event, _ := events.Get(ctx, "event-1")

	_, err := orch.Approve(ctx, "app-1", "provider-1", event)
	require.NoError(t, err)

	// Same-category siblings rejected, other categories untouched.
	assert.Equal(t, models.StatusAccepted, apps.status("app-1"))
	assert.Equal(t, models.StatusRejected, apps.status("app-2"))
	assert.Equal(t, models.StatusRejected, apps.status("app-3"))
	assert.Equal(t, models.StatusPending, apps.status("app-4"))
}

func TestApprove_NoCategoryRejectsAllSiblings(t *testing.T) {
	ctx := context.Background()
	apps := newFakeApplicationStore(
		makeApplication("app-1", "event-1", "provider-1", "", models.StatusPending),
		makeApplication("app-2", "event-1", "provider-2", "dj", models.StatusPending),
		makeApplication("app-3", "event-1", "provider-3", "catering", models.StatusPending),
	)
	events := newFakeEventStore(makeEvent("event-1", "contractor-1"))
	orch := createApprovalOrchestrator(t, apps, events, newFakeConversationStore(), &fakeDispatcher{})
	event, _ := events.Get(ctx, "event-1")

	_, err := orch.Approve(ctx, "app-1", "provider-1", event)
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, apps.status("app-2"))
	assert.Equal(t, models.StatusRejected, apps.status("app-3"))
}

func TestApprove_ReusesExistingConversation(t *testing.T) {
	ctx := context.Background()
	apps := newFakeApplicationStore(
		makeApplication("app-1", "event-1", "provider-1", "dj", models.StatusPending),
	)
	events := newFakeEventStore(
		makeEvent("event-1", "contractor-1", models.ServiceRequest{Category: "dj", Count: 1}),
	)
	convs := newFakeConversationStore()
	existing := convs.seed("contractor-1", "provider-1")

	orch := createApprovalOrchestrator(t, apps, events, convs, &fakeDispatcher{})
	event, _ := events.Get(ctx, "event-1")

	result, err := orch.Approve(ctx, "app-1", "provider-1", event)
	require.NoError(t, err)

	assert.Equal(t, existing, result.ConversationID)
	assert.Equal(t, 1, convs.count())
}

func TestApprove_RetryAfterAcceptIsNoOp(t *testing.T) {
	ctx := context.Background()
	apps := newFakeApplicationStore(
		makeApplication("app-1", "event-1", "provider-1", "dj", models.StatusAccepted),
	)
	events := newFakeEventStore(
		makeEvent("event-1", "contractor-1", models.ServiceRequest{Category: "dj", Count: 1, FilledCount: 1}),
	)
	convs := newFakeConversationStore()
	existing := convs.seed("contractor-1", "provider-1")

	orch := createApprovalOrchestrator(t, apps, events, convs, &fakeDispatcher{})
	event, _ := events.Get(ctx, "event-1")

	result, err := orch.Approve(ctx, "app-1", "provider-1", event)
	require.NoError(t, err)

	assert.True(t, result.AlreadyConnected)
	assert.Equal(t, existing, result.ConversationID)

	// Fill count untouched by the retry.
	updated, _ := events.Get(ctx, "event-1")
	assert.Equal(t, 1, updated.ServiceRequests[0].FilledCount)
}

// ==========================
// Error Handling Tests
// ==========================

func TestApprove_NotFound(t *testing.T) {
	ctx := context.Background()
	apps := newFakeApplicationStore()
	events := newFakeEventStore(makeEvent("event-1", "contractor-1"))
	orch := createApprovalOrchestrator(t, apps, events, newFakeConversationStore(), &fakeDispatcher{})
	event, _ := events.Get(ctx, "event-1")

	_, err := orch.Approve(ctx, "missing", "provider-1", event)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestApprove_StoreOutageIsRetryable(t *testing.T) {
	ctx := context.Background()
	apps := newFakeApplicationStore(
		makeApplication("app-1", "event-1", "provider-1", "dj", models.StatusPending),
	)
	apps.getErr = errors.New("connection refused")
	events := newFakeEventStore(makeEvent("event-1", "contractor-1"))
	orch := createApprovalOrchestrator(t, apps, events, newFakeConversationStore(), &fakeDispatcher{})
	event, _ := events.Get(ctx, "event-1")

	_, err := orch.Approve(ctx, "app-1", "provider-1", event)
	assert.ErrorIs(t, err, apperrors.ErrRemoteWriteFailed)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestApprove_RejectedIsTerminal(t *testing.T) {
	ctx := context.Background()
	apps := newFakeApplicationStore(
		makeApplication("app-1", "event-1", "provider-1", "dj", models.StatusRejected),
	)
	events := newFakeEventStore(makeEvent("event-1", "contractor-1"))
	orch := createApprovalOrchestrator(t, apps, events, newFakeConversationStore(), &fakeDispatcher{})
	event, _ := events.Get(ctx, "event-1")

	_, err := orch.Approve(ctx, "app-1", "provider-1", event)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyTerminal)
	assert.Equal(t, models.StatusRejected, apps.status("app-1"))
}

func TestApprove_AcceptWriteFails(t *testing.T) {
	ctx := context.Background()
	apps := newFakeApplicationStore(
		makeApplication("app-1", "event-1", "provider-1", "dj", models.StatusPending),
	)
	apps.updateErr["app-1"] = errors.New("connection reset")
	events := newFakeEventStore(makeEvent("event-1", "contractor-1"))
	orch := createApprovalOrchestrator(t, apps, events, newFakeConversationStore(), &fakeDispatcher{})
	event, _ := events.Get(ctx, "event-1")

	_, err := orch.Approve(ctx, "app-1", "provider-1", event)
	assert.ErrorIs(t, err, apperrors.ErrRemoteWriteFailed)
	assert.Equal(t, models.StatusPending, apps.status("app-1"))
}

func TestApprove_PartialFailureDoesNotRollBackAccept(t *testing.T) {
	ctx := context.Background()
	apps := newFakeApplicationStore(
		makeApplication("app-1", "event-1", "provider-1", "dj", models.StatusPending),
	)
	events := newFakeEventStore(
		makeEvent("event-1", "contractor-1", models.ServiceRequest{Category: "dj", Count: 1}),
	)
	events.reqErr = errors.New("jsonb write failed")
	orch := createApprovalOrchestrator(t, apps, events, newFakeConversationStore(), &fakeDispatcher{})
	event, _ := events.Get(ctx, "event-1")

	result, err := orch.Approve(ctx, "app-1", "provider-1", event)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRemoteWriteFailed)

	// The accept landed and stays; only the side effect failed.
	require.NotNil(t, result)
	assert.True(t, result.PartialFailure)
	assert.Equal(t, models.StatusAccepted, apps.status("app-1"))
	assert.NotEmpty(t, result.ConversationID)
}

func TestApprove_ConversationFailureIsPartial(t *testing.T) {
	ctx := context.Background()
	apps := newFakeApplicationStore(
		makeApplication("app-1", "event-1", "provider-1", "dj", models.StatusPending),
	)
	events := newFakeEventStore(
		makeEvent("event-1", "contractor-1", models.ServiceRequest{Category: "dj", Count: 1}),
	)
	convs := newFakeConversationStore()
	convs.createErr = errors.New("insert failed")
	orch := createApprovalOrchestrator(t, apps, events, convs, &fakeDispatcher{})
	event, _ := events.Get(ctx, "event-1")

	result, err := orch.Approve(ctx, "app-1", "provider-1", event)
	require.Error(t, err)
	assert.True(t, result.PartialFailure)
	assert.Equal(t, models.StatusAccepted, apps.status("app-1"))
}

func TestApprove_FilledRequestNotIncrementedPastCount(t *testing.T) {
	ctx := context.Background()
	apps := newFakeApplicationStore(
		makeApplication("app-1", "event-1", "provider-1", "dj", models.StatusPending),
	)
	events := newFakeEventStore(
		makeEvent("event-1", "contractor-1", models.ServiceRequest{Category: "dj", Count: 1, FilledCount: 1}),
	)
	orch := createApprovalOrchestrator(t, apps, events, newFakeConversationStore(), &fakeDispatcher{})
	event, _ := events.Get(ctx, "event-1")

	result, err := orch.Approve(ctx, "app-1", "provider-1", event)
	require.NoError(t, err)
	assert.False(t, result.PartialFailure)

	updated, _ := events.Get(ctx, "event-1")
	assert.Equal(t, 1, updated.ServiceRequests[0].FilledCount)
}
