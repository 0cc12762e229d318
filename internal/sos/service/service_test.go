package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/models"
)

func validDraft() models.AlertDraft {
	return models.AlertDraft{
		RequesterID:   "citizen-001",
		RequesterName: "Rahul Sharma",
		Service:       models.Police,
		Target:        models.TargetMyself,
		Location:      models.Location{Lat: 28.6139, Lng: 77.2090, Address: "New Delhi, India"},
	}
}

func TestGetAlert_InvalidID(t *testing.T) {
	ctx := context.Background()
	st := new(StoreMock)
	svc := New(st, new(OutboxMock))

	// Invalid input should be rejected before calling the repository.
	got, err := svc.GetAlert(ctx, uuid.Nil)
	require.ErrorIs(t, err, models.ErrInvalidArgument)
	require.Nil(t, got)
	st.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestGetAlert_Found(t *testing.T) {
	ctx := context.Background()
	st := new(StoreMock)
	svc := New(st, new(OutboxMock))

	id := uuid.New()
	want := &models.Alert{
		ID:     id,
		Status: models.SubmittedStatus,
	}

	// Service should delegate to the repository and return its result.
	st.On("GetByID", mock.Anything, id).Return(want, nil).Once()

	got, err := svc.GetAlert(ctx, id)
	require.NoError(t, err)
	require.Equal(t, want, got)
	st.AssertExpectations(t)
}

func TestCreateAlert_InvalidDraft(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name  string
		draft models.AlertDraft
	}{
		{name: "empty requester", draft: models.AlertDraft{Service: models.Police, Target: models.TargetMyself}},
		{name: "unknown service", draft: models.AlertDraft{RequesterID: "u", Service: "coastguard", Target: models.TargetMyself}},
		{name: "unknown target", draft: models.AlertDraft{RequesterID: "u", Service: models.Police, Target: "pet"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := new(StoreMock)
			svc := New(st, new(OutboxMock))

			// Invalid drafts should short-circuit without persisting anything.
			got, err := svc.CreateAlert(ctx, tc.draft)
			require.ErrorIs(t, err, models.ErrInvalidArgument)
			require.Nil(t, got)
			st.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateAlert_SetsFieldsAndPersists(t *testing.T) {
	ctx := context.Background()
	st := new(StoreMock)
	ob := new(OutboxMock)
	svc := New(st, ob)

	fixedID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	fixedTime := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)
	svc.idGen = func() uuid.UUID { return fixedID }
	svc.clock = func() time.Time { return fixedTime }

	tx := newTxMock()
	st.On("BeginTx", mock.Anything).Return(tx, nil).Once()

	var persisted *models.Alert
	st.On("Create", mock.Anything, tx, mock.Anything).
		Run(func(args mock.Arguments) {
			persisted = args.Get(2).(*models.Alert)
		}).
		Return(nil).
		Once()

	var event models.DomainEvent
	ob.On("Add", mock.Anything, tx, mock.Anything).
		Run(func(args mock.Arguments) {
			event = args.Get(2).(models.DomainEvent)
		}).
		Return(nil).
		Once()

	// Service should set invariants before persisting.
	got, err := svc.CreateAlert(ctx, validDraft())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, persisted, got)

	require.Equal(t, fixedID, got.ID)
	require.Equal(t, models.SubmittedStatus, got.Status)
	require.Equal(t, models.Police, got.Service)
	require.Equal(t, models.TargetMyself, got.Target)
	require.Nil(t, got.Evidence)
	require.Equal(t, fixedTime, got.CreatedAt)
	require.Equal(t, fixedTime, got.UpdatedAt)

	require.Equal(t, "AlertSubmitted", event.EventType())
	require.Equal(t, fixedID, event.AggregateID())

	st.AssertExpectations(t)
	ob.AssertExpectations(t)
	tx.AssertCalled(t, "Commit")
}

func TestCreateAlert_RepoErrorPropagated(t *testing.T) {
	ctx := context.Background()
	st := new(StoreMock)
	svc := New(st, new(OutboxMock))

	tx := newTxMock()
	st.On("BeginTx", mock.Anything).Return(tx, nil).Once()
	// Service should pass through repository errors to the caller.
	st.On("Create", mock.Anything, tx, mock.Anything).Return(models.ErrConflict).Once()

	got, err := svc.CreateAlert(ctx, validDraft())
	require.ErrorIs(t, err, models.ErrConflict)
	require.Nil(t, got)
	st.AssertExpectations(t)
}

func TestAttachEvidence_PatchesOnce(t *testing.T) {
	ctx := context.Background()
	st := new(StoreMock)
	ob := new(OutboxMock)
	svc := New(st, ob)

	id := uuid.New()
	ev := models.Evidence{
		AudioURL:  "https://blob.example/audio/clip.webm",
		ImageURLs: []string{"https://img.example/1.jpg", "https://img.example/2.jpg"},
	}
	existing := &models.Alert{ID: id, Status: models.SubmittedStatus}
	patched := &models.Alert{ID: id, Status: models.SubmittedStatus, Evidence: &ev}

	tx := newTxMock()
	st.On("GetByID", mock.Anything, id).Return(existing, nil).Once()
	st.On("BeginTx", mock.Anything).Return(tx, nil).Once()
	st.On("AttachEvidenceTx", mock.Anything, tx, id, ev).Return(patched, nil).Once()
	ob.On("Add", mock.Anything, tx, mock.Anything).Return(nil).Once()

	got, err := svc.AttachEvidence(ctx, id, ev)
	require.NoError(t, err)
	require.Equal(t, patched, got)
	st.AssertExpectations(t)
	ob.AssertExpectations(t)
}

func TestAttachEvidence_AlreadyAttached(t *testing.T) {
	ctx := context.Background()
	st := new(StoreMock)
	svc := New(st, new(OutboxMock))

	id := uuid.New()
	existing := &models.Alert{
		ID:       id,
		Evidence: &models.Evidence{ImageURLs: []string{"https://img.example/1.jpg"}},
	}
	st.On("GetByID", mock.Anything, id).Return(existing, nil).Once()

	got, err := svc.AttachEvidence(ctx, id, models.Evidence{AudioURL: "x"})
	require.ErrorIs(t, err, models.ErrConflict)
	require.Nil(t, got)
	st.AssertNotCalled(t, "AttachEvidenceTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChangeStatus_ValidTransition(t *testing.T) {
	ctx := context.Background()
	st := new(StoreMock)
	ob := new(OutboxMock)
	svc := New(st, ob)

	id := uuid.New()
	existing := &models.Alert{ID: id, Status: models.SubmittedStatus}
	updated := &models.Alert{ID: id, Status: models.AssignedStatus}

	tx := newTxMock()
	st.On("GetByID", mock.Anything, id).Return(existing, nil).Once()
	st.On("BeginTx", mock.Anything).Return(tx, nil).Once()
	st.On("UpdateStatusTx", mock.Anything, tx, id, models.AssignedStatus).Return(updated, nil).Once()
	ob.On("Add", mock.Anything, tx, mock.Anything).Return(nil).Once()

	got, err := svc.ChangeStatus(ctx, id, models.AssignedStatus)
	require.NoError(t, err)
	require.Equal(t, models.AssignedStatus, got.Status)
	st.AssertExpectations(t)
	ob.AssertExpectations(t)
}

func TestChangeStatus_InvalidTransition(t *testing.T) {
	ctx := context.Background()
	st := new(StoreMock)
	svc := New(st, new(OutboxMock))

	id := uuid.New()
	existing := &models.Alert{ID: id, Status: models.CompletedStatus}
	st.On("GetByID", mock.Anything, id).Return(existing, nil).Once()

	got, err := svc.ChangeStatus(ctx, id, models.SubmittedStatus)
	require.Error(t, err)
	require.Nil(t, got)
	st.AssertNotCalled(t, "UpdateStatusTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChangeStatus_SameStatusNoop(t *testing.T) {
	ctx := context.Background()
	st := new(StoreMock)
	svc := New(st, new(OutboxMock))

	id := uuid.New()
	existing := &models.Alert{ID: id, Status: models.AssignedStatus}
	st.On("GetByID", mock.Anything, id).Return(existing, nil).Once()

	got, err := svc.ChangeStatus(ctx, id, models.AssignedStatus)
	require.NoError(t, err)
	require.Equal(t, existing, got)
	st.AssertNotCalled(t, "BeginTx", mock.Anything)
}
