package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	reservationserrors "stayhub/internal/reservations/errors"
	"stayhub/internal/reservations/validator"
	roomserrors "stayhub/internal/rooms/errors"
	"stayhub/pkg/config"
	mongotx "stayhub/pkg/db/mongo"
	apperrors "stayhub/pkg/errors"
	"stayhub/pkg/logger"
	"stayhub/pkg/model"
)

const (
	testRoomID      = "68b0a1b2c3d4e5f607080901"
	testOtherRoomID = "68b0a1b2c3d4e5f607080902"
	testUserID      = "0b8f849d-7a4a-44a2-a8d8-528c7ce1677a"
	testOtherUserID = "1c9f94ae-8b5b-55b3-b9e9-639d8df2788b"
)

func day(d int) time.Time {
	return time.Date(2025, time.June, d, 0, 0, 0, 0, time.UTC)
}

// ────────────────────────────────────────────────
// In-memory fakes
// ────────────────────────────────────────────────

type memReservationRepository struct {
	mu           sync.Mutex
	byID         map[string]*model.Reservation
	nextID       int
	failCreate   error
	findByIDFunc func(ctx context.Context, id string) (*model.Reservation, error)
}

func newMemReservationRepository() *memReservationRepository {
	return &memReservationRepository{byID: make(map[string]*model.Reservation)}
}

func (m *memReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	m.nextID++
	reservation.ID = fmt.Sprintf("68b0c0ffee00000000%06x", m.nextID)
	reservation.CreatedAt = time.Now().UTC()
	stored := *reservation
	m.byID[reservation.ID] = &stored
	return nil
}

func (m *memReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	reservation, ok := m.byID[id]
	if !ok {
		return nil, reservationserrors.ErrNotFound
	}
	copied := *reservation
	return &copied, nil
}

func (m *memReservationRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Reservation
	for _, reservation := range m.byID {
		if reservation.UserID == userID {
			copied := *reservation
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memReservationRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, reservation := range m.byID {
		if reservation.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *memReservationRepository) FindOverlapping(ctx context.Context, roomIDs []string, checkIn, checkOut time.Time) ([]*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rooms := make(map[string]bool, len(roomIDs))
	for _, id := range roomIDs {
		rooms[id] = true
	}
	var out []*model.Reservation
	for _, reservation := range m.byID {
		if rooms[reservation.RoomID] && model.Overlaps(reservation.CheckIn, reservation.CheckOut, checkIn, checkOut) {
			copied := *reservation
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memReservationRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return reservationserrors.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type memLockRepository struct {
	mu    sync.Mutex
	held  map[string]time.Time
	stuck bool
}

func newMemLockRepository() *memLockRepository {
	return &memLockRepository{held: make(map[string]time.Time)}
}

func (m *memLockRepository) Create(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stuck {
		return nil, reservationserrors.ErrLockHeld
	}
	if expiry, ok := m.held[lock.ID]; ok && time.Now().Before(expiry) {
		return nil, reservationserrors.ErrLockHeld
	}
	m.held[lock.ID] = lock.ExpiresAt
	return lock, nil
}

func (m *memLockRepository) Delete(ctx context.Context, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, lockID)
	return nil
}

type memRoomRepository struct {
	rooms map[string]*model.Room
}

func newMemRoomRepository(rooms ...*model.Room) *memRoomRepository {
	byID := make(map[string]*model.Room, len(rooms))
	for _, room := range rooms {
		byID[room.ID] = room
	}
	return &memRoomRepository{rooms: byID}
}

func (m *memRoomRepository) Create(ctx context.Context, room *model.Room) error {
	m.rooms[room.ID] = room
	return nil
}

func (m *memRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	room, ok := m.rooms[id]
	if !ok {
		return nil, roomserrors.ErrNotFound
	}
	return room, nil
}

func (m *memRoomRepository) FindAll(ctx context.Context, roomType string, limit int, offset int64) ([]*model.Room, error) {
	var out []*model.Room
	for _, room := range m.rooms {
		if roomType == "" || room.Type == roomType {
			out = append(out, room)
		}
	}
	return out, nil
}

func (m *memRoomRepository) Count(ctx context.Context, roomType string) (int64, error) {
	rooms, _ := m.FindAll(ctx, roomType, 0, 0)
	return int64(len(rooms)), nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	created   []*model.Reservation
	cancelled []*model.Reservation
}

func (p *recordingPublisher) ReservationCreated(ctx context.Context, reservation *model.Reservation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, reservation)
}

func (p *recordingPublisher) ReservationCancelled(ctx context.Context, reservation *model.Reservation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, reservation)
}

func (p *recordingPublisher) Close() error { return nil }

// ────────────────────────────────────────────────
// Fixture wiring
// ────────────────────────────────────────────────

type fixture struct {
	repo      *memReservationRepository
	lockRepo  *memLockRepository
	roomRepo  *memRoomRepository
	publisher *recordingPublisher
	service   ReservationService
}

func newFixture(rooms ...*model.Room) *fixture {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:                   log,
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          5 * time.Second,
		RoomLockTTL:           10 * time.Second,
		RoomLockRetryInterval: 5 * time.Millisecond,
		RoomLockWaitTimeout:   2 * time.Second,
		MaxStayNights:         30,
	}

	if len(rooms) == 0 {
		rooms = []*model.Room{
			{ID: testRoomID, Name: "Garden View", Type: model.RoomTypeSingle, Price: 120, Capacity: 1},
		}
	}

	f := &fixture{
		repo:      newMemReservationRepository(),
		lockRepo:  newMemLockRepository(),
		roomRepo:  newMemRoomRepository(rooms...),
		publisher: &recordingPublisher{},
	}
	f.service = NewReservationService(
		f.repo,
		f.lockRepo,
		f.roomRepo,
		validator.NewReservationValidator(cfg.MaxStayNights, log),
		f.publisher,
		cfg,
	)
	return f
}

func reservationFor(userID string, checkIn, checkOut time.Time) *model.Reservation {
	return &model.Reservation{
		UserID:   userID,
		RoomID:   testRoomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
	}
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_Success(t *testing.T) {
	f := newFixture()

	reservation := reservationFor(testUserID, day(1), day(5))
	if err := f.service.Create(context.Background(), reservation); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reservation.ID == "" {
		t.Error("expected reservation ID to be assigned")
	}
	if reservation.Nights != 4 {
		t.Errorf("expected 4 nights, got %d", reservation.Nights)
	}
	if reservation.TotalPrice != 480 {
		t.Errorf("expected total price 480, got %v", reservation.TotalPrice)
	}
	if len(f.publisher.created) != 1 {
		t.Errorf("expected 1 created event, got %d", len(f.publisher.created))
	}
	if len(f.lockRepo.held) != 0 {
		t.Errorf("expected room lock to be released, still held: %v", f.lockRepo.held)
	}
}

func TestCreate_BackToBackStaysAllowed(t *testing.T) {
	f := newFixture()

	if err := f.service.Create(context.Background(), reservationFor(testUserID, day(1), day(5))); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if err := f.service.Create(context.Background(), reservationFor(testOtherUserID, day(5), day(8))); err != nil {
		t.Fatalf("back-to-back create failed: %v", err)
	}
	if err := f.service.Create(context.Background(), reservationFor(testUserID, day(8), day(9))); err != nil {
		t.Fatalf("second back-to-back create failed: %v", err)
	}
}

func TestCreate_OverlapRejected(t *testing.T) {
	f := newFixture()

	if err := f.service.Create(context.Background(), reservationFor(testUserID, day(1), day(5))); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	cases := []struct {
		name     string
		checkIn  int
		checkOut int
	}{
		{"identical range", 1, 5},
		{"one day overlap at end", 4, 6},
		{"one day overlap at start", 1, 2},
		{"contained", 2, 4},
		{"containing", 1, 9},
		{"straddling start", 0, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.service.Create(context.Background(), reservationFor(testOtherUserID, day(tc.checkIn), day(tc.checkOut)))
			appErr := apperrors.AsAppError(err)
			if appErr.Code != apperrors.CodeConflict {
				t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
			}
		})
	}
}

func TestCreate_EmptyRangeRejected(t *testing.T) {
	f := newFixture()

	err := f.service.Create(context.Background(), reservationFor(testUserID, day(3), day(3)))
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
}

func TestCreate_InvertedRangeRejected(t *testing.T) {
	f := newFixture()

	err := f.service.Create(context.Background(), reservationFor(testUserID, day(5), day(3)))
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
}

func TestCreate_UnknownRoom(t *testing.T) {
	f := newFixture()

	reservation := reservationFor(testUserID, day(1), day(3))
	reservation.RoomID = testOtherRoomID

	err := f.service.Create(context.Background(), reservation)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestCreate_TimesNormalizedToMidnight(t *testing.T) {
	f := newFixture()

	reservation := reservationFor(testUserID, day(1).Add(15*time.Hour), day(5).Add(9*time.Hour))
	if err := f.service.Create(context.Background(), reservation); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reservation.CheckIn.Equal(day(1)) {
		t.Errorf("expected check_in normalized to %v, got %v", day(1), reservation.CheckIn)
	}
	if !reservation.CheckOut.Equal(day(5)) {
		t.Errorf("expected check_out normalized to %v, got %v", day(5), reservation.CheckOut)
	}
	if reservation.Nights != 4 {
		t.Errorf("expected 4 nights, got %d", reservation.Nights)
	}
}

func TestCreate_LockNeverReleased(t *testing.T) {
	f := newFixture()
	f.lockRepo.stuck = true

	err := f.service.Create(context.Background(), reservationFor(testUserID, day(1), day(3)))
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestCreate_ConcurrentSameRange(t *testing.T) {
	f := newFixture()

	const workers = 8
	results := make(chan error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			results <- f.service.Create(context.Background(), reservationFor(testUserID, day(10), day(12)))
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		appErr := apperrors.AsAppError(err)
		if appErr.Code != apperrors.CodeConflict {
			t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
		}
		conflicts++
	}

	if successes != 1 {
		t.Errorf("expected exactly 1 success, got %d", successes)
	}
	if conflicts != workers-1 {
		t.Errorf("expected %d conflicts, got %d", workers-1, conflicts)
	}
	if len(f.repo.byID) != 1 {
		t.Errorf("expected exactly 1 stored reservation, got %d", len(f.repo.byID))
	}
}

// ────────────────────────────────────────────────
// Cancel
// ────────────────────────────────────────────────

func TestCancel_OwnerSucceeds(t *testing.T) {
	f := newFixture()

	reservation := reservationFor(testUserID, day(1), day(5))
	if err := f.service.Create(context.Background(), reservation); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := f.service.Cancel(context.Background(), reservation.ID, testUserID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if len(f.repo.byID) != 0 {
		t.Errorf("expected reservation to be deleted, %d remain", len(f.repo.byID))
	}
	if len(f.publisher.cancelled) != 1 {
		t.Errorf("expected 1 cancelled event, got %d", len(f.publisher.cancelled))
	}
}

func TestCancel_NonOwnerForbidden(t *testing.T) {
	f := newFixture()

	reservation := reservationFor(testUserID, day(1), day(5))
	if err := f.service.Create(context.Background(), reservation); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err := f.service.Cancel(context.Background(), reservation.ID, testOtherUserID)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected code %s, got %s", apperrors.CodeForbidden, appErr.Code)
	}

	if _, err := f.repo.FindByID(context.Background(), reservation.ID); err != nil {
		t.Errorf("expected reservation to survive forbidden cancel, got %v", err)
	}
}

func TestCancel_UnknownID(t *testing.T) {
	f := newFixture()

	err := f.service.Cancel(context.Background(), "68b0c0ffee0000000000dead", testUserID)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestCancel_FreesIntervalForRebooking(t *testing.T) {
	f := newFixture()

	reservation := reservationFor(testUserID, day(1), day(5))
	if err := f.service.Create(context.Background(), reservation); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := f.service.Cancel(context.Background(), reservation.ID, testUserID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if err := f.service.Create(context.Background(), reservationFor(testOtherUserID, day(1), day(5))); err != nil {
		t.Fatalf("rebooking cancelled interval failed: %v", err)
	}
}

// ────────────────────────────────────────────────
// GetByID / GetAllByUser
// ────────────────────────────────────────────────

func TestGetByID_Success(t *testing.T) {
	f := newFixture()

	reservation := reservationFor(testUserID, day(1), day(5))
	if err := f.service.Create(context.Background(), reservation); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := f.service.GetByID(context.Background(), reservation.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != testUserID || !got.CheckIn.Equal(day(1)) {
		t.Errorf("unexpected reservation returned: %+v", got)
	}
}

func TestGetByID_InvalidIDFormat(t *testing.T) {
	f := newFixture()
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		return nil, reservationserrors.ErrInvalidID
	}

	_, err := f.service.GetByID(context.Background(), "not-a-hex-id")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestGetAllByUser_OnlyOwnReservations(t *testing.T) {
	f := newFixture()

	if err := f.service.Create(context.Background(), reservationFor(testUserID, day(1), day(3))); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := f.service.Create(context.Background(), reservationFor(testOtherUserID, day(3), day(5))); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	reservations, count, err := f.service.GetAllByUser(context.Background(), testUserID, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
	if len(reservations) != 1 || reservations[0].UserID != testUserID {
		t.Errorf("expected only the caller's reservations, got %+v", reservations)
	}
}

// ────────────────────────────────────────────────
// CheckAvailability
// ────────────────────────────────────────────────

func availabilityFixture() *fixture {
	return newFixture(
		&model.Room{ID: testRoomID, Name: "Garden View", Type: model.RoomTypeSingle, Price: 120, Capacity: 1},
		&model.Room{ID: testOtherRoomID, Name: "Sea View", Type: model.RoomTypeDouble, Price: 200, Capacity: 2},
	)
}

func TestCheckAvailability_ExcludesBookedRooms(t *testing.T) {
	f := availabilityFixture()

	if err := f.service.Create(context.Background(), reservationFor(testUserID, day(1), day(5))); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rooms, err := f.service.CheckAvailability(context.Background(), day(4), day(6), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != testOtherRoomID {
		t.Errorf("expected only the unbooked room, got %+v", rooms)
	}
}

func TestCheckAvailability_BoundaryDayIsFree(t *testing.T) {
	f := availabilityFixture()

	if err := f.service.Create(context.Background(), reservationFor(testUserID, day(1), day(5))); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rooms, err := f.service.CheckAvailability(context.Background(), day(5), day(8), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("expected both rooms free for a back-to-back window, got %d", len(rooms))
	}
}

func TestCheckAvailability_EmptyRange(t *testing.T) {
	f := availabilityFixture()

	_, err := f.service.CheckAvailability(context.Background(), day(3), day(3), "")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestCheckAvailability_TypeFilter(t *testing.T) {
	f := availabilityFixture()

	rooms, err := f.service.CheckAvailability(context.Background(), day(1), day(3), model.RoomTypeDouble)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Type != model.RoomTypeDouble {
		t.Errorf("expected only double rooms, got %+v", rooms)
	}
}

func TestCheckAvailability_UnknownType(t *testing.T) {
	f := availabilityFixture()

	_, err := f.service.CheckAvailability(context.Background(), day(1), day(3), "penthouse")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestCheckAvailability_ReadOnly(t *testing.T) {
	f := availabilityFixture()

	for i := 0; i < 3; i++ {
		rooms, err := f.service.CheckAvailability(context.Background(), day(1), day(3), "")
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if len(rooms) != 2 {
			t.Errorf("iteration %d: expected 2 rooms, got %d", i, len(rooms))
		}
	}
	if len(f.repo.byID) != 0 {
		t.Errorf("availability check must not write reservations, found %d", len(f.repo.byID))
	}
	if len(f.lockRepo.held) != 0 {
		t.Errorf("availability check must not take locks, found %v", f.lockRepo.held)
	}
}
