package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stayhub/internal/reservations/events"
	reservationserrors "stayhub/internal/reservations/errors"
	"stayhub/internal/reservations/repository"
	"stayhub/internal/reservations/validator"
	roomserrors "stayhub/internal/rooms/errors"
	roomsrepository "stayhub/internal/rooms/repository"
	"stayhub/pkg/config"
	apperrors "stayhub/pkg/errors"
	"stayhub/pkg/model"
)

// candidate room fan-out cap for availability queries
const maxCandidateRooms = 500

type ReservationService interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetAllByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, int64, error)
	Cancel(ctx context.Context, id string, requestingUserID string) error
	CheckAvailability(ctx context.Context, checkIn, checkOut time.Time, roomType string) ([]*model.Room, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	lockRepo  repository.ReservationLockRepository
	roomRepo  roomsrepository.RoomRepository
	validator *validator.ReservationValidator
	publisher events.EventPublisher
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.ReservationLockRepository,
	roomRepo roomsrepository.RoomRepository,
	validator *validator.ReservationValidator,
	publisher events.EventPublisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		lockRepo:  lockRepo,
		roomRepo:  roomRepo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Create books a room for the half-open stay [CheckIn, CheckOut).
// The per-room advisory lock serializes concurrent creates on the same
// room. The overlap re-check and insert run inside a transaction, so a
// losing writer sees the winner's record and fails with a conflict.
func (s *reservationService) Create(ctx context.Context, reservation *model.Reservation) error {
	s.normalize(reservation)
	if err := s.validate(reservation); err != nil {
		return err
	}

	room, err := s.findRoom(ctx, reservation.RoomID)
	if err != nil {
		return err
	}

	reservation.Nights = int(reservation.CheckOut.Sub(reservation.CheckIn).Hours() / 24)
	reservation.TotalPrice = float64(reservation.Nights) * room.Price

	lockID, err := s.acquireRoomLock(ctx, reservation.RoomID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseRoomLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release room lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
		if err := s.verifyAvailable(sessCtx, reservation); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation",
			"room_id", reservation.RoomID,
			"user_id", reservation.UserID,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"room_id", reservation.RoomID,
		"user_id", reservation.UserID,
		"check_in", reservation.CheckIn,
		"check_out", reservation.CheckOut,
		"nights", reservation.Nights,
	)

	s.publisher.ReservationCreated(ctx, reservation)
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	return reservation, nil
}

func (s *reservationService) GetAllByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("User ID cannot be empty")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByUser(ctx, userID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "user_id", userID, "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindByUser(ctx, userID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "user_id", userID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

// Cancel hard-deletes the reservation so the interval is immediately
// bookable again. Only the owner may cancel.
func (s *reservationService) Cancel(ctx context.Context, id string, requestingUserID string) error {
	if id == "" {
		return apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if reservation.UserID != requestingUserID {
		s.cfg.Log.Warn("Cancel attempt by non-owner",
			"id", id,
			"owner_id", reservation.UserID,
			"requesting_user_id", requestingUserID,
		)
		return apperrors.Forbidden("Only the reservation owner can cancel it")
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Reservation", id)
			}
			return apperrors.Internal("Failed to cancel reservation", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Reservation cancelled successfully",
		"id", id,
		"room_id", reservation.RoomID,
		"user_id", requestingUserID,
	)

	s.publisher.ReservationCancelled(ctx, reservation)
	return nil
}

// CheckAvailability returns the rooms free for the whole window,
// sorted by price ascending. The read takes no lock: it reflects
// committed reservations at query time.
func (s *reservationService) CheckAvailability(ctx context.Context, checkIn, checkOut time.Time, roomType string) ([]*model.Room, error) {
	checkIn = model.Midnight(checkIn)
	checkOut = model.Midnight(checkOut)
	if !checkOut.After(checkIn) {
		return nil, apperrors.InvalidInput("check_out must be after check_in")
	}
	if roomType != "" && !model.ValidRoomType(roomType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unknown room type: %s", roomType))
	}

	rooms, err := s.roomRepo.FindAll(ctx, roomType, maxCandidateRooms, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to list candidate rooms", "error", err)
		return nil, apperrors.Internal("Failed to check availability", err)
	}
	if len(rooms) == 0 {
		return []*model.Room{}, nil
	}

	roomIDs := make([]string, 0, len(rooms))
	for _, room := range rooms {
		roomIDs = append(roomIDs, room.ID)
	}

	overlapping, err := s.repo.FindOverlapping(ctx, roomIDs, checkIn, checkOut)
	if err != nil {
		s.cfg.Log.Error("Failed to query overlapping reservations", "error", err)
		return nil, apperrors.Internal("Failed to check availability", err)
	}

	occupied := make(map[string]bool, len(overlapping))
	for _, reservation := range overlapping {
		occupied[reservation.RoomID] = true
	}

	available := make([]*model.Room, 0, len(rooms))
	for _, room := range rooms {
		if !occupied[room.ID] {
			available = append(available, room)
		}
	}

	return available, nil
}

// --- Helpers ---

func (s *reservationService) normalize(reservation *model.Reservation) {
	reservation.CheckIn = model.Midnight(reservation.CheckIn)
	reservation.CheckOut = model.Midnight(reservation.CheckOut)
}

func (s *reservationService) validate(reservation *model.Reservation) error {
	if err := s.validator.Validate(reservation); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *reservationService) findRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Room", roomID)
		}
		if errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid room ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}
	return room, nil
}

func (s *reservationService) verifyAvailable(ctx context.Context, reservation *model.Reservation) error {
	existing, err := s.repo.FindOverlapping(ctx, []string{reservation.RoomID}, reservation.CheckIn, reservation.CheckOut)
	if err != nil {
		return apperrors.Internal("Failed to check existing reservations", err)
	}

	for _, r := range existing {
		if r.ID == reservation.ID {
			continue
		}
		if model.Overlaps(r.CheckIn, r.CheckOut, reservation.CheckIn, reservation.CheckOut) {
			return apperrors.Conflict(fmt.Sprintf(
				"Room is not available for the requested dates (conflicts with stay %s - %s)",
				r.CheckIn.Format("2006-01-02"),
				r.CheckOut.Format("2006-01-02"),
			))
		}
	}
	return nil
}

// acquireRoomLock takes the advisory lock for the room, retrying while
// another request holds it. Waiting out a writer instead of failing
// immediately lets the loser reach the overlap check and get a date
// conflict rather than a spurious lock error.
func (s *reservationService) acquireRoomLock(ctx context.Context, roomID string) (string, error) {
	lockID := fmt.Sprintf("reservation_lock_%s", roomID)
	deadline := time.Now().Add(s.cfg.RoomLockWaitTimeout)

	for {
		lock := &model.ReservationLock{
			ID:        lockID,
			ExpiresAt: time.Now().Add(s.cfg.RoomLockTTL),
		}

		_, err := s.lockRepo.Create(ctx, lock)
		if err == nil {
			return lockID, nil
		}
		if !errors.Is(err, reservationserrors.ErrLockHeld) {
			return "", apperrors.Internal("Failed to acquire room lock", err)
		}
		if time.Now().After(deadline) {
			return "", apperrors.Conflict("This room is currently being booked by another request. Please try again.")
		}

		select {
		case <-time.After(s.cfg.RoomLockRetryInterval):
		case <-ctx.Done():
			return "", apperrors.Timeout("Timed out waiting for room lock")
		}
	}
}

func (s *reservationService) releaseRoomLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
