package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	roomserrors "stayhub/internal/rooms/errors"
	"stayhub/internal/rooms/repository"
	"stayhub/pkg/config"
	apperrors "stayhub/pkg/errors"
	"stayhub/pkg/model"
)

type RoomService interface {
	GetByID(ctx context.Context, id string) (*model.Room, error)
	GetAll(ctx context.Context, roomType string, limit int, offset int64) ([]*model.Room, int64, error)
}

type roomService struct {
	repo repository.RoomRepository
	cfg  *config.Config
}

func NewRoomService(repo repository.RoomRepository, cfg *config.Config) RoomService {
	return &roomService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *roomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Room", id)
		}
		if errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid room ID format")
		}
		s.cfg.Log.Error("Failed to get room by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}

	return room, nil
}

func (s *roomService) GetAll(ctx context.Context, roomType string, limit int, offset int64) ([]*model.Room, int64, error) {
	if roomType != "" && !model.ValidRoomType(roomType) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Unknown room type: %s", roomType))
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var rooms []*model.Room
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		count, err = s.repo.Count(ctx, roomType)
		if err != nil {
			s.cfg.Log.Error("Failed to count rooms", "error", err)
			errCount = apperrors.Internal("Failed to count rooms", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		rooms, err = s.repo.FindAll(ctx, roomType, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list rooms", "error", err)
			errFind = apperrors.Internal("Failed to list rooms", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return rooms, count, nil
}
