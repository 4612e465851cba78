package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/validation"
)

type RequestService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewRequestService(repo domain.Repository, logger *zerolog.Logger) *RequestService {
	return &RequestService{repo: repo, logger: logger, now: time.Now}
}

func (s *RequestService) Create(ctx context.Context, userID int64, in models.ItemRequestInput) (*models.ItemRequestResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, errValidation("%s", err.Error())
	}
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, lookupError("user", userID, err)
	}

	req := &models.ItemRequest{Description: in.Description, RequestorID: userID, Created: s.now().UTC()}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("request_id", req.ID).Int64("user_id", userID).Msg("Item request created")
	resp := models.NewItemRequestResponse(req, nil)
	return &resp, nil
}

// ListOwn returns the caller's requests, newest first, with the items
// listed for them.
func (s *RequestService) ListOwn(ctx context.Context, userID int64) ([]models.ItemRequestResponse, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, lookupError("user", userID, err)
	}
	reqs, err := s.repo.ListRequestsByRequestor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, reqs)
}

// ListOthers pages through requests made by other users, newest first.
func (s *RequestService) ListOthers(ctx context.Context, userID int64, page models.Page) ([]models.ItemRequestResponse, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, lookupError("user", userID, err)
	}
	reqs, err := s.repo.ListOtherRequests(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, reqs)
}

func (s *RequestService) Get(ctx context.Context, userID, requestID int64) (*models.ItemRequestResponse, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, lookupError("user", userID, err)
	}
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, lookupError("request", requestID, err)
	}

	resp, err := s.withItems(ctx, []models.ItemRequest{*req})
	if err != nil {
		return nil, err
	}
	return &resp[0], nil
}

func (s *RequestService) withItems(ctx context.Context, reqs []models.ItemRequest) ([]models.ItemRequestResponse, error) {
	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID)
	}
	items, err := s.repo.ListItemsByRequests(ctx, ids)
	if err != nil {
		return nil, err
	}

	byRequest := make(map[int64][]models.Item, len(reqs))
	for _, it := range items {
		if it.RequestID != nil {
			byRequest[*it.RequestID] = append(byRequest[*it.RequestID], it)
		}
	}

	resp := make([]models.ItemRequestResponse, 0, len(reqs))
	for i := range reqs {
		resp = append(resp, models.NewItemRequestResponse(&reqs[i], byRequest[reqs[i].ID]))
	}
	return resp, nil
}
