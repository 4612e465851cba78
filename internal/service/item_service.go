package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"
	"shareit/internal/validation"
)

type ItemService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewItemService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemService {
	return &ItemService{repo: repo, eventBus: eventBus, logger: logger, now: time.Now}
}

func (s *ItemService) Create(ctx context.Context, userID int64, in models.ItemInput) (*models.ItemResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, errValidation("%s", err.Error())
	}
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, lookupError("user", userID, err)
	}
	if in.RequestID != nil {
		if _, err := s.repo.GetRequest(ctx, *in.RequestID); err != nil {
			return nil, lookupError("request", *in.RequestID, err)
		}
	}

	item := &models.Item{
		Name:        in.Name,
		Description: in.Description,
		Available:   *in.Available,
		OwnerID:     userID,
		RequestID:   in.RequestID,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", userID).Msg("Item created")
	resp := models.NewItemResponse(item)
	return &resp, nil
}

// Update patches an item. Only its owner may do so.
func (s *ItemService) Update(ctx context.Context, userID, itemID int64, patch models.ItemPatch) (*models.ItemResponse, error) {
	if err := validation.Struct(patch); err != nil {
		return nil, errValidation("%s", err.Error())
	}
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	patch.Apply(item)
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, lookupError("item", itemID, err)
	}

	resp := models.NewItemResponse(item)
	return &resp, nil
}

func (s *ItemService) Delete(ctx context.Context, userID, itemID int64) error {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return lookupError("item", itemID, err)
	}
	s.logger.Info().Int64("item_id", itemID).Msg("Item deleted")
	return nil
}

func (s *ItemService) ownedItem(ctx context.Context, userID, itemID int64) (*models.Item, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, lookupError("user", userID, err)
	}
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, lookupError("item", itemID, err)
	}
	if item.OwnerID != userID {
		return nil, errItemNotOwner(userID, itemID)
	}
	return item, nil
}

// Get returns the item with its comments. The owner additionally sees the
// last and next approved bookings.
func (s *ItemService) Get(ctx context.Context, userID, itemID int64) (*models.ItemDetails, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, lookupError("user", userID, err)
	}
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, lookupError("item", itemID, err)
	}
	return s.details(ctx, userID, item, s.now())
}

func (s *ItemService) ListByOwner(ctx context.Context, userID int64, page models.Page) ([]models.ItemDetails, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, lookupError("user", userID, err)
	}
	items, err := s.repo.ListItemsByOwner(ctx, userID, page)
	if err != nil {
		return nil, err
	}

	now := s.now()
	resp := make([]models.ItemDetails, 0, len(items))
	for i := range items {
		d, err := s.details(ctx, userID, &items[i], now)
		if err != nil {
			return nil, err
		}
		resp = append(resp, *d)
	}
	return resp, nil
}

func (s *ItemService) details(ctx context.Context, userID int64, item *models.Item, now time.Time) (*models.ItemDetails, error) {
	d := &models.ItemDetails{
		ItemResponse: models.NewItemResponse(item),
		Comments:     []models.CommentResponse{},
	}

	if item.OwnerID == userID {
		last, err := s.repo.LastBooking(ctx, item.ID, now)
		if err != nil {
			return nil, err
		}
		next, err := s.repo.NextBooking(ctx, item.ID, now)
		if err != nil {
			return nil, err
		}
		d.LastBooking = models.NewBookingShort(last)
		d.NextBooking = models.NewBookingShort(next)
	}

	comments, err := s.repo.ListComments(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		d.Comments = append(d.Comments, models.NewCommentResponse(&comments[i]))
	}
	return d, nil
}

// Search finds available items whose name or description contains text.
// Blank text matches nothing.
func (s *ItemService) Search(ctx context.Context, text string, page models.Page) ([]models.ItemResponse, error) {
	resp := []models.ItemResponse{}
	if strings.TrimSpace(text) == "" {
		return resp, nil
	}

	items, err := s.repo.SearchItems(ctx, text, page)
	if err != nil {
		return nil, err
	}
	for i := range items {
		resp = append(resp, models.NewItemResponse(&items[i]))
	}
	return resp, nil
}

// AddComment records feedback from a user whose approved booking of the
// item is over.
func (s *ItemService) AddComment(ctx context.Context, userID, itemID int64, in models.CommentInput) (*models.CommentResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, errValidation("%s", err.Error())
	}
	author, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, lookupError("user", userID, err)
	}
	if _, err := s.repo.GetItem(ctx, itemID); err != nil {
		return nil, lookupError("item", itemID, err)
	}

	now := s.now()
	eligible, err := s.repo.HasFinishedBooking(ctx, userID, itemID, now)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, errNotEligible(userID, itemID)
	}

	comment := &models.Comment{
		Text:       in.Text,
		ItemID:     itemID,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Created:    now.UTC(),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		payload := events.CommentEventPayload{
			CommentID:  comment.ID,
			ItemID:     itemID,
			AuthorName: author.Name,
			Text:       comment.Text,
		}
		if err := s.eventBus.PublishJSON(events.EventCommentCreated, payload); err != nil {
			s.logger.Error().Err(err).Int64("comment_id", comment.ID).Msg("publish event error")
		}
	}

	resp := models.NewCommentResponse(comment)
	return &resp, nil
}
