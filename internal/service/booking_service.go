package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"
	"shareit/internal/validation"
)

// BookingService runs the booking lifecycle: creation, the owner's
// decision and the per-state listings for bookers and owners.
type BookingService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	exporter   domain.BookingExporter
	exportMax  int
	logger     *zerolog.Logger
	now        func() time.Time
}

func NewBookingService(
	repo domain.Repository,
	eventBus domain.EventPublisher,
	syncWorker domain.SyncWorker,
	exporter domain.BookingExporter,
	exportMax int,
	logger *zerolog.Logger,
) *BookingService {
	if exportMax <= 0 {
		exportMax = 10000
	}
	return &BookingService{
		repo:       repo,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		exporter:   exporter,
		exportMax:  exportMax,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *BookingService) Create(ctx context.Context, userID int64, in models.BookingInput) (*models.BookingResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, errValidation("%s", err.Error())
	}
	if !in.End.After(in.Start.Time) {
		return nil, errInvalidTimeRange()
	}

	booker, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, lookupError("user", userID, err)
	}
	item, err := s.repo.GetItem(ctx, in.ItemID)
	if err != nil {
		return nil, lookupError("item", in.ItemID, err)
	}
	if !item.Available {
		return nil, errItemUnavailable(item.ID)
	}
	if item.OwnerID == userID {
		return nil, errOwnerCannotBook(item.ID)
	}

	booking := &models.Booking{
		Start:       in.Start.UTC(),
		End:         in.End.UTC(),
		Status:      models.StatusWaiting,
		BookerID:    booker.ID,
		BookerName:  booker.Name,
		ItemID:      item.ID,
		ItemName:    item.Name,
		ItemOwnerID: item.OwnerID,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("item_id", item.ID).
		Int64("booker_id", booker.ID).
		Msg("Booking created")
	s.afterWrite(ctx, events.EventBookingCreated, booking, models.SyncTaskUpsertBooking)

	resp := models.NewBookingResponse(booking)
	return &resp, nil
}

// Confirm lets the item owner approve or reject a waiting booking. Only
// WAITING bookings can be decided; the status write is conditional on the
// version read, so two racing decisions cannot both succeed.
func (s *BookingService) Confirm(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.BookingResponse, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, lookupError("booking", bookingID, err)
	}
	if booking.ItemOwnerID != ownerID {
		return nil, errBookingNotOwner(bookingID)
	}
	if err := decidedError(booking); err != nil {
		return nil, err
	}

	status := models.StatusRejected
	if approved {
		status = models.StatusApproved
	}

	err = s.repo.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, status)
	if errors.Is(err, database.ErrConcurrentModification) {
		current, getErr := s.repo.GetBooking(ctx, bookingID)
		if getErr != nil {
			return nil, lookupError("booking", bookingID, getErr)
		}
		if decided := decidedError(current); decided != nil {
			return nil, decided
		}
		return nil, errAlreadyDecided(bookingID)
	}
	if err != nil {
		return nil, err
	}
	booking.Status = status
	booking.Version++

	eventType := events.EventBookingRejected
	if approved {
		eventType = events.EventBookingApproved
	}
	s.logger.Info().Int64("booking_id", booking.ID).Str("status", string(status)).Msg("Booking decided")
	s.afterWrite(ctx, eventType, booking, models.SyncTaskUpdateStatus)

	resp := models.NewBookingResponse(booking)
	return &resp, nil
}

func decidedError(b *models.Booking) error {
	switch b.Status {
	case models.StatusWaiting:
		return nil
	case models.StatusApproved:
		return errAlreadyApproved(b.ID)
	default:
		return errAlreadyDecided(b.ID)
	}
}

// Get returns a booking to its booker or to the owner of the booked item.
func (s *BookingService) Get(ctx context.Context, userID, bookingID int64) (*models.BookingResponse, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, lookupError("user", userID, err)
	}
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, lookupError("booking", bookingID, err)
	}
	if !booking.IsParticipant(userID) {
		return nil, errBookingNotAuthorized(bookingID)
	}

	resp := models.NewBookingResponse(booking)
	return &resp, nil
}

// List returns the caller's bookings in the given state, as booker or as
// owner of the booked items, newest start first.
func (s *BookingService) List(ctx context.Context, userID int64, stateToken string, page models.Page, asOwner bool) ([]models.BookingResponse, error) {
	bookings, err := s.query(ctx, userID, stateToken, page, asOwner)
	if err != nil {
		return nil, err
	}

	resp := make([]models.BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, models.NewBookingResponse(&bookings[i]))
	}
	return resp, nil
}

// Export renders the owner's bookings in a state as a spreadsheet.
func (s *BookingService) Export(ctx context.Context, ownerID int64, stateToken string) ([]byte, string, error) {
	if s.exporter == nil {
		return nil, "", errors.New("booking export is not configured")
	}
	bookings, err := s.query(ctx, ownerID, stateToken, models.Page{Size: s.exportMax}, true)
	if err != nil {
		return nil, "", err
	}

	data, err := s.exporter.ExportBookings(bookings)
	if err != nil {
		return nil, "", fmt.Errorf("failed to export bookings: %w", err)
	}
	return data, s.exporter.ContentType(), nil
}

func (s *BookingService) query(ctx context.Context, userID int64, stateToken string, page models.Page, asOwner bool) ([]models.Booking, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, lookupError("user", userID, err)
	}
	state, err := models.ParseBookingState(stateToken)
	if err != nil {
		return nil, errUnsupportedState(err)
	}
	if !page.Valid() {
		return nil, errValidation("invalid paging from=%d size=%d", page.From, page.Size)
	}

	return s.repo.ListBookings(ctx, models.BookingQuery{
		UserID:  userID,
		AsOwner: asOwner,
		State:   state,
		Now:     s.now(),
		Page:    page,
	})
}

func (s *BookingService) afterWrite(ctx context.Context, eventType string, booking *models.Booking, taskType string) {
	metrics.IncBookingTransition(string(booking.Status))
	s.publishEvent(eventType, booking)
	s.enqueueSync(ctx, booking, taskType)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    booking.ItemID,
		ItemName:  booking.ItemName,
		OwnerID:   booking.ItemOwnerID,
		BookerID:  booking.BookerID,
		Status:    string(booking.Status),
		Start:     booking.Start,
		End:       booking.End,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking, taskType string) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueTask(ctx, taskType, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
