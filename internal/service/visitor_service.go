package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gatehouse/visitgate/internal/domain"
	"github.com/gatehouse/visitgate/internal/repository"
	"github.com/gatehouse/visitgate/pkg/events"
	"github.com/gatehouse/visitgate/pkg/logger"
)

type VisitorService interface {
	Create(ctx context.Context, req *domain.CreateVisitorRequest, createdBy int64, idempotencyKey string) (*domain.Visitor, error)
	RecordCheckIn(ctx context.Context, id int64, patch domain.VisitorPatch) (*domain.Visitor, error)
	RecordCheckOut(ctx context.Context, id int64) (*domain.Visitor, error)
	ListAll(ctx context.Context) ([]domain.VisitorWithContact, error)
	ListMine(ctx context.Context, contactPersonID int64) ([]domain.Visitor, error)
	UpdateMeeting(ctx context.Context, id, callerID int64, req *domain.UpdateMeetingRequest) (*domain.Visitor, error)
}

type visitorService struct {
	visitorRepo     repository.VisitorRepository
	userRepo        repository.UserRepository
	idempotencyRepo repository.IdempotencyRepository
	eventBus        events.Publisher
}

func NewVisitorService(
	visitorRepo repository.VisitorRepository,
	userRepo repository.UserRepository,
	idempotencyRepo repository.IdempotencyRepository,
	eventBus events.Publisher,
) VisitorService {
	return &visitorService{
		visitorRepo:     visitorRepo,
		userRepo:        userRepo,
		idempotencyRepo: idempotencyRepo,
		eventBus:        eventBus,
	}
}

func (s *visitorService) Create(ctx context.Context, req *domain.CreateVisitorRequest, createdBy int64, idempotencyKey string) (*domain.Visitor, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The contact person link is checked at creation time, not by a
	// foreign key.
	contact, err := s.userRepo.FindByID(ctx, req.ContactPersonID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up contact person: %w", err)
	}
	if contact == nil {
		return nil, fmt.Errorf("%w: contact person does not exist", domain.ErrValidation)
	}

	if idempotencyKey != "" {
		existingID, err := s.idempotencyRepo.CheckOrCreate(ctx, idempotencyKey, 0)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if existingID > 0 {
			return s.visitorRepo.GetByID(ctx, existingID)
		}
	}

	var total *int
	if req.InTime != nil && req.OutTime != nil {
		t := domain.TotalMinutes(*req.InTime, *req.OutTime)
		total = &t
	}

	visitor, err := s.visitorRepo.Create(ctx, req, createdBy, total)
	if err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		if _, err := s.idempotencyRepo.CheckOrCreate(ctx, idempotencyKey, visitor.ID); err != nil {
			logger.ErrorContext(ctx, "Failed to store idempotency record", "error", err, "visitor_id", visitor.ID)
		}
	}

	event := events.VisitorCreatedEvent{
		VisitorID:       visitor.ID,
		VisitorNumber:   visitor.VisitorNumber,
		Name:            visitor.Name,
		ContactPersonID: visitor.ContactPersonID,
		Purpose:         visitor.Purpose,
		CreatedBy:       visitor.CreatedBy,
		CreatedAt:       visitor.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.VisitorCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish visitor created event", "error", err, "visitor_id", visitor.ID)
	}

	return visitor, nil
}

func (s *visitorService) RecordCheckIn(ctx context.Context, id int64, patch domain.VisitorPatch) (*domain.Visitor, error) {
	visitor, err := s.visitorRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update visitor: %w", err)
	}
	if visitor == nil {
		return nil, fmt.Errorf("%w: visitor not found", domain.ErrNotFound)
	}

	// Metadata-only patches are not a check-in.
	if patch.InTime != nil {
		event := events.VisitorCheckedInEvent{
			VisitorID:     visitor.ID,
			VisitorNumber: visitor.VisitorNumber,
			InTime:        visitor.InTime,
		}
		if err := s.eventBus.Publish(ctx, events.VisitorCheckedIn, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish check-in event", "error", err, "visitor_id", visitor.ID)
		}
	}

	return visitor, nil
}

func (s *visitorService) RecordCheckOut(ctx context.Context, id int64) (*domain.Visitor, error) {
	existing, err := s.visitorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get visitor: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: visitor not found", domain.ErrNotFound)
	}
	if existing.OutTime != nil {
		return nil, fmt.Errorf("%w: visitor already checked out", domain.ErrConflict)
	}

	visitor, err := s.visitorRepo.CheckOut(ctx, id, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to check out visitor: %w", err)
	}
	if visitor == nil {
		return nil, fmt.Errorf("%w: visitor not found", domain.ErrNotFound)
	}

	event := events.VisitorCheckedOutEvent{
		VisitorID:      visitor.ID,
		VisitorNumber:  visitor.VisitorNumber,
		OutTime:        *visitor.OutTime,
		TotalTimeSpent: visitor.TotalTimeSpent,
	}
	if err := s.eventBus.Publish(ctx, events.VisitorCheckedOut, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish check-out event", "error", err, "visitor_id", visitor.ID)
	}

	return visitor, nil
}

func (s *visitorService) ListAll(ctx context.Context) ([]domain.VisitorWithContact, error) {
	visitors, err := s.visitorRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}
	return visitors, nil
}

func (s *visitorService) ListMine(ctx context.Context, contactPersonID int64) ([]domain.Visitor, error) {
	visitors, err := s.visitorRepo.ListByContact(ctx, contactPersonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}
	return visitors, nil
}

func (s *visitorService) UpdateMeeting(ctx context.Context, id, callerID int64, req *domain.UpdateMeetingRequest) (*domain.Visitor, error) {
	status, ok := domain.ParseMeetingStatus(req.MeetingStatus)
	if !ok {
		return nil, fmt.Errorf("%w: invalid meetingStatus %q", domain.ErrValidation, req.MeetingStatus)
	}
	if req.OutTime == "" {
		return nil, fmt.Errorf("%w: outTime is required", domain.ErrValidation)
	}
	outTime, err := time.Parse(time.RFC3339, req.OutTime)
	if err != nil {
		return nil, fmt.Errorf("%w: outTime must be RFC 3339", domain.ErrValidation)
	}

	// Ownership is folded into the lookup: a visitor assigned to another
	// contact person is indistinguishable from a missing one.
	existing, err := s.visitorRepo.GetByIDForContact(ctx, id, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get visitor: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: visitor not found", domain.ErrNotFound)
	}

	if !existing.MeetingStatus.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: meeting status is already %s", domain.ErrConflict, existing.MeetingStatus)
	}

	visitor, err := s.visitorRepo.UpdateMeeting(ctx, id, callerID, status, outTime)
	if err != nil {
		return nil, fmt.Errorf("failed to update meeting: %w", err)
	}
	if visitor == nil {
		return nil, fmt.Errorf("%w: visitor not found", domain.ErrNotFound)
	}

	event := events.VisitorMeetingUpdatedEvent{
		VisitorID:       visitor.ID,
		VisitorNumber:   visitor.VisitorNumber,
		ContactPersonID: visitor.ContactPersonID,
		MeetingStatus:   string(visitor.MeetingStatus),
		OutTime:         outTime,
	}
	if err := s.eventBus.Publish(ctx, events.VisitorMeetingUpdated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish meeting updated event", "error", err, "visitor_id", visitor.ID)
	}

	return visitor, nil
}
