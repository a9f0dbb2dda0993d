package mentorship

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/garnizeh/mentorhub/internal/notify"
	"github.com/garnizeh/mentorhub/pkg/models"
	"github.com/garnizeh/mentorhub/pkg/repository"
)

// maxNoteLength bounds the free-text note attached to a request.
const maxNoteLength = 2000

// Notifier pushes an event to the live connections of one identity.
type Notifier interface {
	SendTo(identity int64, ev notify.Event) int
}

// Payload is the body of a pushed mentorship event.
type Payload struct {
	UserID         int64  `json:"userId"`
	Message        string `json:"message"`
	NotificationID int64  `json:"notificationId"`
	FromUserID     int64  `json:"fromUserId"`
	Status         string `json:"status,omitempty"`
}

// Service runs the mentorship workflow. Every mutation executes in one store
// transaction; pushes happen only after the transaction commits.
type Service struct {
	store    repository.Store
	notifier Notifier
	logger   *slog.Logger
}

func NewService(store repository.Store, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, notifier: notifier, logger: logger}
}

// ListMentors returns every mentor the caller is not already linked to.
func (s *Service) ListMentors(ctx context.Context, callerID int64) ([]models.MentorListing, error) {
	related, err := s.store.RelatedUserIDs(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("related users: %w", err)
	}
	exclude := append(related, callerID)

	users, err := s.store.ListMentorsExcluding(ctx, exclude)
	if err != nil {
		return nil, fmt.Errorf("list mentors: %w", err)
	}

	out := make([]models.MentorListing, 0, len(users))
	for i := range users {
		out = append(out, users[i].Listing())
	}
	return out, nil
}

// RequestMentor records a request from the caller (the mentee) to mentorID.
func (s *Service) RequestMentor(ctx context.Context, callerID, mentorID int64, note string) error {
	note = strings.TrimSpace(note)
	if mentorID <= 0 {
		return fmt.Errorf("%w: mentor id is required", ErrValidation)
	}
	if len(note) > maxNoteLength {
		return fmt.Errorf("%w: note too long", ErrValidation)
	}

	var (
		notification models.Notification
		mentee       *models.User
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		mentor, err := tx.GetByID(ctx, mentorID)
		if err != nil {
			return fmt.Errorf("get mentor: %w", err)
		}
		if mentor == nil || mentor.Mentorship != models.RoleMentor {
			return fmt.Errorf("%w: mentor %d", ErrNotFound, mentorID)
		}

		mentee, err = tx.GetByID(ctx, callerID)
		if err != nil {
			return fmt.Errorf("get mentee: %w", err)
		}
		if mentee == nil {
			return fmt.Errorf("%w: user %d", ErrNotFound, callerID)
		}
		if mentee.ID == mentor.ID {
			return fmt.Errorf("%w: cannot request yourself", ErrInvalidState)
		}
		if mentee.Mentorship != models.RoleMentee {
			return fmt.Errorf("%w: only mentees can request a mentor", ErrInvalidState)
		}
		if mentee.Status == models.StatusRequested {
			return fmt.Errorf("%w: a request is already pending", ErrInvalidState)
		}
		if mentee.Status == models.StatusAccepted && mentee.MentorID != nil && *mentee.MentorID == mentor.ID {
			return fmt.Errorf("%w: already mentored by this mentor", ErrInvalidState)
		}

		// a new request ends any current relationship
		if mentee.Status == models.StatusAccepted {
			if err := tx.SupersedeAccepted(ctx, mentee.ID); err != nil {
				return fmt.Errorf("supersede accepted request: %w", err)
			}
		}

		if _, err := tx.CreateRequest(ctx, &models.MentorRequest{MenteeID: mentee.ID, MentorID: mentor.ID, Note: note, Status: models.RequestPending}); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if err := tx.UpdateRelationship(ctx, mentee.ID, models.StatusRequested, &mentor.ID, &note); err != nil {
			return err
		}

		notification = models.Notification{
			UserID:  mentor.ID,
			Type:    models.NotificationMentorshipRequest,
			Message: fmt.Sprintf("You have a new mentorship request from %s.", mentee.Name),
		}
		notification.ID, err = tx.CreateNotification(ctx, &notification)
		if err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	transitionsTotal.WithLabelValues(string(models.StatusRequested)).Inc()
	s.push(notification, mentee.ID, "")
	return nil
}

// ListPendingRequests returns the mentees whose open request names mentorID.
func (s *Service) ListPendingRequests(ctx context.Context, mentorID int64) ([]models.PendingRequest, error) {
	users, err := s.store.ListPendingForMentor(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}

	out := make([]models.PendingRequest, 0, len(users))
	for i := range users {
		out = append(out, users[i].Pending())
	}
	return out, nil
}

// Respond applies mentorID's decision to menteeID's open request.
func (s *Service) Respond(ctx context.Context, mentorID, menteeID int64, decision models.Status) error {
	if decision != models.StatusAccepted && decision != models.StatusRejected {
		return fmt.Errorf("%w: status must be accepted or rejected", ErrValidation)
	}
	if menteeID <= 0 {
		return fmt.Errorf("%w: mentee id is required", ErrValidation)
	}

	var notification models.Notification
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		mentee, err := tx.GetByID(ctx, menteeID)
		if err != nil {
			return fmt.Errorf("get mentee: %w", err)
		}
		if mentee == nil {
			return fmt.Errorf("%w: mentee %d", ErrNotFound, menteeID)
		}

		mentor, err := tx.GetByID(ctx, mentorID)
		if err != nil {
			return fmt.Errorf("get mentor: %w", err)
		}
		if mentor == nil {
			return fmt.Errorf("%w: mentor %d", ErrNotFound, mentorID)
		}

		if mentee.Status != models.StatusRequested {
			return fmt.Errorf("%w: no pending request from mentee %d", ErrInvalidState, menteeID)
		}
		open, err := tx.GetOpenRequest(ctx, menteeID)
		if err != nil {
			return fmt.Errorf("get open request: %w", err)
		}
		if open == nil || open.MentorID != mentorID {
			return fmt.Errorf("%w: request from mentee %d is not addressed to you", ErrInvalidState, menteeID)
		}

		to := models.RequestRejected
		var link *int64
		if decision == models.StatusAccepted {
			to = models.RequestAccepted
			link = &mentorID
		}

		won, err := tx.ResolveRequest(ctx, open.ID, models.RequestPending, to)
		if err != nil {
			return fmt.Errorf("resolve request: %w", err)
		}
		if !won {
			return fmt.Errorf("%w: request already resolved", ErrInvalidState)
		}
		if err := tx.UpdateRelationship(ctx, menteeID, decision, link, nil); err != nil {
			return err
		}

		notification = models.Notification{
			UserID:  menteeID,
			Type:    models.NotificationMentorshipResponse,
			Message: fmt.Sprintf("Your mentorship request to %s has been %s.", mentor.Name, decision),
		}
		notification.ID, err = tx.CreateNotification(ctx, &notification)
		if err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	transitionsTotal.WithLabelValues(string(decision)).Inc()
	s.push(notification, mentorID, string(decision))
	return nil
}

// GetMentees returns the accepted mentees of mentorID.
func (s *Service) GetMentees(ctx context.Context, mentorID int64) ([]models.PublicProfile, error) {
	mentor, err := s.store.GetByID(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("get mentor: %w", err)
	}
	if mentor == nil {
		return nil, fmt.Errorf("%w: mentor %d", ErrNotFound, mentorID)
	}

	users, err := s.store.ListAcceptedMentees(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("list mentees: %w", err)
	}

	out := make([]models.PublicProfile, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

// GetMentor returns the accepted mentor of menteeID as a one-element list.
func (s *Service) GetMentor(ctx context.Context, menteeID int64) ([]models.PublicProfile, error) {
	mentee, err := s.store.GetByID(ctx, menteeID)
	if err != nil {
		return nil, fmt.Errorf("get mentee: %w", err)
	}
	if mentee == nil || mentee.MentorID == nil || mentee.Status != models.StatusAccepted {
		return nil, fmt.Errorf("%w: no mentor for user %d", ErrNotFound, menteeID)
	}

	mentor, err := s.store.GetByID(ctx, *mentee.MentorID)
	if err != nil {
		return nil, fmt.Errorf("get mentor: %w", err)
	}
	if mentor == nil {
		return nil, fmt.Errorf("%w: mentor %d", ErrNotFound, *mentee.MentorID)
	}

	return []models.PublicProfile{mentor.Public()}, nil
}

// UserRole returns the mentorship role tag of userID.
func (s *Service) UserRole(ctx context.Context, userID int64) (models.Role, error) {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return "", fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return u.Mentorship, nil
}

// Notifications returns a page of userID's notification history, newest
// first, along with the total count.
func (s *Service) Notifications(ctx context.Context, userID int64, limit, offset int) ([]models.Notification, int64, error) {
	items, err := s.store.ListNotifications(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	total, err := s.store.CountNotifications(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, total, nil
}

func (s *Service) push(n models.Notification, from int64, status string) {
	if s.notifier == nil {
		return
	}
	ev := notify.NewEvent(string(n.Type), Payload{
		UserID:         n.UserID,
		Message:        n.Message,
		NotificationID: n.ID,
		FromUserID:     from,
		Status:         status,
	})
	if delivered := s.notifier.SendTo(n.UserID, ev); delivered == 0 {
		s.logger.Debug("push skipped, recipient offline", slog.Int64("user_id", n.UserID), slog.String("type", ev.Type))
	}
}
