package repository

import (
	"context"

	"github.com/garnizeh/mentorhub/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
// Lookups return (nil, nil) when the row does not exist.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	BumpTokenVersion(ctx context.Context, id int64) error
}

// RelationshipRepo covers the mentorship fields on the user row.
type RelationshipRepo interface {
	ListMentorsExcluding(ctx context.Context, exclude []int64) ([]models.User, error)
	RelatedUserIDs(ctx context.Context, userID int64) ([]int64, error)
	ListPendingForMentor(ctx context.Context, mentorID int64) ([]models.User, error)
	ListAcceptedMentees(ctx context.Context, mentorID int64) ([]models.User, error)
	UpdateRelationship(ctx context.Context, userID int64, status models.Status, mentorID *int64, note *string) error
}

// RequestRepo stores mentorship request edges.
type RequestRepo interface {
	CreateRequest(ctx context.Context, req *models.MentorRequest) (int64, error)
	GetOpenRequest(ctx context.Context, menteeID int64) (*models.MentorRequest, error)
	// ResolveRequest moves an edge from `from` to `to`. It reports false when
	// the edge was not in `from`, so only one caller wins a decision point.
	ResolveRequest(ctx context.Context, id int64, from, to models.RequestStatus) (bool, error)
	SupersedeAccepted(ctx context.Context, menteeID int64) error
}

type NotificationRepo interface {
	CreateNotification(ctx context.Context, n *models.Notification) (int64, error)
	ListNotifications(ctx context.Context, userID int64, limit, offset int) ([]models.Notification, error)
	CountNotifications(ctx context.Context, userID int64) (int64, error)
}

// Store is the full set of repositories bound to one connection or transaction.
type Store interface {
	UserRepo
	RelationshipRepo
	RequestRepo
	NotificationRepo

	// InTx runs fn with a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
