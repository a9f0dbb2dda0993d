package models

// Domain models matching the database schema in db/migrations/0001_init.sql

// Role is the mentorship role tag stored on a user. The empty Role means unset.
type Role string

const (
	RoleMentor Role = "Mentor"
	RoleMentee Role = "Mentee"
)

// Status is the relationship status of a mentee row.
type Status string

const (
	StatusNone      Status = "none"
	StatusRequested Status = "requested"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
)

// RequestStatus is the state of a single mentorship request edge.
type RequestStatus string

const (
	RequestPending    RequestStatus = "requested"
	RequestAccepted   RequestStatus = "accepted"
	RequestRejected   RequestStatus = "rejected"
	RequestSuperseded RequestStatus = "superseded"
)

// NotificationType tags a notification record and the matching push event.
type NotificationType string

const (
	NotificationMentorshipRequest  NotificationType = "MENTORSHIP_REQUEST"
	NotificationMentorshipResponse NotificationType = "MENTORSHIP_RESPONSE"
)

type User struct {
	ID             int64  `json:"id" db:"id"`
	Email          string `json:"email" db:"email"`
	PasswordHash   string `json:"-" db:"password_hash"`
	Name           string `json:"name" db:"name"`
	Bio            string `json:"bio,omitempty" db:"bio"`
	ProfilePicture string `json:"profilePicture,omitempty" db:"profile_picture"`
	School         string `json:"school,omitempty" db:"school"`
	Major          string `json:"major,omitempty" db:"major"`
	Interest       string `json:"interest,omitempty" db:"interest"`
	Mentorship     Role   `json:"mentorship,omitempty" db:"mentorship"`
	Status         Status `json:"status" db:"status"`
	Note           string `json:"note,omitempty" db:"note"`
	MentorID       *int64 `json:"mentorId" db:"mentor_id"`
	TokenVersion   int64  `json:"-" db:"token_version"`
	Created        int64  `json:"created" db:"created"`
	Updated        int64  `json:"updated" db:"updated"`
}

// MentorRequest is an edge row recording one request attempt from a mentee
// to a mentor.
type MentorRequest struct {
	ID       int64         `json:"id" db:"id"`
	MenteeID int64         `json:"menteeId" db:"mentee_id"`
	MentorID int64         `json:"mentorId" db:"mentor_id"`
	Note     string        `json:"note,omitempty" db:"note"`
	Status   RequestStatus `json:"status" db:"status"`
	Created  int64         `json:"created" db:"created"`
	Updated  int64         `json:"updated" db:"updated"`
}

type Notification struct {
	ID      int64            `json:"id" db:"id"`
	UserID  int64            `json:"userId" db:"user_id"`
	Type    NotificationType `json:"type" db:"type"`
	Message string           `json:"message" db:"message"`
	Created int64            `json:"createdAt" db:"created"`
}

// MentorListing is the projection returned when browsing mentors.
type MentorListing struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
	Interest       string `json:"interest"`
	Mentorship     Role   `json:"mentorship"`
	School         string `json:"school"`
	Bio            string `json:"bio"`
}

// PendingRequest is the projection a mentor sees for an incoming request.
type PendingRequest struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
	Interest       string `json:"interest"`
	Mentorship     Role   `json:"mentorship"`
	Note           string `json:"note"`
	Status         Status `json:"status"`
	MentorID       *int64 `json:"mentorId"`
}

// PublicProfile is the public-safe projection of a linked mentor or mentee.
type PublicProfile struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Major          string `json:"major"`
	School         string `json:"school"`
	Interest       string `json:"interest"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
	Bio            string `json:"bio"`
}

func (u *User) Listing() MentorListing {
	return MentorListing{
		ID:             u.ID,
		Name:           u.Name,
		ProfilePicture: u.ProfilePicture,
		Interest:       u.Interest,
		Mentorship:     u.Mentorship,
		School:         u.School,
		Bio:            u.Bio,
	}
}

func (u *User) Pending() PendingRequest {
	return PendingRequest{
		ID:             u.ID,
		Name:           u.Name,
		ProfilePicture: u.ProfilePicture,
		Interest:       u.Interest,
		Mentorship:     u.Mentorship,
		Note:           u.Note,
		Status:         u.Status,
		MentorID:       u.MentorID,
	}
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		Name:           u.Name,
		Major:          u.Major,
		School:         u.School,
		Interest:       u.Interest,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
	}
}
