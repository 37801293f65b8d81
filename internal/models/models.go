package models

import "time"

type User struct {
	ID          int64
	Email       string
	Username    string
	PassHash    []byte
	DisplayName string
	LastLoginAt *time.Time
	CreatedAt   time.Time
}

// Identity is the claim set carried by access and refresh tokens.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
	RoleNone   Role = "none"
)

// Valid reports whether r is a role that can be stored on a collaboration.
// Owner is implicit via project ownership and never written to a row.
func (r Role) Valid() bool {
	return r == RoleEditor || r == RoleViewer
}

type Project struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Collaboration struct {
	ProjectID  int64      `json:"project_id"`
	UserID     int64      `json:"user_id"`
	Role       Role       `json:"role"`
	InvitedAt  time.Time  `json:"invited_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// Accepted reports whether the invite has been accepted. Pending
// collaborations grant no access.
func (c *Collaboration) Accepted() bool {
	return c.AcceptedAt != nil
}

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketDone       TicketStatus = "done"
)

func (s TicketStatus) Valid() bool {
	return s == TicketOpen || s == TicketInProgress || s == TicketDone
}

type Ticket struct {
	ID         int64        `json:"id"`
	ProjectID  int64        `json:"project_id"`
	AuthorID   int64        `json:"author_id"`
	AssigneeID *int64       `json:"assignee_id,omitempty"`
	Title      string       `json:"title"`
	Body       string       `json:"body"`
	Status     TicketStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type Note struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type Asset struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	UploaderID  int64     `json:"uploader_id"`
	ObjectKey   string    `json:"-"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Message is the payload published to the notification queue.
type Message struct {
	Email   string `json:"to"`
	Project string `json:"project"`
	Role    string `json:"role"`
	Purpose string `json:"purpose"`
}
