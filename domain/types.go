package domain

import "time"

// User is an account known to the Adaboards service.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// EntityID returns the cache key for the user.
func (u User) EntityID() string { return u.ID }

// Board is a single kanban board.
type Board struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityID returns the cache key for the board.
func (b Board) EntityID() string { return b.ID }

// Task is a single board item in one of the three status columns.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	BoardID     string     `json:"boardId"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// EntityID returns the cache key for the task.
func (t Task) EntityID() string { return t.ID }

// Member ties a user to a board with a role.
type Member struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	BoardID  string    `json:"boardId"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
	User     User      `json:"user"`
}

// EntityID returns the cache key for the membership. Memberships are
// addressed by user id in the API, so that is the key.
func (m Member) EntityID() string { return m.UserID }

// Role is a member's permission level on a board.
type Role string

const (
	RoleOwner      Role = "OWNER"
	RoleMaintainer Role = "MAINTAINER"
	RoleMember     Role = "MEMBER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleMaintainer, RoleMember:
		return true
	}
	return false
}

// CanManageMembers reports whether a member with this role may add,
// remove or re-role other members.
func (r Role) CanManageMembers() bool {
	return r == RoleOwner || r == RoleMaintainer
}
