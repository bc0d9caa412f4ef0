package domain

// TaskStatus is the column a task sits in.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// statusOrder is the only valid transition sequence; tasks step one
// position at a time in either direction.
var statusOrder = [...]TaskStatus{StatusTodo, StatusInProgress, StatusDone}

// MoveDirection selects which way a task steps along the status columns.
type MoveDirection int

const (
	MoveLeft MoveDirection = iota
	MoveRight
)

// Valid reports whether s is one of the three known statuses.
func (s TaskStatus) Valid() bool {
	for _, v := range statusOrder {
		if s == v {
			return true
		}
	}
	return false
}

// Step returns the status one column in the given direction. Stepping
// left from TODO or right from DONE clamps: the same status is returned.
func (s TaskStatus) Step(dir MoveDirection) TaskStatus {
	idx := -1
	for i, v := range statusOrder {
		if s == v {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}
	switch dir {
	case MoveLeft:
		if idx > 0 {
			idx--
		}
	case MoveRight:
		if idx < len(statusOrder)-1 {
			idx++
		}
	}
	return statusOrder[idx]
}
