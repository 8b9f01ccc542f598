package reservation

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status is one of the immutable end states.
func (s Status) Terminal() bool {
	return s.IsValid() && s != StatusActive
}
