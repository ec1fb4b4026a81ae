package waitlist

// ===============================
// Waitlist Status
// ===============================

type Status string

const (
	StatusActive   Status = "active"
	StatusNotified Status = "notified"
	StatusRemoved  Status = "removed"
	StatusExpired  Status = "expired"
)

// Visible: o que o cliente ainda enxerga em "minhas esperas".
func (s Status) Visible() bool {
	return s == StatusActive || s == StatusNotified
}
