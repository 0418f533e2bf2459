package delivery

// Status represents the state of a scheduled delivery in the queue.
type Status string

const (
	StatusPending Status = "PENDING"
	// StatusSending marks an entry claimed by a dispatcher run. The claim is
	// an atomic PENDING -> SENDING transition, so overlapping runs cannot
	// double-send one entry.
	StatusSending Status = "SENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)
