package calendly

// User is the authenticated calendar owner.
type User struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// EventType is a bookable meeting category such as "Intro Call".
type EventType struct {
	URI           string     `json:"uri"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Active        bool       `json:"active"`
	Duration      int        `json:"duration"`
	SchedulingURL string     `json:"scheduling_url"`
	Locations     []Location `json:"locations"`
}

// Location describes where a meeting of an event type takes place.
type Location struct {
	Kind     string `json:"kind"`
	Location string `json:"location,omitempty"`
}

// AvailableTime is one open start time for an event type.
type AvailableTime struct {
	Status            string `json:"status"`
	StartTime         string `json:"start_time"`
	InviteesRemaining int    `json:"invitees_remaining"`
	SchedulingURL     string `json:"scheduling_url"`
}

// InviteeRequest books a person into an offered start time.
type InviteeRequest struct {
	EventType string      `json:"event_type"`
	StartTime string      `json:"start_time"`
	Invitee   InviteeInfo `json:"invitee"`
	Location  *Location   `json:"location,omitempty"`
}

// InviteeInfo identifies the person being booked.
type InviteeInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Timezone string `json:"timezone,omitempty"`
}

// Invitee is the calendar's record of a booking.
type Invitee struct {
	URI           string `json:"uri"`
	Email         string `json:"email"`
	Status        string `json:"status"`
	Event         string `json:"event"`
	CancelURL     string `json:"cancel_url"`
	RescheduleURL string `json:"reschedule_url"`
}
