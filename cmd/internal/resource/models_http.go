package resource

import "time"

type noteRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	ShareWith []string `json:"share_with,omitempty"`
}

type eventRequest struct {
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	ShareWith []string  `json:"share_with,omitempty"`
}

type reminderRequest struct {
	Title     string    `json:"title"`
	DueAt     time.Time `json:"due_at"`
	Done      bool      `json:"done"`
	ShareWith []string  `json:"share_with,omitempty"`
}

type shareRequest struct {
	Usernames []string `json:"usernames"`
}

type noteResponse struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"owner_user_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type eventResponse struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"owner_user_id"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type reminderResponse struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"owner_user_id"`
	Title       string    `json:"title"`
	DueAt       time.Time `json:"due_at"`
	Done        bool      `json:"done"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toNoteResponse(n Note) noteResponse {
	return noteResponse{
		ID:          n.ID,
		OwnerUserID: n.OwnerUserID,
		Title:       n.Title,
		Content:     n.Content,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func toEventResponse(e Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		OwnerUserID: e.OwnerUserID,
		Title:       e.Title,
		Location:    e.Location,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toReminderResponse(rm Reminder) reminderResponse {
	return reminderResponse{
		ID:          rm.ID,
		OwnerUserID: rm.OwnerUserID,
		Title:       rm.Title,
		DueAt:       rm.DueAt,
		Done:        rm.Done,
		CreatedAt:   rm.CreatedAt,
		UpdatedAt:   rm.UpdatedAt,
	}
}
