package response

import (
	"time"

	"delivery-scheduler/internal/usecase/commands"
	"delivery-scheduler/internal/usecase/queries"
)

type WindowResponse struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	TimeZone string `json:"time_zone,omitempty"`
}

type NotificationResponse struct {
	Published    bool   `json:"published"`
	Emailed      bool   `json:"emailed"`
	PublishError string `json:"publish_error,omitempty"`
	EmailError   string `json:"email_error,omitempty"`
}

type ScheduleResponse struct {
	RunID        string                `json:"run_id"`
	Stage        string                `json:"stage"`
	Replayed     bool                  `json:"replayed"`
	Window       WindowResponse        `json:"window"`
	BookingID    string                `json:"booking_id,omitempty"`
	BookingLink  string                `json:"booking_link,omitempty"`
	Notification *NotificationResponse `json:"notification,omitempty"`
}

func FromScheduleResult(r *commands.ScheduleResult) *ScheduleResponse {
	resp := &ScheduleResponse{
		RunID:    r.RunID.String(),
		Stage:    string(r.Stage),
		Replayed: r.IsReplayed,
		Window: WindowResponse{
			Start:    r.Window.Start().Format(time.RFC3339),
			End:      r.Window.End().Format(time.RFC3339),
			TimeZone: r.Window.Start().Location().String(),
		},
	}
	if r.BookingResult != nil {
		resp.BookingID = r.BookingResult.ID
		resp.BookingLink = r.BookingResult.HTMLLink
	}
	if !r.IsReplayed {
		n := &NotificationResponse{Published: r.Notification.Published, Emailed: r.Notification.Emailed}
		if r.Notification.PublishErr != nil {
			n.PublishError = r.Notification.PublishErr.Error()
		}
		if r.Notification.EmailErr != nil {
			n.EmailError = r.Notification.EmailErr.Error()
		}
		resp.Notification = n
	}
	return resp
}

type WindowPreviewResponse struct {
	ReceivedAt string `json:"received_at"`
	Start      string `json:"start"`
	End        string `json:"end"`
	TimeZone   string `json:"time_zone"`
	Hours      int    `json:"hours"`
}

func FromWindowView(v *queries.WindowView) *WindowPreviewResponse {
	return &WindowPreviewResponse{
		ReceivedAt: v.ReceivedAt.Format(time.RFC3339),
		Start:      v.Start.Format(time.RFC3339),
		End:        v.End.Format(time.RFC3339),
		TimeZone:   v.TimeZone,
		Hours:      v.Hours,
	}
}

type NotificationJobResponse struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Topic     string  `json:"topic"`
	Status    string  `json:"status"`
	Attempts  int32   `json:"attempts"`
	LastError *string `json:"last_error,omitempty"`
	RunAt     int64   `json:"run_at"`
}

func FromNotificationJobViews(views []*queries.NotificationJobView) []NotificationJobResponse {
	items := make([]NotificationJobResponse, 0, len(views))
	for _, v := range views {
		items = append(items, NotificationJobResponse{
			ID:        v.ID.String(),
			Kind:      v.Kind,
			Topic:     v.Topic,
			Status:    v.Status,
			Attempts:  v.Attempts,
			LastError: v.LastError,
			RunAt:     v.RunAt.Unix(),
		})
	}
	return items
}
