package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/NordCoder/Barberus/internal/domain/appointment"
	"github.com/NordCoder/Barberus/internal/domain/notification"
)

const (
	dateLayout  = "Monday, January 2, 2006 3:04 PM"
	defaultIcon = "/android/android-launchericon-192-192.png"
)

type action uint8

const (
	actionNone action = iota
	actionAppointments
	actionReviews
)

type copyText struct {
	heading string
	lead    string
	closing string
	action  action

	// empty means the generic "Appointment <type>" push
	pushTitle string
	pushBody  string
}

var copies = [...]copyText{
	notification.TypeConfirmation: {
		heading: "Appointment Confirmation - Barbershop",
		lead:    "Your appointment has been confirmed with the following details:",
		closing: "Looking forward to seeing you!",
		action:  actionAppointments,
	},
	notification.TypeUpdate: {
		heading: "Appointment Update - Barbershop",
		lead:    "Your appointment has been updated with the following details:",
		closing: "Looking forward to seeing you!",
		action:  actionAppointments,
	},
	notification.TypeCancellation: {
		heading: "Appointment Cancellation - Barbershop",
		lead:    "We regret to inform you that your appointment has been cancelled. Here are the details of the cancelled appointment:",
		closing: "We hope to see you soon for a rescheduled appointment.",
		action:  actionNone,
	},
	notification.TypeFeedback: {
		heading:   "We Value Your Feedback - Barbershop",
		lead:      "Your appointment has passed. We would love to hear your feedback on the service provided. Please consider leaving a review:",
		closing:   "Thank you for choosing our service!",
		action:    actionReviews,
		pushTitle: "Appointment Feedback Request",
		pushBody:  "Your appointment on %s has passed. We would love to hear your feedback on the service provided. Please consider leaving a review.",
	},
}

func init() {
	types := notification.Types()
	if len(copies) != len(types) {
		panic(fmt.Sprintf("notifier: %d copy entries for %d notification types", len(copies), len(types)))
	}
	for _, t := range types {
		c := copies[t]
		if c.heading == "" || c.lead == "" || c.closing == "" {
			panic("notifier: missing copy for notification type " + t.String())
		}
	}
}

var emailTmpl = template.Must(template.New("email").Parse(`<div style="font-family: Arial, sans-serif; color: #333;">
  <h2>{{.Heading}}</h2>
  <p>Dear {{.FirstName}} {{.LastName}},</p>
  <p>{{.Lead}}</p>
  <ul>
    <li><strong>Date &amp; Time:</strong> {{.When}}</li>
    <li><strong>Barber:</strong> {{.Barber}}</li>
    <li><strong>Service:</strong> {{.Service}}</li>
    <li><strong>Contact Number:</strong> {{.Contact}}</li>
  </ul>
{{- if .ActionURL}}
  <a href="{{.ActionURL}}" style="display: inline-block; padding: 10px 20px; background-color: #AF8447; color: #fff; text-decoration: none;">{{.ActionText}}</a>
{{- end}}
  <p>{{.Closing}}</p>
</div>
`))

type emailView struct {
	Heading    string
	FirstName  string
	LastName   string
	Lead       string
	When       string
	Barber     string
	Service    string
	Contact    string
	ActionURL  string
	ActionText string
	Closing    string
}

type RenderConfig struct {
	AppointmentsURL string
	ReviewsURL      string
	Icon            string
	Location        *time.Location
}

// Renderer builds channel content for a transition. It holds no mutable state
// and is safe for concurrent use.
type Renderer struct {
	cfg RenderConfig
}

func NewRenderer(cfg RenderConfig) *Renderer {
	if cfg.Icon == "" {
		cfg.Icon = defaultIcon
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Renderer{cfg: cfg}
}

func (r *Renderer) Render(t notification.Type, a *appointment.Appointment, b *appointment.Barber, s *appointment.Service) (*notification.Content, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("render: %w: %s", notification.ErrUnknownType, t)
	}
	if a == nil || b == nil || s == nil {
		return nil, fmt.Errorf("render %s: appointment, barber and service are required", t)
	}

	c := copies[t]
	name := t.String()
	when := a.At.In(r.cfg.Location).Format(dateLayout)

	view := emailView{
		Heading:   c.heading,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Lead:      c.lead,
		When:      when,
		Barber:    b.FullName(),
		Service:   s.Title,
		Contact:   a.ContactNumber,
		Closing:   c.closing,
	}
	switch c.action {
	case actionAppointments:
		view.ActionURL, view.ActionText = r.cfg.AppointmentsURL, "View Appointments"
	case actionReviews:
		view.ActionURL, view.ActionText = r.cfg.ReviewsURL, "Leave a Review"
	}

	var html bytes.Buffer
	if err := emailTmpl.Execute(&html, view); err != nil {
		return nil, fmt.Errorf("render %s email: %w", name, err)
	}

	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("render %s push data: %w", name, err)
	}

	title := "Appointment " + name
	body := fmt.Sprintf("Your appointment on %s has been %s.", when, name)
	if c.pushTitle != "" {
		title = c.pushTitle
		body = fmt.Sprintf(c.pushBody, when)
	}

	return &notification.Content{
		Type: t,
		Email: notification.EmailContent{
			Subject: "Appointment " + strings.ToUpper(name[:1]) + name[1:],
			HTML:    html.String(),
		},
		Push: notification.PushContent{
			Title: title,
			Body:  body,
			Icon:  r.cfg.Icon,
			Data:  data,
		},
	}, nil
}
