package user

import (
	"net/url"
	"strings"
	"time"
)

type User struct {
	ID                        int64             `json:"id"`
	Email                     string            `json:"email"`
	FirstName                 string            `json:"first_name"`
	LastName                  string            `json:"last_name"`
	EmailNotificationsEnabled bool              `json:"email_notifications_enabled"`
	PushNotificationsEnabled  bool              `json:"push_notifications_enabled"`
	PushSubscription          *PushSubscription `json:"push_subscription,omitempty"`
	CreatedAt                 time.Time         `json:"created_at"`
	UpdatedAt                 time.Time         `json:"updated_at"`
}

// PushSubscription is either a browser Web Push subscription or an FCM
// registration token, whichever the client registered.
type PushSubscription struct {
	Endpoint string   `json:"endpoint,omitempty"`
	Keys     PushKeys `json:"keys"`
	Token    string   `json:"token,omitempty"`
}

type PushKeys struct {
	P256dh string `json:"p256dh,omitempty"`
	Auth   string `json:"auth,omitempty"`
}

func (s *PushSubscription) IsWebPush() bool {
	if s == nil || s.Endpoint == "" {
		return false
	}
	u, err := url.Parse(s.Endpoint)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return false
	}
	return s.Keys.P256dh != "" && s.Keys.Auth != ""
}

func (s *PushSubscription) IsFCM() bool {
	return s != nil && strings.TrimSpace(s.Token) != ""
}

func (s *PushSubscription) Valid() bool {
	return s.IsWebPush() || s.IsFCM()
}
