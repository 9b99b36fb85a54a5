//go:build integration

package integration

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

type lifecycleEvent struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	AppointmentID int64     `json:"appointment_id"`
	Status        string    `json:"status"`
	At            time.Time `json:"at"`
}

func seedBooking(t *testing.T, cfg Cfg, status string, at time.Time) (userID, apptID int64) {
	t.Helper()
	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	userID = RandID()
	barberID := userID + 1
	serviceID := RandID()
	apptID = RandID()

	SeedUser(t, db, userID, fmt.Sprintf("n-%d@example.com", userID), "Jane", "Doe", SeedUserOpts{Email: true})
	SeedUser(t, db, barberID, fmt.Sprintf("b-%d@example.com", barberID), "Sam", "Cutter", SeedUserOpts{})
	SeedService(t, db, serviceID, "Beard Trim")
	SeedAppointment(t, db, SeedAppt{
		ID: apptID, CustomerID: userID, BarberID: barberID, ServiceID: serviceID,
		FirstName: "Jane", LastName: "Doe", Contact: "555-0100",
		At: at, Status: status,
	})
	return userID, apptID
}

func subjectOf(r MHResp, i int) string {
	if v, ok := r.Items[i].Content.Headers["Subject"]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}

func TestNotifier_Created_SendsConfirmation(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.NotifierHealth, 90*time.Second)
	MailhogPurge(t, cfg.MailhogAPI)
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.LifecycleTopic)

	userID, apptID := seedBooking(t, cfg, "Scheduled", time.Now().Add(48*time.Hour).UTC())

	PublishJSON(t, cfg.KafkaBootstrap, cfg.LifecycleTopic, KeyFromInt64(apptID), lifecycleEvent{
		ID: fmt.Sprintf("it-%d", apptID), Kind: "created", AppointmentID: apptID, Status: "Scheduled", At: time.Now().UTC(),
	})

	rep := WaitMailhogCount(t, cfg.MailhogAPI, 1, 25*time.Second)
	if len(rep.Items) == 0 {
		t.Fatalf("no mail")
	}
	if subj := subjectOf(rep, 0); subj != "Appointment Confirmation" {
		t.Fatalf("bad subject: %q", subj)
	}
	body := rep.Items[0].Content.Body
	if !strings.Contains(body, "Beard Trim") || !strings.Contains(body, "View Appointments") {
		t.Fatalf("bad body: %q", body)
	}

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()
	got := WaitNotifications(t, db, userID, apptID, 1, 10*time.Second)
	if len(got) != 1 || got[0].Channel != "email" || got[0].Type != "confirmation" || !got[0].Succeeded {
		t.Fatalf("unexpected history: %+v", got)
	}
}

func TestNotifier_Cancelled_NoCallToAction(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.NotifierHealth, 90*time.Second)
	MailhogPurge(t, cfg.MailhogAPI)
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.LifecycleTopic)

	_, apptID := seedBooking(t, cfg, "Cancelled", time.Now().Add(24*time.Hour).UTC())

	PublishJSON(t, cfg.KafkaBootstrap, cfg.LifecycleTopic, KeyFromInt64(apptID), lifecycleEvent{
		ID: fmt.Sprintf("it-c-%d", apptID), Kind: "updated", AppointmentID: apptID, Status: "Cancelled", At: time.Now().UTC(),
	})

	rep := WaitMailhogCount(t, cfg.MailhogAPI, 1, 25*time.Second)
	if len(rep.Items) == 0 {
		t.Fatalf("no mail")
	}
	if subj := subjectOf(rep, 0); subj != "Appointment Cancellation" {
		t.Fatalf("bad subject: %q", subj)
	}
	if body := rep.Items[0].Content.Body; strings.Contains(body, "View Appointments") {
		t.Fatalf("cancellation must not link to appointments: %q", body)
	}
}

func TestNotifier_InvalidEvent_Ignored(t *testing.T) {
	cfg := LoadCfg()
	MailhogPurge(t, cfg.MailhogAPI)
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.LifecycleTopic)

	PublishJSON(t, cfg.KafkaBootstrap, cfg.LifecycleTopic, []byte("0"), lifecycleEvent{
		ID: "it-bad", Kind: "deleted", AppointmentID: 0, Status: "Scheduled",
	})
	ExpectNoMailhog(t, cfg.MailhogAPI, 6*time.Second)
}
