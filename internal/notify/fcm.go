// Package notify is the device-alert consumer: it listens to the two core
// events (new patient, emergency toggle) and turns them into FCM pushes.
// Alert severity is decided here, not in the core.
package notify

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"

	"triage-backend/internal/models"
)

// FCM pushes alerts to a topic every department phone subscribes to.
// With no credentials configured it stays silent, so the board runs fine
// on a box without firebase access.
type FCM struct {
	client *messaging.Client
	topic  string
}

// NewFCM wires up firebase messaging. An empty credentials path disables
// pushes without failing the boot.
func NewFCM(credentialsFile, topic string) *FCM {
	f := &FCM{topic: topic}
	if credentialsFile == "" {
		log.Println("notify: FCM credentials not configured, pushes disabled")
		return f
	}

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		log.Printf("notify: firebase init failed, pushes disabled: %v", err)
		return f
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("notify: messaging client failed, pushes disabled: %v", err)
		return f
	}

	f.client = client
	log.Println("notify: FCM ready")
	return f
}

// NewPatient implements triage.Notifier.
func (f *FCM) NewPatient(p models.Patient, queueSize int) {
	severity := "normal"
	if Escalate(p.Level, queueSize) {
		severity = "high"
	}

	f.push(
		"New patient in triage",
		fmt.Sprintf("%s (%s), %d waiting", p.Name, p.Level, queueSize),
		map[string]string{"severity": severity, "level": string(p.Level)},
	)
}

// Emergency implements triage.Notifier.
func (f *FCM) Emergency(active bool) {
	if !active {
		f.push("Emergency cleared", "Department back to normal operation", map[string]string{"severity": "normal"})
		return
	}
	f.push("EMERGENCY", "Emergency protocol activated", map[string]string{"severity": "high"})
}

// Escalate is the severity policy: the two most critical colours always
// escalate, and so does the first arrival onto an empty board (staff may
// be away from the screens).
func Escalate(level models.TriageLevel, queueSize int) bool {
	return level.Critical() || queueSize == 1
}

// push sends in the background; the core loop must never wait on the
// network.
func (f *FCM) push(title, body string, data map[string]string) {
	if f.client == nil {
		return
	}

	msg := &messaging.Message{
		Topic: f.topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	go func() {
		if _, err := f.client.Send(context.Background(), msg); err != nil {
			log.Printf("notify: push failed: %v", err)
		}
	}()
}
