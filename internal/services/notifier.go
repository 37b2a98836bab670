package services

import (
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

// Notifier delivers push notifications to a device token.
type Notifier interface {
	Notify(deviceToken, title, body string) error
}

// APNSNotifier is the Apple Push Notification service notifier.
type APNSNotifier struct {
	client *apns2.Client
	topic  string
}

// NewAPNSNotifier loads the p12 certificate and creates an APNs client.
func NewAPNSNotifier(certPath, certPassword, topic string, production bool) (*APNSNotifier, error) {
	cert, err := certificate.FromP12File(certPath, certPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs certificate: %w", err)
	}
	client := apns2.NewClient(cert)
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}
	return &APNSNotifier{client: client, topic: topic}, nil
}

// Notify pushes an alert notification to the device.
func (n *APNSNotifier) Notify(deviceToken, title, body string) error {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       n.topic,
		Payload:     payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default"),
	}
	res, err := n.client.Push(notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push rejected: %s", res.Reason)
	}
	return nil
}
