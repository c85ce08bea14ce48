package model

import "time"

// PushSubscription is a browser endpoint registered for web push.
type PushSubscription struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"-"`
	AuthKey    string    `json:"-"`
	DeviceName string    `json:"deviceName"`
	CreatedAt  time.Time `json:"createdAt"`
}
