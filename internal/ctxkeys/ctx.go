package ctxkeys

import (
	"context"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	DeviceKey contextKey = "device"
)

// Device returns the device name of the authenticated API client, or "".
func Device(ctx context.Context) string {
	device, _ := ctx.Value(DeviceKey).(string)
	return device
}

func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, DeviceKey, device)
}
