package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". A nil error yields an empty Attr, which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the emitting package or subsystem.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// AccountID records the account identifier. Nil ids yield an empty Attr.
func AccountID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("account_id", id)
}

func FormID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("form_id", id)
}

func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// EventID records an externally assigned webhook event id.
func EventID(id string) slog.Attr {
	return slog.String("event_id", id)
}

func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

func Tier(name string) slog.Attr {
	return slog.String("tier", name)
}

// Resource records a rate limited or quota-capped resource name.
func Resource(name string) slog.Attr {
	return slog.String("resource", name)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
