package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". A nil error yields an empty attribute,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func OwnerID(id string) slog.Attr { return slog.String("owner_id", id) }

func IdeaID(id string) slog.Attr { return slog.String("idea_id", id) }

func Plan(name string) slog.Attr { return slog.String("plan", name) }

func RequestID(id string) slog.Attr { return slog.String("request_id", id) }

func Component(name string) slog.Attr { return slog.String("component", name) }

// Event names what happened, e.g. "idea_created".
func Event(name string) slog.Attr { return slog.String("event", name) }

// EventType is the payment gateway's event kind.
func EventType(kind string) slog.Attr { return slog.String("event_type", kind) }

// EventID is the payment gateway's event identifier.
func EventID(id string) slog.Attr { return slog.String("event_id", id) }

func Duration(d time.Duration) slog.Attr { return slog.Duration("duration", d) }
