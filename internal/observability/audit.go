package observability

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const auditEventVersion = 1

// AuditInput describes a security-relevant account action.
type AuditInput struct {
	EventName   string
	ActorUserID string
	TargetID    string
	Outcome     string
	Reason      string
}

type AuditEvent struct {
	EventVersion int
	EventName    string
	ActorUserID  string
	ActorIP      string
	TargetID     string
	Outcome      string
	Reason       string
	RequestID    string
	Method       string
	Path         string
	TS           string
}

func BuildAuditEvent(r *http.Request, in AuditInput) AuditEvent {
	requestID := chimiddleware.GetReqID(r.Context())
	if requestID == "" {
		requestID = r.Header.Get("X-Request-Id")
	}
	return AuditEvent{
		EventVersion: auditEventVersion,
		EventName:    in.EventName,
		ActorUserID:  in.ActorUserID,
		ActorIP:      clientIP(r),
		TargetID:     in.TargetID,
		Outcome:      in.Outcome,
		Reason:       in.Reason,
		RequestID:    requestID,
		Method:       r.Method,
		Path:         r.URL.Path,
		TS:           time.Now().UTC().Format(time.RFC3339),
	}
}

func (e AuditEvent) Validate() error {
	var errs []error
	if e.EventName == "" {
		errs = append(errs, errors.New("event_name is required"))
	}
	if e.Outcome == "" {
		errs = append(errs, errors.New("outcome is required"))
	}
	if e.TS == "" {
		errs = append(errs, errors.New("ts is required"))
	}
	return errors.Join(errs...)
}

// EmitAudit logs the event at info level. Invalid events are logged as warnings.
func EmitAudit(r *http.Request, in AuditInput) {
	ev := BuildAuditEvent(r, in)
	attrs := []any{
		"event_version", ev.EventVersion,
		"event", ev.EventName,
		"actor_user_id", ev.ActorUserID,
		"actor_ip", ev.ActorIP,
		"target_id", ev.TargetID,
		"outcome", ev.Outcome,
		"reason", ev.Reason,
		"request_id", ev.RequestID,
		"method", ev.Method,
		"path", ev.Path,
		"ts", ev.TS,
	}
	if err := ev.Validate(); err != nil {
		slog.WarnContext(r.Context(), "invalid audit event", append(attrs, "error", err.Error())...)
		return
	}
	slog.InfoContext(r.Context(), "audit", attrs...)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
