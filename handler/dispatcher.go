package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"host-bot/gate"
)

// Action is one of the three browser controls a user can trigger.
type Action string

const (
	ActionSkip    Action = "skip"
	ActionRefresh Action = "refresh"
	ActionReport  Action = "report"
)

// ParseAction accepts the bare command name, case-insensitive.
func ParseAction(name string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(name))); a {
	case ActionSkip, ActionRefresh, ActionReport:
		return a, true
	}
	return "", false
}

// Executor is the browser side of a dispatched command.
type Executor interface {
	Skip(ctx context.Context) error
	Refresh(ctx context.Context) error
	Report(ctx context.Context) error
}

// Responder is how the dispatcher talks back to whoever sent a request,
// regardless of whether it came from a text command or a button.
type Responder interface {
	// Reply is visible only to the requester, or disappears after ttl where
	// private messages are not available.
	Reply(msg string, ttl time.Duration) error
	// Announce is public and removed after ttl.
	Announce(msg string, ttl time.Duration) error
}

// Request is an inbound command normalized at the Discord boundary.
type Request struct {
	ID          string
	UserID      string
	DisplayName string
	Action      Action
	Presence    gate.Presence
	Responder   Responder
}

const (
	denyTTL     = 5 * time.Second
	cooldownTTL = 3 * time.Second
	announceTTL = 5 * time.Second
	resultTTL   = 5 * time.Second
)

// Dispatcher runs a Request through the access gate and the cooldown and
// then hands it to the Executor.
type Dispatcher struct {
	exec           Executor
	cooldown       *gate.Cooldown
	streamingVCID  string
	prefix         string
	reportFeedback bool
	log            *zap.Logger
	now            func() time.Time
}

type DispatcherConfig struct {
	StreamingVCID  string
	Prefix         string
	ReportFeedback bool
}

func NewDispatcher(exec Executor, cooldown *gate.Cooldown, cfg DispatcherConfig, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		exec:           exec,
		cooldown:       cooldown,
		streamingVCID:  cfg.StreamingVCID,
		prefix:         cfg.Prefix,
		reportFeedback: cfg.ReportFeedback,
		log:            log,
		now:            time.Now,
	}
}

// Dispatch never returns an error: every failure is either reported to the
// requester or logged.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) {
	log := d.log.With(
		zap.String("request_id", req.ID),
		zap.String("user_id", req.UserID),
		zap.String("action", string(req.Action)),
	)

	// 1. Access gate
	switch decision := gate.CheckAccess(d.streamingVCID, req.Presence); decision {
	case gate.Allowed:
	case gate.DeniedWrongChannel:
		log.Debug("Access denied", zap.Stringer("reason", decision))
		d.reply(log, req, fmt.Sprintf("⛔ You must be in <#%s> to use this.", d.streamingVCID), denyTTL)
		return
	default:
		log.Debug("Access denied", zap.Stringer("reason", decision))
		d.reply(log, req, "⛔ You must have your **Camera ON** to use this.", denyTTL)
		return
	}

	// 2. Cooldown
	if ok, remaining := d.cooldown.TryAccept(d.now()); !ok {
		log.Debug("Cooldown active", zap.Duration("remaining", remaining))
		d.reply(log, req, fmt.Sprintf("⏳ Cooldown: Wait %.1fs.", remaining.Seconds()), cooldownTTL)
		return
	}

	// 3. Acknowledge
	if err := req.Responder.Announce(fmt.Sprintf("**%s** used `%s%s`", req.DisplayName, d.prefix, req.Action), announceTTL); err != nil {
		log.Warn("Error announcing command", zap.Error(err))
	}

	// 4. Execute
	log.Info("Command accepted")
	err := d.execute(ctx, req.Action)
	if err != nil {
		log.Error("Automation failed", zap.Error(err))
	}

	// 5. Report result
	if req.Action == ActionReport && d.reportFeedback {
		msg := "✅ Reported."
		if err != nil {
			msg = "❌ Report failed."
		}
		d.reply(log, req, msg, resultTTL)
	}
}

func (d *Dispatcher) execute(ctx context.Context, action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", action, r)
		}
	}()

	switch action {
	case ActionSkip:
		return d.exec.Skip(ctx)
	case ActionRefresh:
		return d.exec.Refresh(ctx)
	case ActionReport:
		return d.exec.Report(ctx)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func (d *Dispatcher) reply(log *zap.Logger, req Request, msg string, ttl time.Duration) {
	if err := req.Responder.Reply(msg, ttl); err != nil {
		log.Warn("Error replying to requester", zap.Error(err))
	}
}
