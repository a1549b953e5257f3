// Package notify delivers export notifications to logs and subscribers.
package notify

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"coverletter-backend/coverletter/render"
	"coverletter-backend/internal/shared/telemetry"
)

// Log writes every notification to the structured log.
type Log struct{}

func (Log) Notify(_ context.Context, n render.Notification) {
	fields := map[string]any{
		"title":     n.Title,
		"message":   n.Message,
		"user_id":   n.UserID,
		"letter_id": n.LetterID,
		"export_id": n.ExportID,
		"file_name": n.FileName,
	}
	if n.Kind == render.KindError {
		telemetry.Warn("export.notification", fields)
		return
	}
	telemetry.Info("export.notification", fields)
}

// Redis publishes notifications as JSON on a pub/sub channel.
type Redis struct {
	rdb     goredis.Cmdable
	channel string
	timeout time.Duration
}

func NewRedis(rdb goredis.Cmdable, channel string) *Redis {
	return &Redis{rdb: rdb, channel: channel, timeout: 2 * time.Second}
}

// Notify publishes n. Delivery is best effort; failures are logged.
func (r *Redis) Notify(ctx context.Context, n render.Notification) {
	raw, err := json.Marshal(n)
	if err != nil {
		telemetry.Error("export.notification.encode_failed", map[string]any{"export_id": n.ExportID, "error": err})
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.rdb.Publish(pubCtx, r.channel, raw).Err(); err != nil {
		telemetry.Error("export.notification.publish_failed", map[string]any{
			"export_id": n.ExportID,
			"channel":   r.channel,
			"error":     err,
		})
	}
}

// Fanout forwards each notification to every notifier in order.
type Fanout []render.Notifier

func (f Fanout) Notify(ctx context.Context, n render.Notification) {
	for _, notifier := range f {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

var (
	_ render.Notifier = Log{}
	_ render.Notifier = (*Redis)(nil)
	_ render.Notifier = Fanout(nil)
)
