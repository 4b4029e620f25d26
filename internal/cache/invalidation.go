package cache

import (
	"strings"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultInvalidationSubject is where peers broadcast cache invalidations.
const DefaultInvalidationSubject = "cache.invalidate"

// SubscribeInvalidation wires key-level invalidation of mem to a NATS
// subject: each message body names a key to drop; an empty body or "ALL"
// clears everything. Returns the subscription so callers can drain it on
// shutdown.
func SubscribeInvalidation(nc *nats.Conn, subj string, mem *Memory, log *zap.Logger) (*nats.Subscription, error) {
	if subj == "" {
		subj = DefaultInvalidationSubject
	}
	sub, err := nc.Subscribe(subj, invalidationHandler(mem))
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Info("cache invalidation subscribed", zap.String("subject", subj))
	}
	return sub, nil
}

func invalidationHandler(mem *Memory) nats.MsgHandler {
	return func(m *nats.Msg) {
		key := strings.TrimSpace(string(m.Data))
		if key == "" || strings.EqualFold(key, "ALL") {
			mem.Clear()
			return
		}
		mem.Invalidate(key)
	}
}
