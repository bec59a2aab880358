package outbox

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

// Emitter кладёт доменные события в outbox. Ошибки записи логируются и не
// прерывают бизнес-операцию: outbox вторичен по отношению к сущностям.
type Emitter struct {
	repo   domain.OutboxRepository
	logger *log.Entry
	now    func() time.Time
}

// NewEmitter создаёт эмиттер; nil-репозиторий отключает публикацию.
func NewEmitter(repo domain.OutboxRepository, logger *log.Entry) *Emitter {
	if logger == nil {
		logger = log.WithField("component", "outbox-emitter")
	}
	return &Emitter{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Emit сериализует payload и ставит событие в очередь outbox.
func (e *Emitter) Emit(ctx context.Context, aggregateType string, aggregateID int64, eventType string, payload map[string]any) {
	if e == nil || e.repo == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]any)
	}
	id := strconv.FormatInt(aggregateID, 10)
	payload[aggregateType+"_id"] = aggregateID
	if _, ok := payload["ts"]; !ok {
		payload["ts"] = e.now().Format(time.RFC3339Nano)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"aggregate_id": id,
			"event":        eventType,
		}).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   id,
		EventType:     eventType,
		Payload:       data,
	}
	if _, err := e.repo.Enqueue(ctx, msg); err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"aggregate_id": id,
			"event":        eventType,
		}).Error("enqueue event failed")
	}
}
