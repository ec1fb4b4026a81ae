package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeWaitlistNotify = "waitlist:notify"
	TypeWaitlistExpire = "waitlist:expire"
)

// AsynqDispatcher enfileira o aviso; entrar na fila conta como aceito.
type AsynqDispatcher struct {
	client *asynq.Client
	opts   []asynq.Option
}

func NewAsynqDispatcher(client *asynq.Client, opts ...asynq.Option) *AsynqDispatcher {
	if len(opts) == 0 {
		opts = []asynq.Option{asynq.MaxRetry(5), asynq.Queue("default")}
	}
	return &AsynqDispatcher{client: client, opts: opts}
}

func (d *AsynqDispatcher) Send(ctx context.Context, msg SlotOpened) error {
	task, err := NewNotifyTask(msg, d.opts...)
	if err != nil {
		return err
	}
	_, err = d.client.EnqueueContext(ctx, task)
	return err
}

func NewNotifyTask(msg SlotOpened, opts ...asynq.Option) (*asynq.Task, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWaitlistNotify, b, opts...), nil
}

// NotifyHandler processa waitlist:notify no worker. Erro devolve a tarefa
// para retry do asynq.
func NotifyHandler(sender Dispatcher, log *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var msg SlotOpened
		if err := json.Unmarshal(t.Payload(), &msg); err != nil {
			return fmt.Errorf("payload inválido: %v: %w", err, asynq.SkipRetry)
		}

		if err := sender.Send(ctx, msg); err != nil {
			log.Warn("waitlist notification failed",
				zap.Uint("entry_id", msg.EntryID),
				zap.Error(err),
			)
			return err
		}

		log.Info("waitlist notification sent", zap.Uint("entry_id", msg.EntryID))
		return nil
	}
}

func NewExpireTask() *asynq.Task {
	return asynq.NewTask(TypeWaitlistExpire, nil, asynq.MaxRetry(1), asynq.Queue("low"))
}

// ExpireHandler roda a expiração periódica das esperas vencidas.
func ExpireHandler(expire func(context.Context) (int64, error), log *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := expire(ctx)
		if err != nil {
			log.Error("waitlist expiry failed", zap.Error(err))
			return err
		}
		if n > 0 {
			log.Info("waitlist entries expired", zap.Int64("count", n))
		}
		return nil
	}
}
