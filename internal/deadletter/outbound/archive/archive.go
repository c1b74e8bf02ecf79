package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/shandysiswandi/onboarding/internal/deadletter/entity"
	"github.com/shandysiswandi/onboarding/internal/pkg/goerror"
	"github.com/shandysiswandi/onboarding/internal/pkg/instrument"
	"github.com/shandysiswandi/onboarding/internal/pkg/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Archive stores envelopes as JSON objects.
type Archive struct {
	store storage.Storage
	ins   instrument.Instrumentation
}

func New(store storage.Storage, ins instrument.Instrumentation) *Archive {
	return &Archive{store: store, ins: ins}
}

func (a *Archive) startSpan(ctx context.Context, name, key string) (context.Context, trace.Span) {
	return a.ins.Tracer("deadletter.outbound.archive").Start(ctx, name,
		trace.WithAttributes(attribute.String("storage.key", key)))
}

func (a *Archive) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (a *Archive) Save(ctx context.Context, key string, env entity.Envelope) (err error) {
	ctx, span := a.startSpan(ctx, "Save", key)
	defer func() { a.endSpan(span, err) }()

	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}

	_, err = a.store.Put(ctx, key, bytes.NewReader(raw), storage.PutOptions{
		Size:        int64(len(raw)),
		ContentType: "application/json",
		Metadata: map[string]string{
			"original-topic": env.OriginalTopic,
			"envelope-id":    env.EnvelopeID,
			"retry-count":    strconv.Itoa(env.RetryCount),
		},
	})
	return err
}

func (a *Archive) Load(ctx context.Context, key string) (env *entity.Envelope, err error) {
	ctx, span := a.startSpan(ctx, "Load", key)
	defer func() { a.endSpan(span, err) }()

	rc, _, err := a.store.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		err = goerror.ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	env = &entity.Envelope{}
	if err = json.NewDecoder(rc).Decode(env); err != nil {
		return nil, err
	}

	return env, nil
}

func (a *Archive) List(ctx context.Context, prefix string, limit int32, token string) (items []entity.ArchivedItem, next string, err error) {
	ctx, span := a.startSpan(ctx, "List", prefix)
	defer func() { a.endSpan(span, err) }()

	page, err := a.store.List(ctx, prefix, storage.ListOptions{Limit: limit, Token: token})
	if err != nil {
		return nil, "", err
	}

	items = make([]entity.ArchivedItem, 0, len(page.Objects))
	for _, obj := range page.Objects {
		items = append(items, entity.ArchivedItem{Key: obj.Key, Size: obj.Size, UpdatedAt: obj.UpdatedAt})
	}

	return items, page.NextToken, nil
}

func (a *Archive) Delete(ctx context.Context, key string) (err error) {
	ctx, span := a.startSpan(ctx, "Delete", key)
	defer func() { a.endSpan(span, err) }()

	err = a.store.Delete(ctx, key)
	return err
}
