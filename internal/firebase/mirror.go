package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/db"

	"inkpost/internal/metrics"
	"inkpost/internal/model"
	"inkpost/internal/repository"
)

// Mirror stores posts in the Realtime Database under a single root node.
type Mirror struct {
	root  *db.Ref
	retry retryPolicy
}

// NewMirror roots the mirror at path (for example "posts").
func NewMirror(client *db.Client, path string, maxAttempts uint) *Mirror {
	return &Mirror{
		root:  client.NewRef(path),
		retry: newRetryPolicy(maxAttempts),
	}
}

// All returns whatever JSON value is stored at the root; nil when empty.
func (m *Mirror) All(ctx context.Context) (interface{}, error) {
	var v interface{}
	err := m.retry.do(ctx, "all", func() error {
		v = nil
		return m.root.Get(ctx, &v)
	})
	metrics.ObserveMirror("all", err)
	if err != nil {
		return nil, fmt.Errorf("mirror read %s: %w", m.root.Path, err)
	}
	return v, nil
}

// Push is not retried: a timed-out push may still have created a child.
func (m *Mirror) Push(ctx context.Context, record model.MirrorRecord) (string, error) {
	ref, err := m.root.Push(ctx, record)
	metrics.ObserveMirror("push", err)
	if err != nil {
		return "", fmt.Errorf("mirror push: %w", err)
	}
	return ref.Key, nil
}

// Get returns the record under key. Other clients may write non-object
// values; those come back wrapped as {"value": v}.
func (m *Mirror) Get(ctx context.Context, key string) (model.MirrorRecord, error) {
	var raw interface{}
	err := m.retry.do(ctx, "get", func() error {
		raw = nil
		return m.root.Child(key).Get(ctx, &raw)
	})
	metrics.ObserveMirror("get", err)
	if err != nil {
		return nil, fmt.Errorf("mirror get %s: %w", key, err)
	}

	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		if len(v) == 0 {
			return nil, nil
		}
		return model.MirrorRecord(v), nil
	default:
		return model.MirrorRecord{"value": v}, nil
	}
}

func (m *Mirror) Update(ctx context.Context, key string, fields map[string]interface{}) error {
	err := m.retry.do(ctx, "update", func() error {
		return m.root.Child(key).Update(ctx, fields)
	})
	metrics.ObserveMirror("update", err)
	if err != nil {
		return fmt.Errorf("mirror update %s: %w", key, err)
	}
	return nil
}

func (m *Mirror) Delete(ctx context.Context, key string) error {
	err := m.retry.do(ctx, "delete", func() error {
		return m.root.Child(key).Delete(ctx)
	})
	metrics.ObserveMirror("delete", err)
	if err != nil {
		return fmt.Errorf("mirror delete %s: %w", key, err)
	}
	return nil
}

var _ repository.PostMirror = (*Mirror)(nil)
