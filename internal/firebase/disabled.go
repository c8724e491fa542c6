package firebase

import (
	"context"
	"errors"

	"inkpost/internal/model"
	"inkpost/internal/repository"
)

// ErrNotConfigured is returned by the stand-ins used when no Firebase
// credentials are configured.
var ErrNotConfigured = errors.New("firebase is not configured")

// DisabledMirror fails every mirror call. Relational writes still succeed
// and report the mirror failure next to their result.
type DisabledMirror struct{}

var _ repository.PostMirror = DisabledMirror{}

func (DisabledMirror) All(context.Context) (interface{}, error) { return nil, ErrNotConfigured }

func (DisabledMirror) Push(context.Context, model.MirrorRecord) (string, error) {
	return "", ErrNotConfigured
}

func (DisabledMirror) Get(context.Context, string) (model.MirrorRecord, error) {
	return nil, ErrNotConfigured
}

func (DisabledMirror) Update(context.Context, string, map[string]interface{}) error {
	return ErrNotConfigured
}

func (DisabledMirror) Delete(context.Context, string) error { return ErrNotConfigured }

// DisabledMessenger rejects every push.
type DisabledMessenger struct{}

func (DisabledMessenger) Send(context.Context, model.NotificationMessage) (string, error) {
	return "", ErrNotConfigured
}
