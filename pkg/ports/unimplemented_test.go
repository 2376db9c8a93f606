package ports_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/ports"
	"github.com/stretchr/testify/assert"
)

func TestUnimplementedStore_FailsFast(t *testing.T) {
	var store ports.CheckpointStore = ports.UnimplementedStore{Backend: "s3"}
	ctx := context.Background()

	err := store.Save(ctx, "run", &domain.Checkpoint{})
	var nie *domain.NotImplementedError
	assert.True(t, errors.As(err, &nie))
	assert.Equal(t, "s3", nie.Backend)
	assert.Equal(t, "save", nie.Op)

	cp, err := store.Load(ctx, "run")
	assert.Nil(t, cp)
	assert.ErrorAs(t, err, &nie)
	assert.False(t, errors.Is(err, domain.ErrCheckpointNotFound))

	assert.ErrorAs(t, store.Delete(ctx, "run"), &nie)
}
