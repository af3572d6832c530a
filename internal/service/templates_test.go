package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qforge/qforge/internal/store"
)

func TestSaveTemplate_ValidatesAndPrunes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		saved, err := svc.SaveTemplate(ctx, store.Template{ID: "add-one", Content: tmpl}, SaveOptions{KeepRevisions: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), saved.Version)
	}

	revs, err := svc.Revisions(ctx, "add-one")
	require.NoError(t, err)
	assert.Len(t, revs, 2)

	list, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "add-one", list[0].ID)
}

func TestSaveTemplate_RejectsInvalid(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SaveTemplate(ctx, store.Template{ID: "bad", Content: "question: [unclosed"}, SaveOptions{})
	var invalid *InvalidTemplateError
	require.True(t, errors.As(err, &invalid))
	assert.False(t, invalid.Result.Valid)
	assert.Contains(t, err.Error(), "invalid template")

	_, err = svc.Template(ctx, "bad")
	assert.ErrorIs(t, err, store.ErrNotFound)

	saved, err := svc.SaveTemplate(ctx, store.Template{ID: "bad", Content: "question: [unclosed"}, SaveOptions{AllowInvalid: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)
}

func TestDeleteTemplate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SaveTemplate(ctx, store.Template{ID: "add-one", Content: tmpl}, SaveOptions{})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTemplate(ctx, "add-one"))
	assert.ErrorIs(t, svc.DeleteTemplate(ctx, "add-one"), store.ErrNotFound)
}

func TestTemplateOpsWithoutStore(t *testing.T) {
	svc := &Service{}
	ctx := context.Background()

	_, err := svc.SaveTemplate(ctx, store.Template{ID: "x"}, SaveOptions{})
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = svc.ListTemplates(ctx)
	assert.ErrorIs(t, err, ErrNoStore)
	assert.ErrorIs(t, svc.DeleteTemplate(ctx, "x"), ErrNoStore)
}
