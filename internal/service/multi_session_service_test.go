package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yirikai/yirikai/internal/chatctx"
	"github.com/yirikai/yirikai/internal/model"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

func TestMultiSessionLifecycle(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	user := uuid.NewString()
	a := f.document(t, user, "Alpha", model.DocumentVisibilityPrivate, false, "alpha body")
	b := f.document(t, user, "Beta", model.DocumentVisibilityPrivate, false, "beta body")

	created, err := f.multi.Create(ctx, user, " Finals ", []string{a, b})
	require.NoError(t, err)
	require.Equal(t, "Finals", created.Title)
	require.Equal(t, 2, created.DocumentCount)

	reply, err := f.multi.SendMessage(ctx, user, created.ID, "summarise", "")
	require.NoError(t, err)
	require.Equal(t, created.ID, reply.SessionID)
	require.Equal(t, chatctx.ModeFull, reply.ContextMode)
	require.Equal(t, 1, reply.QueryLimit.Used)
	require.True(t, strings.HasPrefix(f.provider.last.Messages[0].Content, "SOURCE MATERIALS:\n\n[SOURCE: Alpha]"))

	list, err := f.multi.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 2, list[0].MessageCount)
	require.Equal(t, "Alpha", list[0].Documents[0].Title)

	got, err := f.multi.Get(ctx, user, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	require.Equal(t, model.SenderUser, got.Messages[0].Sender)
	require.Equal(t, model.SenderAI, got.Messages[1].Sender)

	renamed, err := f.multi.Rename(ctx, user, created.ID, "Midterms")
	require.NoError(t, err)
	require.Equal(t, "Midterms", renamed.Title)

	other := uuid.NewString()
	_, err = f.multi.Get(ctx, other, created.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = f.multi.Rename(ctx, other, created.ID, "x")
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.ErrorIs(t, f.multi.Delete(ctx, other, created.ID), appErr.ErrNotFound)
	_, err = f.multi.SendMessage(ctx, other, created.ID, "q", "")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.NoError(t, f.multi.Delete(ctx, user, created.ID))
	_, err = f.multi.Get(ctx, user, created.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestMultiSessionCreateValidation(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	user := uuid.NewString()
	a := f.document(t, user, "Alpha", model.DocumentVisibilityPrivate, false, "x")
	foreign := f.document(t, uuid.NewString(), "Foreign", model.DocumentVisibilityPrivate, false, "y")

	_, err := f.multi.Create(ctx, user, "t", []string{a})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = f.multi.Create(ctx, user, "", []string{a, foreign})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = f.multi.Create(ctx, user, "t", []string{a, foreign})
	require.ErrorIs(t, err, appErr.ErrForbidden)
	_, err = f.multi.Create(ctx, user, "t", []string{a, uuid.NewString()})
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
