package service

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yirikai/yirikai/internal/ai"
	"github.com/yirikai/yirikai/internal/model"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

func TestCanRead(t *testing.T) {
	owner := uuid.NewString()
	other := uuid.NewString()
	private := &model.Document{UserID: owner, Visibility: model.DocumentVisibilityPrivate}
	pending := &model.Document{UserID: owner, Visibility: model.DocumentVisibilityPublic}
	public := &model.Document{UserID: owner, Visibility: model.DocumentVisibilityPublic, IsApproved: true}
	orphan := &model.Document{Visibility: model.DocumentVisibilityPrivate}
	admin := &model.UserProfile{UserID: other, Role: model.RoleAdmin}
	teacher := &model.UserProfile{UserID: other, Role: model.RoleTeacher}

	tests := []struct {
		name    string
		doc     *model.Document
		userID  string
		profile *model.UserProfile
		want    bool
	}{
		{name: "owner", doc: private, userID: owner, want: true},
		{name: "stranger on private", doc: private, userID: other, want: false},
		{name: "public but not approved", doc: pending, userID: other, want: false},
		{name: "public and approved", doc: public, userID: other, want: true},
		{name: "admin", doc: private, userID: other, profile: admin, want: true},
		{name: "teacher is not admin", doc: private, userID: other, profile: teacher, want: false},
		{name: "document without owner", doc: orphan, userID: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, canRead(tt.doc, tt.userID, tt.profile))
		})
	}
}

func TestParseDocumentIDs(t *testing.T) {
	a, b := uuid.NewString(), uuid.NewString()

	ids, err := parseDocumentIDs([]string{strings.ToUpper(a), " " + b}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, []string{a, b}, ids)

	_, err = parseDocumentIDs(nil, 1, 10)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = parseDocumentIDs([]string{a}, MinSessionDocuments, MaxChatDocuments)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = parseDocumentIDs([]string{a, a}, 1, 10)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = parseDocumentIDs([]string{a, "not-a-uuid"}, 1, 10)
	require.ErrorIs(t, err, appErr.ErrInvalid)

	many := make([]string, MaxChatDocuments+1)
	for i := range many {
		many[i] = uuid.NewString()
	}
	_, err = parseDocumentIDs(many, 1, MaxChatDocuments)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = parseDocumentIDs(many[:MaxChatDocuments], 1, MaxChatDocuments)
	require.NoError(t, err)
}

func TestValidateTitle(t *testing.T) {
	title, err := validateTitle("  Exam prep ")
	require.NoError(t, err)
	require.Equal(t, "Exam prep", title)

	_, err = validateTitle("   ")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = validateTitle(strings.Repeat("ş", maxSessionTitle))
	require.NoError(t, err)
	_, err = validateTitle(strings.Repeat("ş", maxSessionTitle+1))
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestToHistory(t *testing.T) {
	msgs := []model.ChatMessage{
		{Sender: model.SenderUser, Message: "q1"},
		{Sender: model.SenderAI, Message: "a1"},
	}
	require.Equal(t, []ai.Message{
		{Role: ai.RoleUser, Content: "q1"},
		{Role: ai.RoleAssistant, Content: "a1"},
	}, toHistory(msgs))

	long := make([]model.ChatMessage, maxHistoryLoad+5)
	for i := range long {
		long[i] = model.ChatMessage{Sender: model.SenderUser, Message: strings.Repeat("x", i+1)}
	}
	got := toHistory(long)
	require.Len(t, got, maxHistoryLoad)
	require.Equal(t, strings.Repeat("x", 6), got[0].Content)
}
