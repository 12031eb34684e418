package service

import (
	"context"
	"fmt"

	"github.com/yirikai/yirikai/internal/model"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
	"github.com/yirikai/yirikai/internal/repo"
)

// canRead reports whether userID may chat with doc: the owner, anyone for a
// public approved document, and admins.
func canRead(doc *model.Document, userID string, profile *model.UserProfile) bool {
	if doc.UserID != "" && doc.UserID == userID {
		return true
	}
	if doc.Visibility == model.DocumentVisibilityPublic && doc.IsApproved {
		return true
	}
	return profile.IsAdmin()
}

type accessChecker struct {
	docs     *repo.DocumentRepo
	profiles *repo.UserProfileRepo
}

func (a *accessChecker) profile(ctx context.Context, userID string) (*model.UserProfile, error) {
	p, err := a.profiles.Get(ctx, userID)
	if appErr.IsNotFound(err) {
		return nil, nil
	}
	return p, err
}

// readableDocuments loads docIDs in order and fails on the first one that is
// missing or not readable by userID.
func (a *accessChecker) readableDocuments(ctx context.Context, userID string, docIDs []string) ([]model.Document, error) {
	docs, err := a.docs.ListByIDs(ctx, docIDs)
	if err != nil {
		return nil, err
	}
	found := make(map[string]model.Document, len(docs))
	for _, d := range docs {
		found[d.ID] = d
	}
	profile, err := a.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Document, 0, len(docIDs))
	for _, id := range docIDs {
		doc, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("document %s: %w", id, appErr.ErrNotFound)
		}
		if !canRead(&doc, userID, profile) {
			return nil, fmt.Errorf("document %s: %w", id, appErr.ErrForbidden)
		}
		out = append(out, doc)
	}
	return out, nil
}
