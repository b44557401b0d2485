package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"strive-backend-go/internal/models"
)

const groupsCollection = "groups"

type firestoreGroupRepository struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreGroupRepository creates a new group repository.
func NewFirestoreGroupRepository(client *firestore.Client, logger *zap.Logger) GroupRepository {
	if client == nil {
		logger.Fatal("Firestore client is not initialized for GroupRepository.")
	}
	return &firestoreGroupRepository{client: client, logger: logger}
}

// Create stores the group under a new ID, which is also written to the gid field.
func (r *firestoreGroupRepository) Create(ctx context.Context, group *models.Group) (string, error) {
	docRef := r.client.Collection(groupsCollection).NewDoc()
	group.GID = docRef.ID
	if group.Members == nil {
		group.Members = []string{}
	}
	if _, err := docRef.Create(ctx, group); err != nil {
		return "", fmt.Errorf("failed to create group '%s': %w", group.Name, err)
	}
	return docRef.ID, nil
}

func (r *firestoreGroupRepository) GetByID(ctx context.Context, gid string) (*models.Group, error) {
	if gid == "" {
		return nil, errors.New("group ID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(groupsCollection).Doc(gid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("group with ID '%s' not found: %w", gid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get group with ID '%s': %w", gid, err)
	}
	return decodeGroup(docSnap)
}

func (r *firestoreGroupRepository) GetMany(ctx context.Context, gids []string) ([]*models.Group, error) {
	if len(gids) == 0 {
		return []*models.Group{}, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(gids))
	for _, id := range gids {
		if id == "" {
			continue
		}
		refs = append(refs, r.client.Collection(groupsCollection).Doc(id))
	}

	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to get %d groups: %w", len(refs), err)
	}

	groups := make([]*models.Group, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			r.logger.Warn("Referenced group does not exist", zap.String("gid", snap.Ref.ID))
			continue
		}
		group, err := decodeGroup(snap)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (r *firestoreGroupRepository) List(ctx context.Context) ([]*models.Group, error) {
	iter := r.client.Collection(groupsCollection).Documents(ctx)
	defer iter.Stop()

	groups := []*models.Group{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate groups: %w", err)
		}
		group, err := decodeGroup(doc)
		if err != nil {
			r.logger.Warn("Skipping undecodable group", zap.String("gid", doc.Ref.ID), zap.Error(err))
			continue
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// SetUpdateDate records the time of the group's latest post.
func (r *firestoreGroupRepository) SetUpdateDate(ctx context.Context, gid string, t time.Time) error {
	_, err := r.client.Collection(groupsCollection).Doc(gid).Update(ctx, []firestore.Update{
		{Path: "updateDate", Value: t},
		{Path: "gid", Value: gid},
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("group with ID '%s' not found: %w", gid, ErrNotFound)
		}
		return fmt.Errorf("failed to update group '%s': %w", gid, err)
	}
	return nil
}

// AddMember adds uid to the group's members if absent.
func (r *firestoreGroupRepository) AddMember(ctx context.Context, gid, uid string) error {
	_, err := r.client.Collection(groupsCollection).Doc(gid).Update(ctx, []firestore.Update{
		{Path: "members", Value: firestore.ArrayUnion(uid)},
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("group with ID '%s' not found: %w", gid, ErrNotFound)
		}
		return fmt.Errorf("failed to add member '%s' to group '%s': %w", uid, gid, err)
	}
	return nil
}

func decodeGroup(snap *firestore.DocumentSnapshot) (*models.Group, error) {
	var group models.Group
	if err := snap.DataTo(&group); err != nil {
		return nil, fmt.Errorf("failed to decode group data for ID '%s': %w", snap.Ref.ID, err)
	}
	group.GID = snap.Ref.ID
	return &group, nil
}
