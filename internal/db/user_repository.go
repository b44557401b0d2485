package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"strive-backend-go/internal/models"
)

const usersCollection = "users"

// FieldSealer encrypts and decrypts individual string fields.
type FieldSealer interface {
	Seal(plainText string) (string, error)
	Open(value string) (string, error)
}

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
	sealer FieldSealer
	logger *zap.Logger
}

// NewFirestoreUserRepository creates a new user repository. When sealer is not
// nil, phone and address are encrypted at rest.
func NewFirestoreUserRepository(client *firestore.Client, sealer FieldSealer, logger *zap.Logger) UserRepository {
	if client == nil {
		logger.Fatal("Firestore client is not initialized for UserRepository.")
	}
	return &firestoreUserRepository{client: client, sealer: sealer, logger: logger}
}

// GetByID retrieves a user document by its Firebase Auth UID.
func (r *firestoreUserRepository) GetByID(ctx context.Context, uid string) (*models.User, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", uid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", uid, err)
	}
	return r.decode(docSnap)
}

// GetMany fetches all requested users in one batched call.
func (r *firestoreUserRepository) GetMany(ctx context.Context, uids []string) ([]*models.User, error) {
	if len(uids) == 0 {
		return []*models.User{}, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(uids))
	for _, id := range uids {
		if id == "" {
			continue
		}
		refs = append(refs, r.client.Collection(usersCollection).Doc(id))
	}

	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to get %d users: %w", len(refs), err)
	}

	users := make([]*models.User, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			r.logger.Warn("Referenced user does not exist", zap.String("uid", snap.Ref.ID))
			continue
		}
		user, err := r.decode(snap)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// List returns every user document.
func (r *firestoreUserRepository) List(ctx context.Context) ([]*models.User, error) {
	iter := r.client.Collection(usersCollection).Documents(ctx)
	defer iter.Stop()

	var users []*models.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate users: %w", err)
		}
		user, err := r.decode(doc)
		if err != nil {
			r.logger.Warn("Skipping undecodable user", zap.String("uid", doc.Ref.ID), zap.Error(err))
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// Set overwrites the user document.
func (r *firestoreUserRepository) Set(ctx context.Context, user *models.User) error {
	if user == nil || user.UID == "" {
		return errors.New("user ID cannot be empty for Set operation")
	}
	stored, err := r.seal(user)
	if err != nil {
		return err
	}
	if _, err := r.client.Collection(usersCollection).Doc(user.UID).Set(ctx, stored); err != nil {
		return fmt.Errorf("failed to write user with ID '%s': %w", user.UID, err)
	}
	return nil
}

// Merge updates the given fields, creating the document if it does not exist.
func (r *firestoreUserRepository) Merge(ctx context.Context, uid string, fields map[string]interface{}) error {
	if uid == "" {
		return errors.New("uid cannot be empty for Merge operation")
	}
	if _, err := r.client.Collection(usersCollection).Doc(uid).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to merge fields into user '%s': %w", uid, err)
	}
	return nil
}

// AddGroup appends gid to the user's groups without duplicating it.
func (r *firestoreUserRepository) AddGroup(ctx context.Context, uid, gid string) error {
	_, err := r.client.Collection(usersCollection).Doc(uid).Update(ctx, []firestore.Update{
		{Path: "groups", Value: firestore.ArrayUnion(gid)},
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("user with ID '%s' not found: %w", uid, ErrNotFound)
		}
		return fmt.Errorf("failed to add group '%s' to user '%s': %w", gid, uid, err)
	}
	return nil
}

func (r *firestoreUserRepository) decode(snap *firestore.DocumentSnapshot) (*models.User, error) {
	var user models.User
	if err := snap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", snap.Ref.ID, err)
	}
	user.UID = snap.Ref.ID

	if r.sealer != nil {
		var err error
		if user.Phone, err = r.sealer.Open(user.Phone); err != nil {
			return nil, fmt.Errorf("failed to open phone of user '%s': %w", user.UID, err)
		}
		if user.Address, err = r.sealer.Open(user.Address); err != nil {
			return nil, fmt.Errorf("failed to open address of user '%s': %w", user.UID, err)
		}
	}
	return &user, nil
}

func (r *firestoreUserRepository) seal(user *models.User) (*models.User, error) {
	if r.sealer == nil {
		return user, nil
	}
	stored := *user
	var err error
	if stored.Phone, err = r.sealer.Seal(user.Phone); err != nil {
		return nil, fmt.Errorf("failed to seal phone of user '%s': %w", user.UID, err)
	}
	if stored.Address, err = r.sealer.Seal(user.Address); err != nil {
		return nil, fmt.Errorf("failed to seal address of user '%s': %w", user.UID, err)
	}
	return &stored, nil
}
