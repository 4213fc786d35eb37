package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const usersCollection = "users"

var ErrNotFound = errors.New("user not found")

type Repo struct {
	db *firestore.Client
}

func NewRepo(db *firestore.Client) *Repo {
	return &Repo{db: db}
}

func (r *Repo) doc(uid string) *firestore.DocumentRef {
	return r.db.Collection(usersCollection).Doc(uid)
}

func (r *Repo) Get(ctx context.Context, uid string) (*AppUser, error) {
	if uid == "" {
		return nil, fmt.Errorf("uid required")
	}

	snap, err := r.doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", uid, err)
	}

	var u AppUser
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", uid, err)
	}
	u.UID = snap.Ref.ID
	return &u, nil
}

func (r *Repo) Create(ctx context.Context, u *AppUser) error {
	if u.UID == "" {
		return fmt.Errorf("uid required")
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt

	if _, err := r.doc(u.UID).Create(ctx, u); err != nil {
		return fmt.Errorf("create user %s: %w", u.UID, err)
	}
	return nil
}

// GetOrCreate fetches the record for uid, creating it from defaults
// when absent. The second return value reports whether a record was
// created rather than fetched.
func (r *Repo) GetOrCreate(ctx context.Context, uid string, defaults AppUser) (*AppUser, bool, error) {
	if uid == "" {
		return nil, false, fmt.Errorf("uid required")
	}

	var out AppUser
	created := false

	err := r.db.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.doc(uid)

		snap, err := tx.Get(ref)
		if err == nil {
			created = false
			if err := snap.DataTo(&out); err != nil {
				return fmt.Errorf("decode user %s: %w", uid, err)
			}
			out.UID = uid
			return nil
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		defaults.UID = uid
		if defaults.Role == "" {
			defaults.Role = RoleCustomer
		}
		now := time.Now().UTC()
		defaults.CreatedAt = now
		defaults.UpdatedAt = now

		created = true
		out = defaults
		return tx.Create(ref, &defaults)
	})
	if err != nil {
		return nil, false, fmt.Errorf("get or create user %s: %w", uid, err)
	}

	return &out, created, nil
}

// UpdateProfile applies a ProfileUpdate. Only the profile fields are
// touched; role and uid are not reachable from this path.
func (r *Repo) UpdateProfile(ctx context.Context, uid string, p ProfileUpdate) (*AppUser, error) {
	updates := []firestore.Update{
		{Path: "name", Value: p.Name},
		{Path: "address", Value: p.Address},
		{Path: "phone", Value: p.Phone},
		{Path: "infoComplete", Value: p.InfoComplete},
		{Path: "updatedAt", Value: time.Now().UTC()},
	}

	_, err := r.doc(uid).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile %s: %w", uid, err)
	}

	return r.Get(ctx, uid)
}
