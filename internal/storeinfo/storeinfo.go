package storeinfo

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collection = "storeInfo"
	docID      = "main"
)

// Info is the storefront's public contact card, a singleton document.
type Info struct {
	Address string `firestore:"address" json:"address"`
	Phone   string `firestore:"phone" json:"phone"`
}

// Defaults seeds the singleton on first read.
var Defaults = Info{
	Address: "Arjun Gali, Rangpur Rd, Railway Station Area, Kota, Rajasthan 324002 near mishra optician",
	Phone:   "9588203452",
}

type Repo struct {
	db *firestore.Client
}

func NewRepo(db *firestore.Client) *Repo {
	return &Repo{db: db}
}

func (r *Repo) doc() *firestore.DocumentRef {
	return r.db.Collection(collection).Doc(docID)
}

// Get reads the store info, creating the default document when it does
// not exist yet.
func (r *Repo) Get(ctx context.Context) (*Info, error) {
	snap, err := r.doc().Get(ctx)
	if status.Code(err) == codes.NotFound {
		if _, err := r.doc().Set(ctx, Defaults); err != nil {
			return nil, fmt.Errorf("seed store info: %w", err)
		}
		info := Defaults
		return &info, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get store info: %w", err)
	}

	var info Info
	if err := snap.DataTo(&info); err != nil {
		return nil, fmt.Errorf("decode store info: %w", err)
	}
	return &info, nil
}

func (r *Repo) Update(ctx context.Context, info Info) error {
	if info.Address == "" || info.Phone == "" {
		return fmt.Errorf("address and phone required")
	}
	if _, err := r.doc().Set(ctx, info); err != nil {
		return fmt.Errorf("update store info: %w", err)
	}
	return nil
}
