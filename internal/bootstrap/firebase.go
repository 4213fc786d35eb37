package bootstrap

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/kotamart/storefront-backend/config"
)

// Firebase bundles the hosted-service clients that share one app
// handle: the auth provider, the document store and the image bucket.
type Firebase struct {
	App    *firebase.App
	Auth   *fbauth.Client
	DB     *firestore.Client
	Bucket *gcs.BucketHandle
}

// InitFirebase initializes the Firebase Admin SDK and the clients the
// storefront depends on.
func InitFirebase(ctx context.Context, cfg *config.FirebaseConfig) (*Firebase, error) {
	if cfg.CredentialsPath == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
	}

	opt := option.WithCredentialsFile(cfg.CredentialsPath)
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}

	db, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}

	fb := &Firebase{App: app, Auth: authClient, DB: db}

	if cfg.StorageBucket != "" {
		storageClient, err := app.Storage(ctx)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to get Storage client: %w", err)
		}
		bucket, err := storageClient.DefaultBucket()
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to get default bucket: %w", err)
		}
		fb.Bucket = bucket
	}

	return fb, nil
}

func (f *Firebase) Close() error {
	if f.DB != nil {
		return f.DB.Close()
	}
	return nil
}
