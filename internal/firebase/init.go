package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Options selects the Firebase project and credentials.
type Options struct {
	ProjectID          string
	ServiceAccountPath string
	StorageBucket      string
}

// InitFirebase initializes and returns a Firebase app instance
func InitFirebase(ctx context.Context, opts Options) (*firebase.App, error) {
	config := &firebase.Config{
		ProjectID:     opts.ProjectID,
		StorageBucket: opts.StorageBucket,
	}

	var app *firebase.App
	var err error
	if opts.ServiceAccountPath != "" {
		// Initialize with service account file
		app, err = firebase.NewApp(ctx, config, option.WithCredentialsFile(opts.ServiceAccountPath))
	} else {
		// Initialize with default credentials (useful for Google Cloud deployment)
		app, err = firebase.NewApp(ctx, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}

// GetAuthClient returns a Firebase Auth client from the app
func GetAuthClient(ctx context.Context, app *firebase.App) (*auth.Client, error) {
	return app.Auth(ctx)
}
