// Package firebase adapts the Firebase Admin SDK to the post mirror,
// push dispatch and external identity ports.
package firebase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	firebasesdk "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"inkpost/internal/config"
)

// NewApp initializes the Admin SDK from a service account file or, when no
// file is configured, from the individual service account fields.
func NewApp(ctx context.Context, cfg *config.Config) (*firebasesdk.App, error) {
	if !cfg.FirebaseEnabled() {
		return nil, fmt.Errorf("firebase credentials not configured")
	}

	var opt option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opt = option.WithCredentialsFile(cfg.FirebaseCredentialsFile)
	} else {
		opt = option.WithCredentialsJSON(serviceAccountJSON(cfg.FirebaseProjectID, cfg.FirebaseClientEmail, cfg.FirebasePrivateKey))
	}

	app, err := firebasesdk.NewApp(ctx, &firebasesdk.Config{
		ProjectID:   cfg.FirebaseProjectID,
		DatabaseURL: cfg.FirebaseDatabaseURL,
	}, opt)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	slog.Info("firebase initialized", "component", "firebase", "project", cfg.FirebaseProjectID)
	return app, nil
}

// serviceAccountJSON rebuilds the downloaded key file from env values.
// Keys pasted into .env usually carry literal "\n" sequences.
func serviceAccountJSON(projectID, clientEmail, privateKey string) []byte {
	privateKey = strings.ReplaceAll(privateKey, "\\n", "\n")
	return []byte(fmt.Sprintf(`{
		"type": "service_account",
		"project_id": %q,
		"private_key": %q,
		"client_email": %q,
		"token_uri": "https://oauth2.googleapis.com/token"
	}`, projectID, privateKey, clientEmail))
}
