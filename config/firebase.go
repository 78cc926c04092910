package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// ErrFirebaseNotConfigured means the source store credentials are absent.
// Callers skip the sync instead of failing.
var ErrFirebaseNotConfigured = errors.New("firebase not configured")

// NewFirestoreClient initializes the Firebase Admin app from FIREBASE_DBURL and
// the service account JSON in FIREBASE_AUTH_KEYFILE. The key may be written
// with single quotes (common in .env files); they are turned into double quotes.
func NewFirestoreClient(ctx context.Context, s Settings, logg *logrus.Logger) (*firestore.Client, error) {
	if !s.FirebaseConfigured() {
		return nil, ErrFirebaseNotConfigured
	}
	keyFile := strings.ReplaceAll(s.FirebaseKeyFile, "'", `"`)

	projectID := s.FirebaseProjectID
	if projectID == "" {
		var serviceAccount struct {
			ProjectID string `json:"project_id"`
		}
		if err := json.Unmarshal([]byte(keyFile), &serviceAccount); err != nil {
			return nil, fmt.Errorf("parse FIREBASE_AUTH_KEYFILE: %w", err)
		}
		projectID = serviceAccount.ProjectID
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		DatabaseURL: s.FirebaseDatabaseURL,
		ProjectID:   projectID,
	}, option.WithCredentialsJSON([]byte(keyFile)))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing firestore: %w", err)
	}
	logg.WithField("project_id", projectID).Info("Firebase initialized")
	return client, nil
}
