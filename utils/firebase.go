package utils

import (
	"context"

	"fundihub/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var FCMClient *messaging.Client

// FirebaseInit sets up the FCM messaging client. Push delivery is
// best-effort, so a missing credential file disables pushes instead of
// failing startup; the notification worker checks FCMClient for nil.
func FirebaseInit() {
	if config.AppConfig.FirebaseCredFile == "" {
		GetLogger().Warn("firebase: no credential file configured, push notifications disabled")
		return
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(config.AppConfig.FirebaseCredFile))
	if err != nil {
		GetLogger().Sugar().Fatalf("firebase: error initializing app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		GetLogger().Sugar().Fatalf("firebase: error getting Messaging client: %v", err)
	}
	FCMClient = client
}
