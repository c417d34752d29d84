package main

import (
	"context"
	"fmt"
	"io"

	firebase "firebase.google.com/go/v4"

	"campusrides/internal/config"
	"campusrides/internal/models"
	"campusrides/pkg/auth"
	"campusrides/pkg/email"
	"campusrides/pkg/events"
	"campusrides/pkg/logger"
	"campusrides/pkg/push"
	"campusrides/pkg/storage"
)

// needsFirebase reports whether any configured component talks to Firebase.
func needsFirebase(cfg *config.Config) bool {
	return cfg.Auth.Provider == "firebase" || cfg.Push.Enabled
}

func newVerifier(ctx context.Context, cfg *config.AuthConfig, app *firebase.App) (auth.Verifier, error) {
	if cfg.Provider == "jwt" {
		return auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	}
	return auth.NewFirebaseVerifier(ctx, app, cfg.CheckRevoked)
}

// newStorage returns the configured provider. local is non-nil only for the
// local provider, whose files the API serves itself. closer releases the
// provider's client and may be nil.
func newStorage(ctx context.Context, cfg *config.StorageConfig) (provider storage.StorageProvider, local *storage.LocalStorage, closer io.Closer, err error) {
	switch cfg.Provider {
	case "aws":
		s3, err := storage.NewAWSS3Storage(ctx, storage.AWSS3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.AWS.Bucket,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			CDNDomain:       cfg.AWS.CDNDomain,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return s3, nil, nil, nil

	case "gcp":
		gcs, err := storage.NewGCPStorage(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
		if err != nil {
			return nil, nil, nil, err
		}
		return gcs, nil, gcs, nil

	default:
		fs, err := storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL, cfg.Local.SigningKey)
		if err != nil {
			return nil, nil, nil, err
		}
		return fs, fs, nil, nil
	}
}

// newPushRouter registers FCM for android and web devices and APNs for iOS
// when configured. Without APNs, iOS devices go through FCM.
func newPushRouter(ctx context.Context, cfg *config.PushConfig, app *firebase.App, log *logger.Logger) (*push.Router, error) {
	router := push.NewRouter()
	if !cfg.Enabled {
		return router, nil
	}

	fcm, err := push.NewFCMProvider(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize FCM: %w", err)
	}
	router.
		Register(string(models.DevicePlatformAndroid), fcm).
		Register(string(models.DevicePlatformWeb), fcm).
		Register(string(models.DevicePlatformIOS), fcm)

	if cfg.APNS.Configured() {
		apns, err := push.NewAPNSProvider(cfg.APNS.KeyFile, cfg.APNS.KeyID, cfg.APNS.TeamID, cfg.APNS.BundleID, cfg.APNS.Production)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize APNs: %w", err)
		}
		router.Register(string(models.DevicePlatformIOS), apns)
		log.Info("APNs enabled for iOS devices")
	}

	return router, nil
}

func newPublisher(ctx context.Context, cfg *config.EventsConfig) (events.Publisher, error) {
	switch cfg.Broker {
	case "kafka":
		return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic), nil
	case "rabbitmq":
		return events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	case "sns":
		return events.NewSNSPublisher(ctx, cfg.SNS.Region, cfg.SNS.TopicARN)
	default:
		return events.NoopPublisher{}, nil
	}
}

func newMailer(cfg *config.EmailConfig, log *logger.Logger) email.Provider {
	switch cfg.Provider {
	case "resend":
		return email.NewResendProvider(cfg.Resend.APIKey, cfg.From())
	case "smtp":
		return email.NewSMTPProvider(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		}, cfg.From())
	default:
		return email.NewLogProvider(log, cfg.From())
	}
}
