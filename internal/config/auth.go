package config

type AuthConfig struct {
	Provider              string `yaml:"provider"`
	FirebaseProjectID     string `yaml:"firebase_project_id"`
	FirebaseCredentials   string `yaml:"firebase_credentials_file"`
	CheckRevoked          bool   `yaml:"check_revoked"`
	JWTSecret             string `yaml:"jwt_secret"`
	JWTIssuer             string `yaml:"jwt_issuer"`
	RequireVerifiedEmails bool   `yaml:"require_verified_emails"`
}

func loadAuthConfig() *AuthConfig {
	return &AuthConfig{
		Provider:              getEnv("AUTH_PROVIDER", "firebase"),
		FirebaseProjectID:     getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentials:   getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		CheckRevoked:          getEnvAsBool("FIREBASE_CHECK_REVOKED", false),
		JWTSecret:             getEnv("AUTH_JWT_SECRET", ""),
		JWTIssuer:             getEnv("AUTH_JWT_ISSUER", "campusrides"),
		RequireVerifiedEmails: getEnvAsBool("AUTH_REQUIRE_VERIFIED_EMAIL", true),
	}
}
