package testutil

import (
	"os"
	"testing"
)

// TestEnv carries the endpoints of a running stack. Integration tests
// are opt-in: without TEST_RESERVATIONS_URL they skip, so unit runs
// never need Mongo or a live server.
type TestEnv struct {
	MongoURI        string
	DatabaseName    string
	RoomsURL        string
	ReservationsURL string
}

func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	reservationsURL := os.Getenv("TEST_RESERVATIONS_URL")
	if reservationsURL == "" {
		t.Skip("TEST_RESERVATIONS_URL not set, skipping integration test")
	}

	return &TestEnv{
		MongoURI:        getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName:    getEnv("TEST_DB_NAME", DefaultDatabaseName),
		RoomsURL:        getEnv("TEST_ROOMS_URL", "http://localhost:8081"),
		ReservationsURL: reservationsURL,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
