package mongodb

import (
	"context"
	"testing"
	"time"
)

func TestNewMongoDBRepositoryUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	repo, err := NewMongoDBRepository(ctx, "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200", "breadlog_test")
	if err == nil {
		_ = repo.Close(ctx)
		t.Fatalf("expected a ping error for an unreachable server")
	}
	if repo != nil {
		t.Fatalf("no repository must be returned when the ping fails")
	}
}
