package db

import (
	"testing"

	"github.com/sirupsen/logrus"

	"sc3/internal/config"
)

func TestNewStoreWithoutDSN(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	store, err := NewStore(config.Config{}, log)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if store.Available() {
		t.Fatal("store without DSN reports available")
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate in no-db mode: %v", err)
	}
}

func TestNilStoreUnavailable(t *testing.T) {
	var store *Store
	if store.Available() {
		t.Fatal("nil store reports available")
	}
}
