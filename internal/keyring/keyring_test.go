package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestSetAndGetConnectionString(t *testing.T) {
	gokeyring.MockInit()

	connStr := "postgres://testuser@localhost:5432/testdb?sslmode=disable"
	if err := SetConnectionString(connStr); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}

	got, err := GetConnectionString()
	if err != nil {
		t.Fatalf("GetConnectionString() failed: %v", err)
	}
	if got != connStr {
		t.Errorf("GetConnectionString() = %q, want %q", got, connStr)
	}
}

func TestSetEmpty(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString(""); err == nil {
		t.Error("SetConnectionString(\"\") should return an error")
	}
	if err := SetUserID(""); err == nil {
		t.Error("SetUserID(\"\") should return an error")
	}
}

func TestNotFound(t *testing.T) {
	gokeyring.MockInit()

	_ = DeleteConnectionString()
	_ = DeleteUserID()

	if _, err := GetConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConnectionString() error = %v, want %v", err, ErrNotFound)
	}
	if _, err := GetUserID(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserID() error = %v, want %v", err, ErrNotFound)
	}
	if err := DeleteUserID(); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteUserID() error = %v, want %v", err, ErrNotFound)
	}
}

func TestUserIDIndependentOfConnectionString(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString("redis://localhost:6379/0"); err != nil {
		t.Fatal(err)
	}
	if err := SetUserID("user-123"); err != nil {
		t.Fatal(err)
	}
	if err := DeleteUserID(); err != nil {
		t.Fatalf("DeleteUserID() failed: %v", err)
	}

	if _, err := GetUserID(); !errors.Is(err, ErrNotFound) {
		t.Errorf("user id should be gone, got %v", err)
	}
	if got, err := GetConnectionString(); err != nil || got != "redis://localhost:6379/0" {
		t.Errorf("connection string = %q, %v", got, err)
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()
	if !IsAvailable() {
		t.Error("mock keyring should be available")
	}
}
