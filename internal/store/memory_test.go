package store

import (
	"context"
	"testing"
)

func TestMemoryGetAbsent(t *testing.T) {
	m := NewMemory()
	val, err := m.Get(context.Background(), "client-1", KeyScannedStudent)
	if err != nil || val != "" {
		t.Errorf("absent key = (%q, %v), want empty", val, err)
	}
}

func TestMemoryLastWriteWins(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "client-1", KeyScannedStudent, "student_12"); err != nil {
		t.Fatal(err)
	}
	if err := m.Set(ctx, "client-1", KeyScannedStudent, "student_99"); err != nil {
		t.Fatal(err)
	}

	val, err := m.Get(ctx, "client-1", KeyScannedStudent)
	if err != nil || val != "student_99" {
		t.Errorf("got (%q, %v), want the later write", val, err)
	}
}

func TestMemoryKeysAreScopedPerClient(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.Set(ctx, "client-1", KeyChatUser, "user_aaa")
	_ = m.Set(ctx, "client-2", KeyChatUser, "user_bbb")

	if val, _ := m.Get(ctx, "client-1", KeyChatUser); val != "user_aaa" {
		t.Errorf("client-1 = %q", val)
	}
	if val, _ := m.Get(ctx, "client-2", KeyChatUser); val != "user_bbb" {
		t.Errorf("client-2 = %q", val)
	}
}
