package repos_test

import (
	"testing"
	"time"

	"bricpa/internal/domain"
	"bricpa/internal/repos"
	"bricpa/internal/session"

	"github.com/jmoiron/sqlx"
)

func sessionDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenSessionDB(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSessionRepoRoundTrip(t *testing.T) {
	r := repos.NewSessionRepo(sessionDB(t))

	st, err := r.Get("unknown")
	if err != nil || st.Phase() != session.Unselected {
		t.Fatalf("unknown sid: %+v %v", st, err)
	}

	var want session.State
	if err := want.ChooseCraftsperson(); err != nil {
		t.Fatal(err)
	}
	if err := want.BindProfile("craftsperson_20250314092653_abcd1234"); err != nil {
		t.Fatal(err)
	}
	if err := r.Put("sid-1", want); err != nil {
		t.Fatal(err)
	}
	got, err := r.Get("sid-1")
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}

	if err := r.Clear("sid-1"); err != nil {
		t.Fatal(err)
	}
	got, _ = r.Get("sid-1")
	if got.Phase() != session.Unselected {
		t.Fatalf("after clear: %+v", got)
	}
}

func TestChatRepoHistory(t *testing.T) {
	db := sessionDB(t)
	chat := repos.NewChatRepo(db)
	chat.Now = func() time.Time { return fixed }

	if _, err := chat.Append("sid-1", domain.ChatUser, "Combien pour repeindre 20 m² ?", true); err != nil {
		t.Fatal(err)
	}
	if _, err := chat.Append("sid-1", domain.ChatAssistant, "timeout", false); err != nil {
		t.Fatal(err)
	}
	if _, err := chat.Append("sid-2", domain.ChatUser, "other", true); err != nil {
		t.Fatal(err)
	}

	h, err := chat.History("sid-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(h) != 2 {
		t.Fatalf("history len = %d", len(h))
	}
	if !h[0].FromUser() || !h[0].OK || h[0].Content != "Combien pour repeindre 20 m² ?" {
		t.Fatalf("first turn = %+v", h[0])
	}
	if h[1].FromUser() || h[1].OK {
		t.Fatalf("failed answer should be stored as not ok: %+v", h[1])
	}
	if !h[0].CreatedAt.Equal(fixed) {
		t.Fatalf("created_at = %v", h[0].CreatedAt)
	}

	if err := repos.NewSessionRepo(db).Clear("sid-1"); err != nil {
		t.Fatal(err)
	}
	h, _ = chat.History("sid-1")
	if len(h) != 0 {
		t.Fatalf("history survived clear: %d", len(h))
	}
	h, _ = chat.History("sid-2")
	if len(h) != 1 {
		t.Fatalf("other session affected: %d", len(h))
	}
}
