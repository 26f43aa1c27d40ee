package repos

import (
	"time"

	"bricpa/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ChatRepo struct {
	db  *sqlx.DB
	Now func() time.Time
}

func NewChatRepo(db *sqlx.DB) *ChatRepo { return &ChatRepo{db: db, Now: time.Now} }

type chatRow struct {
	ID        int64  `db:"id"`
	Role      string `db:"role"`
	Content   string `db:"content"`
	OK        bool   `db:"ok"`
	CreatedAt string `db:"created_at"`
}

// Append stores one turn. The session row is created if missing.
func (r *ChatRepo) Append(sid string, role domain.ChatRole, content string, ok bool) (domain.ChatMessage, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return domain.ChatMessage{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO sessions(id,last_seen) VALUES(?,CURRENT_TIMESTAMP) ON CONFLICT(id) DO NOTHING`, sid); err != nil {
		return domain.ChatMessage{}, err
	}
	now := r.Now().UTC().Truncate(time.Second)
	res, err := tx.Exec(`INSERT INTO chat_messages(session_id,role,content,ok,created_at) VALUES(?,?,?,?,?)`,
		sid, string(role), content, ok, now.Format(time.RFC3339))
	if err != nil {
		return domain.ChatMessage{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.ChatMessage{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ChatMessage{}, err
	}
	return domain.ChatMessage{ID: id, Role: role, Content: content, OK: ok, CreatedAt: now}, nil
}

// History returns the conversation of sid, oldest first.
func (r *ChatRepo) History(sid string) ([]domain.ChatMessage, error) {
	rows := []chatRow{}
	if err := r.db.Select(&rows, `
	  SELECT id, role, content, ok, created_at
	  FROM chat_messages WHERE session_id = ? ORDER BY id
	`, sid); err != nil {
		return nil, err
	}
	out := make([]domain.ChatMessage, 0, len(rows))
	for _, row := range rows {
		ts, _ := time.Parse(time.RFC3339, row.CreatedAt)
		out = append(out, domain.ChatMessage{
			ID: row.ID, Role: domain.ChatRole(row.Role), Content: row.Content, OK: row.OK, CreatedAt: ts,
		})
	}
	return out, nil
}

func (r *ChatRepo) Clear(sid string) error {
	_, err := r.db.Exec(`DELETE FROM chat_messages WHERE session_id=?`, sid)
	return err
}
