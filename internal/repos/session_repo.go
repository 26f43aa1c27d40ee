package repos

import (
	"database/sql"
	"errors"

	"bricpa/internal/session"

	"github.com/jmoiron/sqlx"
)

type SessionRepo struct{ DB *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Get returns the stored state of sid; an unknown sid is an empty state.
func (r *SessionRepo) Get(sid string) (session.State, error) {
	var st session.State
	err := r.DB.Get(&st, `SELECT role,client_id,profile_key FROM sessions WHERE id=?`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return session.State{}, nil
	}
	if err != nil {
		return session.State{}, err
	}
	return st, nil
}

func (r *SessionRepo) Put(sid string, st session.State) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,role,client_id,profile_key,last_seen)
                          VALUES(?,?,?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET role=excluded.role,client_id=excluded.client_id,
                          profile_key=excluded.profile_key,last_seen=CURRENT_TIMESTAMP`,
		sid, string(st.Role), st.ClientID, st.ProfileKey)
	return err
}

// Clear resets the session row and drops its chat history.
func (r *SessionRepo) Clear(sid string) error {
	tx, err := r.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM chat_messages WHERE session_id=?`, sid); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE sessions SET role='',client_id='',profile_key='',last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid); err != nil {
		return err
	}
	return tx.Commit()
}
