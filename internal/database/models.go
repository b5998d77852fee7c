package database

import (
	"database/sql"
	"time"
)

// Record kinds as stored in the kind columns.
const (
	QueryKindQuestion = "consulta_ia"
	QueryKindRisk     = "evaluacion_riesgo"

	MediaKindPhoto = "foto"
	MediaKindVoice = "voz"
)

// Profile is the registration data of a Telegram user. There is at most one
// profile per user; registering again replaces the previous values.
type Profile struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	UserID        int64          `db:"user_id"`
	Name          string         `db:"name"`
	Surname       string         `db:"surname"`
	Age           int            `db:"age"`
	Sex           string         `db:"sex"`
	AcademicLevel string         `db:"academic_level"`
	Residence     string         `db:"residence"`
	Email         sql.NullString `db:"email"` // NULL when the user answered "no"
	ReceiveInfo   string         `db:"receive_info"`
	RegisteredAt  time.Time      `db:"registered_at"`
}

// QueryRecord is an append-only log entry of a question or a risk evaluation.
type QueryRecord struct {
	ID        uint      `db:"id"`
	UserID    int64     `db:"user_id"`
	Kind      string    `db:"kind"`
	Content   string    `db:"content"`
	Response  string    `db:"response"`
	CreatedAt time.Time `db:"created_at"`
}

// MediaRecord logs a photo or voice note received outside any flow.
type MediaRecord struct {
	ID        uint      `db:"id"`
	UserID    int64     `db:"user_id"`
	Kind      string    `db:"kind"`
	FileID    string    `db:"file_id"`
	CreatedAt time.Time `db:"created_at"`
}
