// Package enrollment keeps track of which course blocks a user has tried to
// enroll in and how many times. Users are only known by a hash of their name.
package enrollment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"regassist-backend/lib/chrono"
	"regassist-backend/lib/telemetry"
	"regassist-backend/services/enrollment/db"

	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("regassist.services.enrollment")

var ErrIncompleteRecord = errors.New("identity, course and time block are required")

type Record struct {
	Identity  string    `json:"-"`
	Course    string    `json:"course"`
	TimeBlock string    `json:"timeBlock"`
	Attempts  int64     `json:"attempts"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func recordFromRow(row db.EnrollmentRecord) Record {
	return Record{
		Identity:  row.Identity,
		Course:    row.Course,
		TimeBlock: row.TimeBlock,
		Attempts:  row.Attempts,
		CreatedAt: time.Unix(row.CreatedAt, 0),
		UpdatedAt: time.Unix(row.UpdatedAt, 0),
	}
}

// HashIdentity hashes a user's name into the identity records are stored
// under. An empty key gives a plain SHA-256, otherwise HMAC-SHA256.
func HashIdentity(key, name string) string {
	if key == "" {
		digest := sha256.Sum256([]byte(name))
		return hex.EncodeToString(digest[:])
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(name))
	return hex.EncodeToString(mac.Sum(nil))
}

type Store struct {
	db      *sql.DB
	qry     *db.Queries
	hashKey string
	time    chrono.TimeAPI
}

func NewStore(database *sql.DB, hashKey string, time chrono.TimeAPI) Store {
	if time == nil {
		time = chrono.NewStandardTime()
	}
	return Store{
		db:      database,
		qry:     db.New(database),
		hashKey: hashKey,
		time:    time,
	}
}

// Identity returns the identity a name is stored under.
func (s Store) Identity(name string) string {
	return HashIdentity(s.hashKey, name)
}

// RecordAttempt bumps the attempt counter for a block, creating the record
// on the first attempt.
func (s Store) RecordAttempt(ctx context.Context, identity, course, timeBlock string) (Record, error) {
	ctx, span := tracer.Start(ctx, "store:RecordAttempt")
	defer span.End()

	if identity == "" || course == "" || timeBlock == "" {
		span.SetStatus(codes.Error, ErrIncompleteRecord.Error())
		return Record{}, ErrIncompleteRecord
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return Record{}, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	err = txqry.IncrementAttempt(ctx, db.IncrementAttemptParams{
		Identity:  identity,
		Course:    course,
		TimeBlock: timeBlock,
		Now:       s.time.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to increment attempt")
		return Record{}, err
	}
	row, err := txqry.GetRecord(ctx, db.GetRecordParams{
		Identity:  identity,
		Course:    course,
		TimeBlock: timeBlock,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read back record")
		return Record{}, err
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		return Record{}, err
	}
	return recordFromRow(row), nil
}

func (s Store) Get(ctx context.Context, identity, course, timeBlock string) (Record, bool, error) {
	row, err := s.qry.GetRecord(ctx, db.GetRecordParams{
		Identity:  identity,
		Course:    course,
		TimeBlock: timeBlock,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return recordFromRow(row), true, nil
}

// ListByIdentity returns an identity's records, oldest first.
func (s Store) ListByIdentity(ctx context.Context, identity string) ([]Record, error) {
	rows, err := s.qry.ListRecordsByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = recordFromRow(row)
	}
	return records, nil
}

// Delete removes a record, reporting whether there was one.
func (s Store) Delete(ctx context.Context, identity, course, timeBlock string) (bool, error) {
	n, err := s.qry.DeleteRecord(ctx, db.DeleteRecordParams{
		Identity:  identity,
		Course:    course,
		TimeBlock: timeBlock,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
