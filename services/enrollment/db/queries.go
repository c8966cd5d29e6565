package db

import "context"

const incrementAttempt = `
insert into EnrollmentRecord(identity, course, time_block, attempts, created_at, updated_at)
values (?, ?, ?, 1, ?, ?)
on conflict(identity, course, time_block) do update set
    attempts = attempts + 1,
    updated_at = excluded.updated_at
`

type IncrementAttemptParams struct {
	Identity  string
	Course    string
	TimeBlock string
	Now       int64
}

func (q *Queries) IncrementAttempt(ctx context.Context, arg IncrementAttemptParams) error {
	_, err := q.db.ExecContext(ctx, incrementAttempt,
		arg.Identity,
		arg.Course,
		arg.TimeBlock,
		arg.Now,
		arg.Now,
	)
	return err
}

const getRecord = `
select id, identity, course, time_block, attempts, created_at, updated_at
from EnrollmentRecord
where identity = ? and course = ? and time_block = ?
`

type GetRecordParams struct {
	Identity  string
	Course    string
	TimeBlock string
}

func (q *Queries) GetRecord(ctx context.Context, arg GetRecordParams) (EnrollmentRecord, error) {
	row := q.db.QueryRowContext(ctx, getRecord, arg.Identity, arg.Course, arg.TimeBlock)
	var i EnrollmentRecord
	err := row.Scan(
		&i.ID,
		&i.Identity,
		&i.Course,
		&i.TimeBlock,
		&i.Attempts,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listRecordsByIdentity = `
select id, identity, course, time_block, attempts, created_at, updated_at
from EnrollmentRecord
where identity = ?
order by created_at, id
`

func (q *Queries) ListRecordsByIdentity(ctx context.Context, identity string) ([]EnrollmentRecord, error) {
	rows, err := q.db.QueryContext(ctx, listRecordsByIdentity, identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EnrollmentRecord
	for rows.Next() {
		var i EnrollmentRecord
		if err := rows.Scan(
			&i.ID,
			&i.Identity,
			&i.Course,
			&i.TimeBlock,
			&i.Attempts,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteRecord = `
delete from EnrollmentRecord
where identity = ? and course = ? and time_block = ?
`

type DeleteRecordParams struct {
	Identity  string
	Course    string
	TimeBlock string
}

func (q *Queries) DeleteRecord(ctx context.Context, arg DeleteRecordParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRecord, arg.Identity, arg.Course, arg.TimeBlock)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
