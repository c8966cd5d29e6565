package db

type EnrollmentRecord struct {
	ID        int64
	Identity  string
	Course    string
	TimeBlock string
	Attempts  int64
	CreatedAt int64
	UpdatedAt int64
}
