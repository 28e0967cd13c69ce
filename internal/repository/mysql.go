package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/nithish2321/EntraceEase/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the same row helpers
// serve transactional and plain reads.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MySQLStore keeps each aggregate in one row with its nested parts in JSON
// columns.  Rows read inside InTx are locked with SELECT ... FOR UPDATE and
// every UPDATE is guarded by the version the row was read at.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore wraps an open pool.  The schema must already exist; see
// database.Migrate.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	if db == nil {
		panic("nil db passed to NewMySQLStore")
	}
	return &MySQLStore{db: db}
}

func (s *MySQLStore) Close() error { return s.db.Close() }

func (s *MySQLStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, &mysqlTx{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type mysqlTx struct {
	q querier
}

// ---- test centers ----

const testCenterCols = `id, name, location, normal_vacancy, total_vacancy, availability, history, version, created_at, updated_at`

func scanTestCenter(row interface{ Scan(...any) error }) (*model.TestCenter, error) {
	var tc model.TestCenter
	var avail, hist []byte
	if err := row.Scan(&tc.ID, &tc.Name, &tc.Location, &tc.NormalVacancy, &tc.TotalVacancy,
		&avail, &hist, &tc.Version, &tc.CreatedAt, &tc.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(avail, &tc.BookingAvailableSeats); err != nil {
		return nil, fmt.Errorf("decode availability of %s: %w", tc.ID, err)
	}
	if err := json.Unmarshal(hist, &tc.BookingHistory); err != nil {
		return nil, fmt.Errorf("decode history of %s: %w", tc.ID, err)
	}
	return &tc, nil
}

func getTestCenter(ctx context.Context, q querier, id string, lock bool) (*model.TestCenter, error) {
	query := `SELECT ` + testCenterCols + ` FROM test_centers WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}
	tc, err := scanTestCenter(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("test center", id)
	}
	return tc, err
}

func (t *mysqlTx) TestCenter(ctx context.Context, id string) (*model.TestCenter, error) {
	return getTestCenter(ctx, t.q, id, true)
}

func (t *mysqlTx) SaveTestCenter(ctx context.Context, tc *model.TestCenter) error {
	if err := tc.CheckConservation(); err != nil {
		return err
	}
	avail, hist, err := marshalPair(tc.BookingAvailableSeats, tc.BookingHistory)
	if err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx,
		`UPDATE test_centers
		    SET name = ?, location = ?, normal_vacancy = ?, total_vacancy = ?,
		        availability = ?, history = ?, version = version + 1, updated_at = ?
		  WHERE id = ? AND version = ?`,
		tc.Name, tc.Location, tc.NormalVacancy, tc.TotalVacancy, avail, hist, tc.UpdatedAt,
		tc.ID, tc.Version)
	if err := checkVersioned(res, err, "test center", tc.ID); err != nil {
		return err
	}
	tc.Version++
	return nil
}

func (s *MySQLStore) CreateTestCenter(ctx context.Context, tc *model.TestCenter) error {
	avail, hist, err := marshalPair(tc.BookingAvailableSeats, emptyIfNil(tc.BookingHistory))
	if err != nil {
		return err
	}
	tc.Version = 1
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO test_centers (`+testCenterCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tc.ID, tc.Name, tc.Location, tc.NormalVacancy, tc.TotalVacancy, avail, hist, tc.Version, tc.CreatedAt, tc.UpdatedAt)
	return duplicate(err, "test center", tc.ID)
}

func (s *MySQLStore) GetTestCenter(ctx context.Context, id string) (*model.TestCenter, error) {
	return getTestCenter(ctx, s.db, id, false)
}

func (s *MySQLStore) ListTestCenters(ctx context.Context) ([]model.TestCenter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+testCenterCols+` FROM test_centers ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TestCenter, 0)
	for rows.Next() {
		tc, err := scanTestCenter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tc)
	}
	return out, rows.Err()
}

// ---- colleges ----

const collegeCols = `id, name, exam, booked_dates, version, created_at, updated_at`

func scanCollege(row interface{ Scan(...any) error }) (*model.College, error) {
	var c model.College
	var exam, booked []byte
	if err := row.Scan(&c.ID, &c.Name, &exam, &booked, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(exam, &c.Exam); err != nil {
		return nil, fmt.Errorf("decode exam of %s: %w", c.ID, err)
	}
	if err := json.Unmarshal(booked, &c.BookedDates); err != nil {
		return nil, fmt.Errorf("decode booked dates of %s: %w", c.ID, err)
	}
	return &c, nil
}

func getCollege(ctx context.Context, q querier, id string, lock bool) (*model.College, error) {
	query := `SELECT ` + collegeCols + ` FROM colleges WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}
	c, err := scanCollege(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("college", id)
	}
	return c, err
}

func (t *mysqlTx) College(ctx context.Context, id string) (*model.College, error) {
	return getCollege(ctx, t.q, id, true)
}

func (t *mysqlTx) SaveCollege(ctx context.Context, c *model.College) error {
	exam, booked, err := marshalPair(c.Exam, emptyIfNil(c.BookedDates))
	if err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx,
		`UPDATE colleges SET name = ?, exam = ?, booked_dates = ?, version = version + 1, updated_at = ?
		  WHERE id = ? AND version = ?`,
		c.Name, exam, booked, c.UpdatedAt, c.ID, c.Version)
	if err := checkVersioned(res, err, "college", c.ID); err != nil {
		return err
	}
	c.Version++
	return nil
}

func (s *MySQLStore) CreateCollege(ctx context.Context, c *model.College) error {
	exam, booked, err := marshalPair(c.Exam, emptyIfNil(c.BookedDates))
	if err != nil {
		return err
	}
	c.Version = 1
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO colleges (`+collegeCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, exam, booked, c.Version, c.CreatedAt, c.UpdatedAt)
	return duplicate(err, "college", c.ID)
}

func (s *MySQLStore) GetCollege(ctx context.Context, id string) (*model.College, error) {
	return getCollege(ctx, s.db, id, false)
}

func (s *MySQLStore) ListColleges(ctx context.Context) ([]model.College, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+collegeCols+` FROM colleges ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.College, 0)
	for rows.Next() {
		c, err := scanCollege(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// ---- bookings ----

const bookingCols = `id, college_id, test_centers, version, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	var centers []byte
	if err := row.Scan(&b.ID, &b.CollegeID, &centers, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(centers, &b.TestCenters); err != nil {
		return nil, fmt.Errorf("decode booking %s: %w", b.ID, err)
	}
	return &b, nil
}

func (t *mysqlTx) Booking(ctx context.Context, id string) (*model.Booking, error) {
	b, err := scanBooking(t.q.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("booking", id)
	}
	return b, err
}

func (t *mysqlTx) CreateBooking(ctx context.Context, b *model.Booking) error {
	centers, err := json.Marshal(b.TestCenters)
	if err != nil {
		return err
	}
	b.Version = 1
	_, err = t.q.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingCols+`) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.CollegeID, centers, b.Version, b.CreatedAt, b.UpdatedAt)
	return duplicate(err, "booking", b.ID)
}

func (t *mysqlTx) SaveBooking(ctx context.Context, b *model.Booking) error {
	centers, err := json.Marshal(b.TestCenters)
	if err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx,
		`UPDATE bookings SET test_centers = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		centers, b.UpdatedAt, b.ID, b.Version)
	if err := checkVersioned(res, err, "booking", b.ID); err != nil {
		return err
	}
	b.Version++
	return nil
}

func (s *MySQLStore) ListBookingsByCollege(ctx context.Context, collegeID string) ([]model.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE college_id = ? ORDER BY created_at, id`, collegeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// ---- students ----

const studentCols = `seq, id, college_id, first_name, last_name, email, dob, fields, created_at`

func scanStudent(row interface{ Scan(...any) error }) (*model.Student, error) {
	var st model.Student
	var dob sql.NullTime
	var fields []byte
	if err := row.Scan(&st.Position, &st.ID, &st.CollegeID, &st.FirstName, &st.LastName, &st.Email,
		&dob, &fields, &st.CreatedAt); err != nil {
		return nil, err
	}
	if dob.Valid {
		st.DOB = model.DateOnly(dob.Time)
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &st.Fields); err != nil {
			return nil, fmt.Errorf("decode fields of student %s: %w", st.ID, err)
		}
	}
	return &st, nil
}

func listStudents(ctx context.Context, q querier, collegeID string) ([]model.Student, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+studentCols+` FROM students WHERE college_id = ? ORDER BY seq`, collegeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Student, 0)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func (t *mysqlTx) Students(ctx context.Context, collegeID string) ([]model.Student, error) {
	return listStudents(ctx, t.q, collegeID)
}

func (s *MySQLStore) AddStudents(ctx context.Context, students []model.Student) error {
	if len(students) == 0 {
		return nil
	}
	// Build the INSERT with placeholders for each student.  seq is assigned
	// by AUTO_INCREMENT in VALUES order, which keeps the roster order.
	query := `INSERT INTO students (id, college_id, first_name, last_name, email, dob, fields, created_at) VALUES `
	args := make([]any, 0, len(students)*8)
	for i, st := range students {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?)"
		var dob sql.NullTime
		if !st.DOB.IsZero() {
			dob = sql.NullTime{Time: st.DOB, Valid: true}
		}
		var fields []byte
		if len(st.Fields) > 0 {
			b, err := json.Marshal(st.Fields)
			if err != nil {
				return err
			}
			fields = b
		}
		args = append(args, st.ID, st.CollegeID, st.FirstName, st.LastName, st.Email, dob, fields, st.CreatedAt)
	}
	_, err := s.db.ExecContext(ctx, query, args...)
	return duplicate(err, "student", students[0].ID)
}

func (s *MySQLStore) ListStudents(ctx context.Context, collegeID string) ([]model.Student, error) {
	return listStudents(ctx, s.db, collegeID)
}

func (s *MySQLStore) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	st, err := scanStudent(s.db.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("student", id)
	}
	return st, err
}

// ---- assignments ----

const assignmentCols = `id, run_id, student_id, college_id, test_center_id, test_center_name, location,
	exam_date, slot, regno, email_status, assigned_at`

func scanAssignment(row interface{ Scan(...any) error }) (*model.StudentAssignment, error) {
	var a model.StudentAssignment
	var status string
	if err := row.Scan(&a.ID, &a.RunID, &a.StudentID, &a.CollegeID, &a.TestCenterID, &a.TestCenterName,
		&a.Location, &a.ExamDate, &a.Slot, &a.Regno, &status, &a.AssignedAt); err != nil {
		return nil, err
	}
	a.ExamDate = model.DateOnly(a.ExamDate)
	a.EmailStatus = model.EmailStatus(status)
	return &a, nil
}

func (t *mysqlTx) ReplaceAssignments(ctx context.Context, collegeID string, as []model.StudentAssignment) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM student_assignments WHERE college_id = ?`, collegeID); err != nil {
		return err
	}
	// Insert in chunks to stay well below the placeholder limit.
	const chunk = 500
	for start := 0; start < len(as); start += chunk {
		end := min(start+chunk, len(as))
		var b strings.Builder
		b.WriteString(`INSERT INTO student_assignments (` + assignmentCols + `, seq) VALUES `)
		args := make([]any, 0, (end-start)*13)
		for i := start; i < end; i++ {
			a := as[i]
			if i > start {
				b.WriteString(",")
			}
			b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, a.ID, a.RunID, a.StudentID, collegeID, a.TestCenterID, a.TestCenterName,
				a.Location, a.ExamDate, a.Slot, a.Regno, string(a.EmailStatus), a.AssignedAt, i)
		}
		if _, err := t.q.ExecContext(ctx, b.String(), args...); err != nil {
			return duplicate(err, "assignment", collegeID)
		}
	}
	return nil
}

func (s *MySQLStore) ListAssignments(ctx context.Context, collegeID string) ([]model.StudentAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assignmentCols+` FROM student_assignments WHERE college_id = ? ORDER BY seq`, collegeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.StudentAssignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *MySQLStore) AssignmentByStudent(ctx context.Context, studentID string) (*model.StudentAssignment, error) {
	a, err := scanAssignment(s.db.QueryRowContext(ctx,
		`SELECT `+assignmentCols+` FROM student_assignments WHERE student_id = ? ORDER BY assigned_at DESC LIMIT 1`, studentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("assignment for student", studentID)
	}
	return a, err
}

func (s *MySQLStore) SetEmailStatus(ctx context.Context, assignmentID string, status model.EmailStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE student_assignments SET email_status = ? WHERE id = ?`, string(status), assignmentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is 0 both for a missing row and an unchanged status.
		var one int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM student_assignments WHERE id = ?`, assignmentID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return model.NotFound("assignment", assignmentID)
		}
		return err
	}
	return nil
}

// ---- helpers ----

func marshalPair(a, b any) ([]byte, []byte, error) {
	ja, err := json.Marshal(a)
	if err != nil {
		return nil, nil, err
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return nil, nil, err
	}
	return ja, jb, nil
}

// emptyIfNil keeps JSON columns as [] instead of null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// checkVersioned turns a zero-row versioned UPDATE into ErrVersionConflict.
func checkVersioned(res sql.Result, err error, entity, id string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrVersionConflict)
	}
	return nil
}

// duplicate maps MySQL error 1062 (duplicate key) to ErrConflict.
func duplicate(err error, entity, id string) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrConflict)
	}
	return err
}

