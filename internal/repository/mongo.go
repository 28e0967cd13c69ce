package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nithish2321/EntraceEase/internal/model"
)

// Collection names used by MongoStore.
const (
	TestCentersCollection = "testcenters"
	CollegesCollection    = "colleges"
	BookingsCollection    = "bookings"
	StudentsCollection    = "students"
	AssignmentsCollection = "studentassignments"
)

// MongoStore keeps each aggregate as one document.  InTx runs inside a
// session transaction (replica set required) and every replace is filtered
// on the version the document was read at.
type MongoStore struct {
	client      *mongo.Client
	centers     *mongo.Collection
	colleges    *mongo.Collection
	bookings    *mongo.Collection
	students    *mongo.Collection
	assignments *mongo.Collection
}

// NewMongoClient connects and pings within a 10 second budget.
func NewMongoClient(ctx context.Context, uri, username, password string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	if username != "" && password != "" {
		clientOptions.SetAuth(options.Credential{
			Username: username,
			Password: password,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// NewMongoStore binds the collections of database and creates the indexes
// the queries rely on.
func NewMongoStore(ctx context.Context, client *mongo.Client, database string) (*MongoStore, error) {
	db := client.Database(database)
	s := &MongoStore{
		client:      client,
		centers:     db.Collection(TestCentersCollection),
		colleges:    db.Collection(CollegesCollection),
		bookings:    db.Collection(BookingsCollection),
		students:    db.Collection(StudentsCollection),
		assignments: db.Collection(AssignmentsCollection),
	}

	if _, err := s.bookings.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "collegeId", Value: 1}, {Key: "createdAt", Value: 1}},
	}); err != nil {
		return nil, fmt.Errorf("booking indexes: %w", err)
	}
	if _, err := s.students.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "collegeId", Value: 1}, {Key: "position", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, fmt.Errorf("student indexes: %w", err)
	}
	if _, err := s.assignments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "collegeId", Value: 1}, {Key: "regno", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "collegeId", Value: 1}, {Key: "seq", Value: 1}}},
		{Keys: bson.M{"studentId": 1}},
	}); err != nil {
		return nil, fmt.Errorf("assignment indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &mongoTx{s: s})
	})
	return err
}

type mongoTx struct {
	s *MongoStore
}

func findOne[T any](ctx context.Context, c *mongo.Collection, entity, id string) (*T, error) {
	var out T
	err := c.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.NotFound(entity, id)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// replaceVersioned swaps the document at (id, version) for doc, whose
// version field must already carry version+1.
func replaceVersioned(ctx context.Context, c *mongo.Collection, entity, id string, version int64, doc any) error {
	res, err := c.ReplaceOne(ctx, bson.M{"_id": id, "version": version}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrVersionConflict)
	}
	return nil
}

func insertNew(ctx context.Context, c *mongo.Collection, entity, id string, doc any) error {
	_, err := c.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s %s: %w", entity, id, ErrConflict)
	}
	return err
}

func (t *mongoTx) TestCenter(ctx context.Context, id string) (*model.TestCenter, error) {
	return findOne[model.TestCenter](ctx, t.s.centers, "test center", id)
}

func (t *mongoTx) SaveTestCenter(ctx context.Context, tc *model.TestCenter) error {
	if err := tc.CheckConservation(); err != nil {
		return err
	}
	prev := tc.Version
	tc.Version++
	if err := replaceVersioned(ctx, t.s.centers, "test center", tc.ID, prev, tc); err != nil {
		tc.Version = prev
		return err
	}
	return nil
}

func (t *mongoTx) College(ctx context.Context, id string) (*model.College, error) {
	return findOne[model.College](ctx, t.s.colleges, "college", id)
}

func (t *mongoTx) SaveCollege(ctx context.Context, c *model.College) error {
	prev := c.Version
	c.Version++
	if err := replaceVersioned(ctx, t.s.colleges, "college", c.ID, prev, c); err != nil {
		c.Version = prev
		return err
	}
	return nil
}

func (t *mongoTx) Booking(ctx context.Context, id string) (*model.Booking, error) {
	return findOne[model.Booking](ctx, t.s.bookings, "booking", id)
}

func (t *mongoTx) CreateBooking(ctx context.Context, b *model.Booking) error {
	b.Version = 1
	return insertNew(ctx, t.s.bookings, "booking", b.ID, b)
}

func (t *mongoTx) SaveBooking(ctx context.Context, b *model.Booking) error {
	prev := b.Version
	b.Version++
	if err := replaceVersioned(ctx, t.s.bookings, "booking", b.ID, prev, b); err != nil {
		b.Version = prev
		return err
	}
	return nil
}

func (t *mongoTx) Students(ctx context.Context, collegeID string) ([]model.Student, error) {
	return t.s.ListStudents(ctx, collegeID)
}

func (t *mongoTx) ReplaceAssignments(ctx context.Context, collegeID string, as []model.StudentAssignment) error {
	if _, err := t.s.assignments.DeleteMany(ctx, bson.M{"collegeId": collegeID}); err != nil {
		return err
	}
	if len(as) == 0 {
		return nil
	}
	docs := make([]interface{}, len(as))
	for i := range as {
		as[i].CollegeID = collegeID
		as[i].Seq = i + 1
		docs[i] = as[i]
	}
	_, err := t.s.assignments.InsertMany(ctx, docs)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("assignments of %s: %w", collegeID, ErrConflict)
	}
	return err
}

func (s *MongoStore) CreateTestCenter(ctx context.Context, tc *model.TestCenter) error {
	tc.Version = 1
	if tc.BookingHistory == nil {
		tc.BookingHistory = []model.HistoryEntry{}
	}
	return insertNew(ctx, s.centers, "test center", tc.ID, tc)
}

func (s *MongoStore) GetTestCenter(ctx context.Context, id string) (*model.TestCenter, error) {
	return findOne[model.TestCenter](ctx, s.centers, "test center", id)
}

func (s *MongoStore) ListTestCenters(ctx context.Context) ([]model.TestCenter, error) {
	return findAll[model.TestCenter](ctx, s.centers, bson.M{}, bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
}

func (s *MongoStore) CreateCollege(ctx context.Context, c *model.College) error {
	c.Version = 1
	if c.BookedDates == nil {
		c.BookedDates = []model.BookedDate{}
	}
	return insertNew(ctx, s.colleges, "college", c.ID, c)
}

func (s *MongoStore) GetCollege(ctx context.Context, id string) (*model.College, error) {
	return findOne[model.College](ctx, s.colleges, "college", id)
}

func (s *MongoStore) ListColleges(ctx context.Context) ([]model.College, error) {
	return findAll[model.College](ctx, s.colleges, bson.M{}, bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
}

func (s *MongoStore) ListBookingsByCollege(ctx context.Context, collegeID string) ([]model.Booking, error) {
	return findAll[model.Booking](ctx, s.bookings, bson.M{"collegeId": collegeID}, bson.D{{Key: "createdAt", Value: 1}})
}

// AddStudents numbers the new students after the current last position of
// their college so ListStudents returns import order.  Reading the last
// position and inserting share one transaction; the unique (collegeId,
// position) index makes a concurrent import abort instead of reusing
// positions.
func (s *MongoStore) AddStudents(ctx context.Context, students []model.Student) error {
	if len(students) == 0 {
		return nil
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		next := make(map[string]int)
		docs := make([]interface{}, len(students))
		for i := range students {
			st := students[i]
			pos, ok := next[st.CollegeID]
			if !ok {
				last, err := s.lastPosition(sc, st.CollegeID)
				if err != nil {
					return nil, err
				}
				pos = last
			}
			pos++
			next[st.CollegeID] = pos
			st.Position = pos
			docs[i] = st
		}
		_, err := s.students.InsertMany(sc, docs, options.InsertMany().SetOrdered(true))
		return nil, err
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("student: %w", ErrConflict)
	}
	return err
}

func (s *MongoStore) lastPosition(ctx context.Context, collegeID string) (int, error) {
	var last model.Student
	err := s.students.FindOne(ctx, bson.M{"collegeId": collegeID},
		options.FindOne().SetSort(bson.D{{Key: "position", Value: -1}})).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	return last.Position, err
}

func (s *MongoStore) ListStudents(ctx context.Context, collegeID string) ([]model.Student, error) {
	return findAll[model.Student](ctx, s.students, bson.M{"collegeId": collegeID}, bson.D{{Key: "position", Value: 1}})
}

func (s *MongoStore) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	return findOne[model.Student](ctx, s.students, "student", id)
}

func (s *MongoStore) ListAssignments(ctx context.Context, collegeID string) ([]model.StudentAssignment, error) {
	return findAll[model.StudentAssignment](ctx, s.assignments, bson.M{"collegeId": collegeID},
		bson.D{{Key: "seq", Value: 1}})
}

func (s *MongoStore) AssignmentByStudent(ctx context.Context, studentID string) (*model.StudentAssignment, error) {
	var a model.StudentAssignment
	err := s.assignments.FindOne(ctx, bson.M{"studentId": studentID},
		options.FindOne().SetSort(bson.D{{Key: "assignedAt", Value: -1}})).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.NotFound("assignment for student", studentID)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *MongoStore) SetEmailStatus(ctx context.Context, assignmentID string, status model.EmailStatus) error {
	res, err := s.assignments.UpdateOne(ctx, bson.M{"_id": assignmentID},
		bson.M{"$set": bson.M{"emailStatus": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return model.NotFound("assignment", assignmentID)
	}
	return nil
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter any, sort bson.D) ([]T, error) {
	cur, err := c.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
