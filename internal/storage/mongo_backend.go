package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
)

// mongoConnectTimeout bounds server selection and connection setup.
const mongoConnectTimeout = 5 * time.Second

// document stores an entity inline next to its ObjectID.
type document[T any] struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	Entity T                  `bson:",inline"`
}

// mongoCollection maps one entity type onto a collection.
type mongoCollection[T any] struct {
	coll   *mongo.Collection
	entity string
	setID  func(*T, string)
	fill   func(*T)
	unique func(*T) (field, value string)
}

func (c *mongoCollection[T]) conflict(err error, v *T) error {
	field, value := "id", ""
	if c.unique != nil {
		field, value = c.unique(v)
	}
	return perrors.ErrConflict(c.entity, field, value).WithCause(err)
}

func (c *mongoCollection[T]) insert(ctx context.Context, v *T) error {
	res, err := c.coll.InsertOne(ctx, document[T]{Entity: *v})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.conflict(err, v)
		}
		return fmt.Errorf("insert %s: %w", c.entity, err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("insert %s: unexpected id type %T", c.entity, res.InsertedID)
	}
	c.setID(v, oid.Hex())
	return nil
}

func (c *mongoCollection[T]) decode(doc *document[T]) *T {
	v := doc.Entity
	c.setID(&v, doc.ID.Hex())
	c.fill(&v)
	return &v
}

func (c *mongoCollection[T]) get(ctx context.Context, id string) (*T, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, perrors.ErrNotFound(c.entity, id)
	}
	var doc document[T]
	err = c.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, perrors.ErrNotFound(c.entity, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", c.entity, id, err)
	}
	return c.decode(&doc), nil
}

func (c *mongoCollection[T]) list(ctx context.Context, filter bson.D) ([]*T, error) {
	if filter == nil {
		filter = bson.D{}
	}
	cursor, err := c.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.entity, err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []document[T]
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.entity, err)
	}
	out := make([]*T, 0, len(docs))
	for i := range docs {
		out = append(out, c.decode(&docs[i]))
	}
	return out, nil
}

// update is read-modify-write without a transaction: standalone servers
// have no multi-document transactions and each write replaces one document.
func (c *mongoCollection[T]) update(ctx context.Context, id string, mutate func(*T) error) (*T, error) {
	v, err := c.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(v); err != nil {
		return nil, err
	}
	oid, _ := primitive.ObjectIDFromHex(id)
	res, err := c.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: oid}}, document[T]{ID: oid, Entity: *v})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, c.conflict(err, v)
		}
		return nil, fmt.Errorf("update %s %s: %w", c.entity, id, err)
	}
	if res.MatchedCount == 0 {
		return nil, perrors.ErrNotFound(c.entity, id)
	}
	return v, nil
}

func (c *mongoCollection[T]) delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := c.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", c.entity, id, err)
	}
	return res.DeletedCount > 0, nil
}

// conditionsFilter turns equality conditions into a bson filter.
func conditionsFilter(conds []model.Condition) bson.D {
	filter := bson.D{}
	for _, c := range conds {
		filter = append(filter, bson.E{Key: c.Field, Value: c.Value})
	}
	return filter
}

// MongoBackend stores entities in MongoDB, one collection per entity type.
type MongoBackend struct {
	client     *mongo.Client
	database   *mongo.Database
	teams      *mongoCollection[model.Team]
	projects   *mongoCollection[model.Project]
	tasks      *mongoCollection[model.Task]
	milestones *mongoCollection[model.Milestone]
	timeout    time.Duration
	now        Clock
}

// OpenMongoBackend connects to uri, verifies the server is reachable and
// ensures the unique index on team names.
func OpenMongoBackend(ctx context.Context, uri, database string, timeout time.Duration) (*MongoBackend, error) {
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(mongoConnectTimeout).
		SetConnectTimeout(mongoConnectTimeout)

	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	b := newMongoBackend(client, client.Database(database), timeout)
	if err := b.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return b, nil
}

func newMongoBackend(client *mongo.Client, database *mongo.Database, timeout time.Duration) *MongoBackend {
	return &MongoBackend{
		client:   client,
		database: database,
		teams: &mongoCollection[model.Team]{
			coll:   database.Collection("teams"),
			entity: "team",
			setID:  func(t *model.Team, id string) { t.ID = id },
			fill:   (*model.Team).EnsureLists,
			unique: func(t *model.Team) (string, string) { return "name", t.Name },
		},
		projects: &mongoCollection[model.Project]{
			coll:   database.Collection("projects"),
			entity: "project",
			setID:  func(p *model.Project, id string) { p.ID = id },
			fill:   (*model.Project).EnsureLists,
		},
		tasks: &mongoCollection[model.Task]{
			coll:   database.Collection("tasks"),
			entity: "task",
			setID:  func(t *model.Task, id string) { t.ID = id },
			fill:   (*model.Task).EnsureLists,
		},
		milestones: &mongoCollection[model.Milestone]{
			coll:   database.Collection("milestones"),
			entity: "milestone",
			setID:  func(m *model.Milestone, id string) { m.ID = id },
			fill:   (*model.Milestone).EnsureLists,
		},
		timeout: timeout,
		now:     systemClock,
	}
}

func (b *MongoBackend) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{b.teams.coll, mongo.IndexModel{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{b.projects.coll, mongo.IndexModel{Keys: bson.D{{Key: "team", Value: 1}}}},
		{b.tasks.coll, mongo.IndexModel{Keys: bson.D{{Key: "project", Value: 1}}}},
		{b.milestones.coll, mongo.IndexModel{Keys: bson.D{{Key: "team", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// Name implements Backend.
func (b *MongoBackend) Name() string { return "mongo" }

// Close implements Backend.
func (b *MongoBackend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	return b.client.Disconnect(ctx)
}

// opContext bounds a call by the operation timeout only. A caller that goes
// away does not abort a statement already sent to the store.
func (b *MongoBackend) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
}

func (b *MongoBackend) wrap(op string, err error) error {
	if err == nil || perrors.IsDomain(err) {
		return err
	}
	return perrors.ErrBackendUnavailable(b.Name(), op, err)
}

// --- Teams ---

// CreateTeam implements Backend.
func (b *MongoBackend) CreateTeam(ctx context.Context, f model.TeamFields) (*model.Team, error) {
	t, err := model.NewTeam(f, b.now())
	if err != nil {
		return nil, err
	}
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	if err := b.teams.insert(ctx, t); err != nil {
		return nil, b.wrap("create team", err)
	}
	return t, nil
}

// GetTeam implements Backend.
func (b *MongoBackend) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	t, err := b.teams.get(ctx, id)
	return t, b.wrap("get team", err)
}

// ListTeams implements Backend. Member matching runs server-side.
func (b *MongoBackend) ListTeams(ctx context.Context, f model.TeamFilter) ([]*model.Team, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	filter := conditionsFilter(f.Conditions())
	if f.MemberUserID != nil {
		filter = append(filter, bson.E{Key: "members.userId", Value: *f.MemberUserID})
	}
	teams, err := b.teams.list(ctx, filter)
	return teams, b.wrap("list teams", err)
}

// UpdateTeam implements Backend.
func (b *MongoBackend) UpdateTeam(ctx context.Context, id string, f model.TeamFields) (*model.Team, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	now := b.now()
	t, err := b.teams.update(ctx, id, func(t *model.Team) error { return t.Apply(f, now) })
	return t, b.wrap("update team", err)
}

// DeleteTeam implements Backend.
func (b *MongoBackend) DeleteTeam(ctx context.Context, id string) (bool, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	ok, err := b.teams.delete(ctx, id)
	return ok, b.wrap("delete team", err)
}

// --- Projects ---

// CreateProject implements Backend.
func (b *MongoBackend) CreateProject(ctx context.Context, f model.ProjectFields) (*model.Project, error) {
	p, err := model.NewProject(f, b.now())
	if err != nil {
		return nil, err
	}
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	if err := b.projects.insert(ctx, p); err != nil {
		return nil, b.wrap("create project", err)
	}
	return p, nil
}

// GetProject implements Backend.
func (b *MongoBackend) GetProject(ctx context.Context, id string) (*model.Project, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	p, err := b.projects.get(ctx, id)
	return p, b.wrap("get project", err)
}

// ListProjects implements Backend.
func (b *MongoBackend) ListProjects(ctx context.Context, f model.ProjectFilter) ([]*model.Project, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	projects, err := b.projects.list(ctx, conditionsFilter(f.Conditions()))
	return projects, b.wrap("list projects", err)
}

// UpdateProject implements Backend.
func (b *MongoBackend) UpdateProject(ctx context.Context, id string, f model.ProjectFields) (*model.Project, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	now := b.now()
	p, err := b.projects.update(ctx, id, func(p *model.Project) error { return p.Apply(f, now) })
	return p, b.wrap("update project", err)
}

// DeleteProject implements Backend.
func (b *MongoBackend) DeleteProject(ctx context.Context, id string) (bool, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	ok, err := b.projects.delete(ctx, id)
	return ok, b.wrap("delete project", err)
}

// --- Tasks ---

// CreateTask implements Backend.
func (b *MongoBackend) CreateTask(ctx context.Context, f model.TaskFields) (*model.Task, error) {
	t, err := model.NewTask(f, b.now())
	if err != nil {
		return nil, err
	}
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	if err := b.tasks.insert(ctx, t); err != nil {
		return nil, b.wrap("create task", err)
	}
	return t, nil
}

// GetTask implements Backend.
func (b *MongoBackend) GetTask(ctx context.Context, id string) (*model.Task, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	t, err := b.tasks.get(ctx, id)
	return t, b.wrap("get task", err)
}

// ListTasks implements Backend.
func (b *MongoBackend) ListTasks(ctx context.Context, f model.TaskFilter) ([]*model.Task, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	tasks, err := b.tasks.list(ctx, conditionsFilter(f.Conditions()))
	return tasks, b.wrap("list tasks", err)
}

// UpdateTask implements Backend.
func (b *MongoBackend) UpdateTask(ctx context.Context, id string, f model.TaskFields) (*model.Task, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	now := b.now()
	t, err := b.tasks.update(ctx, id, func(t *model.Task) error { return t.Apply(f, now) })
	return t, b.wrap("update task", err)
}

// DeleteTask implements Backend.
func (b *MongoBackend) DeleteTask(ctx context.Context, id string) (bool, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	ok, err := b.tasks.delete(ctx, id)
	return ok, b.wrap("delete task", err)
}

// --- Milestones ---

// CreateMilestone implements Backend.
func (b *MongoBackend) CreateMilestone(ctx context.Context, f model.MilestoneFields) (*model.Milestone, error) {
	m, err := model.NewMilestone(f, b.now())
	if err != nil {
		return nil, err
	}
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	if err := b.milestones.insert(ctx, m); err != nil {
		return nil, b.wrap("create milestone", err)
	}
	return m, nil
}

// GetMilestone implements Backend.
func (b *MongoBackend) GetMilestone(ctx context.Context, id string) (*model.Milestone, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	m, err := b.milestones.get(ctx, id)
	return m, b.wrap("get milestone", err)
}

// ListMilestones implements Backend.
func (b *MongoBackend) ListMilestones(ctx context.Context, f model.MilestoneFilter) ([]*model.Milestone, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	ms, err := b.milestones.list(ctx, conditionsFilter(f.Conditions()))
	return ms, b.wrap("list milestones", err)
}

// UpdateMilestone implements Backend.
func (b *MongoBackend) UpdateMilestone(ctx context.Context, id string, f model.MilestoneFields) (*model.Milestone, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	now := b.now()
	m, err := b.milestones.update(ctx, id, func(m *model.Milestone) error { return m.Apply(f, now) })
	return m, b.wrap("update milestone", err)
}

// DeleteMilestone implements Backend.
func (b *MongoBackend) DeleteMilestone(ctx context.Context, id string) (bool, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	ok, err := b.milestones.delete(ctx, id)
	return ok, b.wrap("delete milestone", err)
}
