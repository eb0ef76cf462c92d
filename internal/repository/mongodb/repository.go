package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/repository"
)

const (
	recordsCollection   = "production_records"
	commentsCollection  = "comments"
	employeesCollection = "employees"
	catalogCollection   = "catalog_entries"
	plansCollection     = "production_plans"
)

// MongoDBRepository implements repository.Store for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ repository.Store = (*MongoDBRepository)(nil)

// NewMongoDBRepository connects, pings and prepares the unique indexes.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{client: client, db: client.Database(dbName)}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		recordsCollection: {
			{Keys: bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "record_id", Value: 1}, {Key: "column_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		employeesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		catalogCollection: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		plansCollection: {
			{Keys: bson.D{{Key: "product", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, models := range indexes {
		if _, err := r.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// CreateRecord inserts a new record.
func (r *MongoDBRepository) CreateRecord(ctx context.Context, record models.ProductionRecord) error {
	if _, err := r.db.Collection(recordsCollection).InsertOne(ctx, record); err != nil {
		return wrapWrite("insert record", err)
	}
	return nil
}

// UpdateRecord replaces the stored record with the same id.
func (r *MongoDBRepository) UpdateRecord(ctx context.Context, record models.ProductionRecord) error {
	res, err := r.db.Collection(recordsCollection).ReplaceOne(ctx, bson.M{"_id": record.ID}, record)
	if err != nil {
		return wrapWrite("replace record", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("record %s: %w", record.ID, repository.ErrNotFound)
	}
	return nil
}

// DeleteRecord removes a record.
func (r *MongoDBRepository) DeleteRecord(ctx context.Context, id string) error {
	res, err := r.db.Collection(recordsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("record %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// GetRecord fetches a record by id.
func (r *MongoDBRepository) GetRecord(ctx context.Context, id string) (models.ProductionRecord, error) {
	var record models.ProductionRecord
	err := r.db.Collection(recordsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		return models.ProductionRecord{}, wrapRead("record "+id, err)
	}
	return record, nil
}

// ListRecords runs the filter as a query, newest dates first.
func (r *MongoDBRepository) ListRecords(ctx context.Context, filter models.RecordFilter) ([]models.ProductionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})

	cursor, err := r.db.Collection(recordsCollection).Find(ctx, recordQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	records := make([]models.ProductionRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

func recordQuery(filter models.RecordFilter) bson.M {
	query := bson.M{}

	dateRange := bson.M{}
	if filter.StartDate != "" {
		dateRange["$gte"] = filter.StartDate
	}
	if filter.EndDate != "" {
		dateRange["$lte"] = filter.EndDate
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}

	exact := map[string]string{
		"name":              filter.Name,
		"product":           filter.Product,
		"process":           filter.Process,
		"adjustment_master": filter.AdjustmentMaster,
	}
	for field, value := range exact {
		if value != "" {
			query[field] = value
		}
	}
	return query
}

// GetComment fetches the note of a record column.
func (r *MongoDBRepository) GetComment(ctx context.Context, recordID, columnKey string) (models.Comment, error) {
	var comment models.Comment
	err := r.db.Collection(commentsCollection).
		FindOne(ctx, bson.M{"record_id": recordID, "column_key": columnKey}).
		Decode(&comment)
	if err != nil {
		return models.Comment{}, wrapRead("comment "+recordID+"/"+columnKey, err)
	}
	return comment, nil
}

// SaveComment upserts on (record_id, column_key), keeping the existing id.
func (r *MongoDBRepository) SaveComment(ctx context.Context, comment models.Comment) error {
	update := bson.M{
		"$set": bson.M{
			"text":       comment.Text,
			"updated_at": comment.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":        comment.ID,
			"created_at": comment.CreatedAt,
		},
	}

	_, err := r.db.Collection(commentsCollection).UpdateOne(ctx,
		bson.M{"record_id": comment.RecordID, "column_key": comment.ColumnKey},
		update,
		options.Update().SetUpsert(true))
	if err != nil {
		return wrapWrite("upsert comment", err)
	}
	return nil
}

// DeleteComment removes the note of a record column.
func (r *MongoDBRepository) DeleteComment(ctx context.Context, recordID, columnKey string) error {
	_, err := r.db.Collection(commentsCollection).DeleteOne(ctx, bson.M{"record_id": recordID, "column_key": columnKey})
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// DeleteRecordComments removes every note of a record.
func (r *MongoDBRepository) DeleteRecordComments(ctx context.Context, recordID string) error {
	_, err := r.db.Collection(commentsCollection).DeleteMany(ctx, bson.M{"record_id": recordID})
	if err != nil {
		return fmt.Errorf("failed to delete record comments: %w", err)
	}
	return nil
}

// ListEmployees returns the roster in creation order.
func (r *MongoDBRepository) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	out := make([]models.Employee, 0)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "name", Value: 1}})
	if err := r.findAll(ctx, employeesCollection, bson.M{}, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEmployee fetches an employee by id.
func (r *MongoDBRepository) GetEmployee(ctx context.Context, id string) (models.Employee, error) {
	var employee models.Employee
	if err := r.db.Collection(employeesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&employee); err != nil {
		return models.Employee{}, wrapRead("employee "+id, err)
	}
	return employee, nil
}

// CreateEmployee inserts an employee; the unique index rejects duplicate names.
func (r *MongoDBRepository) CreateEmployee(ctx context.Context, employee models.Employee) error {
	if _, err := r.db.Collection(employeesCollection).InsertOne(ctx, employee); err != nil {
		return wrapWrite("insert employee", err)
	}
	return nil
}

// DeleteEmployee removes an employee.
func (r *MongoDBRepository) DeleteEmployee(ctx context.Context, id string) error {
	return r.deleteByID(ctx, employeesCollection, bson.M{"_id": id}, "employee "+id)
}

// ListCatalog returns entries of one kind ordered by name.
func (r *MongoDBRepository) ListCatalog(ctx context.Context, kind models.CatalogKind) ([]models.CatalogEntry, error) {
	out := make([]models.CatalogEntry, 0)
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if err := r.findAll(ctx, catalogCollection, bson.M{"kind": kind}, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCatalogEntry fetches an entry of the given kind.
func (r *MongoDBRepository) GetCatalogEntry(ctx context.Context, kind models.CatalogKind, id string) (models.CatalogEntry, error) {
	var entry models.CatalogEntry
	err := r.db.Collection(catalogCollection).FindOne(ctx, bson.M{"_id": id, "kind": kind}).Decode(&entry)
	if err != nil {
		return models.CatalogEntry{}, wrapRead(string(kind)+" "+id, err)
	}
	return entry, nil
}

// CreateCatalogEntry inserts an entry; names are unique per kind.
func (r *MongoDBRepository) CreateCatalogEntry(ctx context.Context, entry models.CatalogEntry) error {
	if _, err := r.db.Collection(catalogCollection).InsertOne(ctx, entry); err != nil {
		return wrapWrite("insert "+string(entry.Kind), err)
	}
	return nil
}

// DeleteCatalogEntry removes an entry of the given kind.
func (r *MongoDBRepository) DeleteCatalogEntry(ctx context.Context, kind models.CatalogKind, id string) error {
	return r.deleteByID(ctx, catalogCollection, bson.M{"_id": id, "kind": kind}, string(kind)+" "+id)
}

// ListPlans returns plans in creation order.
func (r *MongoDBRepository) ListPlans(ctx context.Context) ([]models.ProductionPlan, error) {
	out := make([]models.ProductionPlan, 0)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "product", Value: 1}})
	if err := r.findAll(ctx, plansCollection, bson.M{}, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPlan fetches a plan by id.
func (r *MongoDBRepository) GetPlan(ctx context.Context, id string) (models.ProductionPlan, error) {
	var plan models.ProductionPlan
	if err := r.db.Collection(plansCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&plan); err != nil {
		return models.ProductionPlan{}, wrapRead("plan "+id, err)
	}
	return plan, nil
}

// GetPlanByProduct fetches the plan of a product.
func (r *MongoDBRepository) GetPlanByProduct(ctx context.Context, product string) (models.ProductionPlan, error) {
	var plan models.ProductionPlan
	if err := r.db.Collection(plansCollection).FindOne(ctx, bson.M{"product": product}).Decode(&plan); err != nil {
		return models.ProductionPlan{}, wrapRead("plan for "+product, err)
	}
	return plan, nil
}

// SavePlan inserts or replaces a plan by id.
func (r *MongoDBRepository) SavePlan(ctx context.Context, plan models.ProductionPlan) error {
	_, err := r.db.Collection(plansCollection).ReplaceOne(ctx, bson.M{"_id": plan.ID}, plan, options.Replace().SetUpsert(true))
	if err != nil {
		return wrapWrite("save plan", err)
	}
	return nil
}

// DeletePlan removes a plan.
func (r *MongoDBRepository) DeletePlan(ctx context.Context, id string) error {
	return r.deleteByID(ctx, plansCollection, bson.M{"_id": id}, "plan "+id)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) findAll(ctx context.Context, coll string, filter bson.M, opts *options.FindOptions, out any) error {
	cursor, err := r.db.Collection(coll).Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", coll, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", coll, err)
	}
	return nil
}

func (r *MongoDBRepository) deleteByID(ctx context.Context, coll string, filter bson.M, what string) error {
	res, err := r.db.Collection(coll).DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", what, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	return nil
}

func wrapRead(what string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func wrapWrite(action string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", action, repository.ErrConflict)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
