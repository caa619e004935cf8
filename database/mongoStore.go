package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-restaurant-ordering/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	menuCollectionName      = "menu"
	tableCollectionName     = "table"
	categoryCollectionName  = "category"
	orderCollectionName     = "order"
	orderItemCollectionName = "orderItem"
	logCollectionName       = "log"
)

// MongoStore keeps everything in MongoDB. Units of work use multi-document
// transactions, so the server must run as a replica set.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(dbName)}
}

func (s *MongoStore) OpenCollection(collectionName string) *mongo.Collection {
	return s.db.Collection(collectionName)
}

func (s *MongoStore) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		menuCollectionName: {
			{Keys: bson.D{{Key: "category_id", Value: 1}}},
		},
		categoryCollectionName: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		orderCollectionName: {
			{Keys: bson.D{{Key: "order_time", Value: -1}}},
			{Keys: bson.D{{Key: "order_status", Value: 1}}},
		},
		orderItemCollectionName: {
			{Keys: bson.D{{Key: "order_id", Value: 1}}},
		},
		logCollectionName: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "action", Value: 1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := s.OpenCollection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// writeConflict reports a transaction aborted by a concurrent writer as
// ErrConflict.
func writeConflict(err error) error {
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorLabel("TransientTransactionError") {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func noDocuments(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (s *MongoStore) FindMenu(ctx context.Context, id string) (*models.Menu, error) {
	var menu models.Menu
	if err := s.OpenCollection(menuCollectionName).FindOne(ctx, bson.M{"_id": id}).Decode(&menu); err != nil {
		return nil, noDocuments(err)
	}
	return &menu, nil
}

func (s *MongoStore) FindMenus(ctx context.Context, ids []string) (map[string]models.Menu, error) {
	found := make(map[string]models.Menu, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	cursor, err := s.OpenCollection(menuCollectionName).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var menus []models.Menu
	if err := cursor.All(ctx, &menus); err != nil {
		return nil, err
	}
	for _, m := range menus {
		found[m.ID] = m
	}
	return found, nil
}

func (s *MongoStore) FindTable(ctx context.Context, id string) (*models.Table, error) {
	var table models.Table
	if err := s.OpenCollection(tableCollectionName).FindOne(ctx, bson.M{"_id": id}).Decode(&table); err != nil {
		return nil, noDocuments(err)
	}
	return &table, nil
}

func (s *MongoStore) Begin(ctx context.Context) (Tx, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := sess.StartTransaction(txnOpts); err != nil {
		sess.EndSession(ctx)
		return nil, err
	}
	return &mongoTx{store: s, sess: sess}, nil
}

func (s *MongoStore) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	_, err := s.OpenCollection(logCollectionName).InsertOne(ctx, entry)
	return err
}

func (s *MongoStore) ListMenus(ctx context.Context, filter MenuFilter) ([]models.Menu, error) {
	query := bson.M{}
	if filter.CategoryID != "" {
		query["category_id"] = filter.CategoryID
	}
	if filter.AvailableOnly {
		query["is_available"] = true
	}
	cursor, err := s.OpenCollection(menuCollectionName).Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	menus := []models.Menu{}
	if err := cursor.All(ctx, &menus); err != nil {
		return nil, err
	}
	return menus, nil
}

func (s *MongoStore) CreateMenu(ctx context.Context, menu *models.Menu) error {
	_, err := s.OpenCollection(menuCollectionName).InsertOne(ctx, menu)
	return err
}

func (s *MongoStore) UpdateMenu(ctx context.Context, menu *models.Menu) error {
	var updateObj bson.D
	updateObj = append(updateObj, bson.E{Key: "name", Value: menu.Name})
	updateObj = append(updateObj, bson.E{Key: "description", Value: menu.Description})
	updateObj = append(updateObj, bson.E{Key: "price", Value: menu.Price})
	updateObj = append(updateObj, bson.E{Key: "is_available", Value: menu.Is_available})
	updateObj = append(updateObj, bson.E{Key: "category_id", Value: menu.Category_id})
	updateObj = append(updateObj, bson.E{Key: "updated_at", Value: menu.Updated_at})

	result, err := s.OpenCollection(menuCollectionName).UpdateOne(ctx, bson.M{"_id": menu.ID}, bson.D{{Key: "$set", Value: updateObj}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListTables(ctx context.Context) ([]models.Table, error) {
	cursor, err := s.OpenCollection(tableCollectionName).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	tables := []models.Table{}
	if err := cursor.All(ctx, &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

func (s *MongoStore) CreateTable(ctx context.Context, table *models.Table) error {
	_, err := s.OpenCollection(tableCollectionName).InsertOne(ctx, table)
	return err
}

func (s *MongoStore) UpdateTable(ctx context.Context, table *models.Table) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: table.Name},
		{Key: "description", Value: table.Description},
		{Key: "updated_at", Value: table.Updated_at},
	}}}
	result, err := s.OpenCollection(tableCollectionName).UpdateOne(ctx, bson.M{"_id": table.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) FindCategory(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := s.OpenCollection(categoryCollectionName).FindOne(ctx, bson.M{"_id": id}).Decode(&category); err != nil {
		return nil, noDocuments(err)
	}
	return &category, nil
}

func (s *MongoStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	cursor, err := s.OpenCollection(categoryCollectionName).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *MongoStore) CreateCategory(ctx context.Context, category *models.Category) error {
	_, err := s.OpenCollection(categoryCollectionName).InsertOne(ctx, category)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (s *MongoStore) FindOrder(ctx context.Context, id string) (*models.Order, []models.OrderItem, error) {
	var order models.Order
	if err := s.OpenCollection(orderCollectionName).FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, nil, noDocuments(err)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.OpenCollection(orderItemCollectionName).Find(ctx, bson.M{"order_id": id}, opts)
	if err != nil {
		return nil, nil, err
	}
	items := []models.OrderItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, nil, err
	}
	return &order, items, nil
}

func (s *MongoStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := bson.M{}
	if filter.OrderStatus != "" {
		query["order_status"] = filter.OrderStatus
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "order_time", Value: -1}}).
		SetLimit(int64(clampLimit(filter.Limit)))
	cursor, err := s.OpenCollection(orderCollectionName).Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *MongoStore) ListLogs(ctx context.Context, filter LogFilter) ([]models.LogEntry, error) {
	query := bson.M{}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(clampLimit(filter.Limit)))
	cursor, err := s.OpenCollection(logCollectionName).Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	entries := []models.LogEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

type mongoTx struct {
	store *MongoStore
	sess  mongo.Session
	done  bool
}

// sc binds ctx to the transaction's session so every operation joins it.
func (t *mongoTx) sc(ctx context.Context) mongo.SessionContext {
	return mongo.NewSessionContext(ctx, t.sess)
}

func (t *mongoTx) FindMenuForUpdate(ctx context.Context, id string) (*models.Menu, error) {
	var menu models.Menu
	err := t.store.OpenCollection(menuCollectionName).FindOne(t.sc(ctx), bson.M{"_id": id}).Decode(&menu)
	if err != nil {
		return nil, noDocuments(err)
	}
	return &menu, nil
}

func (t *mongoTx) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	sc := t.sc(ctx)
	if _, err := t.store.OpenCollection(orderCollectionName).InsertOne(sc, order); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(items))
	for _, item := range items {
		docs = append(docs, item)
	}
	if _, err := t.store.OpenCollection(orderItemCollectionName).InsertMany(sc, docs); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

func (t *mongoTx) DecrementStock(ctx context.Context, menuID string, quantity int) (int, error) {
	sc := t.sc(ctx)
	filter := bson.M{"_id": menuID, "stock": bson.M{"$gte": quantity}}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var menu models.Menu
	err := t.store.OpenCollection(menuCollectionName).FindOneAndUpdate(sc, filter, update, opts).Decode(&menu)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, err := t.FindMenuForUpdate(ctx, menuID); err != nil {
			return 0, err
		}
		return 0, ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("decrement stock: %w", writeConflict(err))
	}
	return menu.Stock, nil
}

func (t *mongoTx) SetStock(ctx context.Context, menuID string, expected, stock int) error {
	update := bson.M{"$set": bson.M{"stock": stock, "updated_at": time.Now().UTC()}}
	result, err := t.store.OpenCollection(menuCollectionName).UpdateOne(t.sc(ctx), bson.M{"_id": menuID, "stock": expected}, update)
	if err != nil {
		return fmt.Errorf("set stock: %w", writeConflict(err))
	}
	if result.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

func (t *mongoTx) UpdateOrderStatus(ctx context.Context, order *models.Order, expectedStatus, expectedPayment string) error {
	filter := bson.M{"_id": order.ID, "order_status": expectedStatus, "payment_status": expectedPayment}
	update := bson.M{"$set": bson.M{
		"order_status":   order.Order_status,
		"payment_status": order.Payment_status,
		"completed_time": order.Completed_time,
		"updated_at":     order.Updated_at,
	}}
	result, err := t.store.OpenCollection(orderCollectionName).UpdateOne(t.sc(ctx), filter, update)
	if err != nil {
		return fmt.Errorf("update order status: %w", writeConflict(err))
	}
	if result.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

func (t *mongoTx) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	_, err := t.store.OpenCollection(logCollectionName).InsertOne(t.sc(ctx), entry)
	return err
}

func (t *mongoTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.sess.EndSession(ctx)
	return t.sess.CommitTransaction(ctx)
}

func (t *mongoTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.sess.EndSession(ctx)
	return t.sess.AbortTransaction(ctx)
}
