package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"order-desk/models"
)

type lineItemDocument struct {
	Name     string  `bson:"name"`
	Quantity int     `bson:"quantity"`
	Price    float64 `bson:"price"`
}

type orderDocument struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty"`
	User       *primitive.ObjectID `bson:"user"`
	Items      []lineItemDocument  `bson:"items"`
	TotalPrice float64             `bson:"totalPrice"`
	Status     string              `bson:"status"`
	Version    int64               `bson:"version"`
	CreatedAt  time.Time           `bson:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt"`
}

// orderWithOwnerDocument is the shape produced by the $lookup on users.
type orderWithOwnerDocument struct {
	orderDocument `bson:",inline"`
	Owner         []userDocument `bson:"owner"`
}

func (d orderDocument) toModel() models.Order {
	o := models.Order{
		ID:         d.ID.Hex(),
		Items:      make([]models.LineItem, 0, len(d.Items)),
		TotalPrice: d.TotalPrice,
		Status:     models.OrderStatus(d.Status),
		Version:    d.Version,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if d.User != nil {
		o.User = d.User.Hex()
	}
	for _, it := range d.Items {
		o.Items = append(o.Items, models.LineItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return o
}

func itemDocuments(items []models.LineItem) []lineItemDocument {
	docs := make([]lineItemDocument, 0, len(items))
	for _, it := range items {
		docs = append(docs, lineItemDocument{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return docs
}

type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection(ordersCollection)}
}

func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := orderDocument{
		ID:         primitive.NewObjectID(),
		Items:      itemDocuments(order.Items),
		TotalPrice: order.TotalPrice,
		Status:     string(order.Status),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if order.User != "" {
		owner, err := primitive.ObjectIDFromHex(order.User)
		if err != nil {
			return fmt.Errorf("invalid owner id %q: %w", order.User, err)
		}
		doc.User = &owner
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	*order = doc.toModel()
	return nil
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc orderDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	o := doc.toModel()
	return &o, nil
}

func (r *MongoOrderRepository) FindAll(ctx context.Context, page models.Page) ([]models.OrderWithOwner, int, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	if page.Limit > 0 {
		pipeline = append(pipeline,
			bson.D{{Key: "$skip", Value: int64(page.Offset())}},
			bson.D{{Key: "$limit", Value: int64(page.Limit)}},
		)
	}
	pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: usersCollection},
		{Key: "localField", Value: "user"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "owner"},
	}}})

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("aggregate orders: %w", err)
	}
	defer cur.Close(ctx)

	orders := []models.OrderWithOwner{}
	for cur.Next(ctx) {
		var doc orderWithOwnerDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode order: %w", err)
		}
		var owner *models.OrderOwner
		if len(doc.Owner) > 0 {
			u := doc.Owner[0]
			owner = &models.OrderOwner{ID: u.ID.Hex(), Name: u.Name, Email: u.Email}
		}
		orders = append(orders, models.NewOrderWithOwner(doc.toModel(), owner))
	}
	return orders, int(total), cur.Err()
}

func (r *MongoOrderRepository) FindByUser(ctx context.Context, userID string) ([]models.Order, error) {
	oid, err := objectID(userID)
	if err != nil {
		return []models.Order{}, nil
	}

	cur, err := r.col.Find(ctx, bson.M{"user": oid}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cur.Close(ctx)

	orders := []models.Order{}
	for cur.Next(ctx) {
		var doc orderDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		orders = append(orders, doc.toModel())
	}
	return orders, cur.Err()
}

func (r *MongoOrderRepository) Update(ctx context.Context, order *models.Order) error {
	oid, err := objectID(order.ID)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": oid, "version": order.Version}
	if order.Version == 0 {
		// documents written before versioning have no version field
		filter["version"] = bson.M{"$exists": false}
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := r.col.UpdateOne(ctx, filter,
		bson.M{
			"$set": bson.M{
				"items":      itemDocuments(order.Items),
				"totalPrice": order.TotalPrice,
				"status":     string(order.Status),
				"updatedAt":  now,
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, oid)
	}

	order.Version++
	order.UpdatedAt = now
	return nil
}

func (r *MongoOrderRepository) Delete(ctx context.Context, id string, expectedVersion int64) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": oid}
	if expectedVersion != 0 {
		filter["version"] = expectedVersion
	}

	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if res.DeletedCount == 0 {
		return r.missOrConflict(ctx, oid)
	}
	return nil
}

// missOrConflict tells a vanished order from one whose version moved on.
func (r *MongoOrderRepository) missOrConflict(ctx context.Context, oid primitive.ObjectID) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("count order: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}
