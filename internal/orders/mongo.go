package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"harvestly/internal/models"
)

const collectionName = "orders"

type lineItemDocument struct {
	ProductID    string               `bson:"productId"`
	Name         string               `bson:"name"`
	Image        string               `bson:"image,omitempty"`
	Unit         string               `bson:"unit,omitempty"`
	Price        primitive.Decimal128 `bson:"price"`
	Quantity     int                  `bson:"quantity"`
	Stock        int                  `bson:"stock"`
	SellerID     string               `bson:"sellerId"`
	SellerName   string               `bson:"sellerName,omitempty"`
	FarmName     string               `bson:"farmName,omitempty"`
	FarmLocation string               `bson:"farmLocation,omitempty"`
}

type logisticsDocument struct {
	Status      string    `bson:"status"`
	Timestamp   time.Time `bson:"timestamp"`
	Description string    `bson:"description"`
}

type orderDocument struct {
	ID              string                 `bson:"_id"`
	BuyerID         string                 `bson:"buyerId"`
	BuyerName       string                 `bson:"buyerName"`
	BuyerEmail      string                 `bson:"buyerEmail"`
	BuyerPhone      string                 `bson:"buyerPhone"`
	Items           []lineItemDocument     `bson:"items"`
	Subtotal        primitive.Decimal128   `bson:"subtotal"`
	DeliveryFee     primitive.Decimal128   `bson:"deliveryFee"`
	Total           primitive.Decimal128   `bson:"total"`
	PaymentMethod   string                 `bson:"paymentMethod"`
	PaymentID       string                 `bson:"paymentId,omitempty"`
	DeliveryAddress models.DeliveryAddress `bson:"deliveryAddress"`
	Status          string                 `bson:"status"`
	CancelReason    string                 `bson:"cancelReason,omitempty"`
	ReturnReason    string                 `bson:"returnReason,omitempty"`
	Logistics       []logisticsDocument    `bson:"logistics"`
	CreatedAt       time.Time              `bson:"createdAt"`
	UpdatedAt       time.Time              `bson:"updatedAt"`
}

// MongoRepository stores orders in the "orders" collection. Money is kept as
// Decimal128 so totals never pass through float64.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(collectionName)}
}

func (r *MongoRepository) Insert(ctx context.Context, order models.Order) error {
	doc, err := toDocument(order)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (models.Order, error) {
	var doc orderDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return models.Order{}, models.ErrNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	return fromDocument(doc)
}

func (r *MongoRepository) ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	return r.find(ctx, bson.M{"buyerId": buyerID})
}

func (r *MongoRepository) List(ctx context.Context) ([]models.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

// Update replaces the order only if its stored status is still expected.
func (r *MongoRepository) Update(ctx context.Context, order models.Order, expected models.OrderStatus) error {
	doc, err := toDocument(order)
	if err != nil {
		return err
	}
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": order.ID, "status": string(expected)}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}

	count, err := r.coll.CountDocuments(ctx, bson.M{"_id": order.ID})
	if err != nil {
		return err
	}
	if count == 0 {
		return models.ErrNotFound
	}
	return ErrConflict
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert %s to decimal128: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("convert decimal128 %s: %w", v, err)
	}
	return d, nil
}

func toDocument(o models.Order) (orderDocument, error) {
	doc := orderDocument{
		ID:              o.ID,
		BuyerID:         o.BuyerID,
		BuyerName:       o.BuyerName,
		BuyerEmail:      o.BuyerEmail,
		BuyerPhone:      o.BuyerPhone,
		Items:           make([]lineItemDocument, 0, len(o.Items)),
		PaymentMethod:   o.PaymentMethod,
		PaymentID:       o.PaymentID,
		DeliveryAddress: o.DeliveryAddress,
		Status:          string(o.Status),
		CancelReason:    o.CancelReason,
		ReturnReason:    o.ReturnReason,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}

	var errs []error
	convert := func(dst *primitive.Decimal128, d decimal.Decimal) {
		v, err := toDecimal128(d)
		if err != nil {
			errs = append(errs, err)
		}
		*dst = v
	}
	convert(&doc.Subtotal, o.Subtotal)
	convert(&doc.DeliveryFee, o.DeliveryFee)
	convert(&doc.Total, o.Total)

	for _, item := range o.Items {
		line := lineItemDocument{
			ProductID:    item.ProductID,
			Name:         item.Name,
			Image:        item.Image,
			Unit:         item.Unit,
			Quantity:     item.Quantity,
			Stock:        item.Stock,
			SellerID:     item.SellerID,
			SellerName:   item.SellerName,
			FarmName:     item.FarmName,
			FarmLocation: item.FarmLocation,
		}
		convert(&line.Price, item.Price)
		doc.Items = append(doc.Items, line)
	}

	for _, u := range o.Logistics.Updates() {
		doc.Logistics = append(doc.Logistics, logisticsDocument{
			Status:      string(u.Status),
			Timestamp:   u.Timestamp,
			Description: u.Description,
		})
	}
	return doc, errors.Join(errs...)
}

func fromDocument(doc orderDocument) (models.Order, error) {
	o := models.Order{
		ID:              doc.ID,
		BuyerID:         doc.BuyerID,
		BuyerName:       doc.BuyerName,
		BuyerEmail:      doc.BuyerEmail,
		BuyerPhone:      doc.BuyerPhone,
		Items:           make([]models.LineItem, 0, len(doc.Items)),
		PaymentMethod:   doc.PaymentMethod,
		PaymentID:       doc.PaymentID,
		DeliveryAddress: doc.DeliveryAddress,
		Status:          models.OrderStatus(doc.Status),
		CancelReason:    doc.CancelReason,
		ReturnReason:    doc.ReturnReason,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}

	var errs []error
	convert := func(dst *decimal.Decimal, v primitive.Decimal128) {
		d, err := fromDecimal128(v)
		if err != nil {
			errs = append(errs, err)
		}
		*dst = d
	}
	convert(&o.Subtotal, doc.Subtotal)
	convert(&o.DeliveryFee, doc.DeliveryFee)
	convert(&o.Total, doc.Total)

	for _, line := range doc.Items {
		item := models.LineItem{
			ProductID:    line.ProductID,
			Name:         line.Name,
			Image:        line.Image,
			Unit:         line.Unit,
			Quantity:     line.Quantity,
			Stock:        line.Stock,
			SellerID:     line.SellerID,
			SellerName:   line.SellerName,
			FarmName:     line.FarmName,
			FarmLocation: line.FarmLocation,
		}
		convert(&item.Price, line.Price)
		o.Items = append(o.Items, item)
	}

	updates := make([]models.LogisticsUpdate, 0, len(doc.Logistics))
	for _, u := range doc.Logistics {
		updates = append(updates, models.LogisticsUpdate{
			Status:      models.OrderStatus(u.Status),
			Timestamp:   u.Timestamp,
			Description: u.Description,
		})
	}
	o.Logistics = models.RestoreTimeline(updates)
	return o, errors.Join(errs...)
}
