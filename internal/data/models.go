package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hafizmfadli/movie-catalog/internal/metrics"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MoviesCollection is the name of the collection holding the catalog.
const MoviesCollection = "movies"

var (
	// ErrRecordNotFound is returned when an id does not resolve to a movie.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateTitle is returned when a movie with the same title exists.
	ErrDuplicateTitle = errors.New("duplicate title")
)

// Models is 'container' which can hold and respresent all your database models
type Models struct {
	Movies interface {
		Insert(ctx context.Context, movie *Movie) error
		Get(ctx context.Context, id bson.ObjectID) (*Movie, error)
		Update(ctx context.Context, id bson.ObjectID, in MovieInput) (*Movie, error)
		Delete(ctx context.Context, id bson.ObjectID) (*Movie, error)
		GetAll(ctx context.Context, filters Filters) ([]*MovieSummary, Metadata, error)
		Search(ctx context.Context, term string) ([]*Movie, error)
		Stats(ctx context.Context) (*Stats, error)
		Ping(ctx context.Context) error
	}
}

// NewModels return a Models struct backed by db.
func NewModels(db *mongo.Database, timeout time.Duration) Models {
	return Models{
		Movies: MovieModel{Collection: db.Collection(MoviesCollection), Timeout: timeout},
	}
}

// EnsureIndexes creates the indexes the movies collection relies on. The
// unique titulo index is what enforces title uniqueness.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "titulo", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_titulo"),
		},
		{Keys: bson.D{{Key: "ano", Value: -1}}},
		{Keys: bson.D{{Key: "generos", Value: 1}}},
	}

	_, err := db.Collection(MoviesCollection).Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("create movie indexes: %w", err)
	}
	return nil
}

// observe records the duration and outcome of a store operation. It is
// meant to be deferred with a pointer to the caller's named error.
func observe(operation string, start time.Time, err *error) {
	failed := err != nil && *err != nil &&
		!errors.Is(*err, ErrRecordNotFound) && !errors.Is(*err, ErrDuplicateTitle)
	metrics.RecordQuery(operation, time.Since(start), failed)
}
