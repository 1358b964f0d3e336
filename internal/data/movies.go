package data

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/hafizmfadli/movie-catalog/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Defaults applied to fields the client leaves out (or sends empty) when
// creating a movie.
const (
	DefaultPoster   = "https://via.placeholder.com/300x450?text=Sem+Poster"
	DefaultSynopsis = "Sem sinopse disponível"
	DefaultDirector = "Desconhecido"
)

// searchLimit caps the number of results returned by a text search.
const searchLimit = 20

// Rating holds the IMDb data of a movie.
type Rating struct {
	Score      float64 `json:"avaliacao" bson:"avaliacao" validate:"gte=0,lte=10"`
	VoteCount  int64   `json:"votos" bson:"votos"`
	ExternalID *int64  `json:"id,omitempty" bson:"id,omitempty"`
}

type Movie struct {
	// Assigned by MongoDB on insert
	ID bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	// Movie title, unique across the catalog
	Title string `json:"titulo" bson:"titulo" validate:"required"`
	// Movie release year
	Year     int      `json:"ano" bson:"ano"`
	Poster   string   `json:"poster" bson:"poster"`
	Synopsis string   `json:"sinopse" bson:"sinopse"`
	Genres   []string `json:"generos" bson:"generos"`
	Director string   `json:"diretor" bson:"diretor"`
	Cast     []string `json:"atores" bson:"atores"`
	Rating   Rating   `json:"imdb" bson:"imdb"`
	// Timestamp for when the movie is added to the catalog
	AddedAt time.Time `json:"dataAdicionado" bson:"dataAdicionado"`
}

// normalize makes sure list fields are never null on the wire, even for
// documents written by other tools.
func (m *Movie) normalize() {
	if m.Genres == nil {
		m.Genres = []string{}
	}
	if m.Cast == nil {
		m.Cast = []string{}
	}
}

// SummaryRating is the subset of Rating included in list results.
type SummaryRating struct {
	Score float64 `json:"avaliacao" bson:"avaliacao"`
}

// MovieSummary is the projection returned by GetAll.
type MovieSummary struct {
	ID     bson.ObjectID `json:"_id" bson:"_id"`
	Title  string        `json:"titulo" bson:"titulo"`
	Year   int           `json:"ano" bson:"ano"`
	Poster string        `json:"poster" bson:"poster"`
	Genres []string      `json:"generos" bson:"generos"`
	Rating SummaryRating `json:"imdb" bson:"imdb"`
}

// summaryProjection selects the MovieSummary fields.
var summaryProjection = bson.D{
	{Key: "titulo", Value: 1},
	{Key: "ano", Value: 1},
	{Key: "poster", Value: 1},
	{Key: "generos", Value: 1},
	{Key: "imdb.avaliacao", Value: 1},
}

// RatingInput is the optional rating part of a MovieInput.
type RatingInput struct {
	Score      *float64 `json:"avaliacao,omitempty" validate:"omitnil,gte=0,lte=10"`
	VoteCount  *int64   `json:"votos,omitempty"`
	ExternalID *int64   `json:"id,omitempty"`
}

// MovieInput is the request body accepted when creating or updating a movie.
// A nil field means "not supplied".
type MovieInput struct {
	Title    *string      `json:"titulo,omitempty" validate:"omitnil,min=1"`
	Year     *int         `json:"ano,omitempty"`
	Poster   *string      `json:"poster,omitempty"`
	Synopsis *string      `json:"sinopse,omitempty"`
	Genres   *[]string    `json:"generos,omitempty"`
	Director *string      `json:"diretor,omitempty"`
	Cast     *[]string    `json:"atores,omitempty"`
	Rating   *RatingInput `json:"imdb,omitempty"`
}

// NewMovie builds a Movie from a create request, applying schema defaults
// for everything the client did not send.
func NewMovie(in MovieInput, now time.Time) *Movie {
	movie := &Movie{
		Poster:   DefaultPoster,
		Synopsis: DefaultSynopsis,
		Director: DefaultDirector,
		Genres:   []string{},
		Cast:     []string{},
		AddedAt:  now,
	}

	if in.Title != nil {
		movie.Title = *in.Title
	}
	if in.Year != nil {
		movie.Year = *in.Year
	}
	if in.Poster != nil && *in.Poster != "" {
		movie.Poster = *in.Poster
	}
	if in.Synopsis != nil && *in.Synopsis != "" {
		movie.Synopsis = *in.Synopsis
	}
	if in.Director != nil && *in.Director != "" {
		movie.Director = *in.Director
	}
	if in.Genres != nil && *in.Genres != nil {
		movie.Genres = *in.Genres
	}
	if in.Cast != nil && *in.Cast != nil {
		movie.Cast = *in.Cast
	}
	if in.Rating != nil {
		if in.Rating.Score != nil {
			movie.Rating.Score = *in.Rating.Score
		}
		if in.Rating.VoteCount != nil {
			movie.Rating.VoteCount = *in.Rating.VoteCount
		}
		movie.Rating.ExternalID = in.Rating.ExternalID
	}

	return movie
}

// ValidateMovieInput checks the fields that a create request must carry.
func ValidateMovieInput(v *validator.Validator, in MovieInput) {
	v.Check(in.Title != nil, "titulo", "must be provided")
	v.Check(in.Year != nil, "ano", "must be provided")
}

// ValidateMovie checks a complete movie against the schema constraints.
func ValidateMovie(v *validator.Validator, movie *Movie) {
	v.Struct(movie)
}

// ValidateMovieUpdate checks only the fields present in a partial update.
func ValidateMovieUpdate(v *validator.Validator, in MovieInput) {
	v.Struct(in)
}

// setDocument translates the supplied fields of in into the body of a $set
// operator. Nested rating fields are addressed by dotted path so that a
// partial rating leaves its siblings untouched.
func (in MovieInput) setDocument() bson.D {
	set := bson.D{}

	if in.Title != nil {
		set = append(set, bson.E{Key: "titulo", Value: *in.Title})
	}
	if in.Year != nil {
		set = append(set, bson.E{Key: "ano", Value: *in.Year})
	}
	if in.Poster != nil {
		set = append(set, bson.E{Key: "poster", Value: *in.Poster})
	}
	if in.Synopsis != nil {
		set = append(set, bson.E{Key: "sinopse", Value: *in.Synopsis})
	}
	if in.Genres != nil {
		set = append(set, bson.E{Key: "generos", Value: nonNil(*in.Genres)})
	}
	if in.Director != nil {
		set = append(set, bson.E{Key: "diretor", Value: *in.Director})
	}
	if in.Cast != nil {
		set = append(set, bson.E{Key: "atores", Value: nonNil(*in.Cast)})
	}
	if in.Rating != nil {
		if in.Rating.Score != nil {
			set = append(set, bson.E{Key: "imdb.avaliacao", Value: *in.Rating.Score})
		}
		if in.Rating.VoteCount != nil {
			set = append(set, bson.E{Key: "imdb.votos", Value: *in.Rating.VoteCount})
		}
		if in.Rating.ExternalID != nil {
			set = append(set, bson.E{Key: "imdb.id", Value: *in.Rating.ExternalID})
		}
	}

	return set
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// listFilter builds the query document for GetAll.
func listFilter(f Filters) bson.D {
	filter := bson.D{}
	if f.Genre != "" {
		filter = append(filter, bson.E{Key: "generos", Value: f.Genre})
	}
	if f.Year != nil {
		filter = append(filter, bson.E{Key: "ano", Value: *f.Year})
	}
	return filter
}

// searchFilter matches term as a literal, case-insensitive substring of any
// of the searchable fields.
func searchFilter(term string) bson.D {
	pattern := bson.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}

	fields := []string{"titulo", "sinopse", "diretor", "generos"}
	or := make(bson.A, 0, len(fields))
	for _, field := range fields {
		or = append(or, bson.D{{Key: field, Value: pattern}})
	}

	return bson.D{{Key: "$or", Value: or}}
}

// MovieModel wraps the movies collection.
type MovieModel struct {
	Collection *mongo.Collection
	// Timeout bounds every individual store call.
	Timeout time.Duration
}

func (m MovieModel) context(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// Insert adds movie to the collection and sets its ID. A movie with the
// same title yields ErrDuplicateTitle.
func (m MovieModel) Insert(ctx context.Context, movie *Movie) (err error) {
	defer observe("insert", time.Now(), &err)

	ctx, cancel := m.context(ctx)
	defer cancel()

	// The lookup gives a clean error in the common case; the unique index on
	// titulo is what actually guarantees uniqueness under concurrent inserts.
	err = m.Collection.FindOne(ctx, bson.D{{Key: "titulo", Value: movie.Title}}).Err()
	switch {
	case err == nil:
		return ErrDuplicateTitle
	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("check title: %w", err)
	}

	movie.normalize()

	result, err := m.Collection.InsertOne(ctx, movie)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("insert movie: %w", err)
	}

	if id, ok := result.InsertedID.(bson.ObjectID); ok {
		movie.ID = id
	}

	return nil
}

// Get returns the movie with the given id or ErrRecordNotFound.
func (m MovieModel) Get(ctx context.Context, id bson.ObjectID) (_ *Movie, err error) {
	defer observe("get", time.Now(), &err)

	ctx, cancel := m.context(ctx)
	defer cancel()

	var movie Movie
	err = m.Collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&movie)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("get movie: %w", err)
	}

	movie.normalize()
	return &movie, nil
}

// Update applies the supplied fields of in to the movie with the given id and
// returns the updated movie. Fields that are not supplied keep their values.
func (m MovieModel) Update(ctx context.Context, id bson.ObjectID, in MovieInput) (_ *Movie, err error) {
	set := in.setDocument()
	if len(set) == 0 {
		return m.Get(ctx, id)
	}

	defer observe("update", time.Now(), &err)

	ctx, cancel := m.context(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var movie Movie
	err = m.Collection.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		opts,
	).Decode(&movie)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrRecordNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, ErrDuplicateTitle
		default:
			return nil, fmt.Errorf("update movie: %w", err)
		}
	}

	movie.normalize()
	return &movie, nil
}

// Delete removes the movie with the given id and returns it as it was.
func (m MovieModel) Delete(ctx context.Context, id bson.ObjectID) (_ *Movie, err error) {
	defer observe("delete", time.Now(), &err)

	ctx, cancel := m.context(ctx)
	defer cancel()

	var movie Movie
	err = m.Collection.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&movie)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("delete movie: %w", err)
	}

	movie.normalize()
	return &movie, nil
}

// GetAll returns one page of movie summaries, newest first, along with the
// pagination metadata.
func (m MovieModel) GetAll(ctx context.Context, filters Filters) (_ []*MovieSummary, _ Metadata, err error) {
	defer observe("list", time.Now(), &err)

	ctx, cancel := m.context(ctx)
	defer cancel()

	filter := listFilter(filters)

	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "ano", Value: -1}}).
		SetSkip(int64(filters.offset())).
		SetLimit(int64(filters.limit()))

	cursor, err := m.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("list movies: %w", err)
	}

	movies := []*MovieSummary{}
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, Metadata{}, fmt.Errorf("decode movies: %w", err)
	}
	for _, movie := range movies {
		if movie.Genres == nil {
			movie.Genres = []string{}
		}
	}

	total, err := m.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("count movies: %w", err)
	}

	return movies, calculateMetadata(int(total), filters.Page, filters.PageSize), nil
}

// Search returns up to 20 movies whose title, synopsis, director or one of
// whose genres contains term, ignoring case.
func (m MovieModel) Search(ctx context.Context, term string) (_ []*Movie, err error) {
	defer observe("search", time.Now(), &err)

	ctx, cancel := m.context(ctx)
	defer cancel()

	cursor, err := m.Collection.Find(ctx, searchFilter(term), options.Find().SetLimit(searchLimit))
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}

	movies := []*Movie{}
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, fmt.Errorf("decode movies: %w", err)
	}
	for _, movie := range movies {
		movie.normalize()
	}

	return movies, nil
}

// Ping checks that the database answers.
func (m MovieModel) Ping(ctx context.Context) error {
	ctx, cancel := m.context(ctx)
	defer cancel()

	return m.Collection.Database().Client().Ping(ctx, nil)
}
