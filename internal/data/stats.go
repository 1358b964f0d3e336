package data

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// topGenres is how many genres the per-genre breakdown keeps.
const topGenres = 10

// GenreStats summarizes the movies tagged with one genre.
type GenreStats struct {
	Genre         string  `json:"genero" bson:"genero"`
	Count         int     `json:"quantidade" bson:"quantidade"`
	AverageRating float64 `json:"avaliacaoMedia" bson:"avaliacaoMedia"`
	AverageYear   float64 `json:"anoMedio" bson:"anoMedio"`
}

// OverallStats summarizes the whole collection.
type OverallStats struct {
	TotalMovies   int     `json:"totalFilmes" bson:"totalFilmes"`
	AverageRating float64 `json:"avaliacaoMedia" bson:"avaliacaoMedia"`
	OldestYear    int     `json:"anoMaisAntigo" bson:"anoMaisAntigo"`
	NewestYear    int     `json:"anoMaisRecente" bson:"anoMaisRecente"`
	AverageYear   float64 `json:"mediaAno" bson:"mediaAno"`
}

// Stats is the result of both aggregations. Overall is nil when the
// collection is empty.
type Stats struct {
	ByGenre []GenreStats  `json:"porGenero"`
	Overall *OverallStats `json:"geral,omitempty"`
}

// genrePipeline counts movies per genre (a movie with N genres lands in N
// groups) and keeps the most common ones.
func genrePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$generos"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$generos"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avaliacaoMedia", Value: bson.D{{Key: "$avg", Value: "$imdb.avaliacao"}}},
			{Key: "anoMedio", Value: bson.D{{Key: "$avg", Value: "$ano"}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "count", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$limit", Value: topGenres}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "genero", Value: "$_id"},
			{Key: "quantidade", Value: "$count"},
			{Key: "avaliacaoMedia", Value: bson.D{{Key: "$round", Value: bson.A{"$avaliacaoMedia", 1}}}},
			{Key: "anoMedio", Value: bson.D{{Key: "$round", Value: bson.A{"$anoMedio", 0}}}},
		}}},
	}
}

// overallPipeline folds the whole collection into a single document. It
// yields no document at all for an empty collection.
func overallPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalFilmes", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avaliacaoMedia", Value: bson.D{{Key: "$avg", Value: "$imdb.avaliacao"}}},
			{Key: "anoMaisAntigo", Value: bson.D{{Key: "$min", Value: "$ano"}}},
			{Key: "anoMaisRecente", Value: bson.D{{Key: "$max", Value: "$ano"}}},
			{Key: "mediaAno", Value: bson.D{{Key: "$avg", Value: "$ano"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "totalFilmes", Value: 1},
			{Key: "avaliacaoMedia", Value: bson.D{{Key: "$round", Value: bson.A{"$avaliacaoMedia", 2}}}},
			{Key: "anoMaisAntigo", Value: 1},
			{Key: "anoMaisRecente", Value: 1},
			{Key: "mediaAno", Value: bson.D{{Key: "$round", Value: bson.A{"$mediaAno", 0}}}},
		}}},
	}
}

// Stats runs the per-genre and overall aggregations.
func (m MovieModel) Stats(ctx context.Context) (_ *Stats, err error) {
	defer observe("stats", time.Now(), &err)

	ctx, cancel := m.context(ctx)
	defer cancel()

	stats := &Stats{ByGenre: []GenreStats{}}

	cursor, err := m.Collection.Aggregate(ctx, genrePipeline())
	if err != nil {
		return nil, fmt.Errorf("aggregate genres: %w", err)
	}
	if err := cursor.All(ctx, &stats.ByGenre); err != nil {
		return nil, fmt.Errorf("decode genre stats: %w", err)
	}

	cursor, err = m.Collection.Aggregate(ctx, overallPipeline())
	if err != nil {
		return nil, fmt.Errorf("aggregate overall: %w", err)
	}

	var overall []OverallStats
	if err := cursor.All(ctx, &overall); err != nil {
		return nil, fmt.Errorf("decode overall stats: %w", err)
	}
	if len(overall) > 0 {
		stats.Overall = &overall[0]
	}

	return stats, nil
}
