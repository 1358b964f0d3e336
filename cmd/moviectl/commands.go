package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hafizmfadli/movie-catalog/internal/client"
	"github.com/hafizmfadli/movie-catalog/internal/data"
	"github.com/urfave/cli/v3"
)

var (
	errMissingID       = errors.New("a movie id is required")
	errMissingTerm     = errors.New("a search term is required")
	errNothingToUpdate = errors.New("no fields to update")
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List movies, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "pagina",
				Aliases: []string{"p"},
				Usage:   "page number",
				Value:   data.DefaultPage,
			},
			&cli.IntFlag{
				Name:    "limite",
				Aliases: []string{"l"},
				Usage:   "movies per page",
				Value:   data.DefaultPageSize,
			},
			&cli.StringFlag{
				Name:  "genero",
				Usage: "only movies of this genre",
			},
			&cli.IntFlag{
				Name:  "ano",
				Usage: "only movies released this year",
			},
		},
		Action: runList,
	}
}

func runList(ctx context.Context, cmd *cli.Command) error {
	filters := client.ListFilters{Genre: cmd.String("genero")}
	if cmd.IsSet("ano") {
		year := cmd.Int("ano")
		filters.Year = &year
	}

	list, err := gateway(cmd).ListMovies(ctx, cmd.Int("pagina"), cmd.Int("limite"), filters)
	if err != nil {
		return err
	}

	return printList(stdout(cmd), list)
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show every field of a movie",
		ArgsUsage: "<id>",
		Action:    runShow,
	}
}

func runShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return errMissingID
	}

	movie, err := gateway(cmd).GetMovie(ctx, id)
	if err != nil {
		return err
	}

	return printMovie(stdout(cmd), movie)
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"busca"},
		Usage:     "Search titles, synopses, directors and genres",
		ArgsUsage: "<term>",
		Action:    runSearch,
	}
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	term := cmd.Args().First()
	if term == "" {
		return errMissingTerm
	}

	res, err := gateway(cmd).SearchMovies(ctx, term)
	if err != nil {
		return err
	}

	return printSearch(stdout(cmd), res)
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:    "stats",
		Aliases: []string{"estatisticas"},
		Usage:   "Print catalog statistics",
		Action:  runStats,
	}
}

func runStats(ctx context.Context, cmd *cli.Command) error {
	stats, err := gateway(cmd).MovieStats(ctx)
	if err != nil {
		return err
	}

	return printStats(stdout(cmd), stats)
}

// movieFlags are shared by add and edit. Title and year are mandatory only
// when creating.
func movieFlags(create bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "titulo", Usage: "title", Required: create},
		&cli.IntFlag{Name: "ano", Usage: "release year", Required: create},
		&cli.StringFlag{Name: "poster", Usage: "poster URL"},
		&cli.StringFlag{Name: "sinopse", Usage: "synopsis"},
		&cli.StringFlag{Name: "diretor", Usage: "director"},
		&cli.StringSliceFlag{Name: "genero", Usage: "genre (repeatable)"},
		&cli.StringSliceFlag{Name: "ator", Usage: "cast member (repeatable)"},
		&cli.FloatFlag{Name: "avaliacao", Usage: "IMDb rating, 0 to 10"},
		&cli.Int64Flag{Name: "votos", Usage: "IMDb vote count"},
	}
}

// movieInput collects the movie flags that were actually given.
func movieInput(cmd *cli.Command) data.MovieInput {
	var in data.MovieInput

	if cmd.IsSet("titulo") {
		v := cmd.String("titulo")
		in.Title = &v
	}
	if cmd.IsSet("ano") {
		v := cmd.Int("ano")
		in.Year = &v
	}
	if cmd.IsSet("poster") {
		v := cmd.String("poster")
		in.Poster = &v
	}
	if cmd.IsSet("sinopse") {
		v := cmd.String("sinopse")
		in.Synopsis = &v
	}
	if cmd.IsSet("diretor") {
		v := cmd.String("diretor")
		in.Director = &v
	}
	if cmd.IsSet("genero") {
		v := cmd.StringSlice("genero")
		in.Genres = &v
	}
	if cmd.IsSet("ator") {
		v := cmd.StringSlice("ator")
		in.Cast = &v
	}
	if cmd.IsSet("avaliacao") || cmd.IsSet("votos") {
		in.Rating = &data.RatingInput{}
		if cmd.IsSet("avaliacao") {
			v := cmd.Float("avaliacao")
			in.Rating.Score = &v
		}
		if cmd.IsSet("votos") {
			v := cmd.Int64("votos")
			in.Rating.VoteCount = &v
		}
	}

	return in
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:   "add",
		Usage:  "Add a movie to the catalog",
		Flags:  movieFlags(true),
		Action: runAdd,
	}
}

func runAdd(ctx context.Context, cmd *cli.Command) error {
	res, err := gateway(cmd).CreateMovie(ctx, movieInput(cmd))
	if err != nil {
		return err
	}

	return printResult(stdout(cmd), res)
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change some fields of a movie",
		ArgsUsage: "<id>",
		Flags:     movieFlags(false),
		Action:    runEdit,
	}
}

func runEdit(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return errMissingID
	}

	in := movieInput(cmd)
	if in == (data.MovieInput{}) {
		return errNothingToUpdate
	}

	res, err := gateway(cmd).UpdateMovie(ctx, id, in)
	if err != nil {
		return err
	}

	return printResult(stdout(cmd), res)
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Remove a movie from the catalog",
		ArgsUsage: "<id>",
		Action:    runDelete,
	}
}

func runDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return errMissingID
	}

	res, err := gateway(cmd).DeleteMovie(ctx, id)
	if err != nil {
		return err
	}

	return printResult(stdout(cmd), res)
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check that the API and its database are up",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			h, err := gateway(cmd).Health(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(stdout(cmd), "%s (%s, v%s)\n", h.Status, h.System.Environment, h.System.Version)
			return err
		},
	}
}
