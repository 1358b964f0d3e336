package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hafizmfadli/movie-catalog/internal/client"
	"github.com/hafizmfadli/movie-catalog/internal/data"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

func printList(w io.Writer, list *client.MovieList) error {
	tw := newTabWriter(w)

	fmt.Fprintln(tw, "ID\tTÍTULO\tANO\tGÊNEROS\tIMDB")
	for _, m := range list.Movies {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.1f\n", m.ID.Hex(), m.Title, m.Year, joinOrDash(m.Genres), m.Rating.Score)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nPágina %d de %d (%d filmes)\n", list.CurrentPage, list.TotalPages, list.TotalMovies)
	return err
}

func printMovie(w io.Writer, m *data.Movie) error {
	tw := newTabWriter(w)

	fmt.Fprintf(tw, "ID:\t%s\n", m.ID.Hex())
	fmt.Fprintf(tw, "Título:\t%s\n", m.Title)
	fmt.Fprintf(tw, "Ano:\t%d\n", m.Year)
	fmt.Fprintf(tw, "Diretor:\t%s\n", m.Director)
	fmt.Fprintf(tw, "Gêneros:\t%s\n", joinOrDash(m.Genres))
	fmt.Fprintf(tw, "Atores:\t%s\n", joinOrDash(m.Cast))
	fmt.Fprintf(tw, "IMDb:\t%.1f (%d votos)\n", m.Rating.Score, m.Rating.VoteCount)
	fmt.Fprintf(tw, "Poster:\t%s\n", m.Poster)
	fmt.Fprintf(tw, "Adicionado:\t%s\n", m.AddedAt.Format("2006-01-02"))
	fmt.Fprintf(tw, "Sinopse:\t%s\n", m.Synopsis)

	return tw.Flush()
}

func printSearch(w io.Writer, res *client.SearchResult) error {
	if res.Total == 0 {
		_, err := fmt.Fprintf(w, "Nenhum filme encontrado para %q\n", res.Term)
		return err
	}

	fmt.Fprintf(w, "%d resultado(s) para %q\n\n", res.Total, res.Term)

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "ID\tTÍTULO\tANO\tDIRETOR")
	for _, m := range res.Results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.ID.Hex(), m.Title, m.Year, m.Director)
	}
	return tw.Flush()
}

func printStats(w io.Writer, stats *data.Stats) error {
	if stats.Overall == nil {
		_, err := fmt.Fprintln(w, "O catálogo está vazio")
		return err
	}

	o := stats.Overall
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Total de filmes:\t%d\n", o.TotalMovies)
	fmt.Fprintf(tw, "Avaliação média:\t%.1f\n", o.AverageRating)
	fmt.Fprintf(tw, "Ano mais antigo:\t%d\n", o.OldestYear)
	fmt.Fprintf(tw, "Ano mais recente:\t%d\n", o.NewestYear)
	fmt.Fprintf(tw, "Ano médio:\t%.0f\n", o.AverageYear)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)

	tw = newTabWriter(w)
	fmt.Fprintln(tw, "GÊNERO\tFILMES\tAVALIAÇÃO MÉDIA\tANO MÉDIO")
	for _, g := range stats.ByGenre {
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.0f\n", g.Genre, g.Count, g.AverageRating, g.AverageYear)
	}
	return tw.Flush()
}

func printResult(w io.Writer, res *client.MovieResult) error {
	if _, err := fmt.Fprintln(w, res.Message); err != nil {
		return err
	}
	if res.Movie == nil {
		return nil
	}
	return printMovie(w, res.Movie)
}
