package services

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"event-dashboard/models"
	"event-dashboard/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate builds the dashboard summary for ds. Nil bounds fall back to the
// dataset's own range. A nil or empty dataset yields zero counts and an
// undefined range.
func (s *InsightService) Generate(ds *models.Dataset, from, to *time.Time) *models.Summary {
	report := &models.Summary{
		UniqueDescriptions: []string{},
		UniqueActors:       []string{},
		Filtered:           []models.EventRecord{},
		ActorCounts:        []models.ActorCount{},
	}
	if ds == nil {
		return report
	}

	report.LoadID = ds.LoadID
	report.Source = ds.Source
	report.TotalEvents = len(ds.Events)

	descriptions := utils.NewOrderedSet()
	actors := utils.NewOrderedSet()
	for _, e := range ds.Events {
		if e.Description != nil {
			descriptions.Add(*e.Description)
		}
		actors.Add(e.Actor)
	}
	report.UniqueDescriptions = descriptions.Items()
	report.UniqueActors = actors.Items()
	report.Range = DateSpan(ds.Events)

	if report.Range.Valid {
		start, end := report.Range.Min, report.Range.Max
		if from != nil {
			start = *from
		}
		if to != nil {
			end = *to
		}
		report.From, report.To = &start, &end
	}

	report.Filtered = FilterRange(ds.Events, report.From, report.To)
	report.HourHistogram = HourHistogram(report.Filtered)

	if ds.ActorCounts != nil {
		report.ActorCounts = ds.ActorCounts
	} else {
		report.ActorCounts = CountByActor(ds.Events)
	}
	return report
}

// DateSpan returns the min and max timestamps of events.
func DateSpan(events []models.EventRecord) models.DateRange {
	var r models.DateRange
	for _, e := range events {
		if !r.Valid {
			r = models.DateRange{Min: e.Timestamp, Max: e.Timestamp, Valid: true}
			continue
		}
		if e.Timestamp.Before(r.Min) {
			r.Min = e.Timestamp
		}
		if e.Timestamp.After(r.Max) {
			r.Max = e.Timestamp
		}
	}
	return r
}

// FilterRange keeps events from the start of from's day through the end of
// to's day. Nil bounds are open.
func FilterRange(events []models.EventRecord, from, to *time.Time) []models.EventRecord {
	out := make([]models.EventRecord, 0, len(events))
	var lo, hi time.Time
	if from != nil {
		lo = startOfDay(*from)
	}
	if to != nil {
		hi = startOfDay(*to).AddDate(0, 0, 1)
	}

	for _, e := range events {
		if from != nil && e.Timestamp.Before(lo) {
			continue
		}
		if to != nil && !e.Timestamp.Before(hi) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// HourHistogram counts events per hour of day.
func HourHistogram(events []models.EventRecord) [24]int {
	var buckets [24]int
	for _, e := range events {
		buckets[e.Timestamp.Hour()]++
	}
	return buckets
}

// CountByActor is the in-memory equivalent of the store's grouped query.
func CountByActor(events []models.EventRecord) []models.ActorCount {
	byActor := make(map[string]int)
	for _, e := range events {
		byActor[e.Actor]++
	}

	counts := make([]models.ActorCount, 0, len(byActor))
	for actor, n := range byActor {
		counts = append(counts, models.ActorCount{Actor: actor, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Actor < counts[j].Actor
	})
	return counts
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	styleSection = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	styleValue   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleTile    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)
)

// Print renders the summary for a terminal.
func (s *InsightService) Print(w io.Writer, r *models.Summary) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n%s\n", styleTitle.Render(sep))
	fmt.Fprintf(w, "%s\n", styleTitle.Render("  Dashboard de Eventos de Sistema"))
	fmt.Fprintf(w, "%s\n\n", styleTitle.Render(sep))

	tiles := lipgloss.JoinHorizontal(lipgloss.Top,
		tile("Total de Eventos", r.TotalEvents),
		tile("Tipos de Eventos Únicos", len(r.UniqueDescriptions)),
		tile("Usuarios Únicos", len(r.UniqueActors)),
	)
	fmt.Fprintln(w, tiles)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n  %s\n", styleSection.Render("  Rango de Fechas"), thin)
	if r.Range.Valid {
		fmt.Fprintf(w, "  %s → %s\n", r.Range.Min.Format("2006-01-02"), r.Range.Max.Format("2006-01-02"))
		if r.From != nil && r.To != nil {
			fmt.Fprintf(w, "  Filtro: %s → %s (%d eventos)\n",
				r.From.Format("2006-01-02"), r.To.Format("2006-01-02"), len(r.Filtered))
		}
	} else {
		fmt.Fprintf(w, "  %s\n", styleMuted.Render("Sin eventos"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n  %s\n", styleSection.Render("  Eventos Únicos"), thin)
	printList(w, r.UniqueDescriptions)

	fmt.Fprintf(w, "%s\n  %s\n", styleSection.Render("  Usuarios con Más Eventos"), thin)
	if len(r.ActorCounts) == 0 {
		fmt.Fprintf(w, "  %s\n", styleMuted.Render("Sin usuarios"))
	}
	for _, ac := range r.ActorCounts {
		bar := strings.Repeat("█", scaled(ac.Count, maxActorCount(r.ActorCounts), 30))
		fmt.Fprintf(w, "  %-24s %s (%d)\n", truncate(ac.Actor, 22), bar, ac.Count)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n  %s\n", styleSection.Render("  Eventos por Hora del Día"), thin)
	peak := 0
	for _, n := range r.HourHistogram {
		if n > peak {
			peak = n
		}
	}
	for hour, n := range r.HourHistogram {
		bar := strings.Repeat("█", scaled(n, peak, 30))
		fmt.Fprintf(w, "  %02d  %s %s\n", hour, bar, styleMuted.Render(fmt.Sprint(n)))
	}

	fmt.Fprintf(w, "\n%s\n\n", styleTitle.Render(sep))
}

func tile(label string, value int) string {
	return styleTile.Render(styleMuted.Render(label) + "\n" + styleValue.Render(fmt.Sprint(value)))
}

func printList(w io.Writer, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(w, "  %s\n\n", styleMuted.Render("(vacío)"))
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "  • %s\n", truncate(it, 50))
	}
	fmt.Fprintln(w)
}

func maxActorCount(counts []models.ActorCount) int {
	peak := 0
	for _, c := range counts {
		if c.Count > peak {
			peak = c.Count
		}
	}
	return peak
}

// scaled maps n in [0, peak] onto [0, width], keeping non-zero values visible.
func scaled(n, peak, width int) int {
	if n <= 0 || peak <= 0 {
		return 0
	}
	if v := n * width / peak; v > 0 {
		return v
	}
	return 1
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
