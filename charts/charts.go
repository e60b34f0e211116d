package charts

import (
	"fmt"
	"io"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"event-dashboard/models"
)

// ActorPie writes a pie chart of event counts per actor as an HTML document.
func ActorPie(w io.Writer, counts []models.ActorCount) error {
	items := make([]opts.PieData, 0, len(counts))
	for _, c := range counts {
		items = append(items, opts.PieData{Name: c.Actor, Value: c.Count})
	}

	pie := echarts.NewPie()
	pie.SetGlobalOptions(
		echarts.WithInitializationOpts(opts.Initialization{PageTitle: "Usuarios con Más Eventos", Width: "100%"}),
		echarts.WithTitleOpts(opts.Title{Title: "Usuarios con Más Eventos"}),
	)
	pie.AddSeries("Frecuencia", items)
	return pie.Render(w)
}

// HourHistogram writes a 24-bucket bar chart of events per hour of day.
func HourHistogram(w io.Writer, buckets [24]int) error {
	hours := make([]string, 24)
	data := make([]opts.BarData, 24)
	for h := 0; h < 24; h++ {
		hours[h] = fmt.Sprintf("%d", h)
		data[h] = opts.BarData{Value: buckets[h]}
	}

	bar := echarts.NewBar()
	bar.SetGlobalOptions(
		echarts.WithInitializationOpts(opts.Initialization{PageTitle: "Eventos por Hora", Width: "100%"}),
		echarts.WithTitleOpts(opts.Title{Title: "Histograma de Eventos por Hora del Día"}),
		echarts.WithXAxisOpts(opts.XAxis{Name: "Hora del Día"}),
		echarts.WithYAxisOpts(opts.YAxis{Name: "Cantidad de Eventos"}),
	)
	bar.SetXAxis(hours).AddSeries("Cantidad de Eventos", data)
	return bar.Render(w)
}
