package dashboard

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"event-dashboard/charts"
	"event-dashboard/ingest"
	"event-dashboard/metrics"
	"event-dashboard/models"
	"event-dashboard/services"
	"event-dashboard/utils"
)

//go:embed web/index.html
var webFS embed.FS

const (
	dateLayout    = "2006-01-02"
	maxUploadSize = 64 << 20
)

// Server holds the Gin engine and dependencies for the web dashboard.
type Server struct {
	engine   *gin.Engine
	loader   *services.Loader
	session  *services.Session
	insights *services.InsightService
	metrics  *metrics.Collector
	logger   *utils.Logger
	location *time.Location
}

// New creates the dashboard server. m may be nil, which disables /metrics.
func New(loader *services.Loader, session *services.Session, insights *services.InsightService, m *metrics.Collector, logger *utils.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.MaxMultipartMemory = maxUploadSize

	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"date":     func(t time.Time) string { return t.Format(dateLayout) },
		"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
		"deref": func(t *time.Time) time.Time {
			if t == nil {
				return time.Time{}
			}
			return *t
		},
	}).ParseFS(webFS, "web/index.html"))
	engine.SetHTMLTemplate(tmpl)

	s := &Server{
		engine:   engine,
		loader:   loader,
		session:  session,
		insights: insights,
		metrics:  m,
		logger:   logger,
		location: time.UTC,
	}
	s.setupRoutes()
	return s
}

// SetLocation sets the zone date-range parameters are read in. It should
// match the zone timestamps are normalized into.
func (s *Server) SetLocation(loc *time.Location) {
	if loc != nil {
		s.location = loc
	}
}

// Handler exposes the engine for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", s.index)
	s.engine.POST("/upload", s.upload)

	s.engine.GET("/api/summary", s.summary)
	s.engine.GET("/charts/actors", s.actorChart)
	s.engine.GET("/charts/hours", s.hourChart)

	s.engine.GET("/healthz", func(c *gin.Context) {
		ds := s.session.Current()
		resp := gin.H{"status": "ok", "loaded": ds != nil}
		if ds != nil {
			resp["load_id"] = ds.LoadID
			resp["events"] = len(ds.Events)
		}
		c.JSON(http.StatusOK, resp)
	})

	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type pageData struct {
	Loaded  bool
	Error   string
	Summary *models.Summary
	// HourChart is the histogram URL carrying the active date range.
	HourChart template.URL
}

func (s *Server) index(c *gin.Context) {
	from, to, err := s.parseRange(c)
	if err != nil {
		c.HTML(http.StatusBadRequest, "index.html", s.page(nil, nil, err.Error()))
		return
	}
	c.HTML(http.StatusOK, "index.html", s.page(from, to, ""))
}

func (s *Server) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.HTML(http.StatusBadRequest, "index.html", s.page(nil, nil, "Seleccione el archivo CSV de Eventos"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.HTML(http.StatusBadRequest, "index.html", s.page(nil, nil, "Error al leer el archivo: "+err.Error()))
		return
	}
	defer f.Close()

	ds, err := s.loader.Load(c.Request.Context(), fh.Filename, f)
	if err != nil {
		s.logger.Error("[dashboard] Load of %s failed: %v", fh.Filename, err)
		status := http.StatusInternalServerError
		if isIngestError(err) {
			status = http.StatusBadRequest
		}
		c.HTML(status, "index.html", s.page(nil, nil, "Error al leer el archivo: "+err.Error()))
		return
	}

	s.session.Replace(ds)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) summary(c *gin.Context) {
	from, to, err := s.parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.insights.Generate(s.session.Current(), from, to))
}

func (s *Server) actorChart(c *gin.Context) {
	r := s.insights.Generate(s.session.Current(), nil, nil)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := charts.ActorPie(c.Writer, r.ActorCounts); err != nil {
		s.logger.Error("[dashboard] Render actor chart: %v", err)
		c.Status(http.StatusInternalServerError)
	}
}

func (s *Server) hourChart(c *gin.Context) {
	from, to, err := s.parseRange(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	r := s.insights.Generate(s.session.Current(), from, to)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := charts.HourHistogram(c.Writer, r.HourHistogram); err != nil {
		s.logger.Error("[dashboard] Render hour chart: %v", err)
		c.Status(http.StatusInternalServerError)
	}
}

func (s *Server) page(from, to *time.Time, msg string) pageData {
	ds := s.session.Current()
	data := pageData{Loaded: ds != nil, Error: msg, HourChart: "/charts/hours"}
	if ds == nil {
		return data
	}
	data.Summary = s.insights.Generate(ds, from, to)
	if data.Summary.From != nil && data.Summary.To != nil {
		q := url.Values{}
		q.Set("from", data.Summary.From.Format(dateLayout))
		q.Set("to", data.Summary.To.Format(dateLayout))
		data.HourChart = template.URL("/charts/hours?" + q.Encode())
	}
	return data
}

func (s *Server) parseRange(c *gin.Context) (*time.Time, *time.Time, error) {
	from, err := parseDate(c.Query("from"), s.location)
	if err != nil {
		return nil, nil, err
	}
	to, err := parseDate(c.Query("to"), s.location)
	if err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, errors.New("la fecha final es anterior a la inicial")
	}
	return from, to, nil
}

func parseDate(v string, loc *time.Location) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, loc)
	if err != nil {
		return nil, errors.New("fecha inválida: " + v)
	}
	return &t, nil
}

func isIngestError(err error) bool {
	return errors.Is(err, ingest.ErrColumnCount) || errors.Is(err, ingest.ErrUnknownEncoding) ||
		errors.Is(err, ingest.ErrMalformed)
}
