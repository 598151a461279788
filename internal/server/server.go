package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agenthands/infoase/internal/archive"
	"github.com/agenthands/infoase/internal/core"
	"github.com/agenthands/infoase/internal/core/chunker"
	"github.com/agenthands/infoase/internal/core/model"
	"github.com/agenthands/infoase/internal/logger"
)

type Server struct {
	Service *core.Service
	Log     *logger.Logger
}

func NewServer(svc *core.Service, log *logger.Logger) *Server {
	return &Server{Service: svc, Log: logger.OrNop(log)}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.Log), requestMetrics())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/extract", s.Extract)

	graphs := r.Group("/graphs")
	graphs.GET("", s.ListInstances)
	graphs.GET("/:instance", s.ExportGraph)
	graphs.GET("/:instance/status", s.Status)
	graphs.POST("/:instance/import", s.ImportGraph)
	graphs.POST("/:instance/extract", s.ExtractAndImport)
	graphs.DELETE("/:instance", s.Cleanup)

	archives := r.Group("/archives")
	archives.GET("", s.ListArchives)
	archives.POST("", s.SaveArchive)
	archives.GET("/:filename", s.ShowArchive)
	archives.DELETE("/:filename", s.DeleteArchive)
	archives.POST("/:filename/restore", s.RestoreArchive)

	return r
}

type ExtractRequest struct {
	Text      string             `json:"text"`
	Documents []chunker.Document `json:"documents"`
}

func (r ExtractRequest) documents() []chunker.Document {
	docs := r.Documents
	if r.Text != "" {
		docs = append([]chunker.Document{{Text: r.Text}}, docs...)
	}
	return docs
}

// ImportRequest carries either extracted fragments or a whole graph.
type ImportRequest struct {
	Fragments []model.Fragment `json:"fragments"`
	Graph     *model.Graph     `json:"graph"`
}

type SaveArchiveRequest struct {
	Instance    string `json:"instance"`
	Owner       string `json:"owner" binding:"required"`
	Description string `json:"description"`
}

type RestoreRequest struct {
	Instance string `json:"instance"`
}

func (s *Server) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.Service.ExtractDocuments(c.Request.Context(), req.documents())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) ListInstances(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"instances": s.Service.Instances(), "default": s.Service.DefaultInstance})
}

func (s *Server) ExportGraph(c *gin.Context) {
	g, err := s.Service.Export(c.Request.Context(), c.Param("instance"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) Status(c *gin.Context) {
	st, err := s.Service.Status(c.Request.Context(), c.Param("instance"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) ImportGraph(c *gin.Context) {
	var req ImportRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Graph == nil && len(req.Fragments) == 0 {
		badRequest(c, errors.New("fragments or graph required"))
		return
	}

	ctx := c.Request.Context()
	instance := c.Param("instance")
	fragments := req.Fragments
	if req.Graph != nil {
		fragments = append(fragments, model.Fragment{Nodes: req.Graph.Nodes, Relationships: req.Graph.Relationships})
	}
	for _, f := range fragments {
		model.Graph{Nodes: f.Nodes, Relationships: f.Relationships}.NormalizeNumbers()
	}
	res, err := s.Service.Import(ctx, instance, fragments)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) ExtractAndImport(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.Service.ExtractAndImport(c.Request.Context(), c.Param("instance"), req.documents())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) Cleanup(c *gin.Context) {
	if err := s.Service.Cleanup(c.Request.Context(), c.Param("instance")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ListArchives(c *gin.Context) {
	entries, err := s.Service.ListSnapshots(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if entries == nil {
		entries = []archive.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"archives": entries})
}

func (s *Server) SaveArchive(c *gin.Context) {
	var req SaveArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.Service.SaveSnapshot(c.Request.Context(), req.Instance, req.Owner, req.Description)
	if err != nil {
		s.fail(c, err)
		return
	}
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

func (s *Server) ShowArchive(c *gin.Context) {
	entry, g, err := s.Service.ShowSnapshot(c.Request.Context(), c.Param("filename"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry, "graph": g})
}

func (s *Server) DeleteArchive(c *gin.Context) {
	if err := s.Service.DeleteSnapshot(c.Request.Context(), c.Param("filename")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) RestoreArchive(c *gin.Context) {
	var req RestoreRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	res, err := s.Service.RestoreSnapshot(c.Request.Context(), c.Param("filename"), req.Instance)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
