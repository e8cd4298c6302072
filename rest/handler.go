package rest

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"doc-retriever/domain"
	"doc-retriever/logger"
	"doc-retriever/port"
	"doc-retriever/usecase"
)

// HealthChecker reports whether the retrieval backend is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler contains all HTTP handlers for the document retriever.
// search and index are nil when no retriever is configured.
type Handler struct {
	search *usecase.SearchDocumentsUsecase
	index  *usecase.IndexFilesUsecase
	ingest *usecase.IngestFilesUsecase
	health HealthChecker
}

func NewHandler(
	search *usecase.SearchDocumentsUsecase,
	index *usecase.IndexFilesUsecase,
	ingest *usecase.IngestFilesUsecase,
	health HealthChecker,
) *Handler {
	return &Handler{
		search: search,
		index:  index,
		ingest: ingest,
		health: health,
	}
}

// RegisterRoutes mounts the API on e. writeMiddleware guards the endpoints that modify the index.
func (h *Handler) RegisterRoutes(e *echo.Echo, writeMiddleware ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health)

	v1 := e.Group("/v1")
	v1.GET("/search", h.Search)
	v1.POST("/documents", h.AddDocuments, writeMiddleware...)
	v1.POST("/ingest", h.Ingest, writeMiddleware...)
}

type DocumentPayload struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type SearchResponse struct {
	Query     string            `json:"query"`
	Documents []DocumentPayload `json:"documents"`
	Total     int               `json:"total"`
}

type AddDocumentsRequest struct {
	Documents []DocumentPayload `json:"documents"`
	Refresh   *bool             `json:"refresh,omitempty"`
}

type IngestRequest struct {
	Paths   []string `json:"paths"`
	Refresh *bool    `json:"refresh,omitempty"`
}

type IndexResponse struct {
	Files     int      `json:"files"`
	Documents int      `json:"documents"`
	IDs       []string `json:"ids"`
	Indexed   bool     `json:"indexed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(c echo.Context, err error) error {
	httpErr := mapDomainError(err)
	if httpErr.Code >= http.StatusInternalServerError {
		logger.GlobalContext.LogError(c.Request().Context(), c.Path(), err)
	}
	msg, _ := httpErr.Message.(string)
	return c.JSON(httpErr.Code, errorResponse{Error: msg})
}

func noRetriever(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "no retriever configured"})
}

func (h *Handler) Health(c echo.Context) error {
	if h.health == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "retriever": "none"})
	}
	if err := h.health.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "search engine down", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Search handles GET /v1/search?q=
func (h *Handler) Search(c echo.Context) error {
	if h.search == nil {
		return noRetriever(c)
	}

	query := c.QueryParam("q")
	result, err := h.search.Execute(c.Request().Context(), query)
	if err != nil {
		return errorJSON(c, err)
	}

	resp := SearchResponse{
		Query:     result.Query,
		Documents: make([]DocumentPayload, 0, len(result.Documents)),
		Total:     result.Total,
	}
	for _, doc := range result.Documents {
		resp.Documents = append(resp.Documents, toPayload(doc))
	}

	logger.GlobalContext.WithContext(c.Request().Context()).Info("search ok", "query", result.Query, "count", result.Total)
	return c.JSON(http.StatusOK, resp)
}

// AddDocuments handles POST /v1/documents
func (h *Handler) AddDocuments(c echo.Context) error {
	if h.index == nil {
		return noRetriever(c)
	}

	var req AddDocumentsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}

	docs := make([]domain.Document, 0, len(req.Documents))
	for _, p := range req.Documents {
		docs = append(docs, domain.Document{ID: p.ID, Content: p.Content, Metadata: p.Metadata})
	}

	result, err := h.index.AddDocuments(c.Request().Context(), docs, refreshOptions(req.Refresh)...)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, toIndexResponse(result))
}

// Ingest handles POST /v1/ingest. Without a retriever the files are only parsed.
func (h *Handler) Ingest(c echo.Context) error {
	var req IngestRequest
	if err := c.Bind(&req); err != nil || len(req.Paths) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "paths are required"})
	}

	ctx := c.Request().Context()
	if h.index == nil {
		docs, err := h.ingest.Execute(ctx, req.Paths)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, IndexResponse{
			Files:     len(req.Paths),
			Documents: len(docs),
			IDs:       []string{},
		})
	}

	result, err := h.index.Execute(ctx, req.Paths, refreshOptions(req.Refresh)...)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, toIndexResponse(result))
}

func refreshOptions(refresh *bool) []port.AddOption {
	if refresh == nil {
		return nil
	}
	return []port.AddOption{port.WithRefresh(*refresh)}
}

func toPayload(doc domain.Document) DocumentPayload {
	return DocumentPayload{ID: doc.ID, Content: doc.Content, Metadata: doc.Metadata}
}

func toIndexResponse(result *usecase.IndexResult) IndexResponse {
	ids := result.IDs
	if ids == nil {
		ids = []string{}
	}
	return IndexResponse{
		Files:     result.FileCount,
		Documents: result.DocumentCount,
		IDs:       ids,
		Indexed:   true,
	}
}
