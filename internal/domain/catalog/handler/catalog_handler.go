// Package handler serves the catalog upload pages and the JSON API over echo.
package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog/parser"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog/service"
)

const (
	sessionName  = "price_adjuster"
	sessionIDKey = "sid"
	formFileKey  = "file"

	msgDownloadExpired = "That download has expired. Please upload the catalog again."
)

// Options configures the catalog handler
type Options struct {
	LogoURL        string
	MaxUploadBytes int64
	Version        string
}

// CatalogHandler handles catalog uploads, downloads and the adjust API
type CatalogHandler struct {
	catalogSvc *service.CatalogService
	sessions   sessions.Store
	renderer   *Renderer
	opts       Options
	logger     *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogSvc *service.CatalogService, store sessions.Store, opts Options, logger *slog.Logger) (*CatalogHandler, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &CatalogHandler{
		catalogSvc: catalogSvc,
		sessions:   store,
		renderer:   renderer,
		opts:       opts,
		logger:     logger,
	}, nil
}

// RegisterRoutes mounts the pages, the API and the health check on e and
// installs the page renderer.
func (h *CatalogHandler) RegisterRoutes(e *echo.Echo) {
	e.Renderer = h.renderer

	e.GET("/", h.Index)
	e.POST("/catalog", h.Upload)
	e.GET("/catalog/download/:id", h.Download)
	e.GET("/health", h.Health)

	api := e.Group("/api/v1")
	api.POST("/catalog/adjust", h.AdjustAPI)
}

// Index renders the upload page --> GET /
func (h *CatalogHandler) Index(c echo.Context) error {
	sess, _ := h.session(c)
	data := h.page()
	for _, f := range sess.Flashes() {
		if msg, ok := f.(string); ok {
			data.Flashes = append(data.Flashes, msg)
		}
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		h.logger.Warn("failed to save session", slog.Any("error", err))
	}
	return c.Render(http.StatusOK, pageIndex, data)
}

// Upload adjusts an uploaded catalog and renders before/after tables --> POST /catalog
func (h *CatalogHandler) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	sess, sessionID := h.session(c)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		h.logger.Warn("failed to save session", slog.Any("error", err))
	}

	fileName, data, err := h.readUpload(c)
	if err != nil {
		return h.renderError(c, err)
	}

	result, err := h.catalogSvc.Process(ctx, fileName, data, catalog.DefaultMarkupPercent)
	if err != nil {
		return h.renderError(c, err)
	}

	info, err := h.catalogSvc.SaveExport(ctx, sessionID, result)
	if err != nil {
		return h.renderError(c, err)
	}

	page := h.page()
	page.Result = &resultView{
		FileName:     fileName,
		Original:     newTableView(result.Original),
		Adjusted:     newTableView(result.Adjusted),
		DownloadURL:  "/catalog/download/" + info.ID.String(),
		DownloadName: service.ExportFileName,
	}
	return c.Render(http.StatusOK, pageResult, page)
}

// Download streams a stored updated catalog to the session that created it
// --> GET /catalog/download/:id
func (h *CatalogHandler) Download(c echo.Context) error {
	ctx := c.Request().Context()
	sess, sessionID := h.session(c)

	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.redirectWithFlash(c, sess, msgDownloadExpired)
	}

	rc, _, err := h.catalogSvc.OpenExport(ctx, sessionID, fileID)
	if err != nil {
		if !errors.Is(err, service.ErrArtifactNotFound) {
			h.logger.Error("failed to open export",
				slog.String("file_id", fileID.String()),
				slog.Any("error", err),
			)
		}
		return h.redirectWithFlash(c, sess, msgDownloadExpired)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, attachment(service.ExportFileName))
	return c.Stream(http.StatusOK, service.ExportContentType, rc)
}

// AdjustAPI adjusts an uploaded catalog and returns the CSV directly
// --> POST /api/v1/catalog/adjust
func (h *CatalogHandler) AdjustAPI(c echo.Context) error {
	fileName, data, err := h.readUpload(c)
	if err != nil {
		return h.apiError(c, err)
	}

	result, err := h.catalogSvc.Process(c.Request().Context(), fileName, data, catalog.DefaultMarkupPercent)
	if err != nil {
		return h.apiError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, attachment(service.ExportFileName))
	return c.Blob(http.StatusOK, service.ExportContentType, result.CSV)
}

// Health reports liveness --> GET /health
func (h *CatalogHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.opts.Version,
	})
}

// session returns the caller's session and its opaque id, creating both on
// first use. An unreadable cookie starts a fresh session.
func (h *CatalogHandler) session(c echo.Context) (*sessions.Session, uuid.UUID) {
	sess, err := h.sessions.Get(c.Request(), sessionName)
	if err != nil {
		h.logger.Debug("discarding invalid session", slog.Any("error", err))
	}

	if raw, ok := sess.Values[sessionIDKey].(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			return sess, id
		}
	}

	id := uuid.New()
	sess.Values[sessionIDKey] = id.String()
	return sess, id
}

func (h *CatalogHandler) readUpload(c echo.Context) (string, []byte, error) {
	fh, err := c.FormFile(formFileKey)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, errNoFile
		}
		return "", nil, fmt.Errorf("%w: %v", errNoFile, err)
	}
	if fh.Size > h.opts.MaxUploadBytes {
		return "", nil, errFileTooLarge
	}

	data, err := readFile(fh, h.opts.MaxUploadBytes)
	if err != nil {
		return "", nil, err
	}
	return fh.Filename, data, nil
}

func readFile(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, errFileTooLarge
	}
	return data, nil
}

func (h *CatalogHandler) renderError(c echo.Context, err error) error {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("catalog upload failed", slog.String("code", code), slog.Any("error", err))
	}

	page := h.page()
	page.Error = userMessage(err, status)
	return c.Render(status, pageIndex, page)
}

func (h *CatalogHandler) apiError(c echo.Context, err error) error {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("catalog adjust request failed", slog.String("code", code), slog.Any("error", err))
	}
	return c.JSON(status, APIError{Code: code, Message: userMessage(err, status)})
}

func (h *CatalogHandler) redirectWithFlash(c echo.Context, sess *sessions.Session, msg string) error {
	sess.AddFlash(msg)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		h.logger.Warn("failed to save session", slog.Any("error", err))
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *CatalogHandler) page() pageData {
	return pageData{
		LogoURL: h.opts.LogoURL,
		Accept:  strings.Join(parser.SupportedExtensions, ","),
		Markup:  formatPercent(catalog.DefaultMarkupPercent),
	}
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
