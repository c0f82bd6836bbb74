package minter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NethermindEth/solmint/pkg/minter/debug"
	"github.com/NethermindEth/solmint/pkg/minter/nft"
	"github.com/NethermindEth/solmint/pkg/minter/pipeline"
	"github.com/NethermindEth/solmint/pkg/minter/relay"
)

const maxUploadSize = 32 << 20

type fileResponse struct {
	Success    bool   `json:"success"`
	FileBuffer []byte `json:"fileBuffer"`
}

type fileErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type walletResponse struct {
	Address   string `json:"address"`
	Connected bool   `json:"connected"`
	Cluster   string `json:"cluster"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (m *Minter) generateRouter() (*gin.Engine, error) {
	if !debug.IsDebugGin() {
		gin.SetMode(gin.ReleaseMode)
	}

	requests, err := newRequestMetrics(m.registry)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), requests.handler())
	router.MaxMultipartMemory = maxUploadSize

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})))

	router.GET("/address", func(c *gin.Context) {
		c.String(http.StatusOK, m.Address())
	})

	router.GET("/quote", func(c *gin.Context) {
		quote, err := m.Quote(c.Request.Context())
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}

		c.JSON(http.StatusOK, quote)
	})

	router.GET("/wallet", m.handleWallet)
	router.POST("/wallet/connect", func(c *gin.Context) {
		m.wallet.Connect()
		m.handleWallet(c)
	})
	router.POST("/wallet/disconnect", func(c *gin.Context) {
		m.wallet.Disconnect()
		m.handleWallet(c)
	})

	api := router.Group("/api")
	api.POST("/upload-file", m.handleUploadFile)
	api.POST("/drafts", m.handleCreateDraft)
	api.GET("/drafts/:id", m.handleGetDraft)
	api.PUT("/drafts/:id", m.handleUpdateDraft)
	api.POST("/drafts/:id/mint", m.handleMintDraft)

	return router, nil
}

func (m *Minter) GetRouter() *gin.Engine {
	return m.apiRouter
}

func (m *Minter) handleWallet(c *gin.Context) {
	c.JSON(http.StatusOK, walletResponse{
		Address:   m.Address(),
		Connected: m.wallet.Connected(),
		Cluster:   m.cluster,
	})
}

func (m *Minter) handleUploadFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, fileErrorResponse{Error: "No file uploaded"})
		return
	}

	data, err := m.relayFile(header)
	if err != nil {
		if errors.Is(err, relay.ErrNoFile) {
			c.JSON(http.StatusBadRequest, fileErrorResponse{Error: "No file uploaded"})
			return
		}
		slog.Error("failed to relay file", "filename", header.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, fileErrorResponse{Error: err.Error()})
		return
	}

	if data == nil {
		data = []byte{}
	}
	c.JSON(http.StatusOK, fileResponse{Success: true, FileBuffer: data})
}

func (m *Minter) handleCreateDraft(c *gin.Context) {
	draft := &nft.Draft{}
	if err := m.bindDraft(c, draft); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	machine := m.CreateDraft(draft)
	c.JSON(http.StatusCreated, machine.Snapshot())
}

func (m *Minter) handleGetDraft(c *gin.Context) {
	machine, err := m.GetDraft(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, machine.Snapshot())
}

func (m *Minter) handleUpdateDraft(c *gin.Context) {
	machine, err := m.GetDraft(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	draft := machine.Draft()
	if err := m.bindDraft(c, draft); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := machine.UpdateDraft(draft); err != nil {
		if errors.Is(err, pipeline.ErrMintInProgress) {
			c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, machine.Snapshot())
}

func (m *Minter) handleMintDraft(c *gin.Context) {
	snapshot, err := m.MintDraft(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, snapshot)
	case errors.Is(err, ErrDraftNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, pipeline.ErrMintInProgress):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrShuttingDown):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

// bindDraft applies the submitted form fields to draft. Text fields are
// always replaced; the image only when a file is attached.
func (m *Minter) bindDraft(c *gin.Context, draft *nft.Draft) error {
	draft.Name = c.PostForm("name")
	draft.Symbol = c.PostForm("symbol")
	draft.Description = c.PostForm("description")

	draft.Royalty = 0
	if royalty := strings.TrimSpace(c.PostForm("royalty")); royalty != "" {
		value, err := strconv.ParseFloat(royalty, 64)
		if err != nil {
			return fmt.Errorf("invalid royalty: %w", err)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("invalid royalty: %q is not a finite number", royalty)
		}
		draft.Royalty = value
	}

	draft.Attributes = nil
	if attributes := strings.TrimSpace(c.PostForm("attributes")); attributes != "" {
		if err := json.Unmarshal([]byte(attributes), &draft.Attributes); err != nil {
			return fmt.Errorf("invalid attributes: %w", err)
		}
	}

	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid file: %w", err)
	}

	data, err := m.relayFile(header)
	if err != nil {
		return err
	}

	draft.Image = data
	draft.ImageName = header.Filename
	draft.ImageType = header.Header.Get("Content-Type")
	if draft.ImageType == "application/octet-stream" {
		draft.ImageType = ""
	}

	return nil
}

func (m *Minter) relayFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return m.relay.Upload(header.Filename, file)
}

type requestMetrics struct {
	requestCount *prometheus.CounterVec
}

func newRequestMetrics(reg prometheus.Registerer) (*requestMetrics, error) {
	m := &requestMetrics{
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
	}

	if err := reg.Register(m.requestCount); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *requestMetrics) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.requestCount.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
