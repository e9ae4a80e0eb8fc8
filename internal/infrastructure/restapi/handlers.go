package restapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flarestudio/internal/app/port"
	"flarestudio/internal/domain/entity"
	"flarestudio/internal/pkg/utils"
)

// APIError is the body of every failed request.
type APIError struct {
	Kind    string `json:"kind,omitempty"`
	Cause   string `json:"cause,omitempty"`
	Message string `json:"message"`
}

// APIResponse wraps successful payloads.
type APIResponse struct {
	Data          interface{} `json:"data"`
	StatusMessage string      `json:"status_message,omitempty"`
}

// APIPricesResponse is the body of GET /api/v1/prices.
type APIPricesResponse struct {
	Network  string              `json:"network"`
	Quotes   []entity.PriceQuote `json:"quotes"`
	Failures []APISymbolFailure  `json:"failures,omitempty"`
}

// APISymbolFailure describes a symbol dropped from a batch.
type APISymbolFailure struct {
	Symbol  string `json:"symbol"`
	Cause   string `json:"cause,omitempty"`
	Message string `json:"message"`
}

// APIContract is a resolved contract.
type APIContract struct {
	Name    string `json:"name"`
	Network string `json:"network"`
	Address string `json:"address"`
}

type switchNetworkRequest struct {
	Name string `json:"name" binding:"required"`
}

// Handler serves the HTTP API on top of the application services.
type Handler struct {
	prices   port.PriceService
	epochs   port.EpochService
	binder   port.ContractBinder
	resolver port.ContractResolver
	networks port.NetworkDefinitionProvider
	prober   port.RPCProber
	logger   *zap.Logger
}

// NewHandler создает новый экземпляр Handler.
func NewHandler(
	prices port.PriceService,
	epochs port.EpochService,
	binder port.ContractBinder,
	resolver port.ContractResolver,
	networks port.NetworkDefinitionProvider,
	prober port.RPCProber,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		prices:   prices,
		epochs:   epochs,
		binder:   binder,
		resolver: resolver,
		networks: networks,
		prober:   prober,
		logger:   logger.Named("API"),
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "network": h.binder.ActiveNetwork().Name})
}

func (h *Handler) ListNetworks(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{
		Data: gin.H{
			"active":   h.binder.ActiveNetwork().Name,
			"networks": h.networks.GetAllNetworkDefinitions(),
		},
	})
}

func (h *Handler) NetworkHealth(c *gin.Context) {
	def, ok := h.networks.GetNetworkDefinitionByName(c.Param("name"))
	if !ok {
		h.fail(c, entity.ErrUnknownNetwork)
		return
	}
	results, err := h.prober.Probe(c.Request.Context(), def)
	if err != nil {
		h.fail(c, err)
		return
	}
	healthy := false
	for _, r := range results {
		if r.Error == "" && r.ChainIDMatches {
			healthy = true
			break
		}
	}
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, APIResponse{Data: results})
}

func (h *Handler) SwitchNetwork(c *gin.Context) {
	var req switchNetworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
		return
	}
	previous := h.binder.ActiveNetwork().Name
	def, err := h.binder.SwitchNetwork(req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	if def.Name != previous {
		h.prices.ForgetNetwork(previous)
	}
	c.JSON(http.StatusOK, APIResponse{Data: def, StatusMessage: "Active network switched."})
}

func (h *Handler) GetPrices(c *gin.Context) {
	symbols := utils.SplitCSV(c.QueryArray("symbols")...)
	res, err := h.prices.GetAllPrices(c.Request.Context(), symbols)
	if err != nil {
		h.fail(c, err)
		return
	}

	body := APIPricesResponse{Network: res.Network, Quotes: res.Quotes}
	for _, f := range res.Failures {
		af := APISymbolFailure{Symbol: f.Symbol, Message: f.Err.Error()}
		var pe *entity.PriceUnavailableError
		if errors.As(f.Err, &pe) {
			af.Cause = string(pe.Cause)
		}
		body.Failures = append(body.Failures, af)
	}

	msg := "Prices retrieved successfully."
	if len(res.Failures) > 0 {
		msg = "Prices retrieved. Some symbols were unavailable."
	}
	c.JSON(http.StatusOK, APIResponse{Data: body, StatusMessage: msg})
}

func (h *Handler) GetPrice(c *gin.Context) {
	quote, err := h.prices.GetPrice(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Data: quote})
}

func (h *Handler) SupportedSymbols(c *gin.Context) {
	symbols, err := h.prices.SupportedSymbols(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Data: symbols})
}

// CurrentEpoch flags approximate ids in the body. An unusable on-chain value is a 502.
func (h *Handler) CurrentEpoch(c *gin.Context) {
	info, err := h.epochs.CurrentEpoch(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	msg := ""
	if info.Approximate {
		msg = "Epoch id derived from wall-clock time."
	}
	c.JSON(http.StatusOK, APIResponse{Data: info, StatusMessage: msg})
}

func (h *Handler) VerifyEpochLength(c *gin.Context) {
	check, err := h.epochs.VerifyEpochLength(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Data: check})
}

func (h *Handler) ListContracts(c *gin.Context) {
	entries, err := h.resolver.ListContracts(c.Request.Context(), h.binder.ActiveNetwork())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Data: entries})
}

func (h *Handler) ResolveContract(c *gin.Context) {
	network := h.binder.ActiveNetwork()
	ref, err := h.resolver.Resolve(c.Request.Context(), c.Param("name"), network)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Data: APIContract{Name: string(ref.Name), Network: network.Name, Address: ref.Address.Hex()}})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	body := APIError{Message: err.Error()}
	if kind, ok := entity.KindOf(err); ok {
		body.Kind = string(kind)
	}
	var pe *entity.PriceUnavailableError
	if errors.As(err, &pe) {
		body.Cause = string(pe.Cause)
	}
	if status >= http.StatusInternalServerError {
		h.logger.Warn("Request failed", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, body)
}

// StatusFor maps a service error to an HTTP status.
func StatusFor(err error) int {
	var pe *entity.PriceUnavailableError
	if errors.As(err, &pe) {
		switch pe.Cause {
		case entity.CauseUnsupportedSymbol:
			return http.StatusNotFound
		case entity.CauseRevert:
			return http.StatusBadGateway
		default:
			return http.StatusServiceUnavailable
		}
	}
	var unreachable *entity.NetworkUnreachableError
	if errors.As(err, &unreachable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, entity.ErrUnknownNetwork) {
		return http.StatusNotFound
	}
	if errors.Is(err, entity.ErrUnexpectedOutput) {
		return http.StatusBadGateway
	}
	switch kind, _ := entity.KindOf(err); kind {
	case entity.KindContractNotFound:
		return http.StatusNotFound
	case entity.KindUnknownInterface:
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
