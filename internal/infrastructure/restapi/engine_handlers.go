package restapi

import (
	"errors"
	"net/http"
	"strconv"

	"wallet_engine/internal/app/service"
	"wallet_engine/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// EngineHandler exposes the wallet engine over HTTP.
type EngineHandler struct {
	engine *service.Engine
}

// NewEngineHandler creates a new EngineHandler instance.
func NewEngineHandler(engine *service.Engine) *EngineHandler {
	return &EngineHandler{engine: engine}
}

type statusResponse struct {
	Address       string   `json:"address"`
	BlockHeight   int64    `json:"blockHeight"`
	SyncProgress  float64  `json:"syncProgress"`
	EnabledAssets []string `json:"enabledAssets"`
}

// GetStatusHandler reports the wallet address, chain tip, scan progress and
// enabled assets.
func (h *EngineHandler) GetStatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{
		Address:       h.engine.GetFreshAddress(),
		BlockHeight:   h.engine.GetBlockHeight(),
		SyncProgress:  h.engine.GetSyncProgress(),
		EnabledAssets: h.engine.GetEnabledAssets(),
	})
}

// GetBalanceHandler returns the confirmed balance for one asset.
// Unknown assets report "0", matching the engine getter semantics.
func (h *EngineHandler) GetBalanceHandler(c *gin.Context) {
	code := c.Param("code")
	c.JSON(http.StatusOK, gin.H{
		"assetCode": code,
		"balance":   h.engine.GetBalance(code),
	})
}

// GetTransactionsHandler returns a page of the per-asset history.
// startIndex and limit are optional query params; out-of-range values
// are clamped rather than rejected.
func (h *EngineHandler) GetTransactionsHandler(c *gin.Context) {
	code := c.Param("code")
	startIndex, _ := strconv.Atoi(c.DefaultQuery("startIndex", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	txs := h.engine.GetTransactions(code, startIndex, limit)
	c.JSON(http.StatusOK, gin.H{
		"assetCode":    code,
		"total":        h.engine.GetTransactionCount(code),
		"transactions": txs,
	})
}

// GetEnabledAssetsHandler lists the asset codes currently being synced.
func (h *EngineHandler) GetEnabledAssetsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabledAssets": h.engine.GetEnabledAssets()})
}

type assetCodesRequest struct {
	AssetCodes []string `json:"assetCodes" binding:"required"`
}

// EnableAssetsHandler turns on syncing for the given asset codes.
func (h *EngineHandler) EnableAssetsHandler(c *gin.Context) {
	var req assetCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.engine.EnableAssets(req.AssetCodes)
	c.JSON(http.StatusOK, gin.H{"enabledAssets": h.engine.GetEnabledAssets()})
}

// DisableAssetsHandler turns off syncing for the given asset codes.
func (h *EngineHandler) DisableAssetsHandler(c *gin.Context) {
	var req assetCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.engine.DisableAssets(req.AssetCodes)
	c.JSON(http.StatusOK, gin.H{"enabledAssets": h.engine.GetEnabledAssets()})
}

// AddCustomTokenHandler registers a user-supplied token definition and
// enables it. Validation failures map to 400, attempts to redefine a
// built-in token map to 409.
func (h *EngineHandler) AddCustomTokenHandler(c *gin.Context) {
	var tok entity.TokenInfo
	if err := c.ShouldBindJSON(&tok); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.AddCustomToken(tok); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, entity.ErrCannotModifyToken) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assetCode": tok.AssetCode})
}

// SpendHandler validates a spend request and returns the unsigned draft.
// The caller submits the draft to the broadcast endpoint to send it.
func (h *EngineHandler) SpendHandler(c *gin.Context) {
	var req entity.SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.engine.BuildSpend(&req)
	if err != nil {
		c.JSON(spendErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// BroadcastHandler signs a draft at the current nonce, submits it and records
// it in the local history ahead of confirmation.
func (h *EngineHandler) BroadcastHandler(c *gin.Context) {
	var tx entity.Transaction
	if err := c.ShouldBindJSON(&tx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	signed, err := h.engine.SignTransaction(&tx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sent, err := h.engine.Broadcast(c.Request.Context(), signed)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.engine.SaveTransaction(sent)
	c.JSON(http.StatusOK, gin.H{"transaction": sent})
}

// ResyncHandler wipes the local history and restarts syncing from scratch.
func (h *EngineHandler) ResyncHandler(c *gin.Context) {
	h.engine.Resync()
	c.JSON(http.StatusAccepted, gin.H{"status": "resyncing"})
}

func spendErrorStatus(err error) int {
	switch {
	case errors.Is(err, entity.ErrInsufficientFunds),
		errors.Is(err, entity.ErrInsufficientFeeFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, entity.ErrUnsupportedAsset):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
