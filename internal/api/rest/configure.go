package rest

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/OpenDeviceCore/internal/store"
	"github.com/KevinKickass/OpenDeviceCore/internal/types"
)

// POST /api/v1/config
// Replaces the full device and rule set. The payload must pass the snapshot
// schema as a whole; individual entries that fail validation are dropped
// and counted, not fatal. On schema failure nothing changes.
func (s *Server) applyConfig(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest,
			types.NewErrorResponse(types.CodeInvalidRequest, "unreadable request body", err.Error()))
		return
	}

	if err := s.lm.Store().Validate(body); err != nil {
		c.JSON(http.StatusBadRequest,
			types.NewErrorResponse(types.CodeMalformedConfig, "snapshot rejected", err.Error()))
		return
	}

	var snap store.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		c.JSON(http.StatusBadRequest,
			types.NewErrorResponse(types.CodeMalformedConfig, "snapshot rejected", err.Error()))
		return
	}

	result := s.lm.Reconfigure(snap)

	c.JSON(http.StatusOK, result)
}

// GET /api/v1/config
// Returns the live configuration in snapshot form.
func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, store.Snapshot{
		Devices: s.lm.Registry().Specs(),
		Rules:   s.lm.RuleEngine().Rules(),
	})
}
