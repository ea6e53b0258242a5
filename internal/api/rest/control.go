package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenDeviceCore/internal/device"
	"github.com/KevinKickass/OpenDeviceCore/internal/types"
)

type controlRequest struct {
	ID   string  `json:"id" binding:"required"`
	Cmd  string  `json:"cmd"`
	Val  float64 `json:"val"`
	Text *string `json:"text"`
}

// POST /api/v1/control
// Applies a text write or a command+value write to one device. An unknown
// id is a silent no-op so stale panel buttons don't error after a
// reconfiguration; a malformed body is the client's fault.
func (s *Server) controlDevice(c *gin.Context) {
	var req controlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest,
			types.NewErrorResponse(types.CodeInvalidRequest, "invalid control request", err.Error()))
		return
	}
	if req.Cmd == "" && req.Text == nil {
		c.JSON(http.StatusBadRequest,
			types.NewErrorResponse(types.CodeInvalidRequest, "invalid control request",
				"either cmd or text is required"))
		return
	}

	found := s.lm.Registry().WithDevice(req.ID, func(d device.Device) {
		if req.Text != nil {
			d.WriteText(*req.Text)
		} else {
			d.Write(req.Cmd, req.Val)
		}
	})
	if !found {
		s.logger.Debug("Control for unknown device ignored", zap.String("id", req.ID))
	}

	c.JSON(http.StatusOK, gin.H{"applied": found})
}
