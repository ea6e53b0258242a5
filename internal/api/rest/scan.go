package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/OpenDeviceCore/internal/hal"
)

// GET /api/v1/scan
// Enumerates responsive bus addresses with identification hints. The scan
// itself is the backend's job; the core only decorates the result.
func (s *Server) scanBus(c *gin.Context) {
	addrs := s.lm.Backend().ScanBus()

	found := make([]gin.H, 0, len(addrs))
	for _, addr := range addrs {
		found = append(found, gin.H{
			"address": addr,
			"hex":     fmt.Sprintf("0x%02X", addr),
			"hints":   hal.IdentifyAddress(addr),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"devices": found,
		"count":   len(found),
	})
}
