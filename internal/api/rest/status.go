package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/OpenDeviceCore/internal/device"
)

// GET /api/v1/status
// Returns identity, category and a fresh reading for every device, in
// installation order.
func (s *Server) getStatus(c *gin.Context) {
	var devices []gin.H

	s.lm.Registry().Exec(func(v device.View) {
		all := v.All()
		devices = make([]gin.H, 0, len(all))
		for _, d := range all {
			devices = append(devices, gin.H{
				"id":       d.ID(),
				"name":     d.Name(),
				"driver":   d.Driver(),
				"pin":      d.Address(),
				"category": d.Category(),
				"val":      d.Read(),
			})
		}
	})

	c.JSON(http.StatusOK, gin.H{
		"devices": devices,
		"count":   len(devices),
	})
}
