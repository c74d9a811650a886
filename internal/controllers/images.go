package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/zaqqye/toolcrib/internal/codegen"
	"github.com/zaqqye/toolcrib/internal/metrics"
)

// NewImageCache holds rendered barcode PNGs keyed by barcode value.
func NewImageCache(ttl time.Duration) *cache.Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return cache.New(ttl, 2*ttl)
}

func writeBarcodePNG(c *gin.Context, images *cache.Cache, barcode string) {
	if barcode == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no barcode assigned"})
		return
	}
	if images != nil {
		if png, ok := images.Get(barcode); ok {
			metrics.BarcodeRenders.WithLabelValues("hit").Inc()
			c.Data(http.StatusOK, "image/png", png.([]byte))
			return
		}
	}
	metrics.BarcodeRenders.WithLabelValues("miss").Inc()
	png, err := codegen.GenerateBarcodeImage(barcode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if images != nil {
		images.SetDefault(barcode, png)
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/png", png)
}
