package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	awspkg "github.com/Nappiz/tcmudah-storefront/pkg/aws"
)

// Metrics publishes request count and latency per route template. Error
// responses are counted separately with their status class.
func Metrics(metricsClient *awspkg.MetricsClient, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !metricsClient.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		dims := map[string]string{
			"Service": serviceName,
			"Area":    routeArea(route),
			"Route":   c.Request.Method + " " + route,
			"Status":  statusClass(status),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsClient.RecordCount(ctx, awspkg.MetricHTTPRequests, dims)
			_ = metricsClient.RecordLatency(ctx, awspkg.MetricHTTPLatency, elapsed, dims)
			if status >= 400 {
				_ = metricsClient.RecordCount(ctx, awspkg.MetricHTTPErrors, dims)
			}
		}()
	}
}

// routeArea groups routes so dashboards can split storefront from CMS traffic.
func routeArea(route string) string {
	switch {
	case strings.HasPrefix(route, "/api/cms"):
		return "cms"
	case strings.HasPrefix(route, "/api/checkout"):
		return "checkout"
	case strings.HasPrefix(route, "/api/"):
		return "storefront"
	default:
		return "system"
	}
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
