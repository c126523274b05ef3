package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Nappiz/tcmudah-storefront/config"
	"github.com/Nappiz/tcmudah-storefront/controllers"
	"github.com/Nappiz/tcmudah-storefront/middleware"
)

func RegisterRoutes(
	r *gin.Engine,
	storefront *controllers.StorefrontController,
	cms *controllers.CMSController,
	cfg *config.Config,
) {
	r.GET("/health", storefront.Health)

	// Visitor routes keyed by the session cookie
	api := r.Group("/api")
	api.Use(
		middleware.SessionCookie(cfg.CookieName, cfg.CookieSecure, cfg.CartTTL),
		middleware.Identity(cfg.JWTSecret),
		middleware.ForwardCredentials(cfg.CookieName),
	)
	{
		api.GET("/catalog", storefront.GetCatalog)

		api.GET("/cart", storefront.GetCart)
		api.POST("/cart/items/:id/increment", storefront.IncrementItem)
		api.POST("/cart/items/:id/decrement", storefront.DecrementItem)
		api.DELETE("/cart", storefront.ClearCart)

		api.GET("/checkout", storefront.GetCheckout)
		api.POST("/checkout", storefront.OpenCheckout)
		api.PATCH("/checkout", storefront.UpdateDetails)
		api.POST("/checkout/proof", storefront.UploadProof)
		api.POST("/checkout/submit", storefront.SubmitCheckout)
		api.DELETE("/checkout", storefront.CloseCheckout)
	}

	// Admin area, proxied to the course API with the caller's credentials
	admin := r.Group("/api/cms")
	admin.Use(
		middleware.Identity(cfg.JWTSecret),
		middleware.CMSAccess(),
		middleware.ForwardCredentials(cfg.CookieName),
	)
	cms.Register(admin)
}
