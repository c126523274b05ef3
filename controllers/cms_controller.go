package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nappiz/tcmudah-storefront/clients"
	"github.com/Nappiz/tcmudah-storefront/models"
)

// CMSController exposes the course API collections to CMS users. Access
// control happens in middleware.CMSAccess.
type CMSController struct {
	api *clients.APIClient
}

func NewCMSController(api *clients.APIClient) *CMSController {
	registerValidations()
	return &CMSController{api: api}
}

// Register mounts every CMS collection under g.
func (cc *CMSController) Register(g *gin.RouterGroup) {
	mountReadOnly(g, "mentors", clients.NewResourceStore[models.Mentor](cc.api, clients.MentorsPath))
	mountResource(g, "curriculums", clients.NewResourceStore[models.Curriculum](cc.api, clients.CurriculumsPath))
	mountResource(g, "classes", clients.NewResourceStore[models.ClassItem](cc.api, clients.ClassesPath))
	mountResource(g, "orders", clients.NewResourceStore[models.Order](cc.api, clients.OrdersPath))
	mountResource(g, "enrollments", clients.NewResourceStore[models.Enrollment](cc.api, clients.EnrollmentsPath))
	mountResource(g, "testimonials", clients.NewResourceStore[models.Testimonial](cc.api, clients.TestimonialsPath))
	mountResource(g, "feedback", clients.NewResourceStore[models.Feedback](cc.api, clients.FeedbackPath))
	mountResource(g, "shortlinks", clients.NewResourceStore[models.Shortlink](cc.api, clients.ShortlinksPath))
}

type resourceHandler[T any] struct {
	store *clients.ResourceStore[T]
}

// mountReadOnly exposes only the list and get endpoints. Mentor profiles are
// managed in the course API itself.
func mountReadOnly[T any](g *gin.RouterGroup, name string, store *clients.ResourceStore[T]) *gin.RouterGroup {
	h := resourceHandler[T]{store: store}
	r := g.Group("/" + name)
	r.GET("", h.list)
	r.GET("/:id", h.get)
	return r
}

func mountResource[T any](g *gin.RouterGroup, name string, store *clients.ResourceStore[T]) {
	h := resourceHandler[T]{store: store}
	r := mountReadOnly(g, name, store)
	r.POST("", h.create)
	r.PUT("/:id", h.update)
	r.DELETE("/:id", h.remove)
}

func (h resourceHandler[T]) list(c *gin.Context) {
	items, err := h.store.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h resourceHandler[T]) get(c *gin.Context) {
	item, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h resourceHandler[T]) create(c *gin.Context) {
	var body T
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(bindError(err))
		c.Abort()
		return
	}
	item, err := h.store.Create(c.Request.Context(), body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h resourceHandler[T]) update(c *gin.Context) {
	var body T
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(bindError(err))
		c.Abort()
		return
	}
	item, err := h.store.Update(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h resourceHandler[T]) remove(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
