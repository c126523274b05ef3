package controllers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/Nappiz/tcmudah-storefront/errors"
	"github.com/Nappiz/tcmudah-storefront/logger"
	"github.com/Nappiz/tcmudah-storefront/middleware"
	"github.com/Nappiz/tcmudah-storefront/models"
	"github.com/Nappiz/tcmudah-storefront/services"
)

// StorefrontController serves the catalog, the visitor cart and checkout.
type StorefrontController struct {
	catalog       *services.CatalogCache
	sessions      *services.SessionManager
	proofMaxBytes int64
}

func NewStorefrontController(catalog *services.CatalogCache, sessions *services.SessionManager, proofMaxBytes int64) *StorefrontController {
	registerValidations()
	return &StorefrontController{catalog: catalog, sessions: sessions, proofMaxBytes: proofMaxBytes}
}

type catalogResponse struct {
	Classes     []models.ClassItem  `json:"classes"`
	Mentors     []models.Mentor     `json:"mentors"`
	Curriculums []models.Curriculum `json:"curriculums"`
	LoadedAt    time.Time           `json:"loaded_at"`
	Stale       bool                `json:"stale"`
}

type detailsRequest struct {
	SenderName string `json:"sender_name" binding:"max=100"`
	Note       string `json:"note" binding:"max=500"`
}

type submitResponse struct {
	Receipt  *models.Receipt     `json:"receipt"`
	Checkout models.CheckoutView `json:"checkout"`
}

func (sc *StorefrontController) session(c *gin.Context) *services.Session {
	userID, _ := middleware.GetUserID(c)
	return sc.sessions.Get(c.Request.Context(), middleware.GetSessionID(c), userID)
}

// GetCatalog reloads the catalog. If the reload fails but an older snapshot
// exists, that snapshot is served and flagged stale.
func (sc *StorefrontController) GetCatalog(c *gin.Context) {
	ctx := c.Request.Context()
	stale := false
	if err := sc.catalog.Refresh(ctx); err != nil {
		if !sc.catalog.Loaded() {
			fail(c, err)
			return
		}
		stale = true
	}
	c.JSON(http.StatusOK, catalogResponse{
		Classes:     sc.catalog.Visible(),
		Mentors:     sc.catalog.Mentors(),
		Curriculums: sc.catalog.Curriculums(),
		LoadedAt:    sc.catalog.LoadedAt(),
		Stale:       stale,
	})
}

func (sc *StorefrontController) GetCart(c *gin.Context) {
	sc.renderCart(c, sc.session(c))
}

func (sc *StorefrontController) IncrementItem(c *gin.Context) {
	sess := sc.session(c)
	sess.Cart.Increment(c.Param("id"))
	sc.renderCart(c, sess)
}

func (sc *StorefrontController) DecrementItem(c *gin.Context) {
	sess := sc.session(c)
	sess.Cart.Decrement(c.Param("id"))
	sc.renderCart(c, sess)
}

func (sc *StorefrontController) ClearCart(c *gin.Context) {
	sess := sc.session(c)
	sess.Cart.Clear()
	sc.renderCart(c, sess)
}

// renderCart prices against whatever catalog is available; lines that do
// not resolve are shown unpriced.
func (sc *StorefrontController) renderCart(c *gin.Context, sess *services.Session) {
	if err := sc.catalog.Load(c.Request.Context()); err != nil {
		logger.Warn(c, "pricing cart without catalog", zap.Error(err))
	}
	c.JSON(http.StatusOK, services.PriceCart(sess.Cart.Lines(), sc.catalog))
}

func (sc *StorefrontController) GetCheckout(c *gin.Context) {
	c.JSON(http.StatusOK, sc.session(c).CheckoutView())
}

func (sc *StorefrontController) OpenCheckout(c *gin.Context) {
	sess := sc.session(c)
	if _, err := sess.OpenCheckout(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.CheckoutView())
}

func (sc *StorefrontController) UpdateDetails(c *gin.Context) {
	var req detailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		c.Abort()
		return
	}
	sess := sc.session(c)
	if err := sess.SetCheckoutDetails(req.SenderName, req.Note); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.CheckoutView())
}

// UploadProof reads the multipart "file" field and stages it as the proof.
func (sc *StorefrontController) UploadProof(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, &services.ValidationError{Message: services.MsgProofRequired})
		return
	}
	if sc.proofMaxBytes > 0 && fh.Size > sc.proofMaxBytes {
		fail(c, services.ProofTooLarge(sc.proofMaxBytes))
		return
	}

	f, err := fh.Open()
	if err != nil {
		_ = c.Error(apperrors.Wrap(apperrors.ErrBadRequest, err))
		c.Abort()
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, sc.proofMaxBytes+1))
	if err != nil {
		_ = c.Error(apperrors.Wrap(apperrors.ErrBadRequest, err))
		c.Abort()
		return
	}

	sess := sc.session(c)
	err = sess.SelectProof(models.ProofFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.CheckoutView())
}

func (sc *StorefrontController) SubmitCheckout(c *gin.Context) {
	sess := sc.session(c)
	receipt, err := sess.SubmitCheckout(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, submitResponse{Receipt: receipt, Checkout: sess.CheckoutView()})
}

func (sc *StorefrontController) CloseCheckout(c *gin.Context) {
	if err := sc.session(c).CloseCheckout(); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Health reports liveness plus a few cheap internals.
func (sc *StorefrontController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"catalog_loaded": sc.catalog.Loaded(),
		"sessions":       sc.sessions.Len(),
	})
}
