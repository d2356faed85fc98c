package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	svcErr "github.com/oggyb/tripmate-match/internal/errors"
	"github.com/oggyb/tripmate-match/internal/service/matching"
)

// Handler exposes MatchingService over JSON/HTTP. It goes through the same
// service methods as gRPC, so both surfaces share validation and error
// mapping.
type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func abortWithError(c *gin.Context, err error) {
	code, msg := svcErr.HTTPStatus(err)
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// Discover handles GET /v1/users/:id/discover.
func (h *Handler) Discover(c *gin.Context) {
	var q discoverQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "malformed query string")
		return
	}
	if err := validate.Struct(q); err != nil {
		badRequest(c, validationMessage(err))
		return
	}

	resp, err := h.svc.Discover(c.Request.Context(), &matching.DiscoverRequest{
		UserID:        c.Param("id"),
		MaxDistanceKm: q.MaxDistance,
		UserType:      q.UserType,
		IsGuide:       q.IsGuide,
		HasCar:        q.HasCar,
		HasMotorcycle: q.HasMotorcycle,
		Gender:        q.Gender,
		OnlyVerified:  q.OnlyVerified,
		Languages:     q.languages(),
		Lat:           q.Lat,
		Lon:           q.Lon,
		Limit:         q.Limit,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Swipe handles POST /v1/swipes.
func (h *Handler) Swipe(c *gin.Context) {
	var body swipeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "malformed JSON body")
		return
	}
	if err := validate.Struct(body); err != nil {
		badRequest(c, validationMessage(err))
		return
	}

	resp, err := h.svc.Swipe(c.Request.Context(), &matching.SwipeRequest{
		SwiperID:  body.SwiperID,
		SwipedID:  body.SwipedID,
		Direction: body.Direction,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

// UnseenLikesCount handles GET /v1/users/:id/likes/unseen/count.
func (h *Handler) UnseenLikesCount(c *gin.Context) {
	resp, err := h.svc.UnseenLikesCount(c.Request.Context(), &matching.UnseenLikesCountRequest{UserID: c.Param("id")})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarkSeen handles POST /v1/users/:id/likes/seen.
func (h *Handler) MarkSeen(c *gin.Context) {
	var body markSeenBody
	// empty body means mark everything
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "malformed JSON body")
			return
		}
	}
	if err := validate.Struct(body); err != nil {
		badRequest(c, validationMessage(err))
		return
	}

	resp, err := h.svc.MarkSeen(c.Request.Context(), &matching.MarkSeenRequest{
		UserID:    c.Param("id"),
		SwiperIDs: body.SwiperIDs,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListPendingLikes handles GET /v1/users/:id/likes/pending.
func (h *Handler) ListPendingLikes(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "malformed query string")
		return
	}
	if err := validate.Struct(q); err != nil {
		badRequest(c, validationMessage(err))
		return
	}

	req := &matching.ListPendingLikesRequest{UserID: c.Param("id"), Limit: q.Limit}
	if q.PageToken != "" {
		req.PageToken = &q.PageToken
	}
	resp, err := h.svc.ListPendingLikes(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMatches handles GET /v1/users/:id/matches.
func (h *Handler) ListMatches(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "malformed query string")
		return
	}
	if err := validate.Struct(q); err != nil {
		badRequest(c, validationMessage(err))
		return
	}

	resp, err := h.svc.ListMatches(c.Request.Context(), &matching.ListMatchesRequest{UserID: c.Param("id"), Limit: q.Limit})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateLocation handles PUT /v1/users/:id/location.
func (h *Handler) UpdateLocation(c *gin.Context) {
	var body locationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "malformed JSON body")
		return
	}
	if err := validate.Struct(body); err != nil {
		badRequest(c, validationMessage(err))
		return
	}

	resp, err := h.svc.UpdateLocation(c.Request.Context(), &matching.UpdateLocationRequest{
		UserID: c.Param("id"),
		Lat:    *body.Lat,
		Lon:    *body.Lon,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
