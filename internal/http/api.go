package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bloglist/internal/auth"
	"bloglist/internal/domain"
	"bloglist/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	entries  service.EntryService
	stats    service.StatsService
	exports  service.ExportService
	resolver *auth.Resolver
	logger   *logrus.Logger
}

// NewHandler builds the API handler. exports may be nil, in which case the
// export routes answer 503.
func NewHandler(
	users service.UserService,
	entries service.EntryService,
	stats service.StatsService,
	exports service.ExportService,
	resolver *auth.Resolver,
	logger *logrus.Logger,
) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:    users,
		entries:  entries,
		stats:    stats,
		exports:  exports,
		resolver: resolver,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())

	api := router.Group("/api")
	api.Use(h.identify())
	{
		api.POST("/users", h.register)
		api.GET("/users", h.listUsers)
		api.POST("/login", h.login)

		api.GET("/blogs", h.listEntries)
		api.GET("/blogs/:id", h.getEntry)
		api.PUT("/blogs/:id", h.updateLikes)
		api.GET("/blogs/:id/comments", h.listComments)
		api.POST("/blogs/:id/comments", h.addComment)

		api.GET("/stats", h.summary)
		api.GET("/stats/total-likes", h.totalLikes)
		api.GET("/stats/favorite", h.favorite)
		api.GET("/stats/most-blogs", h.mostBlogs)
		api.GET("/stats/most-likes", h.mostLikes)

		api.GET("/exports", h.listExports)

		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}

	authed := api.Group("", requireActor())
	{
		authed.POST("/blogs", h.createEntry)
		authed.DELETE("/blogs/:id", h.deleteEntry)
		authed.POST("/exports", h.createExport)
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type likesRequest struct {
	Likes *int `json:"likes" binding:"required"`
}

type commentRequest struct {
	Text string `json:"text"`
}

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	author, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, authorToResponse(*author, nil))
}

func (h *Handler) listUsers(c *gin.Context) {
	ctx := c.Request.Context()
	authors, err := h.users.List(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	entries, err := h.entries.ListEntries(ctx, false)
	if err != nil {
		h.writeError(c, err)
		return
	}

	byID := make(map[string]domain.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	resp := make([]AuthorResponse, len(authors))
	for i := range authors {
		resp[i] = authorToResponse(authors[i], byID)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, author, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, Username: author.Username, Name: author.Name})
}

func (h *Handler) listEntries(c *gin.Context) {
	ctx := c.Request.Context()
	sortByLikes := c.DefaultQuery("sort", "likes") != "created"

	entries, err := h.entries.ListEntries(ctx, sortByLikes)
	if err != nil {
		h.writeError(c, err)
		return
	}
	authors, err := h.users.List(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}

	owners := make(map[string]domain.Author, len(authors))
	for _, a := range authors {
		owners[a.ID] = a
	}
	resp := make([]EntryResponse, len(entries))
	for i := range entries {
		resp[i] = entryToResponse(entries[i], ownerRef(owners, entries[i].OwnerID))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getEntry(c *gin.Context) {
	entry, err := h.entries.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.populate(c, *entry))
}

func (h *Handler) createEntry(c *gin.Context) {
	var fields domain.EntryFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := actorFrom(c)
	entry, err := h.entries.CreateEntry(c.Request.Context(), actor, fields)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entryToResponse(*entry, &OwnerRef{ID: actor.ID, Username: actor.Username, Name: actor.Name}))
}

func (h *Handler) deleteEntry(c *gin.Context) {
	if err := h.entries.DeleteEntry(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) updateLikes(c *gin.Context) {
	var req likesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.entries.UpdateLikes(c.Request.Context(), c.Param("id"), *req.Likes)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.populate(c, *entry))
}

func (h *Handler) listComments(c *gin.Context) {
	comments, err := h.entries.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]CommentResponse, len(comments))
	for i := range comments {
		resp[i] = commentToResponse(comments[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) addComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.entries.AddComment(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentToResponse(*comment))
}

func (h *Handler) summary(c *gin.Context) {
	sum, err := h.stats.Summary(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) totalLikes(c *gin.Context) {
	total, err := h.stats.TotalLikes(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_likes": total})
}

func (h *Handler) favorite(c *gin.Context) {
	fav, err := h.stats.Favorite(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fav)
}

func (h *Handler) mostBlogs(c *gin.Context) {
	top, ok, err := h.stats.MostProlific(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, top)
}

func (h *Handler) mostLikes(c *gin.Context) {
	top, ok, err := h.stats.MostLiked(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, top)
}

func (h *Handler) createExport(c *gin.Context) {
	if h.exports == nil {
		h.writeError(c, service.ErrExportDisabled)
		return
	}
	res, err := h.exports.Export(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) listExports(c *gin.Context) {
	if h.exports == nil {
		h.writeError(c, service.ErrExportDisabled)
		return
	}
	list, err := h.exports.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// populate resolves the owner reference of a single entry.
func (h *Handler) populate(c *gin.Context, entry domain.Entry) EntryResponse {
	owner, err := h.users.GetByID(c.Request.Context(), entry.OwnerID)
	if err != nil {
		h.logger.Warnf("load owner %s of entry %s: %v", entry.OwnerID, entry.ID, err)
		return entryToResponse(entry, nil)
	}
	return entryToResponse(entry, &OwnerRef{ID: owner.ID, Username: owner.Username, Name: owner.Name})
}
