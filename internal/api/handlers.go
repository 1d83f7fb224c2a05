package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coursehive/forumcore/internal/models"
	"github.com/coursehive/forumcore/internal/privileges"
	"github.com/coursehive/forumcore/internal/topics"
)

type actorRequest struct {
	UID int64 `json:"uid" binding:"required"`
}

type pinExpiryRequest struct {
	UID    int64 `json:"uid" binding:"required"`
	Expiry int64 `json:"expiry" binding:"required"`
}

type pinOrderRequest struct {
	UID   int64 `json:"uid" binding:"required"`
	Order int   `json:"order"`
}

type moveRequest struct {
	UID int64 `json:"uid" binding:"required"`
	CID int64 `json:"cid" binding:"required"`
}

type filterTidsRequest struct {
	UID       int64   `json:"uid"`
	TIDs      []int64 `json:"tids" binding:"required"`
	Privilege string  `json:"privilege"`
}

type filterUidsRequest struct {
	TID       int64   `json:"tid" binding:"required"`
	UIDs      []int64 `json:"uids" binding:"required"`
	Privilege string  `json:"privilege"`
}

type postRequest struct {
	PID       int64  `json:"pid" binding:"required"`
	TID       int64  `json:"tid" binding:"required"`
	UID       int64  `json:"uid" binding:"required"`
	ToPID     int64  `json:"toPid"`
	Timestamp int64  `json:"timestamp"`
	Upvotes   int64  `json:"upvotes"`
	Downvotes int64  `json:"downvotes"`
	Content   string `json:"content"`
}

func (p *postRequest) toModel() *models.Post {
	return &models.Post{
		PID:       p.PID,
		TID:       p.TID,
		UID:       p.UID,
		ToPID:     p.ToPID,
		Timestamp: p.Timestamp,
		Upvotes:   p.Upvotes,
		Downvotes: p.Downvotes,
		Content:   p.Content,
	}
}

func paramTid(c *gin.Context) (int64, bool) {
	tid, err := strconv.ParseInt(c.Param("tid"), 10, 64)
	if err != nil || tid <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-data"})
		return 0, false
	}
	return tid, true
}

func (r *Router) bindActor(c *gin.Context) (models.Actor, bool) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-data"})
		return models.Actor{}, false
	}
	return models.UserActor(req.UID), true
}

func (r *Router) deleteTopic(c *gin.Context) {
	tid, ok := paramTid(c)
	if !ok {
		return
	}
	actor, ok := r.bindActor(c)
	if !ok {
		return
	}
	result, err := r.manager.Delete(c.Request.Context(), tid, actor)
	if err != nil {
		r.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) restoreTopic(c *gin.Context) {
	tid, ok := paramTid(c)
	if !ok {
		return
	}
	actor, ok := r.bindActor(c)
	if !ok {
		return
	}
	result, err := r.manager.Restore(c.Request.Context(), tid, actor)
	if err != nil {
		r.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) purgeTopic(c *gin.Context) {
	tid, ok := paramTid(c)
	if !ok {
		return
	}
	actor, ok := r.bindActor(c)
	if !ok {
		return
	}
	result, err := r.manager.Purge(c.Request.Context(), tid, actor)
	if err != nil {
		r.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) lockTopic(c *gin.Context) {
	r.toggleLock(c, true)
}

func (r *Router) unlockTopic(c *gin.Context) {
	r.toggleLock(c, false)
}

func (r *Router) toggleLock(c *gin.Context, lock bool) {
	tid, ok := paramTid(c)
	if !ok {
		return
	}
	actor, ok := r.bindActor(c)
	if !ok {
		return
	}
	var result *topics.LockResult
	var err error
	if lock {
		result, err = r.manager.Lock(c.Request.Context(), tid, actor)
	} else {
		result, err = r.manager.Unlock(c.Request.Context(), tid, actor)
	}
	if err != nil {
		r.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) pinTopic(c *gin.Context) {
	r.togglePin(c, true)
}

func (r *Router) unpinTopic(c *gin.Context) {
	r.togglePin(c, false)
}

func (r *Router) togglePin(c *gin.Context, pin bool) {
	tid, ok := paramTid(c)
	if !ok {
		return
	}
	actor, ok := r.bindActor(c)
	if !ok {
		return
	}
	var result *topics.PinResult
	var err error
	if pin {
		result, err = r.manager.Pin(c.Request.Context(), tid, actor)
	} else {
		result, err = r.manager.Unpin(c.Request.Context(), tid, actor)
	}
	if err != nil {
		r.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) setPinExpiry(c *gin.Context) {
	tid, ok := paramTid(c)
	if !ok {
		return
	}
	var req pinExpiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-data"})
		return
	}
	if err := r.manager.SetPinExpiry(c.Request.Context(), tid, req.Expiry, req.UID); err != nil {
		r.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tid": tid, "pinExpiry": req.Expiry})
}

func (r *Router) orderPinned(c *gin.Context) {
	tid, ok := paramTid(c)
	if !ok {
		return
	}
	var req pinOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-data"})
		return
	}
	if err := r.manager.OrderPinnedTopics(c.Request.Context(), req.UID, tid, req.Order); err != nil {
		r.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tid": tid, "order": req.Order})
}

func (r *Router) moveTopic(c *gin.Context) {
	tid, ok := paramTid(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-data"})
		return
	}
	err := r.manager.Move(c.Request.Context(), tid, topics.MoveOptions{CID: req.CID, UID: req.UID})
	if err != nil {
		r.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tid": tid, "cid": req.CID})
}

func (r *Router) incrementViews(c *gin.Context) {
	tid, ok := paramTid(c)
	if !ok {
		return
	}
	if err := r.manager.IncrementViewCount(c.Request.Context(), tid); err != nil {
		r.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) listEvents(c *gin.Context) {
	tid, ok := paramTid(c)
	if !ok {
		return
	}
	events, err := r.manager.Events().List(c.Request.Context(), tid)
	if err != nil {
		r.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tid": tid, "events": events})
}

func (r *Router) getPrivileges(c *gin.Context) {
	tid, ok := paramTid(c)
	if !ok {
		return
	}
	uid, err := strconv.ParseInt(c.Query("uid"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-data"})
		return
	}
	privs, err := r.resolver.Get(c.Request.Context(), tid, uid)
	if err != nil {
		r.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, privs)
}

func (r *Router) filterTids(c *gin.Context) {
	var req filterTidsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-data"})
		return
	}
	if req.Privilege == "" {
		req.Privilege = privileges.PrivTopicsRead
	}
	tids, err := r.resolver.FilterTids(c.Request.Context(), req.Privilege, req.TIDs, req.UID)
	if err != nil {
		r.abortWithError(c, err)
		return
	}
	if tids == nil {
		tids = []int64{}
	}
	c.JSON(http.StatusOK, gin.H{"tids": tids})
}

func (r *Router) filterUids(c *gin.Context) {
	var req filterUidsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-data"})
		return
	}
	if req.Privilege == "" {
		req.Privilege = privileges.PrivTopicsRead
	}
	uids, err := r.resolver.FilterUids(c.Request.Context(), req.Privilege, req.TID, req.UIDs)
	if err != nil {
		r.abortWithError(c, err)
		return
	}
	if uids == nil {
		uids = []int64{}
	}
	c.JSON(http.StatusOK, gin.H{"uids": uids})
}

func (r *Router) newPost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-data"})
		return
	}
	if err := r.manager.OnNewPostMade(c.Request.Context(), req.toModel()); err != nil {
		r.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) removePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-data"})
		return
	}
	if err := r.manager.RemovePostFromTopic(c.Request.Context(), req.toModel()); err != nil {
		r.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) syncBacklinks(c *gin.Context) {
	pid, err := strconv.ParseInt(c.Param("pid"), 10, 64)
	if err != nil || pid <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-data"})
		return
	}
	var req struct {
		TID     int64  `json:"tid" binding:"required"`
		UID     int64  `json:"uid" binding:"required"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-data"})
		return
	}
	post := &models.Post{PID: pid, TID: req.TID, UID: req.UID, Content: req.Content}
	added, err := r.manager.SyncBacklinks(c.Request.Context(), post)
	if err != nil {
		r.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pid": pid, "added": added})
}

func (r *Router) postReplies(c *gin.Context) {
	raw := strings.Split(c.Query("pids"), ",")
	var pids []int64
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		pid, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-data"})
			return
		}
		pids = append(pids, pid)
	}
	previews, err := r.manager.GetPostReplies(c.Request.Context(), pids)
	if err != nil {
		r.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, previews)
}
