package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"ImmichDrop/config"
	"ImmichDrop/internal/dto"
	"ImmichDrop/internal/service"
	"ImmichDrop/utils"

	"github.com/gin-gonic/gin"
)

// ChunkInit opens a chunk set for one logical file.
func ChunkInit(c *gin.Context) {
	if !config.AppConfig.ChunkedUploads {
		utils.Fail(c, http.StatusForbidden, "chunked_uploads_disabled")
		return
	}
	var req dto.ChunkInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	err := service.InitChunkSet(req.SessionID, req.ItemID, &service.ChunkMeta{
		Name:         utils.SanitizeFilename(req.Name),
		Size:         req.Size,
		LastModified: req.LastModified,
		TotalParts:   req.TotalParts,
		ContentType:  req.ContentType,
		InviteToken:  req.InviteToken,
		Fingerprint:  req.Fingerprint,
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			utils.FailMsg(c, http.StatusBadRequest, verr.Reason, verr.Message)
			return
		}
		utils.FailMsg(c, http.StatusInternalServerError, "chunk_init_failed", err.Error())
		return
	}
	utils.Success(c, gin.H{"ok": true})
}

// ChunkPart stores one uploaded part. Parts may arrive in any order.
func ChunkPart(c *gin.Context) {
	session := c.PostForm("session_id")
	item := c.PostForm("item_id")
	index, err := strconv.Atoi(c.PostForm("index"))
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "invalid_part_index")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "missing_file")
		return
	}
	f, err := fh.Open()
	if err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_part", err.Error())
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_part", err.Error())
		return
	}
	if err := service.PutPart(session, item, index, data); err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			utils.FailMsg(c, http.StatusBadRequest, verr.Reason, verr.Message)
			return
		}
		utils.FailMsg(c, http.StatusInternalServerError, "chunk_write_failed", err.Error())
		return
	}
	utils.Success(c, gin.H{"ok": true, "index": index})
}

// ChunkComplete assembles the parts and runs the assembled file through
// the regular ingest pipeline. A gap reports the missing index and
// leaves the part set on disk.
func ChunkComplete(c *gin.Context) {
	var req dto.ChunkCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	data, meta, err := service.CompleteChunkSet(req.SessionID, req.ItemID)
	if err != nil {
		var missing *service.MissingPartError
		if errors.As(err, &missing) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_part", "index": missing.Index})
			return
		}
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			utils.FailMsg(c, http.StatusBadRequest, verr.Reason, verr.Message)
			return
		}
		utils.FailMsg(c, http.StatusInternalServerError, "chunk_assemble_failed", err.Error())
		return
	}

	in := &service.IngestInput{
		Data:               data,
		Filename:           meta.Name,
		ContentType:        meta.ContentType,
		LastModifiedMillis: meta.LastModified,
		SessionID:          req.SessionID,
		ItemID:             req.ItemID,
		Fingerprint:        meta.Fingerprint,
		ClientIP:           c.ClientIP(),
		UserAgent:          c.Request.UserAgent(),
		InviteToken:        meta.InviteToken,
		PasswordAuthorized: passwordAuthorized(c, meta.InviteToken),
		Auth:               requestAuth(c),
		Notify:             service.HubNotifier{},
	}
	writeOutcome(c, in, service.Ingest(c.Request.Context(), in))
}
