package handler

import (
	"encoding/base64"
	"io"
	"net/http"
	"strconv"

	"ImmichDrop/internal/dto"
	"ImmichDrop/internal/service"
	"ImmichDrop/utils"

	"github.com/gin-gonic/gin"
)

const (
	maxBatchFiles = 50
	maxBatchURLs  = 10
)

// requestAuth maps the session claims onto remote store credentials.
func requestAuth(c *gin.Context) *service.Auth {
	if claims := utils.GetClaims(c); claims != nil && claims.AccessToken != "" {
		return &service.Auth{Bearer: claims.AccessToken}
	}
	return nil
}

// passwordAuthorized reports whether this session already unlocked the
// invite's password gate.
func passwordAuthorized(c *gin.Context, token string) bool {
	claims := utils.GetClaims(c)
	return claims != nil && claims.InviteAuth[token]
}

func ingestInput(c *gin.Context, data []byte, filename, contentType string, lastModified int64) *service.IngestInput {
	token := c.PostForm("invite_token")
	return &service.IngestInput{
		Data:               data,
		Filename:           filename,
		ContentType:        contentType,
		LastModifiedMillis: lastModified,
		SessionID:          c.PostForm("session_id"),
		ItemID:             c.PostForm("item_id"),
		Fingerprint:        c.PostForm("fingerprint"),
		ClientIP:           c.ClientIP(),
		UserAgent:          c.Request.UserAgent(),
		InviteToken:        token,
		PasswordAuthorized: passwordAuthorized(c, token),
		AlbumNameOverride:  c.PostForm("album_name"),
		Auth:               requestAuth(c),
		Notify:             service.HubNotifier{},
	}
}

func writeOutcome(c *gin.Context, in *service.IngestInput, out *service.IngestOutcome) {
	result := dto.UploadResult{
		ItemID:   in.ItemID,
		Filename: in.Filename,
		Status:   out.Status,
		AssetID:  out.AssetID,
		Message:  out.Message,
		Reason:   out.ReasonCode,
	}
	switch {
	case out.Status == service.StatusError && out.ReasonCode != "":
		c.JSON(http.StatusForbidden, result)
	case out.Status == service.StatusError:
		c.JSON(http.StatusBadGateway, result)
	default:
		utils.Success(c, result)
	}
}

func readUploadPayload(c *gin.Context) (data []byte, filename, contentType string, err error) {
	if fh, ferr := c.FormFile("file"); ferr == nil {
		f, ferr := fh.Open()
		if ferr != nil {
			return nil, "", "", ferr
		}
		defer f.Close()
		data, err = io.ReadAll(f)
		if err != nil {
			return nil, "", "", err
		}
		return data, fh.Filename, fh.Header.Get("Content-Type"), nil
	}
	// iOS Shortcuts posts base64 in a plain form field
	if payload := c.PostForm("payload"); payload != "" {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", "", err
		}
		return data, c.DefaultPostForm("filename", "file"), c.PostForm("content_type"), nil
	}
	return nil, "", "", errMissingFile
}

var errMissingFile = &service.ValidationError{Reason: "missing_file", Message: "no file or payload field present"}

// Upload ingests one file from a multipart form or base64 payload.
func Upload(c *gin.Context) {
	data, filename, contentType, err := readUploadPayload(c)
	if err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "missing_file", err.Error())
		return
	}
	lastModified, _ := strconv.ParseInt(c.PostForm("last_modified"), 10, 64)
	in := ingestInput(c, data, filename, contentType, lastModified)
	writeOutcome(c, in, service.Ingest(c.Request.Context(), in))
}

// UploadFile is the single-file endpoint for clients that cannot set
// extra form fields.
func UploadFile(c *gin.Context) {
	Upload(c)
}

// UploadBatch ingests up to 50 files sequentially. One failed item
// never aborts its siblings.
func UploadBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		utils.Fail(c, http.StatusBadRequest, "missing_file")
		return
	}
	if len(files) > maxBatchFiles {
		utils.Fail(c, http.StatusBadRequest, "too_many_files")
		return
	}

	resp := dto.BatchUploadResponse{Total: len(files)}
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			resp.Failed++
			resp.Results = append(resp.Results, dto.UploadResult{
				Filename: fh.Filename, Status: service.StatusError, Message: err.Error(),
			})
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			resp.Failed++
			resp.Results = append(resp.Results, dto.UploadResult{
				Filename: fh.Filename, Status: service.StatusError, Message: err.Error(),
			})
			continue
		}
		in := ingestInput(c, data, fh.Filename, fh.Header.Get("Content-Type"), 0)
		out := service.Ingest(c.Request.Context(), in)
		tally(&resp, out)
		resp.Results = append(resp.Results, dto.UploadResult{
			Filename: in.Filename, Status: out.Status, AssetID: out.AssetID,
			Message: out.Message, Reason: out.ReasonCode,
		})
	}
	utils.Success(c, resp)
}

func tally(resp *dto.BatchUploadResponse, out *service.IngestOutcome) {
	switch out.Status {
	case service.StatusSuccess:
		resp.Successful++
	case service.StatusDuplicate:
		resp.Duplicates++
	default:
		resp.Failed++
	}
}

// UploadFromURL fetches one remote URL and ingests it.
func UploadFromURL(c *gin.Context) {
	var req dto.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	res, err := service.DefaultFetcher.FetchURL(c.Request.Context(), req.URL)
	if err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "download_failed", err.Error())
		return
	}
	in := urlIngestInput(c, &req, req.ItemID, res)
	writeOutcome(c, in, service.Ingest(c.Request.Context(), in))
}

// UploadFromURLs fetches up to 10 URLs concurrently, then ingests the
// downloads sequentially.
func UploadFromURLs(c *gin.Context) {
	var req dto.UploadURLsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailMsg(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if len(req.URLs) == 0 {
		utils.Fail(c, http.StatusBadRequest, "missing_urls")
		return
	}
	if len(req.URLs) > maxBatchURLs {
		utils.Fail(c, http.StatusBadRequest, "too_many_urls")
		return
	}

	outcomes := service.FetchAll(c.Request.Context(), req.URLs)
	resp := dto.BatchUploadResponse{Total: len(outcomes)}
	single := dto.UploadURLRequest{
		SessionID:   req.SessionID,
		InviteToken: req.InviteToken,
		Fingerprint: req.Fingerprint,
		AlbumName:   req.AlbumName,
	}
	for _, fo := range outcomes {
		if fo.Err != nil {
			resp.Failed++
			resp.Results = append(resp.Results, dto.UploadResult{
				URL: fo.URL, Status: service.StatusError, Message: fo.Err.Error(),
			})
			continue
		}
		in := urlIngestInput(c, &single, utils.GetUUID(), fo.Result)
		out := service.Ingest(c.Request.Context(), in)
		tally(&resp, out)
		resp.Results = append(resp.Results, dto.UploadResult{
			URL: fo.URL, ItemID: in.ItemID, Filename: in.Filename,
			Status: out.Status, AssetID: out.AssetID, Message: out.Message, Reason: out.ReasonCode,
		})
	}
	utils.Success(c, resp)
}

func urlIngestInput(c *gin.Context, req *dto.UploadURLRequest, itemID string, res *service.DownloadResult) *service.IngestInput {
	return &service.IngestInput{
		Data:               res.Data,
		Filename:           res.Filename,
		ContentType:        res.ContentType,
		LastModifiedMillis: res.CreatedAt.UnixMilli(),
		SessionID:          req.SessionID,
		ItemID:             itemID,
		Fingerprint:        req.Fingerprint,
		ClientIP:           c.ClientIP(),
		UserAgent:          c.Request.UserAgent(),
		InviteToken:        req.InviteToken,
		PasswordAuthorized: passwordAuthorized(c, req.InviteToken),
		AlbumNameOverride:  req.AlbumName,
		Auth:               requestAuth(c),
		Notify:             service.HubNotifier{},
	}
}
