package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/societyhub/internal/application/workflow"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
)

// ListTransactionsQuery represents query parameters for listing transactions
type ListTransactionsQuery struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	Status    string `form:"status"`
	SocietyID string `form:"societyId"`
}

// TransactionDetail is a transaction plus the statuses the caller may move it to
type TransactionDetail struct {
	*entity.Transaction
	AllowedStatuses []string `json:"allowedStatuses"`
}

// ListTransactions handles GET /api/transactions
func (h *Handlers) ListTransactions(c *gin.Context) {
	var query ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBadRequest(c, "invalid query parameters")
		return
	}

	result, err := h.deps.Workflow.List(c.Request.Context(), currentActor(c), workflow.ListFilter{
		Status:    query.Status,
		SocietyID: query.SocietyID,
		Page:      query.Page,
		Limit:     query.Limit,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if result.Transactions == nil {
		result.Transactions = []*entity.Transaction{}
	}
	respondOK(c, result)
}

// GetTransaction handles GET /api/transactions/:id
func (h *Handlers) GetTransaction(c *gin.Context) {
	ctx := c.Request.Context()
	actor := currentActor(c)

	txn, err := h.deps.Workflow.Get(ctx, c.Param("id"), actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	allowed := h.deps.Workflow.AllowedStatuses(ctx, txn, actor)
	detail := TransactionDetail{Transaction: txn, AllowedStatuses: make([]string, 0, len(allowed))}
	for _, status := range allowed {
		detail.AllowedStatuses = append(detail.AllowedStatuses, status.String())
	}

	respondOK(c, detail)
}

// CreateTransaction handles POST /api/transactions.
// Only society users submit transactions, on behalf of their own society.
func (h *Handlers) CreateTransaction(c *gin.Context) {
	actor := currentActor(c)
	if actor.Role != entity.RoleSocietyUser {
		respondError(c, h.logger, errs.Forbidden("Only society users can create transactions"))
		return
	}
	if actor.SocietyID == "" {
		respondError(c, h.logger, errs.Forbidden("user is not affiliated with a society"))
		return
	}
	if user := currentUser(c); user != nil && !user.Permissions.CanWrite {
		respondError(c, h.logger, errs.Forbidden("write permission required"))
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	txn, err := h.deps.Workflow.Create(c.Request.Context(), workflow.CreateRequest{
		SocietyID:     actor.SocietyID,
		CreatorID:     actor.ID,
		VendorName:    req.VendorName,
		Nature:        req.Nature,
		Amount:        string(req.Amount),
		InitialRemark: req.Remarks,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondCreated(c, txn)
}

// UpdateTransactionStatus handles PUT /api/transactions/:id/status
func (h *Handlers) UpdateTransactionStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		respondBadRequest(c, "status is required")
		return
	}

	txn, err := h.deps.Workflow.Transition(c.Request.Context(), c.Param("id"), currentActor(c), req.Status, req.Remark)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, txn)
}

// AssignTransaction handles PUT /api/transactions/:id/assign
func (h *Handlers) AssignTransaction(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.AgentID) == "" {
		respondBadRequest(c, "agentId is required")
		return
	}

	txn, err := h.deps.Workflow.Assign(c.Request.Context(), c.Param("id"), currentActor(c), req.AgentID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, txn)
}

// AddRemark handles POST /api/transactions/:id/remarks
func (h *Handlers) AddRemark(c *gin.Context) {
	var req RemarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	txn, err := h.deps.Workflow.Annotate(c.Request.Context(), c.Param("id"), currentActor(c), req.Text, req.Type)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondCreated(c, txn)
}

// UploadAttachment handles POST /api/transactions/:id/attachments (multipart field "file")
func (h *Handlers) UploadAttachment(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "file is required")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", "error", err)
		respondBadRequest(c, "failed to read uploaded file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", "error", err)
		respondBadRequest(c, "failed to read uploaded file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(content)
	}

	txn, err := h.deps.Workflow.AttachFile(c.Request.Context(), c.Param("id"), currentActor(c), workflow.AttachmentUpload{
		FileName: header.Filename,
		MimeType: mimeType,
		Content:  content,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondCreated(c, txn)
}
