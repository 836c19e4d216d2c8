package api

import (
	"net/http"

	"credential-proxy/service"

	"github.com/gin-gonic/gin"
)

func (h *handlers) credentialGroup(r *gin.Engine) {
	r.POST("/issue", h.requireLogin(), h.Issue)
	r.GET("/verify/:credentialId", h.Verify)
	r.GET("/qr/:credentialId", h.QRCode)
	r.POST("/upload", h.Upload)
}

func (h *handlers) Issue(c *gin.Context) {
	sess := currentSession(c)

	var req service.IssueRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		writeError(c, service.E(service.KindValidation, "invalid request body"))
		return
	}

	issuer := service.IssuerInfo{
		UserID:     sess.UserID,
		Username:   sess.Username,
		Email:      sess.Email,
		Address:    sess.Address,
		PrivateKey: sess.PrivateKey,
	}

	resp, err := h.svc.Issue(c.Request.Context(), issuer, req, c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *handlers) Verify(c *gin.Context) {
	resp, err := h.svc.Verify(c.Request.Context(), c.Param("credentialId"), c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// QRCode 按凭证 id 返回文档访问地址的二维码图片
func (h *handlers) QRCode(c *gin.Context) {
	png, err := h.svc.CredentialQRImage(c.Request.Context(), c.Param("credentialId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *handlers) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, service.E(service.KindValidation, "no file provided"))
		return
	}
	if fileHeader.Filename == "" {
		writeError(c, service.E(service.KindValidation, "no file selected"))
		return
	}

	if h.cfg.Server.MaxUploadBytes > 0 && fileHeader.Size > h.cfg.Server.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"code":  string(service.KindValidation),
			"error": "file too large",
		})
		return
	}

	if !h.cfg.Server.AllowExtension(fileHeader.Filename) {
		writeError(c, service.E(service.KindValidation, "file type not allowed"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, service.WrapE(err, service.KindInternal, "open uploaded file failed"))
		return
	}
	defer file.Close()

	resp, err := h.svc.Upload(file, fileHeader.Filename)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
