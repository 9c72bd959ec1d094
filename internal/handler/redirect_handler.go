package handler

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/SergeiKhy/qr-manager/internal/repository"
	"github.com/SergeiKhy/qr-manager/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RedirectHandler struct {
	service service.RedirectService
	logger  *zap.Logger
}

func NewRedirectHandler(service service.RedirectService, logger *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		service: service,
		logger:  logger,
	}
}

// Redirect godoc
// @Summary Resolve a QR short code
// @Description Redirect to the current destination URL of a dynamic QR code
// @Tags redirect
// @Produce html
// @Param code path string true "Short code"
// @Success 302 {object} nil
// @Failure 404 {string} string "QR code not found"
// @Failure 410 {string} string "Expired/inactive page"
// @Router /{code} [get]
func (h *RedirectHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	visit := service.VisitInfo{
		UserAgent: c.Request.UserAgent(),
		// Геолокация из заголовков Cloudflare, если фронт стоит за ним
		Country: c.GetHeader("CF-IPCountry"),
		City:    c.GetHeader("CF-IPCity"),
	}

	redirection, err := h.service.Resolve(c.Request.Context(), code, visit)
	if err != nil {
		if errors.Is(err, repository.ErrQRCodeNotFound) {
			c.String(http.StatusNotFound, "QR code not found")
			return
		}
		h.logger.Error("Failed to resolve short code", zap.String("code", code), zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	if !redirection.Redirectable {
		h.renderExpiredPage(c, code, redirection.QRCode.Status)
		return
	}

	c.Redirect(http.StatusFound, redirection.DestinationURL)
}

// Страница для неактивного кода. Никаких внутренних деталей наружу,
// только статус и кнопка жалобы с подтверждением на клиенте.
var expiredPageTmpl = template.Must(template.New("expired").Parse(`<!DOCTYPE html>
<html>
  <head>
    <title>QR Code Expired</title>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
      body {
        font-family: system-ui, -apple-system, sans-serif;
        display: flex;
        align-items: center;
        justify-content: center;
        min-height: 100vh;
        margin: 0;
        background: linear-gradient(to bottom, #f8fafc, #e2e8f0);
      }
      .container { text-align: center; padding: 2rem; max-width: 500px; }
      h1 { color: #1e293b; margin-bottom: 1rem; }
      p { color: #64748b; line-height: 1.6; }
      .status {
        display: inline-block;
        padding: 0.5rem 1rem;
        background: #fee2e2;
        color: #991b1b;
        border-radius: 0.5rem;
        margin-top: 1rem;
        font-weight: 500;
      }
      .report-link { margin-top: 2rem; padding-top: 1rem; border-top: 1px solid #e2e8f0; }
      .report-link a { color: #64748b; text-decoration: none; font-size: 0.875rem; }
      .report-link a:hover { color: #1e293b; text-decoration: underline; }
    </style>
  </head>
  <body>
    <div class="container">
      <h1>&#9888;&#65039; QR Code Expired</h1>
      <p>This QR code is no longer active. The owner needs to renew their subscription to reactivate it.</p>
      <span class="status">Status: {{.Status}}</span>
      <div class="report-link">
        <a href="#" onclick="reportQR(); return false;">&#128681; Report this QR code</a>
      </div>
    </div>
    <script>
      function reportQR() {
        if (confirm('Are you sure you want to report this QR code? This will flag it for review.')) {
          fetch('/report', {
            method: 'POST',
            headers: { 'Content-Type': 'application/json' },
            body: JSON.stringify({ shortCode: {{.ShortCode}}, reason: 'User reported' })
          })
          .then(function (response) { return response.json(); })
          .then(function (data) { alert(data.message || 'Thank you for your report.'); })
          .catch(function () { alert('Failed to submit report. Please try again.'); });
        }
      }
    </script>
  </body>
</html>
`))

func (h *RedirectHandler) renderExpiredPage(c *gin.Context, shortCode, status string) {
	var buf bytes.Buffer
	err := expiredPageTmpl.Execute(&buf, struct {
		ShortCode string
		Status    string
	}{
		ShortCode: shortCode,
		Status:    status,
	})
	if err != nil {
		h.logger.Error("Failed to render expired page", zap.Error(err))
		c.String(http.StatusGone, "This QR code is no longer active")
		return
	}

	c.Data(http.StatusGone, "text/html; charset=utf-8", buf.Bytes())
}
