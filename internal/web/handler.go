package web

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/basel-ax/imgworkshop/internal/config"
	"github.com/basel-ax/imgworkshop/internal/domain"
	"github.com/basel-ax/imgworkshop/internal/infrastructure/openai"
	"github.com/basel-ax/imgworkshop/internal/service"
	"github.com/basel-ax/imgworkshop/internal/session"
)

const (
	errorPrefix    = "Error: "
	downloadPrefix = "Download failed: "
)

// userFacing errors are shown with their own text, whatever wraps them
var userFacing = []error{
	domain.ErrMissingAPIKey,
	domain.ErrMissingPassword,
	domain.ErrWrongPassword,
	domain.ErrNotAuthenticated,
	domain.ErrEmptyPrompt,
	domain.ErrUnsupportedFormat,
	domain.ErrNoImageData,
	domain.ErrNoLastImage,
}

// Handler serves the workshop page and its form actions
type Handler struct {
	config  *config.Config
	service *service.ImageGenerationService
	gate    session.Gate
	logger  *zap.Logger
	now     func() time.Time
}

// NewHandler creates a new page handler
func NewHandler(cfg *config.Config, svc *service.ImageGenerationService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		config:  cfg,
		service: svc,
		logger:  logger,
		now:     time.Now,
	}
	h.gate = session.Gate{
		Password: cfg.AppPassword,
		MaxAge:   cfg.SessionMaxAge,
		Now:      func() time.Time { return h.now() },
	}
	return h
}

// Index renders the page and, on POST, runs one generation first
func (h *Handler) Index(c *gin.Context) {
	sess := sessions.Default(c)
	st := session.Load(sess)
	h.gate.Refresh(&st)

	view := pageView{Prompt: st.LastPrompt}

	if c.Request.Method == http.MethodPost {
		res, err := h.generate(c, &st, &view)
		if err != nil {
			h.logger.Info("generation failed", zap.String("request_id", c.GetString(requestIDKey)), zap.Error(err))
			view.Error = errorPrefix + userMessage(err)
		} else {
			view.Result = newResultView(res, view.Prompt)
		}
	}

	h.render(c, sess, st, view)
}

func (h *Handler) generate(c *gin.Context, st *session.State, view *pageView) (*service.GenerationResult, error) {
	if h.config.OpenAIAPIKey == "" {
		return nil, domain.ErrMissingAPIKey
	}
	if h.config.AppPassword == "" {
		return nil, domain.ErrMissingPassword
	}
	if !st.Authenticated {
		if err := h.gate.Login(st, c.PostForm("pw")); err != nil {
			return nil, err
		}
	}

	prompt := strings.TrimSpace(c.PostForm("prompt"))
	if prompt == "" {
		return nil, domain.ErrEmptyPrompt
	}
	st.RememberPrompt(prompt)
	view.Prompt = prompt

	upload, err := readUpload(c)
	if err != nil {
		return nil, err
	}

	res, err := h.service.Generate(c.Request.Context(), service.GenerationInput{
		Prompt:       prompt,
		SizeChoice:   strings.TrimSpace(c.DefaultPostForm("size", domain.ChoiceMatchUpload)),
		Upload:       upload,
		UseLast:      c.PostForm("use_last_image") == "1",
		LastImageRef: st.LastImageRef,
	})
	if err != nil {
		return nil, err
	}

	st.LastImageRef = res.Ref
	return res, nil
}

// Download sends the last image as a PNG attachment. It needs a valid
// login; anonymous callers get the login message instead of the
// "no previous image" one.
func (h *Handler) Download(c *gin.Context) {
	sess := sessions.Default(c)
	st := session.Load(sess)
	h.gate.Refresh(&st)

	fail := func(err error) {
		h.render(c, sess, st, pageView{Prompt: st.LastPrompt, Error: downloadPrefix + userMessage(err)})
	}

	if !st.Authenticated {
		fail(domain.ErrNotAuthenticated)
		return
	}

	data, err := h.service.Download(c.Request.Context(), st.LastImageRef)
	if err != nil {
		fail(err)
		return
	}

	prompt := st.LastPrompt
	if prompt == "" {
		prompt = c.PostForm("prompt")
	}
	name := BuildFilename(c.PostForm("filename"), prompt, h.now())

	h.saveSession(sess, st)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, "image/png", data)
}

// Logout forgets the login and everything remembered with it
func (h *Handler) Logout(c *gin.Context) {
	h.render(c, sessions.Default(c), session.State{}, pageView{})
}

// Health is a liveness probe
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// render saves the session before any body is written, then draws the page
func (h *Handler) render(c *gin.Context, sess sessions.Session, st session.State, view pageView) {
	h.saveSession(sess, st)
	view.ShowPassword = !st.Authenticated
	c.HTML(http.StatusOK, pageName, view)
}

// saveSession writes st to the cookie. If the cookie cannot be encoded the
// remembered prompt is dropped so the login and image ref survive.
func (h *Handler) saveSession(sess sessions.Session, st session.State) {
	err := st.Save(sess)
	if err == nil {
		return
	}
	h.logger.Warn("failed to save session", zap.Error(err))
	if st.LastPrompt == "" {
		return
	}
	st.LastPrompt = ""
	if err := st.Save(sess); err != nil {
		h.logger.Warn("failed to save session without prompt", zap.Error(err))
	}
}

func readUpload(c *gin.Context) (*service.Upload, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Filename == "" {
		return nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &service.Upload{Filename: fh.Filename, Data: data}, nil
}

func userMessage(err error) string {
	for _, known := range userFacing {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The image service did not answer in time. Please try again."
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
