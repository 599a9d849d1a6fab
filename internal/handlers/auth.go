package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/anonto42/yatube/validators"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	msgUsernameTaken  = "A user with that username already exists."
	msgBadCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."
)

// AuthHandler handles signup, login and logout for browsers and issues API tokens.
type AuthHandler struct {
	userRepository repositories.UserRepository
	sessions       *scs.SessionManager
	jwtSecret      string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, sessions *scs.SessionManager, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		sessions:       sessions,
		jwtSecret:      jwtSecret,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	methods := []string{http.MethodGet, http.MethodPost}
	g.Match(methods, "/signup/", h.Signup)
	g.Match(methods, "/login/", h.Login)
	g.Match(methods, "/logout/", h.Logout)
	g.POST("/token/", h.Token)
}

// Signup creates an account, logs it in and redirects to the front page.
func (h *AuthHandler) Signup(c echo.Context) error {
	form := &SignupFormView{Errors: map[string]string{}}
	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, templateSignup, echo.Map{"Form": form})
	}

	if err := c.Bind(&form.Values); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form data")
	}
	form.Values.Username = strings.TrimSpace(form.Values.Username)
	form.Values.Email = strings.TrimSpace(form.Values.Email)
	if err := c.Validate(&form.Values); err != nil {
		form.Errors = validators.FieldErrors(err)
	}

	ctx := c.Request().Context()
	if form.Errors["username"] == "" {
		_, err := h.userRepository.GetUserByUsername(ctx, form.Values.Username)
		switch {
		case err == nil:
			form.Errors["username"] = msgUsernameTaken
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	if len(form.Errors) > 0 {
		form.Values.Password1, form.Values.Password2 = "", ""
		return c.Render(http.StatusOK, templateSignup, echo.Map{"Form": form})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Values.Password1), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}
	user := &models.User{
		Username:  form.Values.Username,
		FirstName: form.Values.FirstName,
		LastName:  form.Values.LastName,
		Email:     form.Values.Email,
		Password:  string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	log.Printf("New user registered: %s", user.Username)

	if err := middleware.Login(ctx, h.sessions, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Redirect(http.StatusFound, "/")
}

// Login checks the credentials and redirects to ?next= or the front page.
func (h *AuthHandler) Login(c echo.Context) error {
	form := &LoginFormView{Errors: map[string]string{}}
	next := c.QueryParam("next")
	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, templateLogin, echo.Map{"Form": form, "Next": next})
	}

	if err := c.Bind(&form.Values); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form data")
	}
	if v := c.FormValue("next"); v != "" {
		next = v
	}
	user, err := h.authenticate(c, &form.Values, form.Errors)
	if err != nil {
		return err
	}
	if user == nil {
		form.Values.Password = ""
		return c.Render(http.StatusOK, templateLogin, echo.Map{"Form": form, "Next": next})
	}

	if err := middleware.Login(c.Request().Context(), h.sessions, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Redirect(http.StatusFound, middleware.SafeRedirect(next, "/"))
}

// Logout ends the session and shows the goodbye page.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := middleware.Logout(c.Request().Context(), h.sessions); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Set(middleware.UserKey, (*models.User)(nil))
	return c.Render(http.StatusOK, templateLoggedOut, nil)
}

// Token exchanges a username and password for a signed API token.
func (h *AuthHandler) Token(c echo.Context) error {
	var req models.LoginForm
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	errs := map[string]string{}
	user, err := h.authenticate(c, &req, errs)
	if err != nil {
		return err
	}
	if user == nil {
		status := http.StatusUnauthorized
		if errs[validators.NonFieldErrors] == "" {
			status = http.StatusBadRequest
		}
		return c.JSON(status, echo.Map{"errors": errs})
	}

	token, err := middleware.GenerateToken(h.jwtSecret, user, middleware.TokenTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// authenticate validates the credentials. It returns nil and fills errs when
// they are rejected; the error is reserved for storage failures.
func (h *AuthHandler) authenticate(c echo.Context, req *models.LoginForm, errs map[string]string) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := c.Validate(req); err != nil {
		for field, msg := range validators.FieldErrors(err) {
			errs[field] = msg
		}
		return nil, nil
	}

	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			errs[validators.NonFieldErrors] = msgBadCredentials
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		errs[validators.NonFieldErrors] = msgBadCredentials
		return nil, nil
	}
	return user, nil
}
