package handler

import (
	"context"
	"net/http"

	"inkpost/internal/config"
	"inkpost/internal/httputil"
	"inkpost/internal/model"
	"inkpost/internal/service"
	"inkpost/internal/transport/http/middleware"
)

// ProfileService edits the authenticated user's profile.
type ProfileService interface {
	UpdateProfile(ctx context.Context, id int64, req model.UpdateProfileRequest) (*model.User, error)
}

// GoogleSignIn resolves a client-obtained Google ID token to a local user.
type GoogleSignIn interface {
	SignInWithGoogle(ctx context.Context, idToken string) (*model.User, error)
}

// AuthHandler serves one auth guard under /auth/{guard}. The payload shapes
// differ per guard; the flow does not.
type AuthHandler struct {
	issuer    service.TokenIssuer
	registrar service.Registrar
	profiles  ProfileService
}

// NewAuthHandler wires dependencies for one guard's endpoints.
func NewAuthHandler(issuer service.TokenIssuer, registrar service.Registrar, profiles ProfileService) *AuthHandler {
	return &AuthHandler{
		issuer:    issuer,
		registrar: registrar,
		profiles:  profiles,
	}
}

// Register handles POST /auth/{guard}/register.
// The sanctum guard also returns a personal access token for the new user.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.registrar.Register(r.Context(), &req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	if minter, ok := h.issuer.(service.UserTokenMinter); ok && h.issuer.Name() == config.GuardSanctum {
		issued, err := minter.IssueForUser(r.Context(), user)
		if err != nil {
			httputil.WriteServiceError(w, r, err)
			return
		}
		httputil.WriteSuccess(w, http.StatusCreated, "User registered successfully", model.UserWithToken{User: user, Token: issued.AccessToken})
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "User registered successfully", user)
}

// Login handles POST /auth/{guard}/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}

	issued, err := h.issuer.Issue(r.Context(), creds)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Login successful", h.loginPayload(issued))
}

func (h *AuthHandler) loginPayload(issued *model.IssuedToken) interface{} {
	switch h.issuer.Name() {
	case config.GuardSanctum:
		return model.UserWithToken{User: issued.User, Token: issued.AccessToken}
	case config.GuardFirebase:
		return model.IdentityLoginResponse{User: issued.User, IDToken: issued.AccessToken, ExpiresIn: issued.ExpiresIn}
	default:
		return tokenResponse(issued)
	}
}

func tokenResponse(issued *model.IssuedToken) model.TokenResponse {
	return model.TokenResponse{
		AccessToken: issued.AccessToken,
		TokenType:   issued.TokenType,
		ExpiresIn:   issued.ExpiresIn,
	}
}

// Me handles GET /auth/{guard}/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "User profile", user)
}

// UpdateMe handles PUT /auth/{guard}/me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.profiles.UpdateProfile(r.Context(), user.ID, req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Profile updated", updated)
}

// Logout handles POST /auth/{guard}/logout and revokes the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	raw, _ := middleware.TokenFromContext(r.Context())
	if err := h.issuer.Revoke(r.Context(), raw); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Successfully logged out", nil)
}

// Refresh handles POST /auth/jwt/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refresher, ok := h.issuer.(service.Refresher)
	if !ok {
		httputil.WriteError(w, model.KindNotFound, "refresh is not supported by this guard")
		return
	}

	raw, _ := middleware.TokenFromContext(r.Context())
	issued, err := refresher.Refresh(r.Context(), raw)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Token refreshed", tokenResponse(issued))
}

// Google handles POST /auth/firebase/google
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	google, ok := h.issuer.(GoogleSignIn)
	if !ok {
		httputil.WriteError(w, model.KindNotFound, "google sign-in is not supported by this guard")
		return
	}

	var req model.GoogleSignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := google.SignInWithGoogle(r.Context(), req.IDToken)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Login successful", user)
}
