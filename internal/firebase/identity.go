package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"firebase.google.com/go/v4/auth"

	"inkpost/internal/model"
)

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// PasswordSignIn calls the Identity Toolkit REST API. The Admin SDK can
// verify tokens but cannot sign a user in with a password.
type PasswordSignIn struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

func NewPasswordSignIn(apiKey string) *PasswordSignIn {
	return &PasswordSignIn{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   identityToolkitURL,
		apiKey:     apiKey,
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
	ExpiresIn   string `json:"expiresIn"`
}

type toolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn exchanges an email and password for an ID token. Rejected
// credentials come back as model.ErrInvalidCredentials.
func (s *PasswordSignIn) SignIn(ctx context.Context, email, password string) (*model.IdentitySession, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("firebase api key not configured")
	}

	payload, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("marshal sign-in request: %w", err)
	}

	url := s.endpoint + "/accounts:signInWithPassword?key=" + s.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var tkErr toolkitError
		_ = json.Unmarshal(body, &tkErr)
		if resp.StatusCode == http.StatusBadRequest {
			slog.InfoContext(ctx, "password sign-in rejected", "component", "identity", "reason", tkErr.Error.Message)
			return nil, model.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("identity toolkit error: status=%d message=%s", resp.StatusCode, tkErr.Error.Message)
	}

	var out signInResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode sign-in response: %w", err)
	}

	expiresIn, _ := strconv.Atoi(out.ExpiresIn)
	return &model.IdentitySession{
		Identity: model.ExternalIdentity{
			UID:         out.LocalID,
			Email:       out.Email,
			DisplayName: out.DisplayName,
		},
		IDToken:   out.IDToken,
		ExpiresIn: expiresIn,
	}, nil
}

// Identity is the external identity provider backed by Firebase Auth.
type Identity struct {
	auth   *auth.Client
	signIn *PasswordSignIn
}

func NewIdentity(client *auth.Client, signIn *PasswordSignIn) *Identity {
	return &Identity{auth: client, signIn: signIn}
}

func (i *Identity) SignInWithPassword(ctx context.Context, email, password string) (*model.IdentitySession, error) {
	return i.signIn.SignIn(ctx, email, password)
}

// CreateAccount registers a new Firebase user. A taken email comes back as
// model.ErrEmailExists.
func (i *Identity) CreateAccount(ctx context.Context, email, password, displayName string) (*model.ExternalIdentity, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(password)
	if displayName != "" {
		params = params.DisplayName(displayName)
	}

	rec, err := i.auth.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return nil, model.ErrEmailExists
		}
		return nil, fmt.Errorf("create firebase user: %w", err)
	}
	return identityFromRecord(rec), nil
}

// VerifyIDToken checks signature, expiry and revocation of a Firebase ID token.
func (i *Identity) VerifyIDToken(ctx context.Context, idToken string) (*model.ExternalIdentity, error) {
	tok, err := i.auth.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		switch {
		case auth.IsIDTokenExpired(err):
			return nil, model.ErrIdentityTokenExpired
		case auth.IsIDTokenRevoked(err), auth.IsIDTokenInvalid(err), auth.IsUserDisabled(err):
			return nil, fmt.Errorf("%w: %v", model.ErrIdentityTokenInvalid, err)
		}
		return nil, fmt.Errorf("verify id token: %w", err)
	}

	id := &model.ExternalIdentity{UID: tok.UID}
	if v, ok := tok.Claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := tok.Claims["name"].(string); ok {
		id.DisplayName = v
	}
	if v, ok := tok.Claims["picture"].(string); ok {
		id.PhotoURL = v
	}
	return id, nil
}

func (i *Identity) LookupUser(ctx context.Context, uid string) (*model.ExternalIdentity, error) {
	rec, err := i.auth.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get firebase user: %w", err)
	}
	return identityFromRecord(rec), nil
}

// RevokeSessions invalidates every refresh token of uid. Outstanding ID
// tokens then fail the revocation check in VerifyIDToken.
func (i *Identity) RevokeSessions(ctx context.Context, uid string) error {
	if err := i.auth.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("revoke firebase sessions: %w", err)
	}
	return nil
}

func identityFromRecord(rec *auth.UserRecord) *model.ExternalIdentity {
	if rec == nil || rec.UserInfo == nil {
		return &model.ExternalIdentity{}
	}
	return &model.ExternalIdentity{
		UID:         rec.UID,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
		PhotoURL:    rec.PhotoURL,
	}
}
