package fakeapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	refreshTokenLength = 32
	passwordCost       = bcrypt.MinCost
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.loginCalls.Add(1)
		var req loginRequest
		if err := decodeBody(r, &req); err != nil || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Email and password are required")
			return
		}

		s.lock.Lock()
		defer s.lock.Unlock()

		user := s.userByEmail(req.Email)
		if user == nil || bcrypt.CompareHashAndPassword([]byte(str(user["passwordHash"])), []byte(req.Password)) != nil {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		if active, ok := user["isActive"].(bool); ok && !active {
			writeError(w, http.StatusUnauthorized, "Account is disabled")
			return
		}

		access, err := s.issueAccessToken(user)
		if err != nil {
			s.logger.Err(err).Msg("failed to sign access token")
			writeError(w, http.StatusInternalServerError, "Failed to create token")
			return
		}
		refresh, err := s.issueRefreshToken(str(user["_id"]))
		if err != nil {
			s.logger.Err(err).Msg("failed to create refresh token")
			writeError(w, http.StatusInternalServerError, "Failed to create token")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"message":      "Login successful",
			"token":        access,
			"refreshToken": refresh,
			"user":         public(user),
		})
	}
}

// RefreshHandler exchanges a refresh token for a new access token, rotating the
// refresh token when configured to.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)
		if d := time.Duration(s.refreshDelay.Load()); d > 0 {
			time.Sleep(d)
		}
		var req refreshRequest
		if err := decodeBody(r, &req); err != nil || req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "Refresh token is required")
			return
		}
		if s.failRefresh.Load() {
			writeError(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}

		s.lock.Lock()
		defer s.lock.Unlock()

		userID, ok := s.refreshTokens[req.RefreshToken]
		users := s.collections[CollectionUsers]
		i := users.indexOf(userID)
		if !ok || i < 0 {
			writeError(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		access, err := s.issueAccessToken(users.items[i])
		if err != nil {
			s.logger.Err(err).Msg("failed to sign access token")
			writeError(w, http.StatusInternalServerError, "Failed to create token")
			return
		}
		resp := map[string]any{"success": true, "token": access}
		if s.rotate {
			delete(s.refreshTokens, req.RefreshToken)
			rotated, err := s.issueRefreshToken(userID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to create token")
				return
			}
			resp["refreshToken"] = rotated
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		_ = decodeBody(r, &req)
		s.lock.Lock()
		delete(s.refreshTokens, req.RefreshToken)
		s.lock.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out"})
	}
}

// RegisterHandler creates a user account with a hashed password. Only
// administrators may register accounts.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if role, _ := claimsFrom(r)["role"].(string); role != "admin" {
			writeError(w, http.StatusForbidden, "Only administrators can register users")
			return
		}
		body := record{}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		password := str(body["password"])
		if password == "" {
			writeError(w, http.StatusUnprocessableEntity, "password is required")
			return
		}
		if str(body["role"]) == "" {
			body["role"] = "user"
		}

		s.lock.Lock()
		defer s.lock.Unlock()
		users := s.collections[CollectionUsers]
		if err := users.validate(body, ""); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}
		delete(body, "password")
		body["passwordHash"] = string(hash)
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "User registered", "data": public(users.insert(body))})
	}
}

// AddUser seeds an account directly, returning its id.
func (s *Server) AddUser(email, password, name, role string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	users := s.collections[CollectionUsers]
	rec := record{"name": name, "email": email, "role": role, "isActive": true, "passwordHash": string(hash)}
	if err := users.validate(rec, ""); err != nil {
		return "", err
	}
	return str(users.insert(rec)["_id"]), nil
}

// userByEmail must be called with s.lock held.
func (s *Server) userByEmail(email string) record {
	for _, u := range s.collections[CollectionUsers].items {
		if strings.EqualFold(str(u["email"]), email) {
			return u
		}
	}
	return nil
}

// issueAccessToken must be called with s.lock held.
func (s *Server) issueAccessToken(user record) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"sub":   str(user["_id"]),
		"email": str(user["email"]),
		"name":  str(user["name"]),
		"role":  str(user["role"]),
		"iat":   now.Unix(),
		"exp":   now.Add(s.accessTTL).Unix(),
		"jti":   uuid.NewString(),
		"gen":   s.generation,
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (s *Server) verifyAccessToken(raw string) (jwtlib.MapClaims, error) {
	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(NowTimeFunc), jwtlib.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	gen, _ := claims["gen"].(float64)
	s.lock.RLock()
	current := s.generation
	s.lock.RUnlock()
	if int64(gen) < current {
		return nil, fmt.Errorf("token was revoked")
	}
	return claims, nil
}

// issueRefreshToken must be called with s.lock held.
func (s *Server) issueRefreshToken(userID string) (string, error) {
	tokenBytes := make([]byte, refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	tokenStr := hex.EncodeToString(tokenBytes)
	s.refreshTokens[tokenStr] = userID
	return tokenStr, nil
}
