package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Akinaru/event-poll/database"
	"github.com/Akinaru/event-poll/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

var (
	jwtSecret = []byte("default-dev-secret-change-me")
	tokenTTL  = 24 * time.Hour
)

// InitAuth sets the signing secret and lifetime of issued tokens
func InitAuth(secret string, ttl time.Duration) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if ttl > 0 {
		tokenTTL = ttl
	}
}

// AccessTier is the authorization level a route requires
type AccessTier int

const (
	TierAuthenticated AccessTier = iota
	TierAdmin
)

// Claims carried by access tokens. Subject holds the user id.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

type SignupRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

// Login exchanges credentials for a bearer token
func Login(c *gin.Context) {
	var req LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := database.FindUserByCredentials(req.Username, req.Password)
	if err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		log.Printf("❌ Login lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate"})
		return
	}

	token, err := issueToken(user)
	if err != nil {
		log.Printf("❌ Failed to sign token for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, models.TokenDTO{Token: token})
}

// Signup registers a user without a role
func Signup(c *gin.Context) {
	var req SignupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	exists, err := database.UsernameExists(req.Username)
	if err != nil {
		log.Printf("❌ Username lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		return
	}

	user, err := database.CreateUser(req.Username, req.Password, "")
	if err != nil {
		// A concurrent signup may have claimed the name after the check above
		if taken, _ := database.UsernameExists(req.Username); taken {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
			return
		}
		log.Printf("❌ Failed to create user %q: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	log.Printf("👤 User %d signed up as %q", user.ID, user.Username)
	c.Header("Location", fmt.Sprintf("/users/%d", user.ID))
	c.JSON(http.StatusCreated, models.NewUserDTO(user))
}

func issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

func parseToken(tokenString string) (*Claims, uint, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, 0, err
	}
	if !token.Valid {
		return nil, 0, errors.New("invalid token")
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, 0, errors.New("invalid subject")
	}
	return claims, uint(id), nil
}

// RequireAuth protects routes. A missing or invalid token yields 401; an
// admin route reached without the admin role yields 403.
func RequireAuth(tier AccessTier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, userID, err := parseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if tier == TierAdmin && claims.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// currentUserID returns the caller id set by RequireAuth
func currentUserID(c *gin.Context) uint {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
