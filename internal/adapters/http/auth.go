package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dkeye/duet/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const participantKey = "participant"

var ErrUnauthorized = errors.New("unauthorized")

// Claims carry the participant snapshot a client presents to the relay.
type Claims struct {
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for p valid for ttl.
func IssueToken(secret []byte, p domain.Participant, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:   p.DisplayName,
		Avatar: p.AvatarRef,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(p.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseToken(secret []byte, raw string) (domain.Participant, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Participant{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	p, err := domain.NewParticipant(domain.UserID(claims.Subject), claims.Name, claims.Avatar)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return p, nil
}

func bearer(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}

// AuthMiddleware accepts a bearer token or the identity remembered in the
// session cookie. A valid token refreshes the session.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		if raw := bearer(c); raw != "" {
			p, err := ParseToken(secret, raw)
			if err != nil {
				log.Info().Str("module", "adapters.http").Err(err).Msg("rejected token")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
				return
			}
			sess.Set("uid", string(p.ID))
			sess.Set("name", p.DisplayName)
			sess.Set("avatar", p.AvatarRef)
			if err := sess.Save(); err != nil {
				log.Warn().Str("module", "adapters.http").Err(err).Msg("session save")
			}
			c.Set(participantKey, p)
			c.Next()
			return
		}

		uid, _ := sess.Get("uid").(string)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		name, _ := sess.Get("name").(string)
		avatar, _ := sess.Get("avatar").(string)
		p, err := domain.NewParticipant(domain.UserID(uid), name, avatar)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(participantKey, p)
		c.Next()
	}
}

func participant(c *gin.Context) domain.Participant {
	return c.MustGet(participantKey).(domain.Participant)
}
