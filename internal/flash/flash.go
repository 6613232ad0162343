// Package flash carries one-shot status messages across a redirect.
//
// A write handler stores a Message and attaches the returned token to the
// redirect response as a cookie. The next page pops it: the store hands the
// message out at most once and the cookie is expired in the same response.
package flash

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/userbase/internal/logging"
)

const CookieName = "_userbase_flash"

const KindNotice = "notice"

type Message struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

func Notice(text string) Message {
	return Message{Kind: KindNotice, Text: text}
}

// ErrInvalidToken is returned by stores for tokens they did not issue.
var ErrInvalidToken = errors.New("invalid flash token")

// Store keeps messages until they are taken once.
type Store interface {
	// Put stores msg for at most ttl and returns an opaque token for it.
	Put(ctx context.Context, msg Message, ttl time.Duration) (string, error)
	// Take returns the message for token and forgets it. ok is false when the
	// token is unknown, expired or already taken.
	Take(ctx context.Context, token string) (msg Message, ok bool, err error)
}

// Flasher binds a Store to gin requests through a cookie.
type Flasher struct {
	store  Store
	ttl    time.Duration
	secure bool
	logger logging.Logger
}

func NewFlasher(store Store, ttl time.Duration, secure bool, logger logging.Logger) *Flasher {
	return &Flasher{store: store, ttl: ttl, secure: secure, logger: logger}
}

// Set stores msg and attaches its token to the response.
func (f *Flasher) Set(c *gin.Context, msg Message) error {
	token, err := f.store.Put(c.Request.Context(), msg, f.ttl)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(f.ttl.Seconds()), "/", "", f.secure, true)
	return nil
}

// Pop returns the pending message for this request, if any, and expires the
// cookie. Store failures are logged and treated as no message.
func (f *Flasher) Pop(c *gin.Context) (Message, bool) {
	token, err := c.Cookie(CookieName)
	if err != nil || token == "" {
		return Message{}, false
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", f.secure, true)

	msg, ok, err := f.store.Take(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, ErrInvalidToken) {
			f.logger.Warn(c.Request.Context(), "failed to read flash message", "error", err)
		}
		return Message{}, false
	}
	return msg, ok
}
