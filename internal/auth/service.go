package auth

import (
	"context"
	"log"
	"time"

	"github.com/wichananm65/storefront-gateway/internal/cart"
	"github.com/wichananm65/storefront-gateway/internal/config"
	"github.com/wichananm65/storefront-gateway/internal/state"
)

type Stores interface {
	Auth(ctx context.Context, deviceID string) (*state.Store[Session], error)
	Cart(ctx context.Context, deviceID string) (*state.Store[cart.Cart], error)
}

// Status is what clients gate auth-dependent redirects on.
type Status struct {
	Hydrated        bool  `json:"hydrated"`
	IsAuthenticated bool  `json:"isAuthenticated"`
	User            *User `json:"user,omitempty"`
}

type Provider struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type Providers struct {
	Providers []Provider `json:"providers"`
	Missing   []string   `json:"missing,omitempty"`
}

type Service struct {
	stores   Stores
	parser   *Parser
	firebase config.Firebase
	now      func() time.Time
}

func NewService(stores Stores, parser *Parser, firebase config.Firebase) *Service {
	if missing := firebase.Missing(); len(missing) > 0 {
		log.Printf("auth: social sign-in disabled, missing %v", missing)
	}
	return &Service{stores: stores, parser: parser, firebase: firebase, now: time.Now}
}

// SignIn stores a backend-issued token for the device. The user id and
// expiry come from the token claims unless user says otherwise.
func (s *Service) SignIn(ctx context.Context, deviceID, token string, user *User) (Status, error) {
	_, claims, err := s.parser.Parse(token)
	if err != nil {
		return Status{}, err
	}
	if user == nil {
		user = &User{}
	}
	if user.ID == 0 {
		id, ok := userIDFromClaims(claims)
		if !ok {
			return Status{}, ErrInvalidToken
		}
		user.ID = id
	}

	store, err := s.stores.Auth(ctx, deviceID)
	if err != nil {
		return Status{}, err
	}
	sess, err := store.Dispatch(ctx, Login(token, user, expiryFromClaims(claims)))
	if err != nil {
		return Status{}, err
	}
	return s.status(sess), nil
}

// SignOut clears the auth slice and detaches the cart from the server cart.
func (s *Service) SignOut(ctx context.Context, deviceID string) error {
	store, err := s.stores.Auth(ctx, deviceID)
	if err != nil {
		return err
	}
	if _, err := store.Dispatch(ctx, Logout()); err != nil {
		return err
	}
	cs, err := s.stores.Cart(ctx, deviceID)
	if err == nil {
		_, err = cs.Dispatch(ctx, cart.Unlink())
	}
	if err != nil {
		log.Printf("auth: unlink cart for device %s: %v", deviceID, err)
	}
	return nil
}

func (s *Service) Status(ctx context.Context, deviceID string) (Status, error) {
	store, err := s.stores.Auth(ctx, deviceID)
	if err != nil {
		return Status{}, err
	}
	sess, err := store.State()
	if err != nil {
		return Status{Hydrated: false}, nil
	}
	return s.status(sess), nil
}

// Token returns the device's live token, or "" for guests.
func (s *Service) Token(ctx context.Context, deviceID string) (string, error) {
	store, err := s.stores.Auth(ctx, deviceID)
	if err != nil {
		return "", err
	}
	sess, err := store.State()
	if err != nil {
		return "", err
	}
	if !sess.Authenticated(s.now()) {
		return "", nil
	}
	return sess.Token, nil
}

func (s *Service) status(sess Session) Status {
	st := Status{Hydrated: true, IsAuthenticated: sess.Authenticated(s.now())}
	if st.IsAuthenticated {
		st.User = sess.User
	}
	return st
}

// Providers reports which social sign-in providers can be offered.
func (s *Service) Providers() Providers {
	enabled := s.firebase.Complete()
	return Providers{
		Providers: []Provider{{Name: "google", Enabled: enabled}, {Name: "apple", Enabled: enabled}},
		Missing:   s.firebase.Missing(),
	}
}
