// Package settings keeps per-device preferences and negotiates locales.
package settings

import (
	"context"
	"errors"
	"strings"

	"github.com/wichananm65/storefront-gateway/internal/state"
	"golang.org/x/text/language"
)

var ErrUnsupportedLocale = errors.New("unsupported locale")

type Settings struct {
	Locale     string `json:"locale"`
	CurrencyID int64  `json:"currencyId,omitempty"`
}

// Locales matches requested language tags against the supported set.
type Locales struct {
	supported []string
	tags      []language.Tag
	matcher   language.Matcher
}

// NewLocales builds a matcher; the first supported locale is the default.
func NewLocales(defaultLocale string, supported []string) *Locales {
	list := []string{defaultLocale}
	for _, s := range supported {
		if !strings.EqualFold(s, defaultLocale) {
			list = append(list, s)
		}
	}
	l := &Locales{}
	for _, s := range list {
		tag, err := language.Parse(s)
		if err != nil {
			continue
		}
		l.supported = append(l.supported, s)
		l.tags = append(l.tags, tag)
	}
	if len(l.tags) == 0 {
		l.supported = []string{"ar"}
		l.tags = []language.Tag{language.Arabic}
	}
	l.matcher = language.NewMatcher(l.tags)
	return l
}

func (l *Locales) Default() string { return l.supported[0] }

func (l *Locales) Supported() []string { return append([]string(nil), l.supported...) }

// Match returns the supported locale closest to any of the requested
// tags (cookie values or Accept-Language lists), or the default.
func (l *Locales) Match(requested ...string) string {
	var tags []language.Tag
	for _, r := range requested {
		if r == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(r)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return l.Default()
	}
	_, idx, conf := l.matcher.Match(tags...)
	if conf == language.No {
		return l.Default()
	}
	return l.supported[idx]
}

// Exact returns the supported locale equal in base language to s.
func (l *Locales) Exact(s string) (string, bool) {
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	for i, t := range l.tags {
		if b, _ := t.Base(); b == base {
			return l.supported[i], true
		}
	}
	return "", false
}

func (l *Locales) Initial() Settings { return Settings{Locale: l.Default()} }

type Stores interface {
	Settings(ctx context.Context, deviceID string) (*state.Store[Settings], error)
}

type Service struct {
	stores  Stores
	locales *Locales
}

func NewService(stores Stores, locales *Locales) *Service {
	return &Service{stores: stores, locales: locales}
}

func (s *Service) Get(ctx context.Context, deviceID string) (Settings, error) {
	store, err := s.stores.Settings(ctx, deviceID)
	if err != nil {
		return Settings{}, err
	}
	return store.State()
}

// Update changes the locale and/or currency. An empty locale keeps the
// current one; a zero currency keeps the current one.
func (s *Service) Update(ctx context.Context, deviceID string, in Settings) (Settings, error) {
	locale := ""
	if in.Locale != "" {
		l, ok := s.locales.Exact(in.Locale)
		if !ok {
			return Settings{}, ErrUnsupportedLocale
		}
		locale = l
	}
	store, err := s.stores.Settings(ctx, deviceID)
	if err != nil {
		return Settings{}, err
	}
	return store.Dispatch(ctx, state.ActionFunc[Settings]{Label: "update", Fn: func(cur Settings) (Settings, error) {
		if locale != "" {
			cur.Locale = locale
		}
		if in.CurrencyID > 0 {
			cur.CurrencyID = in.CurrencyID
		}
		return cur, nil
	}})
}
