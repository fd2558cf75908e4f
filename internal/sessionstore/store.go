package sessionstore

import (
	"encoding/base32"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"
)

const (
	// PrincipalKey はログイン済みユーザーIDを保持するセッションキーです。
	PrincipalKey = "principal_id"

	flashesKey    = "_flash"
	regenerateKey = "_regenerate"
)

// Store は gin-contrib/sessions の Store 実装です。
// クッキーには署名付きのセッションIDだけを載せ、中身は Backend に保存します。
type Store struct {
	backend Backend
	codecs  []securecookie.Codec
	options *gsessions.Options
	ttl     time.Duration
	now     func() time.Time
}

var _ sessions.Store = (*Store)(nil)

// NewStore は Store を作成します。keyPairs は securecookie の署名鍵です。
func NewStore(backend Backend, ttl time.Duration, keyPairs ...[]byte) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &Store{
		backend: backend,
		codecs:  securecookie.CodecsFromPairs(keyPairs...),
		options: &gsessions.Options{
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		ttl: ttl,
		now: time.Now,
	}
	s.setCodecMaxAge(s.options.MaxAge)
	return s
}

// Options はクッキーの既定オプションを設定します。
func (s *Store) Options(opts sessions.Options) {
	s.options = opts.ToGorillaOptions()
	s.setCodecMaxAge(opts.MaxAge)
}

func (s *Store) setCodecMaxAge(age int) {
	if age <= 0 {
		return
	}
	for _, codec := range s.codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

// Get はリクエスト単位でキャッシュされたセッションを返します。
func (s *Store) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New はクッキーのセッションIDからセッションを復元します。
// IDが無い・不正・期限切れの場合は空の新規セッションを返します。
func (s *Store) New(r *http.Request, name string) (*gsessions.Session, error) {
	session := gsessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	id, ok := s.SessionID(r, name)
	if !ok {
		return session, nil
	}

	record, err := s.backend.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return session, nil
		}
		return session, fmt.Errorf("failed to load session: %w", err)
	}
	if record.Expired(s.now()) {
		return session, nil
	}

	session.ID = id
	session.IsNew = false
	applyRecord(session, record)
	return session, nil
}

// SessionID はクッキーから検証済みのセッションIDを取り出します。
func (s *Store) SessionID(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil {
		return "", false
	}
	if id == "" {
		return "", false
	}
	return id, true
}

// Save はセッションを Backend に保存し、クッキーを発行します。
// MaxAge < 0 の場合はレコードを削除してクッキーを失効させます。
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *gsessions.Session) error {
	ctx := r.Context()

	if session.Options != nil && session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.backend.Delete(ctx, session.ID); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}
		}
		http.SetCookie(w, gsessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	regenerate := consumeRegenerate(session)

	// 空の新規セッションは保存しない
	if session.ID == "" && len(session.Values) == 0 {
		return nil
	}

	if regenerate && session.ID != "" {
		if err := s.backend.Delete(ctx, session.ID); err != nil {
			return fmt.Errorf("failed to delete previous session: %w", err)
		}
		session.ID = ""
	}
	if session.ID == "" {
		id, err := newSessionID()
		if err != nil {
			return err
		}
		session.ID = id
	}

	record := recordFromSession(session, s.expiry(session.Options))
	if err := s.backend.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, gsessions.NewCookie(session.Name(), encoded, session.Options))
	session.IsNew = false
	return nil
}

func (s *Store) expiry(opts *gsessions.Options) time.Time {
	ttl := s.ttl
	if opts != nil && opts.MaxAge > 0 {
		ttl = time.Duration(opts.MaxAge) * time.Second
	}
	return s.now().Add(ttl).UTC()
}

// Regenerate は次回保存時にセッションIDを振り直すよう印を付けます（セッション固定化対策）。
func Regenerate(session sessions.Session) {
	session.Set(regenerateKey, true)
}

func consumeRegenerate(session *gsessions.Session) bool {
	v, ok := session.Values[regenerateKey]
	if !ok {
		return false
	}
	delete(session.Values, regenerateKey)
	flag, _ := v.(bool)
	return flag
}

func recordFromSession(session *gsessions.Session, expiresAt time.Time) *Record {
	record := &Record{
		ID:        session.ID,
		ExpiresAt: expiresAt,
	}
	if principal, ok := session.Values[PrincipalKey].(string); ok {
		record.PrincipalID = principal
	}
	if flashes, ok := session.Values[flashesKey].([]interface{}); ok {
		record.Messages = make([]string, 0, len(flashes))
		for _, f := range flashes {
			record.Messages = append(record.Messages, fmt.Sprint(f))
		}
	}
	return record
}

func applyRecord(session *gsessions.Session, record *Record) {
	if record.PrincipalID != "" {
		session.Values[PrincipalKey] = record.PrincipalID
	}
	if len(record.Messages) > 0 {
		flashes := make([]interface{}, len(record.Messages))
		for i, m := range record.Messages {
			flashes[i] = m
		}
		session.Values[flashesKey] = flashes
	}
}

func newSessionID() (string, error) {
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return "", errors.New("failed to generate session id")
	}
	return strings.TrimRight(base32.StdEncoding.EncodeToString(key), "="), nil
}
