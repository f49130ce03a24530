// Package session implements the Auth layer: session token lifecycle,
// phone-based user registration via an out-of-band SMS challenge, and
// access-token-to-uid resolution for every other request type.
package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/voxov/voxov/internal/audit"
	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/store/kv"
	"github.com/voxov/voxov/internal/voerr"
)

// Config is the subset of the gateway configuration the Auth layer needs.
type Config struct {
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	UserTTL     time.Duration
	InitCredit  int64
	AuthPhones  []string
}

// Auth is the Auth layer.
type Auth struct {
	kv     *kv.Store
	ledger *audit.Ledger
	cfg    Config
}

// New creates the Auth layer.
func New(kvStore *kv.Store, ledger *audit.Ledger, cfg Config) *Auth {
	return &Auth{kv: kvStore, ledger: ledger, cfg: cfg}
}

func uidString(id ids.Id) string {
	return id.String()
}

func parseUid(s string) (ids.Id, error) {
	if s == "" {
		return ids.Zero, nil
	}
	id, err := ids.Parse(s)
	if err != nil {
		return ids.Zero, voerr.New(voerr.AuthInvalidUid)
	}
	return id, nil
}

// Start issues a fresh, unbound session: access (short TTL) and refresh
// (long TTL) tokens, both initially mapped to the anonymous uid.
func (a *Auth) Start(ctx context.Context) (access, refresh ids.Id, err error) {
	access, err = ids.New()
	if err != nil {
		return ids.Zero, ids.Zero, voerr.WrapIO(err)
	}
	refresh, err = ids.New()
	if err != nil {
		return ids.Zero, ids.Zero, voerr.WrapIO(err)
	}

	if err := a.kv.SetEx(ctx, kv.Key(kv.Access, access), uidString(ids.Zero), a.cfg.AccessTTL); err != nil {
		return ids.Zero, ids.Zero, err
	}
	if err := a.kv.SetEx(ctx, kv.Key(kv.Refresh, refresh), uidString(ids.Zero), a.cfg.RefreshTTL); err != nil {
		return ids.Zero, ids.Zero, err
	}
	return access, refresh, nil
}

// Refresh renews the refresh token's TTL and issues a new access token
// bound to the same uid.
func (a *Auth) Refresh(ctx context.Context, refresh ids.Id) (access ids.Id, err error) {
	key := kv.Key(kv.Refresh, refresh)
	val, ok, err := a.kv.GetEx(ctx, key, a.cfg.RefreshTTL)
	if err != nil {
		return ids.Zero, err
	}
	if !ok {
		return ids.Zero, voerr.New(voerr.AuthInvalidRefreshToken)
	}
	uid, err := parseUid(val)
	if err != nil {
		return ids.Zero, err
	}

	access, err = ids.New()
	if err != nil {
		return ids.Zero, voerr.WrapIO(err)
	}
	if err := a.kv.SetEx(ctx, kv.Key(kv.Access, access), uidString(uid), a.cfg.AccessTTL); err != nil {
		return ids.Zero, err
	}
	return access, nil
}

// End terminates a session. The access token must be live. If a refresh
// token is given it is only deleted when bound to the same uid as access.
func (a *Auth) End(ctx context.Context, access ids.Id, refresh *ids.Id) error {
	accessKey := kv.Key(kv.Access, access)
	accessVal, ok, err := a.kv.Get(ctx, accessKey)
	if err != nil {
		return err
	}
	if !ok {
		return voerr.New(voerr.AuthInvalidAccessToken)
	}
	accessUid, err := parseUid(accessVal)
	if err != nil {
		return err
	}

	if err := a.kv.Del(ctx, accessKey); err != nil {
		return err
	}

	if refresh == nil {
		return nil
	}

	refreshKey := kv.Key(kv.Refresh, *refresh)
	refreshVal, ok, err := a.kv.Get(ctx, refreshKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	refreshUid, err := parseUid(refreshVal)
	if err != nil {
		return err
	}
	if refreshUid != accessUid {
		return voerr.New(voerr.AuthTokensMismatch)
	}
	return a.kv.Del(ctx, refreshKey)
}

// SendSmsTo picks a phone from the configured receiver pool uniformly at
// random, mints a fresh challenge message Id, and records the pending
// challenge for the caller's access token.
func (a *Auth) SendSmsTo(ctx context.Context, access ids.Id) (phone string, message ids.Id, err error) {
	if len(a.cfg.AuthPhones) == 0 {
		return "", ids.Zero, voerr.New(voerr.AuthInvalidPhone)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(a.cfg.AuthPhones))))
	if err != nil {
		return "", ids.Zero, voerr.WrapIO(err)
	}
	phone = a.cfg.AuthPhones[n.Int64()]

	message, err = ids.New()
	if err != nil {
		return "", ids.Zero, voerr.WrapIO(err)
	}

	key := kv.KeyPhoneMessage(kv.SmsSendTo, phone, message)
	if err := a.kv.SetEx(ctx, key, access.String(), a.cfg.AccessTTL); err != nil {
		return "", ids.Zero, err
	}
	return phone, message, nil
}

// ConfirmSms completes the SMS challenge once the receiver has observed the
// message arrive from a sender phone (recorded out-of-band under SmsSent).
// The uid is resolved from that recorded sender phone, not from phone --
// phone is one of the pooled receiver numbers handed out by SendSmsTo and
// is shared across unrelated callers, so it must never be used to identify
// a user. It extends the long-lived user keys and rebinds access/refresh
// to the resolved uid.
func (a *Auth) ConfirmSms(ctx context.Context, access, refresh ids.Id, phone string, message ids.Id) (ids.Id, error) {
	sentKey := kv.KeyPhoneMessage(kv.SmsSent, phone, message)
	senderPhone, ok, err := a.kv.Get(ctx, sentKey)
	if err != nil {
		return ids.Zero, err
	}
	if !ok {
		return ids.Zero, voerr.New(voerr.AuthInvalidPhone)
	}

	uid, err := a.resolveOrCreateUid(ctx, senderPhone)
	if err != nil {
		return ids.Zero, err
	}

	if err := a.kv.SetEx(ctx, kv.Key(kv.Access, access), uidString(uid), a.cfg.AccessTTL); err != nil {
		return ids.Zero, err
	}
	if err := a.kv.SetEx(ctx, kv.Key(kv.Refresh, refresh), uidString(uid), a.cfg.RefreshTTL); err != nil {
		return ids.Zero, err
	}
	return uid, nil
}

func (a *Auth) resolveOrCreateUid(ctx context.Context, phone string) (ids.Id, error) {
	p2uKey := kv.KeyPhone(kv.Phone2Uid, phone)
	val, ok, err := a.kv.GetEx(ctx, p2uKey, a.cfg.UserTTL)
	if err != nil {
		return ids.Zero, err
	}
	if ok {
		uid, err := parseUid(val)
		if err != nil {
			return ids.Zero, err
		}
		if err := a.kv.Expire(ctx, kv.Key(kv.Uid2Phone, uid), a.cfg.UserTTL); err != nil {
			return ids.Zero, err
		}
		if err := a.kv.Expire(ctx, kv.Key(kv.Uid2Credit, uid), a.cfg.UserTTL); err != nil {
			return ids.Zero, err
		}
		return uid, nil
	}

	uid, err := ids.New()
	if err != nil {
		return ids.Zero, voerr.WrapIO(err)
	}
	if err := a.kv.SetEx(ctx, p2uKey, uidString(uid), a.cfg.UserTTL); err != nil {
		return ids.Zero, err
	}
	if err := a.kv.SetEx(ctx, kv.Key(kv.Uid2Phone, uid), phone, a.cfg.UserTTL); err != nil {
		return ids.Zero, err
	}
	if err := a.kv.SetEx(ctx, kv.Key(kv.Uid2Credit, uid), fmt.Sprintf("%d", a.cfg.InitCredit), a.cfg.UserTTL); err != nil {
		return ids.Zero, err
	}
	return uid, nil
}

// Resolve maps an access token to its bound uid, extending the access
// token's TTL on every authenticated touch. The zero uid means the token
// is unbound (anonymous), which fails with AuthNotAuthenticated.
func (a *Auth) Resolve(ctx context.Context, access ids.Id) (ids.Id, error) {
	key := kv.Key(kv.Access, access)
	val, ok, err := a.kv.GetEx(ctx, key, a.cfg.AccessTTL)
	if err != nil {
		return ids.Zero, err
	}
	if !ok {
		return ids.Zero, voerr.New(voerr.AuthInvalidAccessToken)
	}
	uid, err := parseUid(val)
	if err != nil {
		return ids.Zero, err
	}
	if uid.IsZero() {
		return ids.Zero, voerr.New(voerr.AuthNotAuthenticated)
	}
	return uid, nil
}
