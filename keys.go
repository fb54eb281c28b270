package authredis

import "strings"

// keyEscaper makes key segments delimiter-safe: a ":" inside a provider id,
// email, or token can no longer collide with the ":" joining composite ids.
var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func escapeKeySegment(segment string) string {
	return keyEscaper.Replace(segment)
}

// compositeID joins already-meaningful segments into one identifier,
// escaping each segment so the join is unambiguous.
func compositeID(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, segment := range segments {
		escaped[i] = escapeKeySegment(segment)
	}
	return strings.Join(escaped, ":")
}

// keySet holds the fully resolved key prefixes (base prefix included) and
// derives every managed key from them.
type keySet struct {
	user              string
	email             string
	account           string
	accountByUser     string
	session           string
	sessionByUser     string
	verificationToken string
}

func newKeySet(opts Options) keySet {
	base := opts.BaseKeyPrefix
	return keySet{
		user:              base + opts.UserKeyPrefix,
		email:             base + opts.EmailKeyPrefix,
		account:           base + opts.AccountKeyPrefix,
		accountByUser:     base + opts.AccountByUserIDKeyPrefix,
		session:           base + opts.SessionKeyPrefix,
		sessionByUser:     base + opts.SessionByUserIDKeyPrefix,
		verificationToken: base + opts.VerificationTokenKeyPrefix,
	}
}

func (k keySet) userKey(id string) string {
	return k.user + escapeKeySegment(id)
}

func (k keySet) emailKey(email string) string {
	return k.email + escapeKeySegment(email)
}

func (k keySet) accountKey(provider, providerAccountID string) string {
	return k.account + compositeID(provider, providerAccountID)
}

// accountByUserKey names a set whose members are account primary keys.
func (k keySet) accountByUserKey(userID string) string {
	return k.accountByUser + escapeKeySegment(userID)
}

func (k keySet) sessionKey(sessionToken string) string {
	return k.session + escapeKeySegment(sessionToken)
}

// sessionByUserKey names a set whose members are session primary keys.
func (k keySet) sessionByUserKey(userID string) string {
	return k.sessionByUser + escapeKeySegment(userID)
}

func (k keySet) verificationTokenKey(identifier, token string) string {
	return k.verificationToken + compositeID(identifier, token)
}
