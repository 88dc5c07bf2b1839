package pkce

// Session holds the secrets minted for exactly one interactive login attempt.
// It is created when the attempt starts, consumed exactly once by the token
// exchange (or the redirect error handler), and must never be reused across
// attempts - accepting a stale state or nonce would open the flow to CSRF and
// token replay.
type Session struct {
	Verifier  string
	Challenge string
	State     string
	Nonce     string

	consumed bool
}

// NewSession mints a fresh verifier/challenge pair and random state and nonce
// values for one login attempt.
func NewSession() (*Session, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return nil, err
	}
	return &Session{
		Verifier:  verifier,
		Challenge: Challenge(verifier),
		State:     RandomToken(),
		Nonce:     RandomToken(),
	}, nil
}

// Consume marks the session as used and returns whether this call was the
// first to do so. A false return means the session was already consumed or
// invalidated and its values must not be trusted.
func (s *Session) Consume() bool {
	if s == nil || s.consumed {
		return false
	}
	s.consumed = true
	return true
}

// Invalidate discards the session so a later redirect or exchange can never
// match its state or nonce. Called on error, cancellation, and supersede.
func (s *Session) Invalidate() {
	if s == nil {
		return
	}
	s.consumed = true
	s.Verifier = ""
	s.Challenge = ""
	s.State = ""
	s.Nonce = ""
}

// Valid reports whether the session can still be consumed.
func (s *Session) Valid() bool {
	return s != nil && !s.consumed
}
