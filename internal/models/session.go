package models

// Session is the broker session, immutable after login. Re-login produces a
// fresh value swapped into place atomically by the holder.
type Session struct {
	Token     string            `json:"session_token"`
	UserID    string            `json:"userid"`
	TokensMap map[string]string `json:"tokens_map"` // tsym -> exchange token
	VC        string            `json:"vc"`
	APIKey    string            `json:"api_key"`
	IMEI      string            `json:"imei"`
}

func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.UserID != ""
}
