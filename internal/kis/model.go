package kis

// tokenRequest is the body of POST /oauth2/tokenP.
type tokenRequest struct {
	GrantType string `json:"grant_type"`
	AppKey    string `json:"appkey"`
	AppSecret string `json:"appsecret"`
}

// tokenResponse covers both the success and the error shape of the token
// endpoint.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// PriceResponse is the inquire-price (FHKST01010100) response envelope.
type PriceResponse struct {
	RtCd   string       `json:"rt_cd"`
	MsgCd  string       `json:"msg_cd"`
	Msg1   string       `json:"msg1"`
	Output *PriceOutput `json:"output"`
}

// PriceOutput holds the fields read from a price lookup. Numbers arrive as
// strings, sometimes with thousands separators.
type PriceOutput struct {
	CurrentPrice  string `json:"stck_prpr"`
	PreviousClose string `json:"prdy_clpr"`
	BasePrice     string `json:"stck_sdpr"`
	Change        string `json:"prdy_vrss"`
	ChangeRate    string `json:"prdy_ctrt"`
	Name          string `json:"hts_kor_isnm"`
}
