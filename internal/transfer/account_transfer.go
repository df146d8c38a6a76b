package transfer

type SocialAccountCreation struct {
	Platform    string `json:"platform"`
	AccountName string `json:"accountName"`
	AccountID   string `json:"accountId"`
	AccessToken string `json:"accessToken"`
	PageID      string `json:"pageId"`
}

type SocialAccountUpdate struct {
	IsActive *bool `json:"isActive"`
}
