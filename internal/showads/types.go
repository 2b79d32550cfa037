// Package showads implements the authenticated ShowAds API client:
// project-key authentication with cached bearer tokens, and single and
// bulk banner submission for validated customers.
package showads

import "github.com/meiro/showads-connector/internal/customer"

// AuthRequest is the body of POST /auth.
type AuthRequest struct {
	ProjectKey string `json:"ProjectKey"`
}

// AuthResponse is the success body of POST /auth. ExpiresIn (seconds) is
// optional; when the server omits it the token is assumed to be valid
// for 24 hours.
type AuthResponse struct {
	AccessToken string `json:"AccessToken"`
	ExpiresIn   int    `json:"ExpiresIn,omitempty"`
}

// ShowBannerRequest is the body of POST /banners/show and the element
// type of the bulk payload.
type ShowBannerRequest struct {
	Name          string `json:"Name"`
	Age           int    `json:"Age"`
	VisitorCookie string `json:"VisitorCookie"`
	BannerID      int    `json:"BannerId"`
}

// BulkShowBannerRequest is the body of POST /banners/show/bulk.
type BulkShowBannerRequest struct {
	Data []ShowBannerRequest `json:"Data"`
}

func banner(c customer.Customer) ShowBannerRequest {
	return ShowBannerRequest{
		Name:          c.Name,
		Age:           c.Age,
		VisitorCookie: c.Cookie,
		BannerID:      c.BannerID,
	}
}

func banners(customers []customer.Customer) []ShowBannerRequest {
	out := make([]ShowBannerRequest, len(customers))
	for i, c := range customers {
		out[i] = banner(c)
	}
	return out
}
