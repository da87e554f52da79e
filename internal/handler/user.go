package handler

import (
	"net/http"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/service"
	"github.com/go-chi/chi/v5"
)

// UserHandler handles profile registration and lookup endpoints.
type UserHandler struct {
	userSvc *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userSvc *service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// registerUserRequest is the JSON request body for POST /users.
type registerUserRequest struct {
	Wallet    string `json:"wallet"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// profileResponse is the JSON representation of a user profile.
type profileResponse struct {
	Wallet      string  `json:"wallet"`
	Username    string  `json:"username"`
	AvatarURL   string  `json:"avatar_url"`
	JoinedAt    string  `json:"joined_at"`
	ItemsOwned  int64   `json:"items_owned"`
	ItemsSold   int64   `json:"items_sold"`
	TotalVolume float64 `json:"total_volume"`
}

// Register handles POST /users.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	profile, err := h.userSvc.Register(service.RegisterUserRequest{
		Wallet:    req.Wallet,
		Username:  req.Username,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildProfileResponse(profile))
}

// GetProfile handles GET /users/{address}.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userSvc.Profile(chi.URLParam(r, "address"))
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildProfileResponse(profile))
}

// ListItems handles GET /users/{address}/items (owned items).
func (h *UserHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items := h.userSvc.Items(chi.URLParam(r, "address"))
	WriteJSON(w, http.StatusOK, buildItemResponses(items))
}

// ListListings handles GET /users/{address}/listings (active listings).
func (h *UserHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	items := h.userSvc.Listings(chi.URLParam(r, "address"))
	WriteJSON(w, http.StatusOK, buildItemResponses(items))
}

func buildProfileResponse(p *service.ProfileResponse) profileResponse {
	return profileResponse{
		Wallet:      p.Wallet,
		Username:    p.Username,
		AvatarURL:   p.AvatarURL,
		JoinedAt:    p.JoinedAt.UTC().Format("2006-01-02T15:04:05Z"),
		ItemsOwned:  p.ItemsOwned,
		ItemsSold:   p.ItemsSold,
		TotalVolume: domain.LamportsToSol(p.TotalVolume),
	}
}
