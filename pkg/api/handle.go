// Package api exposes the identity core over HTTP. Handlers are thin:
// they parse, call a service, and map structured errors onto status
// codes. All decisions live in the services.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/hubcrafter/tenant-idm/pkg/idmerr"
	"github.com/hubcrafter/tenant-idm/pkg/login"
	"github.com/hubcrafter/tenant-idm/pkg/provision"
	"github.com/hubcrafter/tenant-idm/pkg/tenant"
)

// Handle bundles the HTTP handlers over the identity services.
type Handle struct {
	loginService  *login.Service
	tenantService *tenant.Service
	coordinator   *provision.Coordinator
}

// NewHandle creates the handler set.
func NewHandle(loginService *login.Service, tenantService *tenant.Service, coordinator *provision.Coordinator) Handle {
	return Handle{
		loginService:  loginService,
		tenantService: tenantService,
		coordinator:   coordinator,
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *idmerr.Error
	if errors.As(err, &e) {
		render.Status(r, e.HTTPStatusCode())
		render.JSON(w, r, map[string]string{
			"code":    string(e.Code),
			"message": e.Message,
		})
		return
	}
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]string{"message": "internal server error"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userInfo `json:"user"`
}

type userInfo struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Roles       []string  `json:"roles"`
	TenantID    *string   `json:"tenant_id,omitempty"`
	DomainClass string    `json:"domain_class"`
	Domain      string    `json:"domain"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login handles POST /auth/login.
func (h Handle) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, idmerr.InvalidInput("body", "malformed JSON"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, idmerr.New(idmerr.ErrCodeInvalidInput, "email and password are required"))
		return
	}

	result, err := h.loginService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := loginResponse{
		Token: result.Token,
		User: userInfo{
			ID:          result.Claims.PrincipalID.String(),
			Email:       result.Claims.Email,
			Roles:       result.Claims.Roles,
			DomainClass: string(result.Claims.DomainClass),
			Domain:      result.Claims.Domain,
			ExpiresAt:   result.ExpiresAt,
		},
	}
	if result.Claims.TenantID != nil {
		s := result.Claims.TenantID.String()
		resp.User.TenantID = &s
	}
	render.JSON(w, r, resp)
}

type registerTenantRequest struct {
	CompanyName       string   `json:"company_name"`
	RegisterDomain    string   `json:"register_domain"`
	AdminEmail        string   `json:"admin_email"`
	AdminPhone        string   `json:"admin_phone,omitempty"`
	HostingPlatform   string   `json:"hosting_platform,omitempty"`
	ApplicationsUsed  []string `json:"applications_used,omitempty"`
	MonthlyOrders     int      `json:"monthly_orders,omitempty"`
	MonthlyReturns    int      `json:"monthly_returns,omitempty"`
	OperationalCities []string `json:"operational_cities,omitempty"`
}

// RegisterTenant handles POST /tenants/register.
func (h Handle) RegisterTenant(w http.ResponseWriter, r *http.Request) {
	var req registerTenantRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, idmerr.InvalidInput("body", "malformed JSON"))
		return
	}

	t, err := h.tenantService.Register(r.Context(), tenant.RegisterParams{
		CompanyName:       req.CompanyName,
		RegisterDomain:    req.RegisterDomain,
		AdminEmail:        req.AdminEmail,
		AdminPhone:        req.AdminPhone,
		HostingPlatform:   req.HostingPlatform,
		ApplicationsUsed:  req.ApplicationsUsed,
		MonthlyOrders:     req.MonthlyOrders,
		MonthlyReturns:    req.MonthlyReturns,
		OperationalCities: req.OperationalCities,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]string{
		"tenant_id": t.ID.String(),
		"message":   "registration submitted for review",
	})
}

type tenantView struct {
	ID             string    `json:"id"`
	CompanyName    string    `json:"company_name"`
	RegisterDomain string    `json:"register_domain"`
	AdminEmail     string    `json:"admin_email"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListPendingTenants handles GET /tenants/pending.
func (h Handle) ListPendingTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenantService.ListPending(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]tenantView, 0, len(tenants))
	for _, t := range tenants {
		views = append(views, tenantView{
			ID:             t.ID.String(),
			CompanyName:    t.CompanyName,
			RegisterDomain: t.RegisterDomain,
			AdminEmail:     t.AdminEmail,
			Status:         string(t.Status),
			CreatedAt:      t.CreatedAt,
		})
	}
	render.JSON(w, r, views)
}

type updateTenantStatusRequest struct {
	NewStatus        string `json:"new_status"`
	NegotiationNotes string `json:"negotiation_notes,omitempty"`
}

// UpdateTenantStatus handles PATCH /tenants/{id}/status.
func (h Handle) UpdateTenantStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, idmerr.Forbidden("access denied"))
		return
	}

	tenantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, idmerr.InvalidInput("id", "must be a UUID"))
		return
	}

	var req updateTenantStatusRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, idmerr.InvalidInput("body", "malformed JSON"))
		return
	}
	status, err := tenant.ParseStatus(req.NewStatus)
	if err != nil {
		writeError(w, r, idmerr.InvalidInput("new_status", err.Error()))
		return
	}

	t, err := h.coordinator.SetTenantStatus(r.Context(), tenantID, status, req.NegotiationNotes, claims)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{
		"message": "tenant status updated to " + string(t.Status),
	})
}

type createUserRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password,omitempty"`
	Roles    []string `json:"roles"`
	TenantID *string  `json:"tenant_id,omitempty"`
}

// CreateUser handles POST /users.
func (h Handle) CreateUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, idmerr.Forbidden("access denied"))
		return
	}

	var req createUserRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, idmerr.InvalidInput("body", "malformed JSON"))
		return
	}

	params := provision.CreateUserParams{
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	}
	if req.TenantID != nil {
		tid, err := uuid.Parse(*req.TenantID)
		if err != nil {
			writeError(w, r, idmerr.InvalidInput("tenant_id", "must be a UUID"))
			return
		}
		params.TenantID = &tid
	}

	p, err := h.coordinator.CreateUser(r.Context(), params, claims)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]string{"user_id": p.ID.String()})
}
