package routes

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-uc2-dashboard/api"
	"auto-uc2-dashboard/controllers"
	"auto-uc2-dashboard/models"
	"auto-uc2-dashboard/navigation"
	"auto-uc2-dashboard/negotiation"
	"auto-uc2-dashboard/realtime"
	"auto-uc2-dashboard/services"
	"auto-uc2-dashboard/session"
	"auto-uc2-dashboard/ui"
)

// upstream fakes the backend REST API.
type upstream struct {
	mu     sync.Mutex
	routes map[string]string
	hits   map[string]int
	auth   map[string]string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + strings.TrimPrefix(r.URL.RequestURI(), "/api/v1")
	u.mu.Lock()
	u.hits[key]++
	u.auth[key] = r.Header.Get("Authorization")
	body, ok := u.routes[key]
	u.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"status":"fail","message":"no route `+key+`"}`)
		return
	}
	io.WriteString(w, body)
}

func (u *upstream) count(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[key]
}

// quietChannel is an always-connected push channel that never delivers.
type quietChannel struct {
	mu    sync.Mutex
	emits []string
}

func (q *quietChannel) Connected() bool                          { return true }
func (q *quietChannel) Join(string) error                        { return nil }
func (q *quietChannel) Leave(string) error                       { return nil }
func (q *quietChannel) On(string, realtime.Handler) (off func()) { return func() {} }
func (q *quietChannel) Emit(event string, _ any) error {
	q.mu.Lock()
	q.emits = append(q.emits, event)
	q.mu.Unlock()
	return nil
}

type harness struct {
	router   *gin.Engine
	up       *upstream
	sessions *session.Manager
	toasts   *ui.Toasts
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	up := &upstream{hits: map[string]int{}, auth: map[string]string{}, routes: map[string]string{
		"POST /auth/login":                 `{"status":"success","token":"tok-admin","data":{"user":{"_id":"u1","name":"Ada","role":"admin"}}}`,
		"POST /auth/logout":                `{"status":"success"}`,
		"GET /admin/system/health":         `{"status":"success","uptime":12.5}`,
		"GET /dashboard/overview":          `{"status":"success","data":{"stats":{"inventory":12,"activeNegotiations":3,"activeClients":7},"recentActivity":[{"_id":"c1","client":{"firstName":"Jean","lastName":"Dupont"},"vehicle":{"make":"Renault","model":"Clio"},"messages":[{"content":"bonjour"}],"updatedAt":"2024-05-01T10:00:00Z"}]}}`,
		"GET /vehicles":                    `{"status":"success","data":{"vehicles":[{"_id":"v1","make":"Renault","model":"Clio","year":2020,"price":15000,"status":"available"}]}}`,
		"DELETE /vehicles/v1":              `{}`,
		"GET /conversations":               `{"status":"success","data":{"conversations":[{"_id":"c1","client":{"_id":"cl1","firstName":"Jean","lastName":"Dupont"},"agent":"u1","vehicleId":"v1","isAiNegotiation":true,"lastMessage":"bonjour","lastMessageAt":"2024-05-01T10:00:00Z"}]}}`,
		"GET /conversations/c1/messages":   `{"status":"success","data":{"messages":[{"_id":"m1","sender":{"_id":"cl1"},"origin":"human","content":"bonjour","createdAt":"2024-05-01T10:00:00Z"}]}}`,
		"POST /conversations/c1/messages":  `{"status":"success","data":{"message":{"_id":"m2","sender":{"_id":"u1"},"origin":"human","content":"prix ?","createdAt":"2024-05-01T10:01:00Z"}}}`,
		"POST /admin/users/u2/impersonate": `{"status":"success","token":"tok-client","data":{"user":{"_id":"u2","name":"Cli","role":"client"}}}`,
	}}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewManager(session.NewMemoryStore(), logger)
	client := api.New(srv.URL+"/api/v1", sessions)
	deps := services.Deps{API: client, Logger: logger}
	toasts := ui.NewToasts()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ws := controllers.NewWSManager(logger)
	go ws.Start(ctx)

	ch := &quietChannel{}
	conversations := services.NewConversations(client)
	neg := controllers.NewNegotiationController(func(me string) *negotiation.Session {
		return negotiation.NewSession(conversations, ch, toasts, logger, negotiation.Config{
			Options:         negotiation.Options{Me: me},
			TypingQuiet:     20 * time.Millisecond,
			AutoSelectFirst: true,
		})
	}, ws, logger)
	t.Cleanup(neg.Unbind)
	sessions.OnChange(func(s session.Session, in bool) {
		if in {
			neg.Bind(ctx, s.User.ID)
		} else {
			neg.Unbind()
		}
	})

	vehicles := services.NewVehicles(deps)
	clients := services.NewClients(deps)
	h := Controllers{
		Auth:        controllers.NewAuthController(services.NewAuth(deps), sessions, navigation.NewSidebar()),
		Dashboard:   controllers.NewDashboardController(services.NewDashboard(deps)),
		Negotiation: neg,
		Vehicles:    controllers.NewVehicleController(vehicles, services.NewSearcher[models.Vehicle](vehicles.List, vehicles.Search, 0, 2), sessions),
		Clients:     controllers.NewClientController(clients, services.NewSearcher[models.Client](clients.List, clients.Search, 0, 2)),
		Admin:       controllers.NewAdminController(services.NewAgencies(deps), services.NewSystem(deps)),
		Users:       controllers.NewUserController(services.NewUsers(deps), sessions),
		WS:          controllers.NewWSController(ws, neg),
	}
	return &harness{router: RegisterRoutes(h, sessions, []string{"*"}, logger), up: up, sessions: sessions, toasts: toasts}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (h *harness) do(t *testing.T, method, target, body string, headers ...string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	code, _ := h.do(t, http.MethodPost, "/api/login", `{"email":"ada@x.io","password":"pw"}`)
	require.Equal(t, http.StatusOK, code)
}

func TestPublicAndProtected(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := h.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, code)
	var health models.SystemHealth
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "ok", health.Status)

	code, env = h.do(t, http.MethodGet, "/api/routes?path=/vehicles", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `"/login"`, string(mustField(t, env.Data, "target")))
}

func TestLoginStoresSessionAndAttachesToken(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	assert.Equal(t, "tok-admin", h.sessions.Token())
	code, env := h.do(t, http.MethodGet, "/api/me", "")
	require.Equal(t, http.StatusOK, code)
	var me models.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, models.RoleAdmin, me.Role)

	code, _ = h.do(t, http.MethodGet, "/api/vehicles", "")
	require.Equal(t, http.StatusOK, code)
	h.up.mu.Lock()
	assert.Equal(t, "Bearer tok-admin", h.up.auth["GET /vehicles"])
	h.up.mu.Unlock()

	code, env = h.do(t, http.MethodGet, "/api/menu?path=/admin/users", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "Infrastructure")
	assert.NotContains(t, string(env.Data), "Espace Client")

	code, _ = h.do(t, http.MethodPost, "/api/logout", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, h.sessions.Token())
	code, _ = h.do(t, http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestDestructiveRequiresConfirmation(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	code, env := h.do(t, http.MethodDelete, "/api/vehicles/v1", "")
	assert.Equal(t, http.StatusPreconditionRequired, code)
	assert.NotEmpty(t, env.Message)
	assert.Zero(t, h.up.count("DELETE /vehicles/v1"))

	code, _ = h.do(t, http.MethodDelete, "/api/vehicles/v1", "", "X-Confirm", "true")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, h.up.count("DELETE /vehicles/v1"))
}

func TestAdminGroupIsRoleGated(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	code, env := h.do(t, http.MethodPost, "/api/users/u2/impersonate", "")
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "tok-client", h.sessions.Token())
	assert.Equal(t, models.RoleClient, h.sessions.Role())

	code, _ = h.do(t, http.MethodGet, "/api/system/health", "")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestUpstreamErrorsKeepTheirStatus(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	code, env := h.do(t, http.MethodGet, "/api/clients", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "no route GET /clients", env.Message)
}

func TestSavedVehicles(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	code, env := h.do(t, http.MethodPost, "/api/vehicles/v1/save", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `true`, string(mustField(t, env.Data, "saved")))

	code, env = h.do(t, http.MethodGet, "/api/saved-vehicles", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["v1"]`, string(env.Data))
}

func TestNegotiationFlow(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	var view controllers.NegotiationView
	require.Eventually(t, func() bool {
		code, env := h.do(t, http.MethodGet, "/api/negotiation", "")
		if code != http.StatusOK {
			return false
		}
		view = controllers.NegotiationView{}
		_ = json.Unmarshal(env.Data, &view)
		return view.Selected == "c1" && len(view.Transcript) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "Jean Dupont", view.Conversations[0].Client.Name)

	code, _ := h.do(t, http.MethodPost, "/api/conversations/other/messages", `{"content":"x"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, env := h.do(t, http.MethodPost, "/api/conversations/c1/messages", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, code, env.Message)

	code, env = h.do(t, http.MethodPost, "/api/conversations/c1/messages", `{"content":"prix ?"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Transcript, 2)
	assert.Equal(t, "prix ?", view.Transcript[1].Content)

	code, _ = h.do(t, http.MethodDelete, "/api/conversations/c1", "")
	assert.Equal(t, http.StatusPreconditionRequired, code)
	assert.Zero(t, h.up.count("DELETE /conversations/c1"))
}

func TestDashboardOverview(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	code, env := h.do(t, http.MethodGet, "/api/dashboard/overview", "")
	require.Equal(t, http.StatusOK, code, env.Message)
	var o models.DashboardOverview
	require.NoError(t, json.Unmarshal(env.Data, &o))
	assert.Equal(t, 12, o.Stats.Inventory)
	assert.Equal(t, 3, o.Stats.ActiveNegotiations)
	require.Len(t, o.RecentActivity, 1)
	assert.Equal(t, "Jean Dupont", o.RecentActivity[0].ClientName)
	assert.Equal(t, "Renault Clio", o.RecentActivity[0].Vehicle)
	require.Len(t, o.Vehicles, 1)
}

func TestStartAIReusesOpenNegotiation(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	code, _ := h.do(t, http.MethodPost, "/api/negotiations/ai", `{"vehicleId":"  "}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := h.do(t, http.MethodPost, "/api/negotiations/ai", `{"vehicleId":"v1","vehicleName":"Renault Clio","agencyId":"a1"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.JSONEq(t, `true`, string(mustField(t, env.Data, "reused")))
	assert.JSONEq(t, `"c1"`, string(mustField(t, mustField(t, env.Data, "conversation"), "id")))
	assert.Zero(t, h.up.count("POST /conversations"))
}

func mustField(t *testing.T, raw json.RawMessage, key string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	v, ok := m[key]
	require.True(t, ok, "missing %s in %s", key, raw)
	return v
}
