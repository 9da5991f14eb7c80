package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/nimasrn/invite-gateway/internal/repository"
	"github.com/nimasrn/invite-gateway/pkg/pg"
	"github.com/nimasrn/invite-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func SetupTestDB(t *testing.T) *pg.DB {
	return repository.SetupTestDB(t)
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr := miniredis.RunT(t)

	// adapters are cached by name, every test needs its own
	connName := fmt.Sprintf("test-%d", time.Now().UnixNano())
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func SeedTables(t *testing.T, db *pg.DB, tables ...model.Table) {
	ctx := context.Background()
	for _, tbl := range tables {
		e := &repository.TableEntity{
			ID:       tbl.ID,
			Number:   tbl.Number,
			Type:     string(tbl.Type),
			Capacity: tbl.Capacity,
			Location: tbl.Location,
			Status:   string(tbl.Status),
		}
		require.NoError(t, db.Write(ctx).Create(e).Error)
	}
}

func CreateTestPurchase(t *testing.T, db *pg.DB, p *model.Purchase) *model.Purchase {
	created, err := repository.NewPurchaseRepository(db).Create(context.Background(), p)
	require.NoError(t, err)
	return created
}

// StubGateway answers the provider endpoints from a map of canned payment
// bodies. Payment ids are assigned in creation order starting at 1001.
type StubGateway struct {
	Server *httptest.Server

	mu       sync.Mutex
	payments map[string]string
	refs     map[string][]string
	status   string
	nextID   int
	requests []string
}

func NewStubGateway(t *testing.T, createStatus model.PurchaseStatus) *StubGateway {
	g := &StubGateway{
		payments: make(map[string]string),
		refs:     make(map[string][]string),
		status:   string(createStatus),
		nextID:   1000,
	}
	g.Server = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.Server.Close)
	return g
}

func (g *StubGateway) URL() string {
	return g.Server.URL
}

// SetPayment replaces the body returned for a payment id.
func (g *StubGateway) SetPayment(id string, status model.PurchaseStatus, reference string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.payments[id]; !ok {
		g.refs[reference] = append(g.refs[reference], id)
	}
	g.payments[id] = paymentBody(id, string(status), reference)
}

func (g *StubGateway) Requests() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.requests...)
}

func (g *StubGateway) serve(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, r.Method+" "+r.URL.Path)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/payments":
		var body struct {
			ExternalReference string `json:"external_reference"`
		}
		if err := decode(r, &body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		g.nextID++
		id := fmt.Sprint(g.nextID)
		g.payments[id] = paymentBody(id, g.status, body.ExternalReference)
		g.refs[body.ExternalReference] = append(g.refs[body.ExternalReference], id)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, g.payments[id])

	case r.Method == http.MethodGet && r.URL.Path == "/v1/payments/search":
		ids := g.refs[r.URL.Query().Get("external_reference")]
		results := make([]string, 0, len(ids))
		for i := len(ids) - 1; i >= 0; i-- {
			results = append(results, g.payments[ids[i]])
		}
		fmt.Fprintf(w, `{"results":[%s]}`, strings.Join(results, ","))

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/payments/"):
		body, ok := g.payments[strings.TrimPrefix(r.URL.Path, "/v1/payments/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"payment not found"}`)
			return
		}
		fmt.Fprint(w, body)

	case r.Method == http.MethodPost && r.URL.Path == "/checkout/preferences":
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"pref-1","init_point":"https://checkout/pref-1"}`)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func paymentBody(id, status, reference string) string {
	return fmt.Sprintf(`{"id":%s,"status":%q,"external_reference":%q,"point_of_interaction":{"transaction_data":{"qr_code":"qr-%s","qr_code_base64":"b64-%s"}}}`,
		id, status, reference, id, id)
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}
