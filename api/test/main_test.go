package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/fadhlimu/craftmarket/api"
	"github.com/fadhlimu/craftmarket/api/background"
	"github.com/fadhlimu/craftmarket/config"
	"github.com/fadhlimu/craftmarket/core/coupon"
	"github.com/fadhlimu/craftmarket/core/product"
	"github.com/fadhlimu/craftmarket/database"
	"github.com/fadhlimu/craftmarket/rate"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

const (
	adminKey      = "testadminkey"
	webhookSecret = "whsec_test"
)

var (
	pgPool *dockertest.Pool
	pgHost string
)

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Printf("connecting to docker: %v", err)
		return 1
	}
	pgPool = pool

	res, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=postgres",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Printf("starting postgres container: %v", err)
		return 1
	}
	defer func() {
		if err := pool.Purge(res); err != nil {
			log.Printf("purging postgres container: %v", err)
		}
	}()
	res.Expire(300)

	pgHost = "localhost:" + res.GetPort("5432/tcp")

	db, err := openDB("postgres")
	if err != nil {
		log.Printf("opening admin connection: %v", err)
		return 1
	}
	defer db.Close()

	if err := pool.Retry(db.Ping); err != nil {
		log.Printf("waiting for postgres: %v", err)
		return 1
	}

	return m.Run()
}

func openDB(name string) (*sqlx.DB, error) {
	return database.Open(config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       pgHost,
		Name:       name,
		DisableTLS: true,
	})
}

type TestEnv struct {
	DB            *sqlx.DB
	Server        *httptest.Server
	URL           string
	WebhookSecret string
	Paypal        *mockPaypal
	Stripe        *mockStripe

	client *http.Client
}

// NewTestEnv brings up a dedicated database plus the full API wired to fake
// payment backends, and tears everything down with the test.
func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	admin, err := openDB("postgres")
	if err != nil {
		return nil, fmt.Errorf("opening admin connection: %w", err)
	}
	defer admin.Close()

	if _, err := admin.Exec("DROP DATABASE IF EXISTS " + name); err != nil {
		return nil, fmt.Errorf("dropping database %s: %w", name, err)
	}
	if _, err := admin.Exec("CREATE DATABASE " + name); err != nil {
		return nil, fmt.Errorf("creating database %s: %w", name, err)
	}

	db, err := openDB(name)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", name, err)
	}

	if err := pgPool.Retry(db.Ping); err != nil {
		return nil, fmt.Errorf("waiting for database %s: %w", name, err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating database %s: %w", name, err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ppMock := &mockPaypal{}
	ppSrv := httptest.NewServer(ppMock.handle())

	pp, err := paypal.NewClient("test-client", "test-secret", ppSrv.URL)
	if err != nil {
		return nil, fmt.Errorf("building paypal client: %w", err)
	}

	stMock := &mockStripe{}
	stSrv := httptest.NewServer(stMock.handle())

	strp := &stripecl.API{}
	strp.Init("sk_test_craftmarket", &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL: stripe.String(stSrv.URL),
		}),
	})

	session := scs.New()
	session.Lifetime = time.Hour

	bg := background.New(logger)

	mux := api.APIMux(api.APIConfig{
		Log:         logger,
		DB:          db,
		Session:     session,
		Coupons:     coupon.DefaultTable(),
		AdminAPIKey: adminKey,
		CouponLimit: rate.NewLimiter(1000, time.Hour, 1000),
		Background:  bg,
		Paypal:      pp,
		Stripe:      strp,
		StripeCfg: config.Stripe{
			APISecret:     "sk_test_craftmarket",
			WebhookSecret: webhookSecret,
			SuccessURL:    "http://localhost/success",
			CancelURL:     "http://localhost/canceled",
		},
	})

	srv := httptest.NewServer(mux)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("building cookie jar: %w", err)
	}

	env := &TestEnv{
		DB:            db,
		Server:        srv,
		URL:           srv.URL,
		WebhookSecret: webhookSecret,
		Paypal:        ppMock,
		Stripe:        stMock,
		client:        &http.Client{Jar: jar},
	}

	t.Cleanup(func() {
		srv.Close()
		ppSrv.Close()
		stSrv.Close()
		db.Close()
	})

	return env, nil
}

// Client returns the cookie-carrying client that plays the browser session.
func (e *TestEnv) Client() *http.Client {
	return e.client
}

// FreshClient simulates a different browser with no session cookie.
func (e *TestEnv) FreshClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

func (e *TestEnv) createProductOK(t *testing.T, pn product.ProductNew) product.Product {
	t.Helper()

	b, err := json.Marshal(pn)
	if err != nil {
		t.Fatal(err)
	}

	r, err := http.NewRequest(http.MethodPost, e.URL+"/products", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("api_key", adminKey)

	w, err := e.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusCreated {
		t.Fatalf("can't create product: status code %s", w.Status)
	}

	var p product.Product
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("cannot unmarshal created product: %v", err)
	}
	return p
}
