// Package portal is a browser facing client backend. It signs users in
// against the auth server, keeps their token pair in a session store and
// calls the resource server on their behalf.
package portal

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/jrsteele09/go-token-auth/client"
	"github.com/jrsteele09/go-token-auth/internal/config"
	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/jrsteele09/go-token-auth/internal/metrics"
	"github.com/jrsteele09/go-token-auth/session"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

const (
	RouteLogin     = "/login"
	RouteProtected = "/protected"
	RouteLogout    = "/logout"
	RouteStatic    = "/static/"

	contentTypeHTML = "text/html; charset=utf-8"
)

// Deps are the collaborators a Portal is built from.
type Deps struct {
	Store   session.Store
	Checker session.AccessChecker
	// ClientOptions are applied to every client.Client the portal creates.
	ClientOptions []client.Option
	Metrics       *metrics.Recorder // Optional
}

type Portal struct {
	appName       string
	authURL       string
	store         session.Store
	bridge        *session.Bridge
	clientOptions []client.Option
	loginTmpl     *template.Template
	handler       http.Handler
}

type loginPageData struct {
	AppName string
	Email   string
	Error   string
}

func New(cfg config.Config, deps Deps) (*Portal, error) {
	if deps.Store == nil {
		return nil, errors.New("[portal.New] session store is required")
	}
	if deps.Checker == nil {
		return nil, errors.New("[portal.New] access checker is required")
	}

	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		return nil, err
	}

	authURL := cfg.GetAuthServerURL()
	bridgeOptions := []session.BridgeOption{
		session.WithLoginRedirect(RouteLogin),
		session.WithLogger(log.Logger),
	}
	if deps.Metrics != nil {
		bridgeOptions = append(bridgeOptions, session.WithObserver(deps.Metrics))
	}
	refresher := session.ClientRefresher{BaseURL: authURL, Options: deps.ClientOptions}
	bridge, err := session.NewBridge(deps.Store, deps.Checker, refresher, bridgeOptions...)
	if err != nil {
		return nil, err
	}

	p := &Portal{
		appName:       cfg.GetAppName(),
		authURL:       authURL,
		store:         deps.Store,
		bridge:        bridge,
		clientOptions: deps.ClientOptions,
		loginTmpl:     loginTmpl,
	}
	p.handler = p.routes()
	return p, nil
}

func (p *Portal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

func (p *Portal) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+RouteLogin, p.LoginPageHandler())
	mux.HandleFunc("POST "+RouteLogin, p.LoginSubmissionHandler())
	mux.Handle("GET "+RouteProtected, p.bridge.Protect(p.ProtectedHandler()))
	mux.HandleFunc("GET "+RouteLogout, p.LogoutHandler())
	mux.Handle("GET "+RouteStatic, FileServerHandler())
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteProtected, http.StatusSeeOther)
	})

	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("response")
	})
	return hlog.NewHandler(log.Logger)(access(mux))
}

func (p *Portal) newClient(extra ...client.Option) *client.Client {
	options := append(append([]client.Option{}, p.clientOptions...), extra...)
	return client.New(p.authURL, options...)
}

// LoginPageHandler displays the login form (GET /login)
func (p *Portal) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.renderLogin(w, http.StatusOK, loginPageData{Email: r.URL.Query().Get("email")})
	}
}

// LoginSubmissionHandler exchanges the submitted credentials for a token pair
// and stores it in the session.
func (p *Portal) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		email := r.FormValue("email")
		password := r.FormValue("password")
		if email == "" || password == "" {
			p.renderLogin(w, http.StatusBadRequest, loginPageData{Email: email, Error: "Email and password are required"})
			return
		}

		pair, err := p.newClient().Login(r.Context(), email, password)
		if err != nil {
			if autherrors.KindOf(err) == autherrors.KindInvalidCredentials {
				p.renderLogin(w, http.StatusUnauthorized, loginPageData{Email: email, Error: "Invalid email or password"})
				return
			}
			log.Err(err).Msg("Login against the auth server failed")
			p.renderLogin(w, http.StatusBadGateway, loginPageData{Email: email, Error: "Sign in is unavailable, try again later"})
			return
		}

		if err := p.store.Renew(w, r, pair); err != nil {
			log.Err(err).Msg("Failed to save session")
			http.Error(w, "Failed to start session", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, RouteProtected, http.StatusSeeOther)
	}
}

// ProtectedHandler calls the resource server with the session pair. A pair
// rotated by the client along the way is written back to the session.
func (p *Portal) ProtectedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pair, _ := session.PairFromContext(r.Context())
		claims, _ := session.ClaimsFromContext(r.Context())

		c := p.newClient(client.WithTokens(pair))
		var resource map[string]any
		err := c.Get(r.Context(), RouteProtected, &resource)

		if held := c.Tokens(); c.IsAuthenticated() && held != pair {
			if saveErr := p.store.Save(w, r, held); saveErr != nil {
				log.Err(saveErr).Msg("Failed to save rotated session")
			}
		}

		if err != nil {
			if sessionUnusable(err) {
				if destroyErr := p.store.Destroy(w, r); destroyErr != nil {
					log.Err(destroyErr).Msg("Failed to destroy session")
				}
				http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
				return
			}
			log.Err(err).Msg("Resource server request failed")
			writeJSON(w, http.StatusBadGateway, map[string]string{"message": "Resource server request failed"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message":  claims.Name,
			"resource": resource,
		})
	}
}

// sessionUnusable reports whether err means the stored pair can no longer
// authenticate, as opposed to the resource server failing.
func sessionUnusable(err error) bool {
	switch autherrors.KindOf(err) {
	case autherrors.KindAuthenticationFailed,
		autherrors.KindRefreshFailed,
		autherrors.KindNoRefreshToken,
		autherrors.KindNoAccessToken:
		return true
	}
	return false
}

func (p *Portal) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := p.store.Destroy(w, r); err != nil {
			log.Err(err).Msg("Failed to destroy session")
		}
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
	}
}

func (p *Portal) renderLogin(w http.ResponseWriter, status int, data loginPageData) {
	data.AppName = p.appName
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := p.loginTmpl.Execute(w, data); err != nil {
		log.Err(err).Msg("Failed to render login template")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}
