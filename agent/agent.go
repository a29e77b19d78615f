package agent

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"strings"
	"time"

	v1 "github.com/erikmagkekse/nfs-exports/agent/api/v1"
	"github.com/erikmagkekse/nfs-exports/agent/share"
	"github.com/erikmagkekse/nfs-exports/agent/share/nfs"
	"github.com/erikmagkekse/nfs-exports/model"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog/log"
)

type Agent struct {
	cfg     *model.AgentConfig
	version string
	commit  string
	server  *http.Server
}

func NewAgent(cfg *model.AgentConfig, version, commit string) *Agent {
	return &Agent{cfg: cfg, version: version, commit: commit}
}

// Start registers the NFS manager, starts the periodic committer and serves the
// API until ctx is done.
func (a *Agent) Start(ctx context.Context) error {
	tokens := parseTokens(a.cfg.Tokens)
	if len(tokens) == 0 {
		return errors.New("AGENT_TOKENS must contain at least one name:token pair")
	}

	mgr := nfs.NewManager(&a.cfg.Config, nil)
	reg := share.NewRegistry()
	if err := mgr.Register(reg); err != nil {
		return err
	}

	e := echo.New()
	v1.Routes(e, &v1.Handler{Registry: reg, NFS: mgr}, tokens, a.version, a.commit)

	if a.cfg.CommitInterval > 0 {
		mgr.StartCommitter(ctx, a.cfg.CommitInterval)
	}

	a.server = &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("agent shutdown failed")
		}
	}()

	var err error
	if a.cfg.TLSCert != "" && a.cfg.TLSKey != "" {
		a.server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		log.Info().Str("addr", a.cfg.ListenAddr).Str("exports", a.cfg.ExportsFile).Msg("starting agent with TLS")
		err = a.server.ListenAndServeTLS(a.cfg.TLSCert, a.cfg.TLSKey)
	} else {
		log.Warn().Str("addr", a.cfg.ListenAddr).Str("exports", a.cfg.ExportsFile).Msg("starting agent without TLS - set AGENT_TLS_CERT and AGENT_TLS_KEY for production")
		err = a.server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// parseTokens parses "name:token,name:token" into map[token]name.
// Returns nil if input is empty.
func parseTokens(s string) map[string]string {
	if s == "" {
		return nil
	}
	m := make(map[string]string)
	for _, entry := range strings.Split(s, ",") {
		name, token, ok := strings.Cut(strings.TrimSpace(entry), ":")
		name, token = strings.TrimSpace(name), strings.TrimSpace(token)
		if ok && name != "" && token != "" {
			m[token] = name
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
