// Package health verifies a managed service from the outside in: process
// liveness, port binding, then protocol-level probes against two
// well-known endpoints. Every check is bounded; the prober can never hang
// a health command indefinitely.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/clawdchat/mcpctl/internal/probe"
	"github.com/clawdchat/mcpctl/internal/record"
	"github.com/clawdchat/mcpctl/internal/supervisor"
)

// Verdict is one advisory check outcome.
type Verdict string

const (
	Pass Verdict = "pass"
	Warn Verdict = "warn"
	Fail Verdict = "fail"
)

// Status is the overall health classification.
type Status string

const (
	Healthy   Status = "healthy"
	Degraded  Status = "degraded"
	Unhealthy Status = "unhealthy"
)

// Check is one named probe result with the evidence behind it.
type Check struct {
	Name    string  `json:"name"`
	Verdict Verdict `json:"verdict"`
	Detail  string  `json:"detail"`
}

// Report is the composed health verdict.
type Report struct {
	Overall Status  `json:"overall"`
	Checks  []Check `json:"checks"`
}

// probeTimeout bounds each protocol-level request.
const probeTimeout = 3 * time.Second

// metadataPath is the unauthenticated OAuth metadata endpoint the server
// answers with a success status.
const metadataPath = "/.well-known/oauth-authorization-server"

// Prober runs the three checks against one service spec.
type Prober struct {
	spec   supervisor.Spec
	probe  probe.Prober
	client *http.Client
}

func New(spec supervisor.Spec) *Prober {
	return &Prober{
		spec:   spec,
		probe:  probe.OS{},
		client: &http.Client{Timeout: probeTimeout},
	}
}

// Check runs liveness, port and protocol probes in order. A dead process
// or an unbound port is Unhealthy and short-circuits the protocol probes;
// an unreachable endpoint is only a warning since the service may still be
// mid-startup or firewalled.
func (p *Prober) Check(ctx context.Context) (*Report, error) {
	rep := &Report{Overall: Healthy}

	rec, err := record.Load(p.spec.PIDFile)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rep.Checks = append(rep.Checks, Check{Name: "process", Verdict: Fail, Detail: "no pid record"})
		rep.Overall = Unhealthy
		return rep, nil
	}
	if !p.probe.Alive(rec.PID) {
		rep.Checks = append(rep.Checks, Check{
			Name: "process", Verdict: Fail,
			Detail: fmt.Sprintf("recorded pid %d is not running", rec.PID),
		})
		rep.Overall = Unhealthy
		return rep, nil
	}
	rep.Checks = append(rep.Checks, Check{
		Name: "process", Verdict: Pass,
		Detail: fmt.Sprintf("pid %d alive", rec.PID),
	})

	holders, err := p.probe.PortHolders(p.spec.Host, p.spec.Port)
	if err != nil {
		return nil, fmt.Errorf("scan port %s: %w", p.spec.Addr(), err)
	}
	if len(holders) == 0 {
		rep.Checks = append(rep.Checks, Check{
			Name: "port", Verdict: Fail,
			Detail: fmt.Sprintf("nothing listening on %s", p.spec.Addr()),
		})
		rep.Overall = Unhealthy
		return rep, nil
	}
	rep.Checks = append(rep.Checks, Check{
		Name: "port", Verdict: Pass,
		Detail: fmt.Sprintf("%s bound by pid(s) %v", p.spec.Addr(), holders),
	})

	rep.Checks = append(rep.Checks, p.httpProbe(ctx, "metadata", p.spec.URL+metadataPath, acceptSuccess))
	rep.Checks = append(rep.Checks, p.httpProbe(ctx, "mcp-endpoint", p.spec.Endpoint(), acceptAuthRequired))

	for _, c := range rep.Checks {
		if c.Verdict == Warn && rep.Overall == Healthy {
			rep.Overall = Degraded
		}
	}
	return rep, nil
}

func acceptSuccess(code int) bool { return code >= 200 && code < 300 }

// acceptAuthRequired: the protected endpoint answering 401 proves the
// protocol layer is up and authentication is enforced.
func acceptAuthRequired(code int) bool { return code == http.StatusUnauthorized }

// httpProbe is advisory: an unreachable endpoint or unexpected status is a
// warning, never a hard failure on its own.
func (p *Prober) httpProbe(ctx context.Context, name, url string, accept func(int) bool) Check {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Check{Name: name, Verdict: Warn, Detail: err.Error()}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Check{Name: name, Verdict: Warn, Detail: fmt.Sprintf("unreachable: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()
	if !accept(resp.StatusCode) {
		return Check{Name: name, Verdict: Warn, Detail: fmt.Sprintf("%s answered %d", url, resp.StatusCode)}
	}
	return Check{Name: name, Verdict: Pass, Detail: fmt.Sprintf("%s answered %d", url, resp.StatusCode)}
}
