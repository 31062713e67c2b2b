package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DaytonaConfig configures the HTTP adapter to the Daytona sandbox
// vendor API named explicitly in spec.md §6 (DAYTONA_API_KEY). No
// Daytona SDK is present anywhere in the retrieved example pack, and no
// HTTP client library appears in the pack for talking to any vendor
// API — every such adapter in the teacher (e.g. core/pkg/config.go's
// LLMServiceURL) is a plain net/http.Client call, so that is the idiom
// followed here.
type DaytonaConfig struct {
	BaseURL          string
	APIKey           string
	Region           string
	PreserveSandboxes bool // DAYTONA_PRESERVE_SANDBOXES: skip destroy for debugging
	HTTPClient       *http.Client
}

// DaytonaExecutor talks to the Daytona REST API to provision, run
// programs in, and tear down ephemeral sandboxes.
type DaytonaExecutor struct {
	cfg DaytonaConfig
}

// NewDaytonaExecutor builds an Executor backed by the Daytona API.
func NewDaytonaExecutor(cfg DaytonaConfig) *DaytonaExecutor {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &DaytonaExecutor{cfg: cfg}
}

type createSandboxRequest struct {
	Region         string `json:"region,omitempty"`
	NetworkEnabled bool   `json:"network_enabled"`
	AutoStopIdle   string `json:"auto_stop_idle"`
}

type createSandboxResponse struct {
	ID string `json:"id"`
}

func (d *DaytonaExecutor) CreateEphemeral(ctx context.Context) (Handle, error) {
	body, _ := json.Marshal(createSandboxRequest{
		Region:         d.cfg.Region,
		NetworkEnabled: false,
		AutoStopIdle:   "60s",
	})

	resp, err := d.doJSON(ctx, http.MethodPost, "/sandboxes", body)
	if err != nil {
		return Handle{}, &Error{Code: ErrCreateFailed, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return Handle{}, &Error{Code: ErrCreateFailed, Message: fmt.Sprintf("daytona create returned status %d", resp.StatusCode)}
	}

	var created createSandboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return Handle{}, &Error{Code: ErrCreateFailed, Message: "malformed create response: " + err.Error()}
	}
	if created.ID == "" {
		return Handle{}, &Error{Code: ErrCreateFailed, Message: "daytona returned empty sandbox id"}
	}
	return Handle{ID: created.ID}, nil
}

type execRequest struct {
	Program string `json:"program"`
	Stdin   string `json:"stdin,omitempty"`
	// TimeoutSeconds bounds server-side execution; the client also
	// enforces its own context deadline as a second line of defense.
	TimeoutSeconds int `json:"timeout_seconds"`
}

type execResponse struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

func (d *DaytonaExecutor) Run(ctx context.Context, h Handle, program string, stdin string, timeout time.Duration) (RunResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, _ := json.Marshal(execRequest{
		Program:        program,
		Stdin:          stdin,
		TimeoutSeconds: int(timeout.Seconds()),
	})

	resp, err := d.doJSON(runCtx, http.MethodPost, fmt.Sprintf("/sandboxes/%s/exec", h.ID), body)
	if err != nil {
		if runCtx.Err() != nil {
			return RunResult{}, &Error{Code: ErrTimeout, Message: fmt.Sprintf("execution exceeded %s", timeout)}
		}
		return RunResult{}, &Error{Code: ErrRunTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return RunResult{}, &Error{Code: ErrRunTransport, Message: fmt.Sprintf("daytona exec returned status %d", resp.StatusCode)}
	}

	var out execResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return RunResult{}, &Error{Code: ErrRunTransport, Message: "malformed exec response: " + err.Error()}
	}

	return RunResult{ExitCode: out.ExitCode, Stdout: out.Stdout, Stderr: out.Stderr}, nil
}

func (d *DaytonaExecutor) Destroy(ctx context.Context, h Handle) error {
	if d.cfg.PreserveSandboxes {
		return nil
	}
	resp, err := d.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/sandboxes/%s", h.ID), nil)
	if err != nil {
		return &Error{Code: ErrDestroyFailed, Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return &Error{Code: ErrDestroyFailed, Message: fmt.Sprintf("daytona destroy returned status %d", resp.StatusCode)}
	}
	return nil
}

func (d *DaytonaExecutor) doJSON(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, d.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.cfg.APIKey)
	return d.cfg.HTTPClient.Do(req)
}
