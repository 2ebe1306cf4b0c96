// Package huggingface resolves the Hugging Face access token the pyannote
// diarization backend needs and checks that the token can read the gated
// pyannote models.
package huggingface

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jbousquie/whisperx-api/util"
	"github.com/jbousquie/whisperx-api/version"
)

const (
	// DefaultBaseURL is the Hugging Face Hub.
	DefaultBaseURL = "https://huggingface.co"

	defaultTimeout = 15 * time.Second
)

// Environment variables consulted for the token, in order.
var TokenEnvVars = []string{"HF_TOKEN", "HUGGINGFACE_TOKEN"}

// RequiredModels are the gated repositories diarization loads.
var RequiredModels = []string{
	"pyannote/segmentation",
	"pyannote/speaker-diarization",
	"pyannote/speaker-diarization-3.1",
}

// Token returns explicit when set, otherwise the first non-empty token
// environment variable. Surrounding quotes and whitespace are stripped.
func Token(explicit string) string {
	values := []string{util.SanitizeEnvValue(explicit)}
	for _, name := range TokenEnvVars {
		values = append(values, util.SanitizeEnvValue(os.Getenv(name)))
	}
	return util.Coalesce(values...)
}

// Access is the result of checking one model.
type Access struct {
	Model   string `json:"model"`
	Granted bool   `json:"granted"`
	Status  int    `json:"status"`
	Error   string `json:"error,omitempty"`
}

// ConditionsURL is the page where the model's user conditions are accepted.
func (a Access) ConditionsURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + a.Model
}

// Checker queries the Hub model API with a bearer token.
type Checker struct {
	BaseURL string
	token   string
	http    *http.Client
}

// NewChecker creates a Checker for token against baseURL (DefaultBaseURL
// when empty).
func NewChecker(baseURL, token string) *Checker {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Checker{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Check reports whether the token can read model. Only a 200 grants access;
// transport failures are returned in Access.Error.
func (c *Checker) Check(ctx context.Context, model string) Access {
	a := Access{Model: model}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/models/"+model, nil)
	if err != nil {
		a.Error = err.Error()
		return a
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", version.UserAgent("whisperx-api"))

	resp, err := c.http.Do(req)
	if err != nil {
		a.Error = err.Error()
		return a
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	a.Status = resp.StatusCode
	a.Granted = resp.StatusCode == http.StatusOK
	if !a.Granted {
		a.Error = fmt.Sprintf("hub returned %d", resp.StatusCode)
	}
	return a
}

// CheckAll checks every model in order.
func (c *Checker) CheckAll(ctx context.Context, models []string) []Access {
	out := make([]Access, 0, len(models))
	for _, m := range models {
		out = append(out, c.Check(ctx, m))
	}
	return out
}
